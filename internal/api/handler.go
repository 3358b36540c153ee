// Package api provides the HTTP and websocket surface of the document
// wizard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docwiz/internal/export"
	"docwiz/internal/fill"
	"docwiz/internal/outline"
	"docwiz/internal/wizard"
)

// Handler serves every session route.
type Handler struct {
	sessions      *wizard.Manager
	topicDefaults func(outline.Topic) outline.Topic
	originPattern []string
	logger        *slog.Logger
}

type Options struct {
	// TopicDefaults fills in configured defaults before a topic is
	// submitted.
	TopicDefaults func(outline.Topic) outline.Topic
	// OriginPatterns are passed to the websocket handshake.
	OriginPatterns []string
	Logger         *slog.Logger
}

func NewHandler(sessions *wizard.Manager, opts Options) *Handler {
	h := &Handler{
		sessions:      sessions,
		topicDefaults: opts.TopicDefaults,
		originPattern: opts.OriginPatterns,
		logger:        opts.Logger,
	}
	if h.topicDefaults == nil {
		h.topicDefaults = outline.Topic.Normalize
	}
	if len(h.originPattern) == 0 {
		h.originPattern = []string{"*"}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound),
		errors.Is(err, wizard.ErrSessionClosed),
		errors.Is(err, fill.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fill.ErrBusy),
		errors.Is(err, wizard.ErrGuard),
		errors.Is(err, wizard.ErrNoOutline):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrInvalidTopic),
		errors.Is(err, outline.ErrInvalid),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, fill.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	Error(w, status, err.Error())
}

// session resolves the {id} route parameter.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return s, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// RegisterRoutes mounts the session API and the event stream on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.deleteSession)
			r.Post("/topic", h.submitTopic)
			r.Post("/next", h.next)
			r.Post("/back", h.back)
			r.Put("/outline", h.replaceOutline)
			r.Post("/generate", h.generateAll)
			r.Get("/preview", h.preview)
			r.Get("/export", h.export)
			r.Get("/events", h.events)

			r.Post("/sections", h.addSection)
			r.Route("/sections/{sid}", func(r chi.Router) {
				r.Patch("/", h.renameSection)
				r.Delete("/", h.deleteSection)
				r.Post("/toggle", h.toggleSection)
				r.Post("/move", h.moveSection)
				r.Post("/subtopics", h.addSubtopic)
				r.Route("/subtopics/{tid}", func(r chi.Router) {
					r.Patch("/", h.updateSubtopic)
					r.Delete("/", h.deleteSubtopic)
					r.Post("/toggle", h.toggleSubtopic)
					r.Post("/move", h.moveSubtopic)
					r.Post("/generate", h.generateOne)
				})
			})
		})
	})
	r.Get("/ws/sessions/{id}", h.stream)
}
