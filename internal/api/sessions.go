package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"docwiz/internal/export"
	"docwiz/internal/outline"
	"docwiz/internal/wizard"
)

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	JSON(w, http.StatusCreated, s.View())
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, s.View())
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) submitTopic(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var topic outline.Topic
	if !decode(w, r, &topic) {
		return
	}
	if err := s.SubmitTopic(r.Context(), h.topicDefaults(topic)); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, s.View())
}

func (h *Handler) next(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*wizard.Session).Next)
}

func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, (*wizard.Session).Back)
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, move func(*wizard.Session) (wizard.Step, error)) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := move(s); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, s.View())
}

func (h *Handler) replaceOutline(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var doc outline.Outline
	if !decode(w, r, &doc) {
		return
	}
	if _, err := s.ReplaceOutline(doc); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, s.View())
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	md, err := s.Preview()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(md))
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("format")
	if name == "" {
		name = s.Topic().OutputFormat
	}
	if name == "" {
		name = string(export.FormatPDF)
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	art, err := s.Export(format)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	_, _ = w.Write(art.Data)
}

func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var since uint64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			Error(w, http.StatusBadRequest, "since must be a sequence number")
			return
		}
		since = n
	}
	JSON(w, http.StatusOK, map[string]interface{}{"events": s.Feed().Since(since)})
}
