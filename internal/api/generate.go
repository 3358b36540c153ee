package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// generateOne waits for the single request to finish.
func (h *Handler) generateOne(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.GenerateOne(r.Context(), chi.URLParam(r, "sid"), chi.URLParam(r, "tid")); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, s.View())
}

// generateAll starts a bulk run and returns immediately. Progress arrives on
// the event stream.
func (h *Handler) generateAll(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.StartGenerateAll(); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusAccepted, s.View())
}
