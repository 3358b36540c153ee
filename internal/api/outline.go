package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"docwiz/internal/outline"
)

type titleRequest struct {
	Title string `json:"title"`
}

type subtopicPatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type moveRequest struct {
	Direction string `json:"direction"`
}

// edit applies fn to the session outline and replies with the new view.
// Unknown ids are silent no-ops, as in the outline package.
func (h *Handler) edit(w http.ResponseWriter, r *http.Request, fn func(outline.Outline) outline.Outline) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := s.Edit(fn); err != nil {
		h.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, s.View())
}

func (h *Handler) addSection(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, outline.AddSection)
}

func (h *Handler) renameSection(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if !decode(w, r, &req) {
		return
	}
	sid := chi.URLParam(r, "sid")
	h.edit(w, r, func(o outline.Outline) outline.Outline {
		return outline.RenameSection(o, sid, req.Title)
	})
}

func (h *Handler) deleteSection(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	h.edit(w, r, func(o outline.Outline) outline.Outline {
		return outline.DeleteSection(o, sid)
	})
}

func (h *Handler) toggleSection(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	h.edit(w, r, func(o outline.Outline) outline.Outline {
		return outline.ToggleSectionSelection(o, sid)
	})
}

func (h *Handler) moveSection(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	sid := chi.URLParam(r, "sid")
	switch req.Direction {
	case "up":
		h.edit(w, r, func(o outline.Outline) outline.Outline { return outline.MoveSectionUp(o, sid) })
	case "down":
		h.edit(w, r, func(o outline.Outline) outline.Outline { return outline.MoveSectionDown(o, sid) })
	default:
		Error(w, http.StatusBadRequest, `direction must be "up" or "down"`)
	}
}

func (h *Handler) addSubtopic(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	h.edit(w, r, func(o outline.Outline) outline.Outline {
		return outline.AddSubtopic(o, sid)
	})
}

func (h *Handler) updateSubtopic(w http.ResponseWriter, r *http.Request) {
	var req subtopicPatch
	if !decode(w, r, &req) {
		return
	}
	if req.Title == nil && req.Content == nil {
		Error(w, http.StatusBadRequest, "title or content is required")
		return
	}
	sid, tid := chi.URLParam(r, "sid"), chi.URLParam(r, "tid")
	h.edit(w, r, func(o outline.Outline) outline.Outline {
		if req.Title != nil {
			o = outline.RenameSubtopic(o, sid, tid, *req.Title)
		}
		if req.Content != nil {
			o = outline.SetSubtopicContent(o, sid, tid, *req.Content)
		}
		return o
	})
}

func (h *Handler) deleteSubtopic(w http.ResponseWriter, r *http.Request) {
	sid, tid := chi.URLParam(r, "sid"), chi.URLParam(r, "tid")
	h.edit(w, r, func(o outline.Outline) outline.Outline {
		return outline.DeleteSubtopic(o, sid, tid)
	})
}

func (h *Handler) toggleSubtopic(w http.ResponseWriter, r *http.Request) {
	sid, tid := chi.URLParam(r, "sid"), chi.URLParam(r, "tid")
	h.edit(w, r, func(o outline.Outline) outline.Outline {
		return outline.ToggleSubtopicSelection(o, sid, tid)
	})
}

func (h *Handler) moveSubtopic(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	sid, tid := chi.URLParam(r, "sid"), chi.URLParam(r, "tid")
	switch req.Direction {
	case "up":
		h.edit(w, r, func(o outline.Outline) outline.Outline { return outline.MoveSubtopicUp(o, sid, tid) })
	case "down":
		h.edit(w, r, func(o outline.Outline) outline.Outline { return outline.MoveSubtopicDown(o, sid, tid) })
	default:
		Error(w, http.StatusBadRequest, `direction must be "up" or "down"`)
	}
}
