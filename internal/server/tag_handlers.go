package server

import (
	"net/http"

	"github.com/ErkanEron/melonotes/internal/model"
)

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.Tags(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "", "")
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	tag, err := s.store.CreateTag(r.Context(), req.Name, req.Color)
	if err != nil {
		s.writeStoreError(w, err, "", "Tag with this name already exists")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      tag.ID,
		"name":    tag.Name,
		"color":   tag.Color,
		"message": "Tag created successfully",
	})
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tag id")
		return
	}
	if err := s.store.DeleteTag(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "Tag not found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tag deleted successfully"})
}
