package server

import (
	"net/http"

	"github.com/ErkanEron/melonotes/internal/model"
)

const defaultColor = "#FF69B4"

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (req *categoryRequest) validate() []FieldError {
	var errs []FieldError
	if req.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Name is required"})
	}
	if req.Color == "" {
		req.Color = defaultColor
	} else if !isHexColor(req.Color) {
		errs = append(errs, FieldError{Field: "color", Message: "Color must be a valid hex color"})
	}
	return errs
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.Categories(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "", "")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	cat, err := s.store.CreateCategory(r.Context(), req.Name, req.Color)
	if err != nil {
		s.writeStoreError(w, err, "", "Category with this name already exists")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      cat.ID,
		"name":    cat.Name,
		"color":   cat.Color,
		"message": "Category created successfully",
	})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category id")
		return
	}
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	if err := s.store.UpdateCategory(r.Context(), id, req.Name, req.Color); err != nil {
		s.writeStoreError(w, err, "Category not found", "Category with this name already exists")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category updated successfully"})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category id")
		return
	}
	if err := s.store.DeleteCategory(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "Category not found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}
