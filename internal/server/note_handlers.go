package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ErkanEron/melonotes/internal/model"
	"github.com/ErkanEron/melonotes/internal/notes"
	"github.com/ErkanEron/melonotes/internal/store"
)

// handleListNotes supports ?search=, ?category=, ?status= and ?tags=
// (comma-separated tag ids) filters, all combinable.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.NoteFilter{Search: q.Get("search")}

	if raw := q.Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid category filter")
			return
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("status"); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = status
	}
	if raw := q.Get("tags"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid tags filter")
				return
			}
			filter.TagIDs = append(filter.TagIDs, id)
		}
	}

	summaries, err := s.repo.List(r.Context(), filter)
	if err != nil {
		s.writeStoreError(w, err, "", "")
		return
	}
	if summaries == nil {
		summaries = []model.NoteSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

type noteRequest struct {
	Title             string                `json:"title"`
	Problem           string                `json:"problem"`
	ProblemDefinition string                `json:"problem_definition"`
	Analysis          string                `json:"analysis"`
	WhySolutionA      string                `json:"why_solution_a"`
	WhySwitchToB      string                `json:"why_switch_to_b"`
	CategoryID        *int64                `json:"category_id"`
	Priority          int                   `json:"priority"`
	Status            string                `json:"status"`
	Tags              []int64               `json:"tags"`
	TagIDs            []int64               `json:"tag_ids"`
	Solutions         []notes.SolutionInput `json:"solutions"`
	CodeSnippets      []notes.SnippetInput  `json:"codeSnippets"`
	Scripts           []notes.ScriptInput   `json:"scripts"`
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var errs []FieldError
	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "Title is required"})
	}
	if req.Priority == 0 {
		req.Priority = 1
	} else if req.Priority < 1 || req.Priority > 5 {
		errs = append(errs, FieldError{Field: "priority", Message: "Priority must be between 1 and 5"})
	}
	status := model.StatusActive
	if req.Status != "" {
		var err error
		status, err = model.ParseStatus(req.Status)
		if err != nil {
			errs = append(errs, FieldError{Field: "status", Message: "Status must be active, completed, or archived"})
		}
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	// tag_ids is accepted as an alias for the tags field.
	tagIDs := req.Tags
	if tagIDs == nil {
		tagIDs = req.TagIDs
	}

	note, err := s.repo.Create(r.Context(), notes.CreateInput{
		Note: model.Note{
			Title:             req.Title,
			Problem:           req.Problem,
			ProblemDefinition: req.ProblemDefinition,
			Analysis:          req.Analysis,
			WhySolutionA:      req.WhySolutionA,
			WhySwitchToB:      req.WhySwitchToB,
			CategoryID:        req.CategoryID,
			Priority:          req.Priority,
			Status:            status,
		},
		TagIDs:       tagIDs,
		Solutions:    req.Solutions,
		CodeSnippets: req.CodeSnippets,
		Scripts:      req.Scripts,
	})
	if err != nil {
		s.writeStoreError(w, err, "", "")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      note.ID,
		"message": "Note created successfully",
	})
}

func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid note id")
		return
	}
	detail, err := s.repo.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "Note not found", "")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid note id")
		return
	}
	var patch model.NotePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	var errs []FieldError
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "Title is required"})
	}
	if patch.Priority != nil && (*patch.Priority < 1 || *patch.Priority > 5) {
		errs = append(errs, FieldError{Field: "priority", Message: "Priority must be between 1 and 5"})
	}
	if patch.Status != nil {
		if _, err := model.ParseStatus(string(*patch.Status)); err != nil {
			errs = append(errs, FieldError{Field: "status", Message: "Status must be active, completed, or archived"})
		}
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	if err := s.repo.Update(r.Context(), id, patch); err != nil {
		s.writeStoreError(w, err, "Note not found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note updated successfully"})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid note id")
		return
	}
	if err := s.repo.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "Note not found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

type stepRequest struct {
	Completed *bool `json:"completed"`
}

func (s *Server) handleUpdateStep(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid step id")
		return
	}
	var req stepRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Completed == nil {
		writeFieldErrors(w, []FieldError{{Field: "completed", Message: "Completed must be a boolean"}})
		return
	}
	if err := s.store.SetStepCompleted(r.Context(), id, *req.Completed); err != nil {
		s.writeStoreError(w, err, "Step not found", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Step updated successfully"})
}
