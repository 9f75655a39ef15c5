// Package notes implements the entity repository layer: the
// backend-agnostic business shape over the storage contract, including
// the note expansion fan-out and nested note creation.
package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ErkanEron/melonotes/internal/model"
	"github.com/ErkanEron/melonotes/internal/store"
)

// Repository exposes note operations over any storage backend.
type Repository struct {
	store store.Store
	log   zerolog.Logger
}

// New builds a repository over an open store.
func New(st store.Store, log zerolog.Logger) *Repository {
	return &Repository{store: st, log: log.With().Str("component", "notes").Logger()}
}

// StepInput is one step of a nested solution payload.
type StepInput struct {
	Description string `json:"description"`
}

// SolutionInput is a nested solution in a note create payload.
type SolutionInput struct {
	PlanType    string      `json:"plan_type"`
	Description string      `json:"description"`
	Reasoning   string      `json:"reasoning"`
	Priority    int         `json:"priority"`
	Steps       []StepInput `json:"steps"`
}

// SnippetInput is a nested code snippet in a note create payload.
type SnippetInput struct {
	Title       string `json:"title"`
	Language    string `json:"language"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ScriptInput is a nested script in a note create payload.
type ScriptInput struct {
	Title       string `json:"title"`
	ScriptType  string `json:"script_type"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// CreateInput is a full note create payload with optional nested
// children, mirroring the HTTP request body.
type CreateInput struct {
	Note         model.Note
	TagIDs       []int64
	Solutions    []SolutionInput
	CodeSnippets []SnippetInput
	Scripts      []ScriptInput
}

// Create persists the note and all nested children. Children are
// numbered by payload position: solution priority, step_number and
// execution_order all default to index+1.
func (r *Repository) Create(ctx context.Context, in CreateInput) (model.Note, error) {
	in.Note.TagIDs = in.TagIDs
	note, err := r.store.CreateNote(ctx, in.Note)
	if err != nil {
		return model.Note{}, err
	}

	for i, si := range in.Solutions {
		planType := si.PlanType
		if planType == "" {
			planType = fmt.Sprintf("Plan %c", 'A'+i)
		}
		priority := si.Priority
		if priority == 0 {
			priority = i + 1
		}
		sol, err := r.store.CreateSolution(ctx, model.Solution{
			NoteID:      note.ID,
			PlanType:    planType,
			Description: si.Description,
			Reasoning:   si.Reasoning,
			Priority:    priority,
		})
		if err != nil {
			return model.Note{}, fmt.Errorf("failed to create solution: %w", err)
		}
		for j, st := range si.Steps {
			if _, err := r.store.CreateStep(ctx, model.Step{
				SolutionID:  sol.ID,
				StepNumber:  j + 1,
				Description: st.Description,
			}); err != nil {
				return model.Note{}, fmt.Errorf("failed to create step: %w", err)
			}
		}
	}

	for i, ci := range in.CodeSnippets {
		if _, err := r.store.CreateSnippet(ctx, model.CodeSnippet{
			NoteID:         note.ID,
			Title:          ci.Title,
			Language:       ci.Language,
			Code:           ci.Code,
			Description:    ci.Description,
			ExecutionOrder: i + 1,
		}); err != nil {
			return model.Note{}, fmt.Errorf("failed to create code snippet: %w", err)
		}
	}

	for i, si := range in.Scripts {
		if _, err := r.store.CreateScript(ctx, model.Script{
			NoteID:         note.ID,
			Title:          si.Title,
			ScriptType:     si.ScriptType,
			Content:        si.Content,
			Description:    si.Description,
			ExecutionOrder: i + 1,
		}); err != nil {
			return model.Note{}, fmt.Errorf("failed to create script: %w", err)
		}
	}

	return note, nil
}

// List returns enriched note summaries. Category and tag references
// resolve best-effort: a dangling reference yields null category
// fields or a shorter tag list, never an error.
func (r *Repository) List(ctx context.Context, filter store.NoteFilter) ([]model.NoteSummary, error) {
	raw, err := r.store.Notes(ctx, filter)
	if err != nil {
		return nil, err
	}

	categories := map[int64]*model.Category{}
	out := make([]model.NoteSummary, 0, len(raw))
	for _, n := range raw {
		summary := model.NoteSummary{Note: n, Tags: []model.Tag{}}

		if n.CategoryID != nil {
			cat, ok := categories[*n.CategoryID]
			if !ok {
				c, err := r.store.CategoryByID(ctx, *n.CategoryID)
				switch {
				case errors.Is(err, store.ErrNotFound):
					categories[*n.CategoryID] = nil
				case err != nil:
					return nil, err
				default:
					categories[*n.CategoryID] = &c
				}
				cat = categories[*n.CategoryID]
			}
			if cat != nil {
				summary.CategoryName = &cat.Name
				summary.CategoryColor = &cat.Color
			} else {
				// Document backends keep the id embedded in the note
				// after the category is gone; hide it so both backends
				// render the same null fields.
				summary.CategoryID = nil
			}
		}

		if len(n.TagIDs) > 0 {
			tags, err := r.store.TagsByIDs(ctx, n.TagIDs)
			if err != nil {
				return nil, err
			}
			if tags != nil {
				summary.Tags = tags
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

// Get fetches a note and expands every owned child. The child lookups
// are independent, so they run concurrently; results are assembled by
// position, not completion order.
func (r *Repository) Get(ctx context.Context, id int64) (model.NoteDetail, error) {
	note, err := r.store.NoteByID(ctx, id)
	if err != nil {
		return model.NoteDetail{}, err
	}

	detail := model.NoteDetail{
		Note:         note,
		Tags:         []model.Tag{},
		Solutions:    []model.SolutionDetail{},
		CodeSnippets: []model.CodeSnippet{},
		Scripts:      []model.Script{},
		Images:       []model.Image{},
	}

	g, ctx := errgroup.WithContext(ctx)

	if note.CategoryID != nil {
		g.Go(func() error {
			c, err := r.store.CategoryByID(ctx, *note.CategoryID)
			if errors.Is(err, store.ErrNotFound) {
				detail.CategoryID = nil
				return nil
			}
			if err != nil {
				return err
			}
			detail.CategoryName = &c.Name
			detail.CategoryColor = &c.Color
			return nil
		})
	}

	g.Go(func() error {
		tags, err := r.store.TagsByIDs(ctx, note.TagIDs)
		if err != nil {
			return err
		}
		if tags != nil {
			detail.Tags = tags
		}
		return nil
	})

	g.Go(func() error {
		sols, err := r.store.SolutionsByNote(ctx, note.ID)
		if err != nil {
			return err
		}
		details := make([]model.SolutionDetail, len(sols))
		sg, ctx := errgroup.WithContext(ctx)
		for i, sol := range sols {
			i, sol := i, sol
			details[i] = model.SolutionDetail{Solution: sol, Steps: []model.Step{}}
			sg.Go(func() error {
				steps, err := r.store.StepsBySolution(ctx, sol.ID)
				if err != nil {
					return err
				}
				if steps != nil {
					details[i].Steps = steps
				}
				return nil
			})
		}
		if err := sg.Wait(); err != nil {
			return err
		}
		detail.Solutions = details
		return nil
	})

	g.Go(func() error {
		snippets, err := r.store.SnippetsByNote(ctx, note.ID)
		if err != nil {
			return err
		}
		if snippets != nil {
			detail.CodeSnippets = snippets
		}
		return nil
	})

	g.Go(func() error {
		scripts, err := r.store.ScriptsByNote(ctx, note.ID)
		if err != nil {
			return err
		}
		if scripts != nil {
			detail.Scripts = scripts
		}
		return nil
	})

	g.Go(func() error {
		images, err := r.store.ImagesByNote(ctx, note.ID)
		if err != nil {
			return err
		}
		if images != nil {
			detail.Images = images
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return model.NoteDetail{}, err
	}
	return detail, nil
}

// Update merges a partial patch into the note.
func (r *Repository) Update(ctx context.Context, id int64, patch model.NotePatch) error {
	return r.store.UpdateNote(ctx, id, patch)
}

// Delete removes the note and all its dependents.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.store.DeleteNote(ctx, id)
}
