// Package store defines the storage contract implemented by the
// relational and document backends. Both must expose identical external
// behavior; internal/store/storetest pins that mechanically.
package store

import (
	"context"
	"errors"

	"github.com/ErkanEron/melonotes/internal/model"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate indicates a unique name constraint was violated.
	ErrDuplicate = errors.New("record already exists")
)

// NoteFilter narrows a note listing. Zero values mean "no filter".
// Search is a substring match across title, problem, problem_definition
// and analysis.
type NoteFilter struct {
	Search     string
	CategoryID *int64
	Status     model.Status
	TagIDs     []int64
}

// Store is the uniform data-access contract over a backend. All
// list results come back in their canonical order: notes by updated_at
// descending, categories and tags by name, solutions by priority,
// steps by step_number, snippets and scripts by execution_order,
// images by created_at.
type Store interface {
	Close() error

	// Users.
	UserByUsername(ctx context.Context, username string) (model.User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (model.User, error)

	// Categories.
	Categories(ctx context.Context) ([]model.Category, error)
	CategoryByID(ctx context.Context, id int64) (model.Category, error)
	CreateCategory(ctx context.Context, name, color string) (model.Category, error)
	UpdateCategory(ctx context.Context, id int64, name, color string) error
	DeleteCategory(ctx context.Context, id int64) error

	// Tags. TagsByIDs drops unknown ids silently and preserves the
	// order of the ids argument.
	Tags(ctx context.Context) ([]model.Tag, error)
	TagsByIDs(ctx context.Context, ids []int64) ([]model.Tag, error)
	CreateTag(ctx context.Context, name, color string) (model.Tag, error)
	DeleteTag(ctx context.Context, id int64) error

	// Notes. CreateNote persists the note together with its TagIDs.
	// DeleteNote cascades to solutions, steps, snippets, scripts and
	// images. UpdateNote merges the patch and bumps updated_at.
	Notes(ctx context.Context, filter NoteFilter) ([]model.Note, error)
	NoteByID(ctx context.Context, id int64) (model.Note, error)
	CreateNote(ctx context.Context, note model.Note) (model.Note, error)
	UpdateNote(ctx context.Context, id int64, patch model.NotePatch) error
	DeleteNote(ctx context.Context, id int64) error
	CountNotes(ctx context.Context) (int64, error)

	// Solutions and steps.
	SolutionsByNote(ctx context.Context, noteID int64) ([]model.Solution, error)
	CreateSolution(ctx context.Context, s model.Solution) (model.Solution, error)
	StepsBySolution(ctx context.Context, solutionID int64) ([]model.Step, error)
	CreateStep(ctx context.Context, s model.Step) (model.Step, error)
	SetStepCompleted(ctx context.Context, id int64, completed bool) error

	// Code snippets, scripts, images.
	SnippetsByNote(ctx context.Context, noteID int64) ([]model.CodeSnippet, error)
	CreateSnippet(ctx context.Context, s model.CodeSnippet) (model.CodeSnippet, error)
	ScriptsByNote(ctx context.Context, noteID int64) ([]model.Script, error)
	CreateScript(ctx context.Context, s model.Script) (model.Script, error)
	ImagesByNote(ctx context.Context, noteID int64) ([]model.Image, error)
	CreateImage(ctx context.Context, img model.Image) (model.Image, error)
}
