package notes

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErkanEron/melonotes/internal/model"
	"github.com/ErkanEron/melonotes/internal/store"
	"github.com/ErkanEron/melonotes/internal/store/sqlite"
)

func newRepo(t *testing.T) (*Repository, store.Store) {
	t.Helper()
	st, err := sqlite.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, zerolog.Nop()), st
}

func TestCreateNested(t *testing.T) {
	ctx := context.Background()
	repo, st := newRepo(t)

	tag, err := st.CreateTag(ctx, "Performance", "#E74C3C")
	require.NoError(t, err)

	note, err := repo.Create(ctx, CreateInput{
		Note: model.Note{
			Title:    "Slow query",
			Problem:  "30 second dashboard",
			Priority: 3,
			Status:   model.StatusActive,
		},
		TagIDs: []int64{tag.ID},
		Solutions: []SolutionInput{
			{Description: "add index", Steps: []StepInput{{Description: "measure"}, {Description: "apply"}}},
			{PlanType: "Rewrite", Description: "rewrite query", Priority: 5},
		},
		CodeSnippets: []SnippetInput{
			{Title: "ix", Language: "sql", Code: "CREATE INDEX ix ON t(a)"},
		},
		Scripts: []ScriptInput{
			{Title: "bench", ScriptType: "bash", Content: "time psql -f q.sql"},
		},
	})
	require.NoError(t, err)

	detail, err := repo.Get(ctx, note.ID)
	require.NoError(t, err)

	require.Len(t, detail.Tags, 1)
	assert.Equal(t, "Performance", detail.Tags[0].Name)

	require.Len(t, detail.Solutions, 2)
	// Plan type and priority default from payload position.
	assert.Equal(t, "Plan A", detail.Solutions[0].PlanType)
	assert.Equal(t, 1, detail.Solutions[0].Priority)
	assert.Equal(t, "Rewrite", detail.Solutions[1].PlanType)
	assert.Equal(t, 5, detail.Solutions[1].Priority)

	require.Len(t, detail.Solutions[0].Steps, 2)
	assert.Equal(t, 1, detail.Solutions[0].Steps[0].StepNumber)
	assert.Equal(t, "measure", detail.Solutions[0].Steps[0].Description)
	assert.Empty(t, detail.Solutions[1].Steps)

	require.Len(t, detail.CodeSnippets, 1)
	assert.Equal(t, 1, detail.CodeSnippets[0].ExecutionOrder)
	require.Len(t, detail.Scripts, 1)
	assert.Equal(t, "bench", detail.Scripts[0].Title)
}

func TestListEnrichment(t *testing.T) {
	ctx := context.Background()
	repo, st := newRepo(t)

	cat, err := st.CreateCategory(ctx, "Database", "#336791")
	require.NoError(t, err)
	tag, err := st.CreateTag(ctx, "Backup", "#F39C12")
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateInput{
		Note: model.Note{
			Title: "dump failed", CategoryID: &cat.ID,
			Priority: 1, Status: model.StatusActive,
		},
		TagIDs: []int64{tag.ID},
	})
	require.NoError(t, err)

	list, err := repo.List(ctx, store.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].CategoryName)
	assert.Equal(t, "Database", *list[0].CategoryName)
	assert.Equal(t, "#336791", *list[0].CategoryColor)
	require.Len(t, list[0].Tags, 1)
	assert.Equal(t, "Backup", list[0].Tags[0].Name)
}

// A deleted category or tag must not break note reads.
func TestDanglingReferencesSoftFail(t *testing.T) {
	ctx := context.Background()
	repo, st := newRepo(t)

	cat, err := st.CreateCategory(ctx, "Temp", "#111111")
	require.NoError(t, err)
	tag, err := st.CreateTag(ctx, "Gone", "#222222")
	require.NoError(t, err)
	keep, err := st.CreateTag(ctx, "Keep", "#333333")
	require.NoError(t, err)

	note, err := repo.Create(ctx, CreateInput{
		Note: model.Note{
			Title: "orphaned refs", CategoryID: &cat.ID,
			Priority: 1, Status: model.StatusActive,
		},
		TagIDs: []int64{tag.ID, keep.ID},
	})
	require.NoError(t, err)

	require.NoError(t, st.DeleteTag(ctx, tag.ID))

	detail, err := repo.Get(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, detail.Tags, 1)
	assert.Equal(t, "Keep", detail.Tags[0].Name)

	list, err := repo.List(ctx, store.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Tags, 1)
}

func TestDeletedCategoryYieldsNullFields(t *testing.T) {
	ctx := context.Background()
	repo, st := newRepo(t)

	cat, err := st.CreateCategory(ctx, "Short-lived", "#444444")
	require.NoError(t, err)
	note, err := repo.Create(ctx, CreateInput{
		Note: model.Note{
			Title: "categorized", CategoryID: &cat.ID,
			Priority: 1, Status: model.StatusActive,
		},
	})
	require.NoError(t, err)

	require.NoError(t, st.DeleteCategory(ctx, cat.ID))

	detail, err := repo.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.CategoryID)
	assert.Nil(t, detail.CategoryName)
	assert.Nil(t, detail.CategoryColor)

	list, err := repo.List(ctx, store.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].CategoryID)
	assert.Nil(t, list[0].CategoryName)
}

// staleCategoryStore mimics a backend that keeps the category id
// embedded in the note document after the category itself is gone.
type staleCategoryStore struct {
	store.Store
	categoryID int64
}

func (s *staleCategoryStore) Notes(ctx context.Context, f store.NoteFilter) ([]model.Note, error) {
	notes, err := s.Store.Notes(ctx, f)
	for i := range notes {
		id := s.categoryID
		notes[i].CategoryID = &id
	}
	return notes, err
}

func (s *staleCategoryStore) NoteByID(ctx context.Context, id int64) (model.Note, error) {
	n, err := s.Store.NoteByID(ctx, id)
	if err == nil {
		cid := s.categoryID
		n.CategoryID = &cid
	}
	return n, err
}

func TestStaleCategoryIDHidden(t *testing.T) {
	ctx := context.Background()
	_, st := newRepo(t)
	repo := New(&staleCategoryStore{Store: st, categoryID: 999}, zerolog.Nop())

	note, err := repo.Create(ctx, CreateInput{
		Note: model.Note{Title: "stale ref", Priority: 1, Status: model.StatusActive},
	})
	require.NoError(t, err)

	detail, err := repo.Get(ctx, note.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.CategoryID)
	assert.Nil(t, detail.CategoryName)

	list, err := repo.List(ctx, store.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].CategoryID)
}

func TestGetEmptyCollections(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepo(t)

	note, err := repo.Create(ctx, CreateInput{
		Note: model.Note{Title: "bare", Priority: 1, Status: model.StatusActive},
	})
	require.NoError(t, err)

	detail, err := repo.Get(ctx, note.ID)
	require.NoError(t, err)
	// Collections come back as empty slices, never null.
	assert.NotNil(t, detail.Tags)
	assert.NotNil(t, detail.Solutions)
	assert.NotNil(t, detail.CodeSnippets)
	assert.NotNil(t, detail.Scripts)
	assert.NotNil(t, detail.Images)
	assert.Nil(t, detail.CategoryName)
}

func TestGetNotFound(t *testing.T) {
	repo, _ := newRepo(t)
	_, err := repo.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
