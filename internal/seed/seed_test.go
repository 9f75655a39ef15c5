package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ErkanEron/melonotes/internal/auth"
	"github.com/ErkanEron/melonotes/internal/store"
	"github.com/ErkanEron/melonotes/internal/store/sqlite"
)

func openStore(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	require.NoError(t, Apply(ctx, st, zerolog.Nop(), false))

	user, err := st.UserByUsername(ctx, "frieren")
	require.NoError(t, err)
	assert.True(t, auth.ComparePassword("MeldaErkan!5352", user.PasswordHash))

	cats, err := st.Categories(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, cats)
	tags, err := st.Tags(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tags)

	notes, err := st.Notes(ctx, store.NoteFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, notes)

	// A performance note with a worked solution ships in the sample set.
	perf, err := st.Notes(ctx, store.NoteFilter{Search: "performance"})
	require.NoError(t, err)
	require.NotEmpty(t, perf)
	assert.NotEmpty(t, perf[0].TagIDs)

	sols, err := st.SolutionsByNote(ctx, perf[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, sols)

	steps, err := st.StepsBySolution(ctx, sols[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, steps)
	assert.True(t, steps[0].Completed)
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	require.NoError(t, Apply(ctx, st, zerolog.Nop(), false))
	before, err := st.CountNotes(ctx)
	require.NoError(t, err)

	require.NoError(t, Apply(ctx, st, zerolog.Nop(), false))
	after, err := st.CountNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestApplyForceReseeds(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	require.NoError(t, Apply(ctx, st, zerolog.Nop(), false))
	before, err := st.CountNotes(ctx)
	require.NoError(t, err)

	require.NoError(t, Apply(ctx, st, zerolog.Nop(), true))
	after, err := st.CountNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, before*2, after)
}
