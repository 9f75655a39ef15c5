package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ErkanEron/melonotes/internal/store"
	"github.com/ErkanEron/melonotes/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		st, err := Open(":memory:", zerolog.Nop())
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		return st
	})
}

// A file: DSN that already carries a query string must still get the
// connection pragmas appended without producing a second "?".
func TestOpenFileDSNWithQuery(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "notes.db") + "?mode=rwc"
	st, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer st.Close()

	cat, err := st.CreateCategory(context.Background(), "Database", "#336791")
	require.NoError(t, err)
	got, err := st.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, cat.ID, got[0].ID)
}
