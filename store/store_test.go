package store

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(t *testing.T, s ContentStore, id string) string {
	t.Helper()
	r, err := s.Get(id)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func stores(t *testing.T) map[string]ContentStore {
	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return map[string]ContentStore{
		"local":  local,
		"memory": NewMemoryStore(),
	}
}

func TestContentStore(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("b", strings.NewReader("second")))
			require.NoError(t, s.Put("a", strings.NewReader("first")))
			assert.Equal(t, "first", read(t, s, "a"))

			require.NoError(t, s.Put("a", strings.NewReader("replaced")))
			assert.Equal(t, "replaced", read(t, s, "a"))

			ids, err := s.List()
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, ids)

			require.NoError(t, s.Delete("a"))
			_, err = s.Get("a")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete("a"), ErrNotFound)

			require.NoError(t, s.Clear())
			ids, err = s.List()
			require.NoError(t, err)
			assert.Empty(t, ids)
		})
	}
}

func TestInvalidIDs(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", "..", "a/b", `a\b`} {
				assert.Error(t, s.Put(id, strings.NewReader("x")), id)
			}
		})
	}
}
