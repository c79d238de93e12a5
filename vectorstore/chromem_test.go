package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T) *EmbeddedStore {
	t.Helper()
	s, err := NewEmbeddedStore(EmbeddedConfig{Collection: "remove-by-source-test"})
	require.NoError(t, err)
	return s
}

func TestRemoveBySourceMatchesExactAndSubtreeOnly(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)

	records := []Record{
		{ID: "1", Vector: []float32{1, 0}, Content: "a", Metadata: map[string]interface{}{"source": "dir/a.txt"}},
		{ID: "2", Vector: []float32{0, 1}, Content: "b", Metadata: map[string]interface{}{"source": "dir/b.txt"}},
		{ID: "3", Vector: []float32{1, 1}, Content: "c", Metadata: map[string]interface{}{"source": "dir2/c.txt"}},
		{ID: "4", Vector: []float32{1, 2}, Content: "d", Metadata: map[string]interface{}{"source": "dir"}},
	}
	require.NoError(t, s.Add(ctx, records))

	n, err := s.RemoveBySource(ctx, "dir")
	require.NoError(t, err)
	require.Equal(t, 3, n) // "dir", "dir/a.txt", "dir/b.txt" — not "dir2/c.txt"

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	paths, err := s.GetIndexedPaths(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"dir2/c.txt"}, paths)
}

func TestRemoveBySourceNoMatchRemovesNothing(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)

	require.NoError(t, s.Add(ctx, []Record{
		{ID: "1", Vector: []float32{1, 0}, Content: "a", Metadata: map[string]interface{}{"source": "dir/a.txt"}},
	}))

	n, err := s.RemoveBySource(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}
