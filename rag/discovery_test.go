package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nucleus-go/assistant/config"
	"github.com/stretchr/testify/require"
)

func TestIsIndexableRespectsExtensionAllowlist(t *testing.T) {
	extensions := []string{"rs", "md"}
	require.True(t, isIndexable("test.rs", extensions))
	require.True(t, isIndexable("test.md", extensions))
	require.False(t, isIndexable("test.exe", extensions))
	require.False(t, isIndexable("test", extensions))
}

func TestIsIndexableEmptyExtensionsAllowsNonBinaryFiles(t *testing.T) {
	require.True(t, isIndexable("Dockerfile", nil))
	require.True(t, isIndexable("Makefile", nil))
	require.True(t, isIndexable("test.rs", nil))
}

func TestShouldExcludeMatchesAnyPathComponent(t *testing.T) {
	patterns := []string{"node_modules", ".git", "target"}
	require.True(t, shouldExclude("src/node_modules/file.js", patterns))
	require.True(t, shouldExclude(".git/config", patterns))
	require.True(t, shouldExclude("target/debug/main", patterns))
	require.False(t, shouldExclude("src/main.rs", patterns))
}

func TestCollectFilesDeterministicOrderAndFiltering(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.bin"), []byte("c"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref"), 0o644))

	files, err := collectFiles(context.Background(), dir, config.IndexerConfig{
		Extensions:      []string{"go"},
		ExcludePatterns: []string{".git"},
	})
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, filepath.Join(dir, "a.go"), files[0].Path)
	require.Equal(t, filepath.Join(dir, "b.go"), files[1].Path)
}
