package rag

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nucleus-go/assistant/config"
)

// discoveredFile is a single file collected for indexing, read eagerly so a
// transient read failure for one file never aborts the whole walk.
type discoveredFile struct {
	Path    string
	Content string
}

// collectFiles walks dirPath, filtering by extension and exclude pattern
// exactly as the original indexer does: a path is excluded if ANY path
// component contains an exclude pattern as a substring; a file with a
// known-binary extension (images, archives, executables, media, lock,
// sqlite, ...) is never indexable; any other file is indexable if its
// extension is in cfg.Extensions, or if Extensions is empty (so
// extensionless files like Dockerfile/Makefile are still caught). Traversal order is deterministic (lexical, depth-first) so
// repeated indexing runs produce stable chunk IDs.
func collectFiles(ctx context.Context, dirPath string, cfg config.IndexerConfig) ([]discoveredFile, error) {
	var files []discoveredFile

	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry: skip, don't abort the walk
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if shouldExclude(path, cfg.ExcludePatterns) {
			if d.IsDir() && path != dirPath {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !isIndexable(path, cfg.Extensions) {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil // unreadable file: skip, don't abort the walk
		}
		files = append(files, discoveredFile{Path: path, Content: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func isIndexable(path string, extensions []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	switch strings.ToLower(ext) {
	case "png", "jpg", "jpeg", "gif", "bmp", "ico", "webp", "tiff",
		"zip", "tar", "gz", "tgz", "bz2", "xz", "7z", "rar",
		"exe", "dll", "so", "dylib", "bin", "o", "a", "class", "jar", "wasm",
		"mp3", "mp4", "wav", "flac", "ogg", "avi", "mov", "mkv", "webm",
		"pdf", "lock", "sqlite", "sqlite3", "db":
		return false
	}
	if len(extensions) == 0 {
		return true
	}
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func shouldExclude(path string, patterns []string) bool {
	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		for _, pattern := range patterns {
			if pattern != "" && strings.Contains(component, pattern) {
				return true
			}
		}
	}
	return false
}
