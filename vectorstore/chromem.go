// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// EmbeddedConfig configures the single-process, zero-external-service
// vector store backend.
type EmbeddedConfig struct {
	Collection  string
	PersistPath string // optional; empty means in-memory only
	Compress    bool
}

// EmbeddedStore is the "embedded" VectorStore backend: no external
// service, optional gzip-compressed file persistence, in-process cosine
// search via chromem-go. This is the default backend for a single-machine
// deployment.
type EmbeddedStore struct {
	db         *chromem.DB
	collection string
	cfg        EmbeddedConfig

	mu  sync.RWMutex
	col *chromem.Collection

	// sourceIndex tracks id -> source metadata locally, since chromem-go
	// exposes no list-all-documents call; it is updated on every Add,
	// RemoveBySource and Clear, and consulted for
	// GetIndexedPaths/RemoveBySource bookkeeping.
	sourceIndex map[string]string
}

// identityEmbed is required by chromem-go's collection constructor but
// never invoked: every vector handed to this store is already computed by
// an embedder.Embedder, never derived from raw text by chromem itself.
func identityEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("vectorstore: embedded store received raw text; vectors must be pre-computed")
}

// NewEmbeddedStore opens (or creates) the embedded store.
func NewEmbeddedStore(cfg EmbeddedConfig) (*EmbeddedStore, error) {
	var db *chromem.DB

	if cfg.PersistPath != "" {
		if err := os.MkdirAll(cfg.PersistPath, 0o755); err != nil {
			return nil, fmt.Errorf("vectorstore: create persist directory: %w", err)
		}

		dbPath := cfg.PersistPath + "/vectors.gob"
		if cfg.Compress {
			dbPath += ".gz"
		}

		if _, statErr := os.Stat(dbPath); statErr == nil {
			var err error
			db, err = chromem.NewPersistentDB(dbPath, cfg.Compress)
			if err != nil {
				slog.Warn("failed to load existing vector database, creating new", "path", dbPath, "error", err)
				db = chromem.NewDB()
			}
		} else {
			db = chromem.NewDB()
		}
	} else {
		db = chromem.NewDB()
	}

	s := &EmbeddedStore{db: db, collection: cfg.Collection, cfg: cfg, sourceIndex: make(map[string]string)}
	col, err := db.GetOrCreateCollection(cfg.Collection, nil, identityEmbed)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: get or create collection %q: %w", cfg.Collection, err)
	}
	s.col = col
	return s, nil
}

func (s *EmbeddedStore) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		strMeta := make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			strMeta[k] = fmt.Sprint(v)
		}
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Content,
			Metadata:  strMeta,
			Embedding: r.Vector,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("vectorstore: add documents: %w", err)
	}
	for _, r := range records {
		if src, ok := r.Metadata["source"]; ok {
			s.sourceIndex[r.ID] = fmt.Sprint(src)
		}
	}
	return s.persistLocked()
}

func (s *EmbeddedStore) Search(ctx context.Context, vector []float32, topK int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.col.Count()
	if n == 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}

	raw, err := s.col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search: %w", err)
	}

	out := make([]Result, len(raw))
	for i, r := range raw {
		meta := make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		out[i] = Result{ID: r.ID, Score: r.Similarity, Content: r.Content, Metadata: meta}
	}
	return out, nil
}

func (s *EmbeddedStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.col.Count(), nil
}

func (s *EmbeddedStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.collection); err != nil {
		return fmt.Errorf("vectorstore: clear: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(s.collection, nil, identityEmbed)
	if err != nil {
		return fmt.Errorf("vectorstore: recreate collection after clear: %w", err)
	}
	s.col = col
	s.sourceIndex = make(map[string]string)
	return s.persistLocked()
}

func (s *EmbeddedStore) GetIndexedPaths(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, src := range s.sourceIndex {
		seen[src] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	return out, nil
}

func (s *EmbeddedStore) RemoveBySource(ctx context.Context, source string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normSource := filepath.ToSlash(source)
	var ids []string
	for id, src := range s.sourceIndex {
		normSrc := filepath.ToSlash(src)
		if normSrc == normSource || strings.HasPrefix(normSrc, normSource+"/") {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if err := s.col.Delete(ctx, nil, nil, ids...); err != nil {
		return 0, fmt.Errorf("vectorstore: remove by source: %w", err)
	}
	for _, id := range ids {
		delete(s.sourceIndex, id)
	}
	if err := s.persistLocked(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *EmbeddedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *EmbeddedStore) persistLocked() error {
	if s.cfg.PersistPath == "" {
		return nil
	}
	dbPath := s.cfg.PersistPath + "/vectors.gob"
	if s.cfg.Compress {
		dbPath += ".gz"
	}
	//nolint:staticcheck // Export is the stable persistence entrypoint in this chromem-go version
	if err := s.db.Export(dbPath, s.cfg.Compress, ""); err != nil {
		return fmt.Errorf("vectorstore: persist: %w", err)
	}
	return nil
}

var _ VectorStore = (*EmbeddedStore)(nil)
