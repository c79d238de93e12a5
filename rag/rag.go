// Package rag implements the retrieval-augmented-generation pipeline:
// chunking + embedding on the way in, cosine similarity search and a fixed
// context format on the way out (SPEC_FULL.md §4.4).
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nucleus-go/assistant/chunk"
	"github.com/nucleus-go/assistant/config"
	"github.com/nucleus-go/assistant/embedder"
	"github.com/nucleus-go/assistant/vectorstore"
)

// embedBatchSize caps how many chunks are embedded per call to the
// embedder during directory indexing, bounding memory and giving the
// provider a natural batching unit. Batches are formed per file: a batch
// never holds chunks of two different files.
const embedBatchSize = 32

// Engine orchestrates chunking, embedding, and vector storage into the
// add_knowledge / index_directory / retrieve_context operations.
type Engine struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
	chunker  *chunk.Chunker
	topK     int
	indexer  config.IndexerConfig
}

// New constructs an Engine. chunkCfg and indexerCfg come from RAGConfig;
// topK comes from StorageConfig.
func New(emb embedder.Embedder, store vectorstore.VectorStore, chunkCfg chunk.Config, indexerCfg config.IndexerConfig, topK int) (*Engine, error) {
	chunker, err := chunk.New(chunkCfg)
	if err != nil {
		return nil, fmt.Errorf("rag: invalid chunk config: %w", err)
	}
	return &Engine{embedder: emb, store: store, chunker: chunker, topK: topK, indexer: indexerCfg}, nil
}

// AddKnowledge embeds content as a single document and stores it under
// source, without chunking. Intended for short, already-bounded text;
// IndexDirectory is the path for larger documents.
func (e *Engine) AddKnowledge(ctx context.Context, content, source string) error {
	vec, err := e.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("rag: embed knowledge: %w", err)
	}

	n, err := e.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("rag: count: %w", err)
	}

	record := vectorstore.Record{
		ID:      fmt.Sprintf("%s_%d", source, n),
		Vector:  vec,
		Content: content,
		Metadata: map[string]interface{}{
			"source": source,
		},
	}
	if err := e.store.Add(ctx, []vectorstore.Record{record}); err != nil {
		return fmt.Errorf("rag: add knowledge: %w", err)
	}
	return nil
}

// IndexDirectory walks dirPath, chunks and embeds every indexable file, and
// stores the resulting chunks. A failure embedding or storing one file's
// chunks does not prevent the remaining files from being indexed; it
// returns the count of files successfully indexed in full, and the first
// error encountered (if any) alongside that count. Each file's previously
// stored chunks are removed before its new chunks are added, and each
// file's completion is logged at Debug level.
func (e *Engine) IndexDirectory(ctx context.Context, dirPath string) (int, error) {
	files, err := collectFiles(ctx, dirPath, e.indexer)
	if err != nil {
		return 0, fmt.Errorf("rag: collect files: %w", err)
	}

	var indexed int
	var firstErr error

	for _, f := range files {
		if err := e.indexFile(ctx, f); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		indexed++
		slog.Debug("rag: indexed file", "path", f.Path)
	}
	return indexed, firstErr
}

func (e *Engine) indexFile(ctx context.Context, f discoveredFile) error {
	if _, err := e.store.RemoveBySource(ctx, f.Path); err != nil {
		return fmt.Errorf("rag: remove previous chunks for %s: %w", f.Path, err)
	}

	chunks := e.chunker.Chunk(f.Content)
	if len(chunks) == 0 {
		return nil
	}

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}

		vecs, err := e.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("rag: embed batch for %s: %w", f.Path, err)
		}

		records := make([]vectorstore.Record, len(batch))
		for i, c := range batch {
			records[i] = vectorstore.Record{
				ID:      fmt.Sprintf("%s_chunk_%d", f.Path, c.Index),
				Vector:  vecs[i],
				Content: c.Content,
				Metadata: map[string]interface{}{
					"source": f.Path,
					"chunk":  c.Index,
				},
			}
		}
		if err := e.store.Add(ctx, records); err != nil {
			return fmt.Errorf("rag: store chunks for %s: %w", f.Path, err)
		}
	}
	return nil
}

// RetrieveContext embeds query, finds the topK most similar stored chunks,
// and formats them for injection into an LLM prompt. Returns "" (not an
// error) when the knowledge base is empty or no results are found — an
// empty knowledge base is a valid, unremarkable state, not a failure.
func (e *Engine) RetrieveContext(ctx context.Context, query string) (string, error) {
	n, err := e.store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("rag: count: %w", err)
	}
	if n == 0 {
		return "", nil
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("rag: embed query: %w", err)
	}

	results, err := e.store.Search(ctx, queryVec, e.topK)
	if err != nil {
		return "", fmt.Errorf("rag: search: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("\n\nRelevant context from your knowledge base:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "\n[%d] %s\n", i+1, r.Content)
	}
	return b.String(), nil
}

// Count returns the number of stored chunks/documents.
func (e *Engine) Count(ctx context.Context) (int, error) {
	return e.store.Count(ctx)
}

// Clear removes every document from the knowledge base.
func (e *Engine) Clear(ctx context.Context) error {
	return e.store.Clear(ctx)
}
