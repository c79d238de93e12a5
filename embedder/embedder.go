// Package embedder adapts an llms.Provider into the narrower Embedder
// contract the indexer depends on, adding the few behaviors (concurrency
// serialization, dimension caching) specific to embedding calls.
package embedder

import (
	"context"
	"fmt"
	"sync"

	"github.com/nucleus-go/assistant/llms"
)

// Embedder produces dense vector representations of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
	Close() error
}

// ProviderEmbedder adapts an llms.Provider for a single fixed model. For
// OllamaProvider specifically, embedding calls are serialized: the Ollama
// daemon's llama runner has a documented crash under concurrent embedding
// requests against the same loaded model, so overlapping callers would
// otherwise corrupt each other's results.
type ProviderEmbedder struct {
	provider  llms.Provider
	model     string
	dimension int
	serialize bool

	mu      sync.Mutex
	dimOnce sync.Once
}

// Option configures a ProviderEmbedder.
type Option func(*ProviderEmbedder)

// WithKnownDimension skips the probe call that would otherwise determine
// Dimension() lazily from a first real embedding call.
func WithKnownDimension(n int) Option {
	return func(e *ProviderEmbedder) { e.dimension = n }
}

// WithSerializedCalls forces embed calls onto a single mutex, required for
// providers (like OllamaProvider) that cannot embed concurrently.
func WithSerializedCalls() Option {
	return func(e *ProviderEmbedder) { e.serialize = true }
}

// New constructs a ProviderEmbedder. Pass WithSerializedCalls for any
// provider backed by a local Ollama daemon.
func New(provider llms.Provider, model string, opts ...Option) *ProviderEmbedder {
	e := &ProviderEmbedder{provider: provider, model: model}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewOllamaBacked is a convenience constructor wiring the serialization
// required for an Ollama-backed provider.
func NewOllamaBacked(provider llms.Provider, model string, dimension int) *ProviderEmbedder {
	return New(provider, model, WithKnownDimension(dimension), WithSerializedCalls())
}

func (e *ProviderEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.serialize {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	vec, err := e.provider.Embed(ctx, text, e.model)
	if err != nil {
		return nil, fmt.Errorf("embedder: embed failed: %w", err)
	}
	e.rememberDimension(vec)
	return vec, nil
}

func (e *ProviderEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if e.serialize {
		e.mu.Lock()
		defer e.mu.Unlock()
	}
	vecs, err := e.provider.EmbedBatch(ctx, texts, e.model)
	if err != nil {
		return nil, fmt.Errorf("embedder: embed batch failed: %w", err)
	}
	for _, v := range vecs {
		e.rememberDimension(v)
	}
	return vecs, nil
}

func (e *ProviderEmbedder) rememberDimension(vec []float32) {
	if e.dimension != 0 || len(vec) == 0 {
		return
	}
	e.dimOnce.Do(func() { e.dimension = len(vec) })
}

func (e *ProviderEmbedder) Dimension() int { return e.dimension }
func (e *ProviderEmbedder) Model() string  { return e.model }
func (e *ProviderEmbedder) Close() error   { return nil }
