package embedder

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nucleus-go/assistant/llms"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	concurrent int32
	maxSeen    int32
}

func (f *fakeProvider) Chat(ctx context.Context, req llms.ChatRequest, cb llms.ChatCallback) error {
	return nil
}

func (f *fakeProvider) Embed(ctx context.Context, text string, modelID string) ([]float32, error) {
	n := atomic.AddInt32(&f.concurrent, 1)
	for {
		max := atomic.LoadInt32(&f.maxSeen)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxSeen, max, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&f.concurrent, -1)
	return []float32{float32(len(text)), 0, 0}, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string, modelID string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t, modelID)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestEmbedderDimensionInferredLazily(t *testing.T) {
	e := New(&fakeProvider{}, "model")
	require.Equal(t, 0, e.Dimension())
	_, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, 3, e.Dimension())
}

func TestEmbedderSerializesConcurrentCalls(t *testing.T) {
	fp := &fakeProvider{}
	e := NewOllamaBacked(fp, "model", 3)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Embed(context.Background(), "x")
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), atomic.LoadInt32(&fp.maxSeen))
}

func TestEmbedderAllowsConcurrencyWithoutSerialize(t *testing.T) {
	fp := &fakeProvider{}
	e := New(fp, "model")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Embed(context.Background(), "x")
		}()
	}
	wg.Wait()
	require.Greater(t, atomic.LoadInt32(&fp.maxSeen), int32(1))
}
