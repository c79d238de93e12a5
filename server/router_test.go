package server

import (
	"context"
	"testing"

	"github.com/nucleus-go/assistant/chat"
	"github.com/nucleus-go/assistant/chunk"
	"github.com/nucleus-go/assistant/config"
	"github.com/nucleus-go/assistant/llms"
	"github.com/nucleus-go/assistant/permission"
	"github.com/nucleus-go/assistant/rag"
	"github.com/nucleus-go/assistant/tools"
	"github.com/nucleus-go/assistant/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{}

func (fakeProvider) Chat(ctx context.Context, req llms.ChatRequest, cb llms.ChatCallback) error {
	return cb(llms.ChatResponseChunk{Content: "ok", Done: true, Message: llms.Message{Role: llms.RoleAssistant, Content: "ok"}})
}
func (fakeProvider) Embed(ctx context.Context, text string, modelID string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}
func (fakeProvider) EmbedBatch(ctx context.Context, texts []string, modelID string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := fakeProvider{}.Embed(ctx, t, modelID)
		out[i] = v
	}
	return out, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}
func (f fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := f.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}
func (fakeEmbedder) Dimension() int { return 2 }
func (fakeEmbedder) Model() string  { return "fake" }
func (fakeEmbedder) Close() error   { return nil }

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	registry := tools.NewRegistry(permission.All)
	mgr := chat.New(fakeProvider{}, "model", registry)

	store, err := vectorstore.NewEmbeddedStore(vectorstore.EmbeddedConfig{Collection: "router-test"})
	require.NoError(t, err)
	engine, err := rag.New(fakeEmbedder{}, store, chunk.Config{Size: 512, Overlap: 50}, config.IndexerConfig{}, 2)
	require.NoError(t, err)

	metrics := NewMetrics(prometheus.NewRegistry())
	return New(mgr, engine, metrics)
}

func drain(t *testing.T, ch <-chan ResponseRecord) []ResponseRecord {
	t.Helper()
	var out []ResponseRecord
	for rec := range ch {
		out = append(out, rec)
	}
	return out
}

func TestRouteChatStreamsThenDone(t *testing.T) {
	r := newTestRouter(t)
	ch, err := r.Route(context.Background(), Request{Kind: KindChat, Content: "hello"})
	require.NoError(t, err)

	records := drain(t, ch)
	require.NotEmpty(t, records)
	last := records[len(records)-1]
	require.Equal(t, RecordDone, last.Type)
	require.Equal(t, "ok", last.Content)
}

func TestRouteAddAndStats(t *testing.T) {
	r := newTestRouter(t)

	addCh, err := r.Route(context.Background(), Request{Kind: KindAdd, Content: "some fact"})
	require.NoError(t, err)
	addRecords := drain(t, addCh)
	require.Equal(t, RecordDone, addRecords[len(addRecords)-1].Type)

	statsCh, err := r.Route(context.Background(), Request{Kind: KindStats})
	require.NoError(t, err)
	statsRecords := drain(t, statsCh)
	last := statsRecords[len(statsRecords)-1]
	require.Equal(t, RecordDone, last.Type)
	require.Contains(t, last.Content, "1 documents")
}

func TestRouteUnknownKind(t *testing.T) {
	r := newTestRouter(t)
	ch, err := r.Route(context.Background(), Request{Kind: "bogus"})
	require.NoError(t, err)

	records := drain(t, ch)
	require.Len(t, records, 1)
	require.Equal(t, RecordError, records[0].Type)
}
