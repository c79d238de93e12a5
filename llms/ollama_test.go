package llms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nucleus-go/assistant/ollama"
	"github.com/stretchr/testify/require"
)

func TestOllamaProviderChatStreamsAndAccumulates(t *testing.T) {
	lines := []string{
		`{"message":{"role":"assistant","content":"Hi"},"done":false}` + "\n",
		`{"message":{"role":"assistant","content":" there"},"done":false}` + "\n",
		`{"message":{"role":"assistant","content":""},"done":true}` + "\n",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, l := range lines {
			_, _ = w.Write([]byte(l))
		}
	}))
	defer server.Close()

	client := ollama.NewClient(server.URL)
	p := NewOllamaProvider(client)

	var final Message
	err := p.Chat(context.Background(), ChatRequest{ModelID: "llama3", Messages: []Message{{Role: RoleUser, Content: "hi"}}}, func(c ChatResponseChunk) error {
		if c.Done {
			final = c.Message
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Hi there", final.Content)
}

func TestOllamaProviderEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer server.Close()

	client := ollama.NewClient(server.URL)
	p := NewOllamaProvider(client)

	vec, err := p.Embed(context.Background(), "hello", "nomic-embed-text")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}
