package llms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPProviderChatContentConcatenation(t *testing.T) {
	lines := []string{
		`{"choices":[{"delta":{"content":"Hel"},"finish_reason":null}]}` + "\n",
		`{"choices":[{"delta":{"content":"lo"},"finish_reason":null}]}` + "\n",
		`{"choices":[{"delta":{"content":""},"finish_reason":"stop"}]}` + "\n",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, l := range lines {
			_, _ = w.Write([]byte(l))
		}
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, "", nil)

	var final Message
	var chunks []string
	err := p.Chat(context.Background(), ChatRequest{ModelID: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}}, func(c ChatResponseChunk) error {
		chunks = append(chunks, c.Content)
		if c.Done {
			final = c.Message
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Hello", final.Content)
	require.Equal(t, []string{"Hel", "lo", ""}, chunks)
}

func TestHTTPProviderToolCallAccumulation(t *testing.T) {
	lines := []string{
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"search","arguments":"{\"q\":"}}]},"finish_reason":null}]}` + "\n",
		`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"beta\"}"}}]},"finish_reason":null}]}` + "\n",
		`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}` + "\n",
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, l := range lines {
			_, _ = w.Write([]byte(l))
		}
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, "", nil)

	var final Message
	err := p.Chat(context.Background(), ChatRequest{ModelID: "m", Messages: []Message{{Role: RoleUser, Content: "hi"}}}, func(c ChatResponseChunk) error {
		if c.Done {
			final = c.Message
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, final.ToolCalls, 1)
	require.Equal(t, "search", final.ToolCalls[0].Name)
	require.Equal(t, "beta", final.ToolCalls[0].Arguments["q"])
}

func TestHTTPProviderEmbedBatchPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, "", nil)
	out, err := p.EmbedBatch(context.Background(), []string{"a", "b"}, "m")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0}, out[0])
	require.Equal(t, []float32{0, 1}, out[1])
}

func TestHTTPProviderNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL, "", nil)
	err := p.Chat(context.Background(), ChatRequest{ModelID: "m"}, func(ChatResponseChunk) error { return nil })
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, Api, perr.Kind)
}
