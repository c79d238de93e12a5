package chat

import (
	"context"
	"testing"

	"github.com/nucleus-go/assistant/llms"
	"github.com/nucleus-go/assistant/permission"
	"github.com/nucleus-go/assistant/tools"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays a fixed sequence of final messages, one per
// Chat call, streaming each as a single Done chunk.
type scriptedProvider struct {
	responses []llms.Message
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, req llms.ChatRequest, cb llms.ChatCallback) error {
	msg := p.responses[p.calls]
	p.calls++
	return cb(llms.ChatResponseChunk{Content: msg.Content, Done: true, Message: msg})
}

func (p *scriptedProvider) Embed(ctx context.Context, text string, modelID string) ([]float32, error) {
	return []float32{1}, nil
}

func (p *scriptedProvider) EmbedBatch(ctx context.Context, texts []string, modelID string) ([][]float32, error) {
	return nil, nil
}

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echo" }
func (echoTool) Schema() tools.ParamSchema {
	return tools.ParamSchema{Type: "object"}
}
func (echoTool) RequiredPermission() permission.Permission { return permission.None }
func (echoTool) Execute(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
	return tools.Result{Content: "echoed"}, nil
}

// S5: a model that requests a tool gets fed the tool result and produces a
// final answer on the next round.
func TestQueryStreamToolRoundTrip(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llms.Message{
			{Role: llms.RoleAssistant, ToolCalls: []llms.ToolCallRequest{{ID: "1", Name: "echo", Arguments: nil}}},
			{Role: llms.RoleAssistant, Content: "final answer"},
		},
	}
	registry := tools.NewRegistry(permission.All)
	require.True(t, registry.Register(echoTool{}))

	mgr := New(provider, "model", registry)
	history := NewHistory("")

	var streamed string
	out, err := mgr.QueryStream(context.Background(), history, "hi", func(c string) { streamed += c })
	require.NoError(t, err)
	require.Equal(t, "final answer", out)
	require.Equal(t, "final answer", streamed)
	require.Equal(t, 2, provider.calls)

	// history should contain: user, assistant(tool_calls), tool, assistant(final)
	require.Len(t, history.Messages, 4)
	require.Equal(t, llms.RoleTool, history.Messages[2].Role)
	require.Equal(t, "echoed", history.Messages[2].Content)
}

func TestQueryStreamNoToolCallsReturnsImmediately(t *testing.T) {
	provider := &scriptedProvider{
		responses: []llms.Message{{Role: llms.RoleAssistant, Content: "hello"}},
	}
	registry := tools.NewRegistry(permission.All)
	mgr := New(provider, "model", registry)
	history := NewHistory("")

	out, err := mgr.QueryStream(context.Background(), history, "hi", nil)
	require.NoError(t, err)
	require.Equal(t, "hello", out)
	require.Equal(t, 1, provider.calls)
}

func TestQueryStreamExceedsMaxIterations(t *testing.T) {
	responses := make([]llms.Message, 0, 5)
	for i := 0; i < 5; i++ {
		responses = append(responses, llms.Message{
			Role:      llms.RoleAssistant,
			ToolCalls: []llms.ToolCallRequest{{ID: "1", Name: "echo"}},
		})
	}
	provider := &scriptedProvider{responses: responses}
	registry := tools.NewRegistry(permission.All)
	require.True(t, registry.Register(echoTool{}))

	mgr := New(provider, "model", registry, WithMaxIterations(3))
	history := NewHistory("")

	_, err := mgr.QueryStream(context.Background(), history, "hi", nil)
	require.Error(t, err)
}

func TestQueryStreamCancellation(t *testing.T) {
	provider := &scriptedProvider{responses: []llms.Message{{Role: llms.RoleAssistant, Content: "hi"}}}
	registry := tools.NewRegistry(permission.All)
	mgr := New(provider, "model", registry)
	history := NewHistory("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mgr.QueryStream(ctx, history, "hi", nil)
	require.Error(t, err)
}
