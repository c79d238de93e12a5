package llms

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nucleus-go/assistant/ollama"
)

// OllamaProvider treats a local Ollama daemon as the "local in-process"
// backend: model loading, quantization, and weight management are Ollama's
// concern, not ours. It speaks /api/chat, which streams newline-delimited
// JSON objects identically whether or not tool calls are involved.
type OllamaProvider struct {
	client   *ollama.Client
	watchdog streamWatchdog
}

// NewOllamaProvider wraps an existing ollama.Client.
func NewOllamaProvider(client *ollama.Client, opts ...ProviderOption) *OllamaProvider {
	p := &OllamaProvider{client: client, watchdog: defaultStreamWatchdog()}
	for _, opt := range opts {
		opt(&p.watchdog)
	}
	return p
}

type ollamaChatMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	} `json:"function"`
}

type ollamaChatRequest struct {
	Model    string               `json:"model"`
	Messages []ollamaChatMessage  `json:"messages"`
	Stream   bool                 `json:"stream"`
	Options  ollamaChatOptions    `json:"options,omitempty"`
	Tools    []ollamaToolDef      `json:"tools,omitempty"`
}

type ollamaChatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaToolDef struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		Parameters  map[string]interface{} `json:"parameters"`
	} `json:"function"`
}

type ollamaChatChunk struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func toOllamaMessages(msgs []Message) []ollamaChatMessage {
	out := make([]ollamaChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = ollamaChatMessage{
			Role:      string(m.Role),
			Content:   m.Content,
			ToolCalls: toOllamaToolCalls(m.ToolCalls),
		}
	}
	return out
}

func toOllamaToolCalls(calls []ToolCallRequest) []ollamaToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ollamaToolCall, len(calls))
	for i, c := range calls {
		out[i].Function.Name = c.Name
		out[i].Function.Arguments = c.Arguments
	}
	return out
}

func toOllamaTools(tools []ToolDefinition) []ollamaToolDef {
	if len(tools) == 0 {
		return nil
	}
	out := make([]ollamaToolDef, len(tools))
	for i, t := range tools {
		out[i].Type = "function"
		out[i].Function.Name = t.Name
		out[i].Function.Description = t.Description
		out[i].Function.Parameters = t.Parameters
	}
	return out
}

// Chat implements Provider.Chat by streaming /api/chat, decoding one JSON
// object per line exactly as the daemon's own NDJSON protocol does for
// /api/generate — the same shape, just with chat messages in and out.
func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest, callback ChatCallback) error {
	payload := ollamaChatRequest{
		Model:    req.ModelID,
		Messages: toOllamaMessages(req.Messages),
		Stream:   true,
		Options:  ollamaChatOptions{Temperature: req.Temperature},
		Tools:    toOllamaTools(req.Tools),
	}

	resp, err := p.client.MakeStreamingRequest(ctx, "/api/chat", payload)
	if err != nil {
		return newError(Transport, "ollama chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newError(Api, fmt.Sprintf("ollama returned status %d", resp.StatusCode), nil)
	}

	acc := &toolCallAccumulator{}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ls := newLineStream(scanner)
	timeout := p.watchdog.creation
	for {
		line, ok, err := ls.next(ctx, timeout)
		if err != nil {
			if _, isProviderErr := err.(*Error); isProviderErr {
				return err
			}
			return newError(Transport, "ollama stream read failed", err)
		}
		if !ok {
			return nil
		}
		timeout = p.watchdog.inactivity

		if line == "" {
			continue
		}

		var chunk ollamaChatChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return newError(Decode, "failed to decode ollama chat chunk", err)
		}

		if chunk.Message.Content != "" {
			acc.addContent(chunk.Message.Content)
		}
		if len(chunk.Message.ToolCalls) > 0 {
			acc.setToolCalls(convertOllamaToolCalls(chunk.Message.ToolCalls))
		}

		out := ChatResponseChunk{
			Content: chunk.Message.Content,
			Done:    chunk.Done,
			Message: acc.snapshot(RoleAssistant),
		}
		if err := callback(out); err != nil {
			return err
		}

		if chunk.Done {
			return nil
		}
	}
}

func convertOllamaToolCalls(calls []ollamaToolCall) []ToolCallRequest {
	out := make([]ToolCallRequest, len(calls))
	for i, c := range calls {
		out[i] = ToolCallRequest{Name: c.Function.Name, Arguments: c.Function.Arguments}
	}
	return out
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed calls /api/embeddings. Ollama embedding requests are serialized
// upstream by the caller (see embedder.NewOllamaBacked), because the daemon
// has a documented crash under concurrent embedding requests against the
// same model.
func (p *OllamaProvider) Embed(ctx context.Context, text string, modelID string) ([]float32, error) {
	resp, err := p.client.MakeRequest(ctx, "/api/embeddings", ollamaEmbedRequest{Model: modelID, Input: text})
	if err != nil {
		return nil, newError(Transport, "ollama embed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(Api, fmt.Sprintf("ollama returned status %d", resp.StatusCode), nil)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, newError(Decode, "failed to decode ollama embed response", err)
	}
	return out.Embedding, nil
}

// EmbedBatch embeds sequentially; Ollama's /api/embeddings has no native
// batch form.
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string, modelID string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := p.Embed(ctx, text, modelID)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
