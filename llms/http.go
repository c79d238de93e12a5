package llms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/nucleus-go/assistant/internal/httpclient"
)

// HTTPProvider is a generic NDJSON-streaming backend for any endpoint that
// speaks the same request/response shape as the OpenAI chat-completions
// API, except that streamed chunks are newline-delimited JSON objects
// rather than "data: "-prefixed SSE events. This lets the same decode loop
// serve any self-hosted or proxy endpoint that emits one JSON object per
// line instead of requiring a dedicated SSE reader.
type HTTPProvider struct {
	baseURL  string
	apiKey   string
	client   *httpclient.Client
	watchdog streamWatchdog
}

// NewHTTPProvider constructs a provider against baseURL (no trailing
// slash), authenticating with apiKey via a Bearer header when non-empty.
func NewHTTPProvider(baseURL, apiKey string, client *httpclient.Client, opts ...ProviderOption) *HTTPProvider {
	if client == nil {
		client = httpclient.New()
	}
	p := &HTTPProvider{baseURL: baseURL, apiKey: apiKey, client: client, watchdog: defaultStreamWatchdog()}
	for _, opt := range opts {
		opt(&p.watchdog)
	}
	return p
}

type httpToolCall struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type httpMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []httpToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type httpDelta struct {
	Content   string         `json:"content"`
	ToolCalls []httpToolCall `json:"tool_calls,omitempty"`
}

type httpStreamChoice struct {
	Delta        httpDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason"`
}

type httpStreamChunk struct {
	Choices []httpStreamChoice `json:"choices"`
}

type httpChatRequest struct {
	Model       string        `json:"model"`
	Messages    []httpMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
	Tools       []httpToolDef `json:"tools,omitempty"`
}

type httpToolDef struct {
	Type     string `json:"type"`
	Function struct {
		Name        string                 `json:"name"`
		Description string                 `json:"description"`
		Parameters  map[string]interface{} `json:"parameters"`
	} `json:"function"`
}

func toHTTPMessages(msgs []Message) []httpMessage {
	out := make([]httpMessage, len(msgs))
	for i, m := range msgs {
		out[i] = httpMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCalls:  toHTTPToolCalls(m.ToolCalls),
			ToolCallID: m.ToolCallID,
		}
	}
	return out
}

// toHTTPToolCalls re-encodes each ToolCallRequest's arguments as a JSON
// string, matching the wire shape OpenAI-compatible chat-completions
// endpoints expect for an assistant message's tool_calls (as opposed to
// Ollama's /api/chat, which sends arguments as a JSON object).
func toHTTPToolCalls(calls []ToolCallRequest) []httpToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]httpToolCall, len(calls))
	for i, c := range calls {
		out[i].ID = c.ID
		out[i].Function.Name = c.Name
		argBytes, err := json.Marshal(c.Arguments)
		if err != nil {
			argBytes = []byte("{}")
		}
		out[i].Function.Arguments = string(argBytes)
	}
	return out
}

func toHTTPTools(tools []ToolDefinition) []httpToolDef {
	if len(tools) == 0 {
		return nil
	}
	out := make([]httpToolDef, len(tools))
	for i, t := range tools {
		out[i].Type = "function"
		out[i].Function.Name = t.Name
		out[i].Function.Description = t.Description
		out[i].Function.Parameters = t.Parameters
	}
	return out
}

// Chat POSTs a streaming chat request and decodes the response body one
// line at a time, each line a complete JSON chunk. Tool call deltas arrive
// indexed and fragmented (arguments built up character-by-character across
// chunks); each index's id, name and argument fragments are collected over
// the whole stream, and the assembled list is handed to toolCallAccumulator
// only on the chunk that carries a finish_reason, so tool calls appear in
// the message snapshot of that final chunk alone.
func (p *HTTPProvider) Chat(ctx context.Context, req ChatRequest, callback ChatCallback) error {
	payload := httpChatRequest{
		Model:       req.ModelID,
		Messages:    toHTTPMessages(req.Messages),
		Temperature: req.Temperature,
		Stream:      true,
		Tools:       toHTTPTools(req.Tools),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return newError(Other, "failed to marshal chat request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return newError(Other, "failed to build chat request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/x-ndjson")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return newError(Transport, "chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newError(Api, fmt.Sprintf("backend returned status %d", resp.StatusCode), nil)
	}

	acc := &toolCallAccumulator{}
	argBuf := map[int]*toolCallBuild{}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ls := newLineStream(scanner)
	timeout := p.watchdog.creation
	for {
		raw, ok, err := ls.next(ctx, timeout)
		if err != nil {
			if _, isProviderErr := err.(*Error); isProviderErr {
				return err
			}
			return newError(Transport, "chat stream read failed", err)
		}
		if !ok {
			return nil
		}
		timeout = p.watchdog.inactivity

		line := bytes.TrimSpace([]byte(raw))
		if len(line) == 0 {
			continue
		}

		var chunk httpStreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			return newError(Decode, "failed to decode chat stream chunk", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			acc.addContent(choice.Delta.Content)
		}
		for _, tc := range choice.Delta.ToolCalls {
			b, ok := argBuf[tc.Index]
			if !ok {
				b = &toolCallBuild{}
				argBuf[tc.Index] = b
			}
			if tc.ID != "" {
				b.id = tc.ID
			}
			if tc.Function.Name != "" {
				b.name = tc.Function.Name
			}
			b.args.WriteString(tc.Function.Arguments)
		}

		done := choice.FinishReason != nil
		if done && len(argBuf) > 0 {
			acc.setToolCalls(finalizeToolCalls(argBuf))
		}

		out := ChatResponseChunk{
			Content: choice.Delta.Content,
			Done:    done,
			Message: acc.snapshot(RoleAssistant),
		}
		if err := callback(out); err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

type toolCallBuild struct {
	id   string
	name string
	args bytes.Buffer
}

func finalizeToolCalls(buf map[int]*toolCallBuild) []ToolCallRequest {
	indices := make([]int, 0, len(buf))
	for idx := range buf {
		indices = append(indices, idx)
	}
	for i := 0; i < len(indices); i++ {
		for j := i + 1; j < len(indices); j++ {
			if indices[j] < indices[i] {
				indices[i], indices[j] = indices[j], indices[i]
			}
		}
	}

	out := make([]ToolCallRequest, 0, len(indices))
	for _, idx := range indices {
		b := buf[idx]
		var args map[string]interface{}
		if b.args.Len() > 0 {
			if err := json.Unmarshal(b.args.Bytes(), &args); err != nil {
				args = map[string]interface{}{}
			}
		}
		out = append(out, ToolCallRequest{ID: b.id, Name: b.name, Arguments: args})
	}
	return out
}

type httpEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type httpEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed requests a single embedding via the batch endpoint.
func (p *HTTPProvider) Embed(ctx context.Context, text string, modelID string) ([]float32, error) {
	out, err := p.EmbedBatch(ctx, []string{text}, modelID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, newError(Api, "embedding response contained no vectors", nil)
	}
	return out[0], nil
}

// EmbedBatch posts all texts to the embeddings endpoint in one request,
// preserving input order via each result's reported index.
func (p *HTTPProvider) EmbedBatch(ctx context.Context, texts []string, modelID string) ([][]float32, error) {
	body, err := json.Marshal(httpEmbedRequest{Model: modelID, Input: texts})
	if err != nil {
		return nil, newError(Other, "failed to marshal embed request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, newError(Other, "failed to build embed request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, newError(Transport, "embed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(Api, fmt.Sprintf("backend returned status %d", resp.StatusCode), nil)
	}

	var parsed httpEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, newError(Decode, "failed to decode embed response", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	return out, nil
}
