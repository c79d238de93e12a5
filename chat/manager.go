package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nucleus-go/assistant/llms"
	"github.com/nucleus-go/assistant/rag"
	"github.com/nucleus-go/assistant/tools"
)

// defaultMaxIterations bounds the tool-call round-trip loop so a model that
// keeps requesting tools forever cannot run unbounded.
const defaultMaxIterations = 10

// Manager drives one fixed conversation loop per query: retrieve context,
// call the provider, execute any requested tools, feed results back, and
// repeat until the model responds without requesting a tool or the
// iteration cap is reached.
type Manager struct {
	provider      llms.Provider
	tools         *tools.Registry
	rag           *rag.Engine // nil disables retrieval augmentation
	modelID       string
	temperature   float64
	maxIterations int
}

// Option configures a Manager.
type Option func(*Manager)

func WithRAG(engine *rag.Engine) Option {
	return func(m *Manager) { m.rag = engine }
}

func WithTemperature(t float64) Option {
	return func(m *Manager) { m.temperature = t }
}

func WithMaxIterations(n int) Option {
	return func(m *Manager) { m.maxIterations = n }
}

// New constructs a Manager bound to one provider, modelID, and tool registry.
func New(provider llms.Provider, modelID string, registry *tools.Registry, opts ...Option) *Manager {
	m := &Manager{
		provider:      provider,
		modelID:       modelID,
		tools:         registry,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnChunk is invoked with every incremental content fragment as it streams.
type OnChunk func(content string)

// QueryStream runs one full agent turn: it retrieves RAG context (if
// configured), prepends it to the user's message, then loops provider calls
// and tool executions until the model produces a response with no tool
// calls. It returns the final assistant text. A retrieval failure is logged
// and the turn continues without context.
//
// This round's messages are buffered locally and only committed to history
// once the round succeeds — a failed round (provider error, a failing tool
// call, cancellation, or exhausting the iteration cap) leaves history
// exactly as it was before the call.
func (m *Manager) QueryStream(ctx context.Context, history *History, userMessage string, onChunk OnChunk) (string, error) {
	augmented := userMessage
	if m.rag != nil {
		ragContext, err := m.rag.RetrieveContext(ctx, userMessage)
		if err != nil {
			slog.Warn("chat: retrieve context failed, continuing without it", "error", err)
		} else {
			augmented = ragContext + userMessage
		}
	}

	pending := []llms.Message{{Role: llms.RoleUser, Content: augmented}}
	toolDefs := m.toolDefinitions()

	var finalText string
	for iteration := 0; iteration < m.maxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return finalText, ctx.Err()
		default:
		}

		req := llms.ChatRequest{
			ModelID:     m.modelID,
			Messages:    append(history.Snapshot(), pending...),
			Temperature: m.temperature,
			Tools:       toolDefs,
		}

		var final llms.Message
		err := m.provider.Chat(ctx, req, func(chunk llms.ChatResponseChunk) error {
			if chunk.Content != "" && onChunk != nil {
				onChunk(chunk.Content)
			}
			if chunk.Done {
				final = chunk.Message
			}
			return nil
		})
		if err != nil {
			return finalText, fmt.Errorf("chat: provider call failed: %w", err)
		}

		finalText = final.Content
		if len(final.ToolCalls) == 0 {
			pending = append(pending, llms.Message{Role: llms.RoleAssistant, Content: final.Content})
			for _, msg := range pending {
				history.Append(msg)
			}
			return finalText, nil
		}

		pending = append(pending, llms.Message{Role: llms.RoleAssistant, Content: final.Content, ToolCalls: final.ToolCalls})

		for _, call := range final.ToolCalls {
			if err := ctx.Err(); err != nil {
				return finalText, err
			}
			result, execErr := m.tools.Execute(ctx, call.Name, call.Arguments)
			if execErr != nil {
				return finalText, fmt.Errorf("chat: tool %s failed: %w", call.Name, execErr)
			}
			pending = append(pending, llms.Message{
				Role:       llms.RoleTool,
				Content:    result.Content,
				ToolCallID: call.ID,
			})
		}
	}

	return finalText, fmt.Errorf("chat: exceeded max iterations (%d) without a final response", m.maxIterations)
}

func (m *Manager) toolDefinitions() []llms.ToolDefinition {
	specs := m.tools.All()
	defs := make([]llms.ToolDefinition, len(specs))
	for i, s := range specs {
		defs[i] = llms.ToolDefinition{
			Name:        s.Name,
			Description: s.Description,
			Parameters:  paramSchemaToJSONSchema(s.Schema),
		}
	}
	return defs
}

func paramSchemaToJSONSchema(schema tools.ParamSchema) map[string]interface{} {
	properties := make(map[string]interface{}, len(schema.Properties))
	for name, p := range schema.Properties {
		properties[name] = map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
	}
	return map[string]interface{}{
		"type":       schema.Type,
		"required":   schema.Required,
		"properties": properties,
	}
}
