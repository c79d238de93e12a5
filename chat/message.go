// Package chat implements the fixed agent conversation loop: stream a
// reply from the provider, execute any requested tool calls, feed results
// back, and repeat until the model stops asking for tools or an iteration
// cap is hit (SPEC_FULL.md §4.5).
package chat

import (
	"github.com/google/uuid"
	"github.com/nucleus-go/assistant/llms"
)

// ToolResult is what a single tool invocation produced, tied back to the
// ToolCallRequest that triggered it via ID.
type ToolResult struct {
	ToolCallID string
	ToolName   string
	Content    string
	Err        error
}

// History is an append-only ordered conversation: system/user/assistant/
// tool messages in chronological order.
type History struct {
	SessionID string
	Messages  []llms.Message
}

// NewHistory starts a fresh session, optionally seeded with a system
// prompt.
func NewHistory(systemPrompt string) *History {
	h := &History{SessionID: uuid.NewString()}
	if systemPrompt != "" {
		h.Messages = append(h.Messages, llms.Message{Role: llms.RoleSystem, Content: systemPrompt})
	}
	return h
}

func (h *History) Append(msg llms.Message) {
	h.Messages = append(h.Messages, msg)
}

// Snapshot returns a defensive copy of the messages so callers can hand
// them to a provider without risking later mutation.
func (h *History) Snapshot() []llms.Message {
	out := make([]llms.Message, len(h.Messages))
	copy(out, h.Messages)
	return out
}
