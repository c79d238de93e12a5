package llms

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"
)

// Default watchdog durations per SPEC_FULL.md §4.3: a stream-creation
// timeout bounding the wait for the first chunk, and a tighter per-chunk
// inactivity timeout bounding the wait for every chunk after that.
const (
	DefaultStreamCreationTimeout  = 60 * time.Second
	DefaultChunkInactivityTimeout = 30 * time.Second
)

// streamWatchdog holds the two timeouts a streaming Chat call enforces.
type streamWatchdog struct {
	creation   time.Duration
	inactivity time.Duration
}

func defaultStreamWatchdog() streamWatchdog {
	return streamWatchdog{creation: DefaultStreamCreationTimeout, inactivity: DefaultChunkInactivityTimeout}
}

// ProviderOption configures watchdog timeouts shared by the streaming
// Provider backends (OllamaProvider, HTTPProvider).
type ProviderOption func(*streamWatchdog)

// WithStreamCreationTimeout overrides how long Chat waits for the first
// chunk before failing with a Timeout error.
func WithStreamCreationTimeout(d time.Duration) ProviderOption {
	return func(w *streamWatchdog) { w.creation = d }
}

// WithChunkInactivityTimeout overrides how long Chat waits for each
// subsequent chunk before failing with a Timeout error.
func WithChunkInactivityTimeout(d time.Duration) ProviderOption {
	return func(w *streamWatchdog) { w.inactivity = d }
}

// lineStream pumps a *bufio.Scanner's lines onto a channel from a
// background goroutine, so a caller can race the next line against a
// watchdog timer without blocking on the underlying network read.
type lineStream struct {
	lines chan string
	done  chan error
}

func newLineStream(scanner *bufio.Scanner) *lineStream {
	ls := &lineStream{lines: make(chan string), done: make(chan error, 1)}
	go func() {
		for scanner.Scan() {
			ls.lines <- scanner.Text()
		}
		close(ls.lines)
		ls.done <- scanner.Err()
	}()
	return ls
}

// next waits for the next line, the stream ending cleanly, ctx cancellation,
// or timeout expiry — whichever happens first. ok is false once the stream
// has ended with no error (a clean EOF without a final Done chunk).
func (ls *lineStream) next(ctx context.Context, timeout time.Duration) (line string, ok bool, err error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case <-timer.C:
		return "", false, newError(Timeout, fmt.Sprintf("no data received within %s", timeout), nil)
	case l, open := <-ls.lines:
		if !open {
			return "", false, <-ls.done
		}
		return l, true, nil
	}
}

// toolCallAccumulator implements the "last non-empty tool_calls list
// supersedes earlier ones" merge policy shared by every NDJSON-streaming
// backend: a chunk that carries a non-empty tool_calls list replaces
// whatever was accumulated so far, rather than being appended to it. This
// mirrors how providers resend the full tool_calls array on each delta
// that touches it instead of diffing individual fields.
type toolCallAccumulator struct {
	content strings.Builder
	calls   []ToolCallRequest
}

func (a *toolCallAccumulator) addContent(s string) {
	a.content.WriteString(s)
}

func (a *toolCallAccumulator) setToolCalls(calls []ToolCallRequest) {
	if len(calls) == 0 {
		return
	}
	a.calls = calls
}

func (a *toolCallAccumulator) snapshot(role Role) Message {
	return Message{
		Role:      role,
		Content:   a.content.String(),
		ToolCalls: a.calls,
	}
}
