// Package server implements the in-process request router: the seam
// between an external transport (out of scope here) and the chat/RAG
// engine, dispatching by request kind and streaming back chunk/done/error
// records (SPEC_FULL.md §4.6).
package server

import (
	"context"
	"fmt"

	"github.com/nucleus-go/assistant/chat"
	"github.com/nucleus-go/assistant/rag"
)

// Kind is one of the five request kinds the router dispatches.
type Kind string

const (
	KindChat  Kind = "chat"
	KindEdit  Kind = "edit"
	KindAdd   Kind = "add"
	KindIndex Kind = "index"
	KindStats Kind = "stats"
)

// Request is one routed unit of work.
type Request struct {
	Kind    Kind
	Content string // chat/edit: the message; add: knowledge text; index: directory path
	History *chat.History
}

// RecordType distinguishes the three shapes a ResponseRecord can take.
type RecordType string

const (
	RecordChunk RecordType = "chunk"
	RecordDone  RecordType = "done"
	RecordError RecordType = "error"
)

// ResponseRecord is one streamed unit of a routed request's response.
type ResponseRecord struct {
	Type    RecordType
	Content string
}

// Router dispatches requests to the chat manager or RAG engine and streams
// results back over a channel, closing it once the request is fully
// handled (after a Done or Error record).
type Router struct {
	chat    *chat.Manager
	rag     *rag.Engine
	metrics *Metrics
}

// New constructs a Router. rag may be nil if add/index/stats are unused.
func New(chatManager *chat.Manager, ragEngine *rag.Engine, metrics *Metrics) *Router {
	return &Router{chat: chatManager, rag: ragEngine, metrics: metrics}
}

// Route dispatches req and returns a channel of ResponseRecord values. The
// channel is always closed by the time the returned error (if any, from
// the initial dispatch) is observed; callers drain it until closed.
func (r *Router) Route(ctx context.Context, req Request) (<-chan ResponseRecord, error) {
	out := make(chan ResponseRecord, 16)

	go func() {
		defer close(out)
		if r.metrics != nil {
			r.metrics.RequestStarted(string(req.Kind))
			defer r.metrics.RequestFinished(string(req.Kind))
		}

		switch req.Kind {
		case KindChat, KindEdit:
			r.routeChat(ctx, req, out)
		case KindAdd:
			r.routeAdd(ctx, req, out)
		case KindIndex:
			r.routeIndex(ctx, req, out)
		case KindStats:
			r.routeStats(ctx, out)
		default:
			out <- ResponseRecord{Type: RecordError, Content: fmt.Sprintf("unknown request kind: %s", req.Kind)}
		}
	}()

	return out, nil
}

func (r *Router) routeChat(ctx context.Context, req Request, out chan<- ResponseRecord) {
	history := req.History
	if history == nil {
		history = chat.NewHistory("")
	}

	full, err := r.chat.QueryStream(ctx, history, req.Content, func(content string) {
		out <- ResponseRecord{Type: RecordChunk, Content: content}
	})
	if err != nil {
		out <- ResponseRecord{Type: RecordError, Content: err.Error()}
		return
	}
	out <- ResponseRecord{Type: RecordDone, Content: full}
}

func (r *Router) routeAdd(ctx context.Context, req Request, out chan<- ResponseRecord) {
	if r.rag == nil {
		out <- ResponseRecord{Type: RecordError, Content: "knowledge base not configured"}
		return
	}
	if err := r.rag.AddKnowledge(ctx, req.Content, "user_input"); err != nil {
		out <- ResponseRecord{Type: RecordError, Content: fmt.Sprintf("failed to add: %v", err)}
		return
	}
	out <- ResponseRecord{Type: RecordDone, Content: "Added to knowledge base"}
}

func (r *Router) routeIndex(ctx context.Context, req Request, out chan<- ResponseRecord) {
	if r.rag == nil {
		out <- ResponseRecord{Type: RecordError, Content: "knowledge base not configured"}
		return
	}
	count, err := r.rag.IndexDirectory(ctx, req.Content)
	if err != nil {
		out <- ResponseRecord{Type: RecordError, Content: fmt.Sprintf("failed to index: %v", err)}
		return
	}
	out <- ResponseRecord{Type: RecordDone, Content: fmt.Sprintf("Indexed %d files from: %s", count, req.Content)}
}

func (r *Router) routeStats(ctx context.Context, out chan<- ResponseRecord) {
	if r.rag == nil {
		out <- ResponseRecord{Type: RecordError, Content: "knowledge base not configured"}
		return
	}
	count, err := r.rag.Count(ctx)
	if err != nil {
		out <- ResponseRecord{Type: RecordError, Content: fmt.Sprintf("failed to get stats: %v", err)}
		return
	}
	out <- ResponseRecord{Type: RecordDone, Content: fmt.Sprintf("Knowledge base contains %d documents", count)}
}
