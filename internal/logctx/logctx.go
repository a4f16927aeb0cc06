// Package logctx enriches log records with request and tool-call data
// carried on the request context, so a single structured
// log line names the tenant, tool, and HTTP request it belongs to
// without every call site having to thread those fields through by hand.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps an slog.Handler and attaches any request/tool-call data
// found on the record's context as grouped attributes.
type Handler struct {
	slog.Handler
}

// New wraps log's handler with context enrichment.
func New(log *slog.Logger) *slog.Logger {
	return slog.New(Handler{Handler: log.Handler()})
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("remote_addr", rd.RemoteAddr),
			slog.String("path", rd.Path),
		))
	}

	if td, ok := ctx.Value(toolCallDataKey{}).(*ToolCallData); ok {
		r.AddAttrs(slog.Group("tool",
			slog.String("name", td.ToolName),
			slog.String("tenant", td.Tenant),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type requestDataKey struct{}

// RequestData identifies the inbound HTTP request a log line belongs to.
type RequestData struct {
	RequestID  string
	Method     string
	RemoteAddr string
	Path       string
}

// WithRequestData attaches req to ctx for handlers and everything they call.
func WithRequestData(ctx context.Context, req *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, req)
}

type toolCallDataKey struct{}

// ToolCallData identifies the tool invocation a log line belongs to.
type ToolCallData struct {
	ToolName string
	Tenant   string
}

// WithToolCallData attaches data to ctx for the duration of one tools/call
// dispatch, so log lines written with that ctx through a logger wrapped by
// New (the *Context logging methods) are tagged with it. internal/upstream
// and internal/tokencache log without a context, so their lines are not.
func WithToolCallData(ctx context.Context, data *ToolCallData) context.Context {
	return context.WithValue(ctx, toolCallDataKey{}, data)
}
