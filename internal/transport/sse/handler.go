// Package sse implements Transport A (spec.md §4.4): the legacy two-leg
// MCP transport, GET /sse opening an event stream and advertising a
// session-scoped POST endpoint, POST /messages carrying a single JSON-RPC
// message whose reply is delivered asynchronously over the most recently
// opened stream for that session (spec.md: "if a session has multiple
// open SSE connections, the reply is delivered on whichever connection
// was most recently opened"). Grounded on the chi-routed GET/POST split
// in stacklok/toolhive's SSE test harness, generalized from its
// single-global-channel shape to one outbound channel per session so
// concurrent sessions don't cross-deliver.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nareshsaladi2024/OICAgentOps/internal/dispatch"
	"github.com/nareshsaladi2024/OICAgentOps/internal/jsonrpc"
	"github.com/nareshsaladi2024/OICAgentOps/internal/mcp"
	"github.com/nareshsaladi2024/OICAgentOps/internal/session"
)

// stream is one open SSE connection's outbound mailbox. Replacing a
// session's current stream closes the previous one's done channel so its
// handler goroutine exits without delivering any further messages.
type stream struct {
	out  chan []byte
	done chan struct{}
}

// Handler implements the legacy SSE transport. Each session's "current"
// stream lives only in this process: spec.md scopes this gateway to a
// single instance per the streaming transport's session registry, so no
// broker/pub-sub fan-out across replicas is needed here (contrast with
// the Redis-backed session.Registry, which only tracks liveness).
type Handler struct {
	log        *slog.Logger
	dispatcher *dispatch.Dispatcher
	sessions   session.Registry

	mu      sync.Mutex
	streams map[string]*stream
}

// New constructs an SSE transport Handler; Mount registers its routes.
func New(log *slog.Logger, d *dispatch.Dispatcher, sessions session.Registry) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, dispatcher: d, sessions: sessions, streams: make(map[string]*stream)}
}

// Mount registers /sse and /messages on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/sse", h.handleSSE)
	r.Post("/messages", h.handleMessages)
}

// handleSSE opens a session (minting one if no sessionId query parameter
// is present) and streams an initial "endpoint" event naming the
// session-scoped POST URL the client must use, per the legacy transport's
// handshake.
func (h *Handler) handleSSE(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessID := r.URL.Query().Get("sessionId")
	if sessID == "" {
		info, err := h.sessions.Create(ctx)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			h.log.ErrorContext(ctx, "session.create.fail", slog.String("err", err.Error()))
			return
		}
		sessID = info.ID
	} else if err := h.sessions.Touch(ctx, sessID); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	f, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	st := &stream{out: make(chan []byte, 16), done: make(chan struct{})}
	h.takeOver(sessID, st)
	defer h.releaseIfCurrent(sessID, st)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	endpointEvent := fmt.Sprintf("event: endpoint\ndata: /messages?sessionId=%s\n\n", sessID)
	if _, err := w.Write([]byte(endpointEvent)); err != nil {
		return
	}
	f.Flush()

	h.log.InfoContext(ctx, "sse.stream.open", slog.String("session", sessID))

	for {
		select {
		case <-ctx.Done():
			h.log.InfoContext(ctx, "sse.stream.close", slog.String("session", sessID))
			// The client disconnected: retire the session unless a newer
			// stream has already taken it over.
			h.mu.Lock()
			current := h.streams[sessID] == st
			h.mu.Unlock()
			if current {
				_ = h.sessions.Delete(context.Background(), sessID)
			}
			return
		case <-st.done:
			// Superseded by a newer connection for this session.
			return
		case payload := <-st.out:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			f.Flush()
		}
	}
}

// handleMessages accepts one JSON-RPC message for an existing session and
// replies 202 Accepted immediately; the JSON-RPC response (if any) is
// delivered asynchronously on the session's current SSE stream.
func (h *Handler) handleMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessID := r.URL.Query().Get("sessionId")
	if sessID == "" {
		http.Error(w, "missing sessionId query parameter", http.StatusBadRequest)
		return
	}
	if err := h.sessions.Touch(ctx, sessID); err != nil {
		http.Error(w, "unknown or expired session", http.StatusNotFound)
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		http.Error(w, "invalid JSON-RPC message: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusAccepted)

	req := msg.AsRequest()
	if req == nil {
		return
	}
	if req.ID == nil || req.ID.IsNil() {
		h.log.InfoContext(ctx, "notification.ignored", slog.String("method", req.Method), slog.String("session", sessID))
		return
	}

	go h.deliver(sessID, req)
}

// deliver runs the dispatcher and pushes the JSON-RPC response onto the
// session's current stream, if one is still open. A closed or superseded
// stream simply drops the message: the legacy transport has no delivery
// retry semantics of its own.
func (h *Handler) deliver(sessID string, req *jsonrpc.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var resp *jsonrpc.Response
	switch req.Method {
	case mcp.MethodInitialize:
		resp = h.initializeResult(req)
	default:
		resp = h.dispatcher.Handle(ctx, req)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		h.log.Error("sse.deliver.encode.fail", slog.String("err", err.Error()))
		return
	}

	h.mu.Lock()
	st := h.streams[sessID]
	h.mu.Unlock()
	if st == nil {
		return
	}

	select {
	case st.out <- b:
	case <-st.done:
	case <-time.After(10 * time.Second):
		h.log.Warn("sse.deliver.timeout", slog.String("session", sessID))
	}
}

func (h *Handler) initializeResult(req *jsonrpc.Request) *jsonrpc.Response {
	result := mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		ServerInfo:      mcp.ImplementationInfo{Name: "oicagentops-gateway", Version: "1.0.0"},
		Capabilities:    mcp.ServerCapabilities{Tools: &struct {
			ListChanged bool `json:"listChanged"`
		}{ListChanged: false}},
	}
	resp, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	}
	return resp
}

// takeOver installs st as the current stream for sessID, closing out
// whatever stream previously held that title.
func (h *Handler) takeOver(sessID string, st *stream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.streams[sessID]; ok {
		close(prev.done)
	}
	h.streams[sessID] = st
}

// releaseIfCurrent removes st from the registry only if it is still the
// current stream for sessID (a newer connection may have already taken
// over and closed it itself).
func (h *Handler) releaseIfCurrent(sessID string, st *stream) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streams[sessID] == st {
		delete(h.streams, sessID)
	}
}
