// Package streaming implements Transport B (spec.md §4.4): a single
// bidirectional endpoint, POST to send a JSON-RPC message and optionally
// open an SSE reply stream, GET to resume a server-initiated stream, and
// DELETE to terminate a session. The session id travels in the
// Mcp-Session-Id header rather than in the URL, mirroring the teacher's
// streaminghttp.StreamingHTTPHandler but stripped of the OIDC/bearer-auth
// machinery spec.md's Non-goals exclude.
package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/elnormous/contenttype"

	"github.com/nareshsaladi2024/OICAgentOps/internal/dispatch"
	"github.com/nareshsaladi2024/OICAgentOps/internal/jsonrpc"
	"github.com/nareshsaladi2024/OICAgentOps/internal/mcp"
	"github.com/nareshsaladi2024/OICAgentOps/internal/session"
)

const (
	mcpSessionIDHeader       = "Mcp-Session-Id"
	mcpProtocolVersionHeader = "Mcp-Protocol-Version"
)

var (
	jsonMediaType         = contenttype.NewMediaType("application/json")
	eventStreamMediaType  = contenttype.NewMediaType("text/event-stream")
	eventStreamMediaTypes = []contenttype.MediaType{eventStreamMediaType}
)

// Handler implements the streaming HTTP transport over a fixed tool
// dispatcher (spec.md §4.4). It holds no per-request state beyond a
// session registry; each request's tenant and upstream client are
// resolved fresh by the dispatcher.
type Handler struct {
	log        *slog.Logger
	dispatcher *dispatch.Dispatcher
	sessions   session.Registry
}

// New constructs a streaming transport Handler.
func New(log *slog.Logger, d *dispatch.Dispatcher, sessions session.Registry) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, dispatcher: d, sessions: sessions}
}

// ServeHTTP dispatches by method, matching the single-endpoint shape
// spec.md §4.4 describes for Transport B.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// lockedWriteFlusher serializes concurrent writes to the same SSE stream
// and stops writing once its context is done.
type lockedWriteFlusher struct {
	io.Writer
	http.Flusher
	mu  sync.Mutex
	ctx context.Context
}

func (l *lockedWriteFlusher) Write(p []byte) (int, error) {
	if l.ctx.Err() != nil {
		return 0, l.ctx.Err()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx.Err() != nil {
		return 0, l.ctx.Err()
	}
	return l.Writer.Write(p)
}

func (l *lockedWriteFlusher) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx.Err() == nil {
		l.Flusher.Flush()
	}
}

func writeSSEFrame(wf *lockedWriteFlusher, payload []byte) error {
	if _, err := wf.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := wf.Write(payload); err != nil {
		return err
	}
	if _, err := wf.Write([]byte("\n\n")); err != nil {
		return err
	}
	wf.Flush()
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// handlePost accepts one JSON-RPC message. Without a session header it
// must be an initialize request, which mints a new session. With one, it
// dispatches the request against the existing session and, for requests
// expecting a reply, opens a short-lived SSE stream carrying exactly one
// event before closing (spec.md §4.4: "the reply to a tools/call is
// delivered over the same response, framed as a single SSE event").
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(raw) > 0 && raw[0] == '[' {
		writeJSONError(w, http.StatusBadRequest, "JSON-RPC batch arrays are not supported")
		return
	}

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON-RPC message: "+err.Error())
		return
	}

	sessID := r.Header.Get(mcpSessionIDHeader)

	if sessID == "" {
		req := msg.AsRequest()
		if req == nil || req.Method != mcp.MethodInitialize {
			writeJSONError(w, http.StatusBadRequest, "expected an initialize request")
			return
		}
		h.handleInitialize(ctx, w, req)
		return
	}

	if err := h.sessions.Touch(ctx, sessID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "unknown or expired session")
			return
		}
		writeJSONError(w, http.StatusInternalServerError, "session lookup failed")
		h.log.ErrorContext(ctx, "session.touch.fail", slog.String("err", err.Error()))
		return
	}

	req := msg.AsRequest()
	if req == nil {
		// A client response to a server-initiated request: this gateway
		// never issues server-to-client requests, so there is nothing to
		// correlate it against.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if req.ID == nil || req.ID.IsNil() {
		h.handleNotification(ctx, w, req)
		return
	}

	f, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	wf := &lockedWriteFlusher{Writer: w, Flusher: f, ctx: ctx}

	resp := h.dispatcher.Handle(ctx, req)
	b, err := json.Marshal(resp)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set(mcpSessionIDHeader, sessID)
	w.Header().Set("Content-Type", eventStreamMediaType.String())
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := writeSSEFrame(wf, b); err != nil {
		h.log.ErrorContext(ctx, "sse.write.fail", slog.String("err", err.Error()))
	}
	h.log.InfoContext(ctx, "stream.post.ok", slog.String("method", req.Method), slog.Duration("dur", time.Since(start)))
}

func (h *Handler) handleInitialize(ctx context.Context, w http.ResponseWriter, req *jsonrpc.Request) {
	var initReq mcp.InitializeRequest
	if err := json.Unmarshal(req.Params, &initReq); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid initialize params")
		return
	}

	info, err := h.sessions.Create(ctx)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to create session")
		h.log.ErrorContext(ctx, "session.create.fail", slog.String("err", err.Error()))
		return
	}

	result := mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		ServerInfo:      mcp.ImplementationInfo{Name: "oicagentops-gateway", Version: "1.0.0"},
		Capabilities:    mcp.ServerCapabilities{Tools: &struct {
			ListChanged bool `json:"listChanged"`
		}{ListChanged: false}},
	}

	resp, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode initialize result")
		return
	}

	w.Header().Set(mcpSessionIDHeader, info.ID)
	w.Header().Set(mcpProtocolVersionHeader, mcp.ProtocolVersion)
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
	h.log.InfoContext(ctx, "session.initialize.ok", slog.String("session", info.ID))
}

func (h *Handler) handleNotification(ctx context.Context, w http.ResponseWriter, req *jsonrpc.Request) {
	if req.Method == mcp.MethodInitializedNotify || req.Method == mcp.MethodCancelledNotify {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	h.log.InfoContext(ctx, "notification.ignored", slog.String("method", req.Method))
}

// handleGet resumes a server-initiated stream for an existing session.
// This gateway never pushes unsolicited server-to-client messages, so the
// stream opens, confirms liveness, and idles until the client or a
// context deadline closes it.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, _, err := contenttype.GetAcceptableMediaType(r, eventStreamMediaTypes); err != nil {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		return
	}

	sessID := r.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.sessions.Touch(ctx, sessID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	f, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	wf := &lockedWriteFlusher{Writer: w, Flusher: f, ctx: ctx}

	w.Header().Set("Content-Type", eventStreamMediaType.String())
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	wf.Flush()

	h.log.InfoContext(ctx, "stream.get.open", slog.String("session", sessID))
	<-ctx.Done()
	h.log.InfoContext(ctx, "stream.get.close", slog.String("session", sessID))
}

// handleDelete terminates a session.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessID := r.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.sessions.Delete(ctx, sessID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
