// Package session tracks the set of live MCP session ids across both wire
// transports (spec.md §4.4, §4.6). A session is nothing more than an
// opaque identifier plus a last-touched timestamp: the SSE transport's
// open stream and the streaming-HTTP transport's request/response cycle
// each live entirely within one process and are never themselves stored
// here, only whether their session id is still considered live.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Registry.Touch and Registry.Delete when the
// session id is unknown or has already expired.
var ErrNotFound = errors.New("session: not found")

// Info is the metadata tracked for one session.
type Info struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Registry creates, validates, and retires session ids. Implementations
// must be safe for concurrent use.
type Registry interface {
	// Create mints a new session id and records it as live.
	Create(ctx context.Context) (Info, error)

	// Touch refreshes a session's liveness (extends its TTL for
	// backends that expire idle sessions) and reports whether it is
	// still known. ErrNotFound means the caller should treat the
	// request as carrying an invalid or expired Mcp-Session-Id.
	Touch(ctx context.Context, id string) error

	// Delete retires a session id, e.g. on an explicit DELETE request
	// against the streaming transport or a closed SSE stream.
	Delete(ctx context.Context, id string) error

	// Close releases resources held by the registry.
	Close() error
}

// NewID generates a fresh, random session id shared by both Registry
// implementations so the wire representation stays backend-agnostic.
func NewID() string {
	return uuid.NewString()
}
