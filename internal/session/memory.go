package session

import (
	"context"
	"sync"
	"time"
)

// idleTTL matches the teacher's SSE session reaper window: a session with
// no activity for this long is treated as gone even if no explicit DELETE
// ever arrived.
const idleTTL = 30 * time.Minute

// MemoryRegistry is the default, single-process Registry (spec.md §4.4:
// "the default session backend is in-memory; Redis is an optional
// horizontal-scaling backend").
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]Info
	stop     chan struct{}
}

// NewMemory constructs a MemoryRegistry and starts its idle-session
// reaper.
func NewMemory() *MemoryRegistry {
	r := &MemoryRegistry{
		sessions: make(map[string]Info),
		stop:     make(chan struct{}),
	}
	go r.reapLoop()
	return r
}

func (r *MemoryRegistry) Create(ctx context.Context) (Info, error) {
	now := time.Now()
	info := Info{ID: NewID(), CreatedAt: now, UpdatedAt: now}

	r.mu.Lock()
	r.sessions[info.ID] = info
	r.mu.Unlock()

	return info, nil
}

func (r *MemoryRegistry) Touch(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	info.UpdatedAt = time.Now()
	r.sessions[id] = info
	return nil
}

func (r *MemoryRegistry) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *MemoryRegistry) Close() error {
	close(r.stop)
	return nil
}

func (r *MemoryRegistry) reapLoop() {
	ticker := time.NewTicker(idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.reapOnce(now)
		}
	}
}

func (r *MemoryRegistry) reapOnce(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, info := range r.sessions {
		if now.Sub(info.UpdatedAt) > idleTTL {
			delete(r.sessions, id)
		}
	}
}
