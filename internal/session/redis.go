package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry is the opt-in horizontal-scaling Registry (spec.md §4.4),
// grounded on the teacher's storage/redis backend: sessions live as
// plain keys with a TTL instead of a hash, since a session record here
// is only ever "present" or "absent" — no payload is attached to it.
type RedisRegistry struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedis constructs a RedisRegistry against an already-configured
// client. Callers own the client's lifecycle except for Close, which this
// Registry forwards to it.
func NewRedis(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client, keyPrefix: "oicagentops:session:"}
}

func (r *RedisRegistry) key(id string) string {
	return r.keyPrefix + id
}

func (r *RedisRegistry) Create(ctx context.Context) (Info, error) {
	now := time.Now()
	info := Info{ID: NewID(), CreatedAt: now, UpdatedAt: now}

	if err := r.client.Set(ctx, r.key(info.ID), now.Unix(), idleTTL).Err(); err != nil {
		return Info{}, fmt.Errorf("session: create: %w", err)
	}
	return info, nil
}

func (r *RedisRegistry) Touch(ctx context.Context, id string) error {
	ok, err := r.client.Expire(ctx, r.key(id), idleTTL).Result()
	if err != nil {
		return fmt.Errorf("session: touch: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (r *RedisRegistry) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
