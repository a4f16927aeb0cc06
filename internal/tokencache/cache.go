// Package tokencache holds one bearer-token cache per tenant, acquiring and
// refreshing tokens via OAuth2 client-credentials and persisting them to a
// per-tenant file. The file is written on every store and removed on
// eviction; a Cache never reads it back, so a new Cache starts empty.
//
// Mirrors the teacher's file-backed, process-wide cached-token model
// (ggoodman/mcp-server-go's sessions host pattern) but keyed by tenant
// rather than by session, and adapted with the persisting-token-source idea
// from stacklok/toolhive's pkg/auth/remote/persisting_token_source.go.
package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/nareshsaladi2024/OICAgentOps/internal/config"
)

// safetyMargin is subtracted from a token's expiry; a token is usable only
// while now < expiry-safetyMargin (spec.md §3 Cached Token invariant).
const safetyMargin = 60 * time.Second

// defaultExpiresIn is used when the token endpoint omits expires_in.
const defaultExpiresIn = time.Hour

// Token is a cached bearer credential for one tenant.
type Token struct {
	AccessToken string    `json:"accessToken"`
	Expiry      time.Time `json:"-"`
	ExpiryMS    int64     `json:"expiry"`
	Environment string    `json:"environment"`
}

func (t Token) usable(now time.Time) bool {
	return t.AccessToken != "" && now.Before(t.Expiry.Add(-safetyMargin))
}

// tenantEntry is one tenant's in-memory cache plus the mutex that
// serializes its token acquisitions (spec.md §5: "at most one in-flight
// OAuth exchange per tenant; others wait and re-read").
type tenantEntry struct {
	mu    sync.Mutex
	token Token
}

// Cache is the process-wide, per-tenant token cache.
type Cache struct {
	log *slog.Logger
	dir string

	mu      sync.Mutex // protects entries map creation only
	entries map[string]*tenantEntry
}

// New constructs a Cache whose per-tenant files live under dir (typically
// os.UserHomeDir()).
func New(log *slog.Logger, dir string) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{log: log, dir: dir, entries: make(map[string]*tenantEntry)}
}

func (c *Cache) entryFor(tenant string) *tenantEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[tenant]
	if !ok {
		e = &tenantEntry{}
		c.entries[tenant] = e
	}
	return e
}

func (c *Cache) filePath(tenant string) string {
	return filepath.Join(c.dir, fmt.Sprintf(".oicagentops-token-%s.json", tenant))
}

// Get returns the cached token for tenant, if it is still usable. It takes
// the tenant's mutex, the same one Ensure holds for the whole token
// exchange, so a read for a tenant waits while an acquisition for that
// tenant is in flight; reads are neither lock-free nor read-shared.
func (c *Cache) Get(tenant string) (Token, bool) {
	e := c.entryFor(tenant)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.token.usable(time.Now()) {
		return e.token, true
	}
	return Token{}, false
}

// Put stores token for tenant with a computed absolute expiry and persists
// it to the tenant's file. expiresIn <= 0 uses defaultExpiresIn.
func (c *Cache) Put(tenant, accessToken string, expiresIn time.Duration) Token {
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}
	tok := Token{
		AccessToken: accessToken,
		Expiry:      time.Now().Add(expiresIn),
		Environment: tenant,
	}
	tok.ExpiryMS = tok.Expiry.UnixMilli()

	e := c.entryFor(tenant)
	e.mu.Lock()
	e.token = tok
	e.mu.Unlock()

	if err := c.persist(tenant, tok); err != nil {
		c.log.Warn("failed to persist token", "tenant", tenant, "error", err)
	}
	return tok
}

// Evict removes both the in-memory and on-disk record for tenant.
func (c *Cache) Evict(tenant string) {
	e := c.entryFor(tenant)
	e.mu.Lock()
	e.token = Token{}
	e.mu.Unlock()

	if err := os.Remove(c.filePath(tenant)); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.log.Warn("failed to remove persisted token", "tenant", tenant, "error", err)
	}
}

// EvictAll evicts every tenant named. Called on startup and shutdown
// (spec.md §4.4 "Startup/shutdown hygiene") so a stale bearer is never
// served across a configuration change.
func (c *Cache) EvictAll(tenants []string) {
	for _, t := range tenants {
		c.Evict(t)
	}
}

func (c *Cache) persist(tenant string, tok Token) error {
	b, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	tmp := c.filePath(tenant) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.filePath(tenant))
}

// Acquirer performs the OAuth2 client-credentials exchange for a tenant.
// The concrete implementation wraps golang.org/x/oauth2/clientcredentials;
// tests substitute a stub pointed at an httptest server.
type Acquirer interface {
	Acquire(ctx context.Context, t config.Tenant) (accessToken string, expiresIn time.Duration, err error)
}

// ClientCredentialsAcquirer performs a real OAuth2 client-credentials grant
// against the tenant's token endpoint, matching spec.md §4.4's protocol:
// POST with basic-auth (client_id:client_secret) and
// grant_type=client_credentials&scope=<scope>.
type ClientCredentialsAcquirer struct{}

// AuthenticationFailureError wraps a non-2xx response from the token
// endpoint, carrying the status and body per spec.md §7's AuthenticationFailure.
type AuthenticationFailureError struct {
	StatusCode int
	Body       string
}

func (e *AuthenticationFailureError) Error() string {
	return fmt.Sprintf("Authentication failed (%d): %s", e.StatusCode, e.Body)
}

func (ClientCredentialsAcquirer) Acquire(ctx context.Context, t config.Tenant) (string, time.Duration, error) {
	cc := &clientcredentials.Config{
		ClientID:     t.ClientID,
		ClientSecret: t.ClientSecret,
		TokenURL:     t.TokenURL,
		Scopes:       scopesOf(t.Scope),
	}

	tok, err := cc.Token(ctx)
	if err != nil {
		if rErr, ok := asRetrieveError(err); ok {
			return "", 0, &AuthenticationFailureError{StatusCode: rErr.statusCode, Body: rErr.body}
		}
		return "", 0, fmt.Errorf("token request: %w", err)
	}

	var expiresIn time.Duration
	if !tok.Expiry.IsZero() {
		expiresIn = time.Until(tok.Expiry)
	}
	return tok.AccessToken, expiresIn, nil
}

func scopesOf(scope string) []string {
	if scope == "" {
		return nil
	}
	return []string{scope}
}

// Ensure acquires a usable token for tenant, consulting the cache first and
// performing, at most, one in-flight OAuth exchange per tenant — concurrent
// callers for the same tenant block on the tenant's mutex and then re-read
// the cache rather than issuing duplicate token requests (spec.md §4.4
// invariant, P3).
func (c *Cache) Ensure(ctx context.Context, acq Acquirer, t config.Tenant) (Token, error) {
	if tok, ok := c.Get(t.ID); ok {
		return tok, nil
	}

	e := c.entryFor(t.ID)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-check under the lock: another goroutine may have refreshed while
	// we waited to acquire it.
	if e.token.usable(time.Now()) {
		return e.token, nil
	}

	accessToken, expiresIn, err := acq.Acquire(ctx, t)
	if err != nil {
		return Token{}, err
	}

	tok := Token{AccessToken: accessToken, Expiry: time.Now().Add(nonZero(expiresIn)), Environment: t.ID}
	tok.ExpiryMS = tok.Expiry.UnixMilli()
	e.token = tok
	if perr := c.persist(t.ID, tok); perr != nil {
		c.log.Warn("failed to persist token", "tenant", t.ID, "error", perr)
	}
	return tok, nil
}

func nonZero(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultExpiresIn
	}
	return d
}
