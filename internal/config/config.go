// Package config loads the gateway's static process configuration and the
// fixed, closed set of tenant credentials from the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joeshaw/envdecode"
)

// TenantIDs is the fixed, closed set of tenant identifiers this build
// supports. A request naming any other tenant fails with UnknownTenant.
var TenantIDs = []string{"dev", "qa3", "prod1", "prod3"}

// Static holds process-wide settings that are not tenant-scoped.
type Static struct {
	Port              int    `env:"PORT,default=3000"`
	LogLevel          string `env:"NODE_ENV,default=development"`
	ShutdownDrainSecs int    `env:"GATEWAY_SHUTDOWN_DRAIN_SECONDS,default=5"`
	SessionBackend    string `env:"GATEWAY_SESSION_BACKEND,default=memory"`
	RedisURL          string `env:"REDIS_URL,default="`
	BulkMode          string `env:"GATEWAY_BULK_MODE,default=fanout"`
}

// LoadStatic decodes process-wide settings using the K env-var convention.
func LoadStatic() (Static, error) {
	var s Static
	if err := envdecode.StrictDecode(&s); err != nil {
		return Static{}, fmt.Errorf("decoding static config: %w", err)
	}
	return s, nil
}

// Tenant is a single tenant's immutable credential and endpoint snapshot.
type Tenant struct {
	ID                  string
	ClientID            string
	ClientSecret        string
	TokenURL            string
	APIBaseURL          string
	Scope               string
	IntegrationInstance string
}

// Complete reports whether the tenant has every credential required to
// acquire a token and call the upstream.
func (t Tenant) Complete() bool {
	return t.ClientID != "" && t.ClientSecret != "" && t.TokenURL != ""
}

// Registry is a read-only, process-lifetime snapshot of every configured
// tenant, keyed by tenant id.
type Registry struct {
	tenants map[string]Tenant
}

// LoadTenants reads, for every id in TenantIDs, the suffix-convention
// environment variables OIC_CLIENT_ID_<T>, OIC_CLIENT_SECRET_<T>,
// OIC_SCOPE_<T>, OIC_TOKEN_URL_<T>, OIC_API_BASE_URL_<T> and
// OIC_INTEGRATION_INSTANCE_<T>, building one Tenant record per id whether or
// not it is complete — incompleteness is only an error at request time
// (TenantNotConfigured), not at startup.
func LoadTenants() *Registry {
	r := &Registry{tenants: make(map[string]Tenant, len(TenantIDs))}
	for _, id := range TenantIDs {
		suffix := strings.ToUpper(id)
		r.tenants[id] = Tenant{
			ID:                  id,
			ClientID:            os.Getenv("OIC_CLIENT_ID_" + suffix),
			ClientSecret:        os.Getenv("OIC_CLIENT_SECRET_" + suffix),
			TokenURL:            os.Getenv("OIC_TOKEN_URL_" + suffix),
			APIBaseURL:          os.Getenv("OIC_API_BASE_URL_" + suffix),
			Scope:               os.Getenv("OIC_SCOPE_" + suffix),
			IntegrationInstance: os.Getenv("OIC_INTEGRATION_INSTANCE_" + suffix),
		}
	}
	return r
}

// ErrUnknownTenant and ErrTenantNotConfigured classify the two ways a tenant
// lookup can fail; callers map these to the MCP error taxonomy in
// internal/dispatch.
var (
	ErrUnknownTenant       = fmt.Errorf("unknown tenant")
	ErrTenantNotConfigured = fmt.Errorf("tenant not configured")
)

// ConfigFor returns the snapshot for the named tenant, or an error
// classifying why it cannot be used.
func (r *Registry) ConfigFor(id string) (Tenant, error) {
	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: %q", ErrUnknownTenant, id)
	}
	if !t.Complete() {
		return Tenant{}, fmt.Errorf("%w: %q", ErrTenantNotConfigured, id)
	}
	return t, nil
}

// AnyConfigured reports whether at least one tenant has complete
// credentials. Used at startup: if false, the process aborts (spec.md §7,
// "fatal to the process: only startup misconfiguration severe enough that
// no tenant is configured may abort startup").
func (r *Registry) AnyConfigured() bool {
	for _, t := range r.tenants {
		if t.Complete() {
			return true
		}
	}
	return false
}

// IDs returns every tenant id known to the registry, configured or not.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	return ids
}
