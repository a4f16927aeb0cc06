package catalog

import (
	"context"

	"github.com/nareshsaladi2024/OICAgentOps/internal/config"
	"github.com/nareshsaladi2024/OICAgentOps/internal/upstream"
)

// Context is everything a handler is given: the current tenant's config,
// and the upstream client primitives (spec.md §4.2 handler contract: "ctx
// exposes the current tenant's config... and the upstream client
// primitives").
type Context struct {
	context.Context
	Tenant config.Tenant
	Client *upstream.Client
	Bulk   upstream.BulkMode
}

// Args is the parsed, schema-validated argument object a handler receives.
type Args map[string]any

func (a Args) String(name string) (string, bool) {
	v, ok := a[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringOr returns the named string argument or def if absent/empty.
func (a Args) StringOr(name, def string) string {
	if s, ok := a.String(name); ok && s != "" {
		return s
	}
	return def
}

// Int returns the named numeric argument truncated to int, or ok=false.
func (a Args) Int(name string) (int, bool) {
	v, ok := a[name]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// StringSlice returns the named array-of-string argument, or an empty
// slice if absent.
func (a Args) StringSlice(name string) []string {
	v, ok := a[name]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Handler translates validated arguments into one or more upstream calls
// and returns a JSON-serializable payload, or a classified failure
// (spec.md §4.2).
type Handler func(hc Context, args Args) (any, error)

// Tool pairs a declarative definition with its handler (spec.md §3 Tool
// Definition).
type Tool struct {
	Name        string
	Description string
	Properties  []Property
	Handler     Handler
}

// All returns the fixed catalog: every tool family named in spec.md §4.2's
// table, constructed once at startup and never mutated (spec.md §4.2
// "Lifecycle: constructed at startup, immutable").
func All() []Tool {
	var tools []Tool
	tools = append(tools, instanceTools()...)
	tools = append(tools, integrationTools()...)
	tools = append(tools, agentTools()...)
	tools = append(tools, erroredInstanceTools()...)
	tools = append(tools, recoveryJobTools()...)
	tools = append(tools, auditTools()...)
	tools = append(tools, scheduledRunTools()...)
	return tools
}
