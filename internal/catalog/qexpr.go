package catalog

import (
	"fmt"
	"net/url"
	"strings"
)

// resourceURL builds <apiBaseUrl>/ic/api/integration/v1/monitoring/<segments...>.
func resourceURL(apiBaseURL string, segments ...string) string {
	parts := []string{strings.TrimRight(apiBaseURL, "/") + "/ic/api/integration/v1/monitoring"}
	parts = append(parts, segments...)
	return strings.Join(parts, "/")
}

// baseParams seeds the query string every GET carries: integrationInstance
// from tenant config (spec.md §6: "All GETs accept integrationInstance
// (injected from tenant config)...").
func baseParams(integrationInstance string) url.Values {
	v := url.Values{}
	if integrationInstance != "" {
		v.Set("integrationInstance", integrationInstance)
	}
	return v
}

// qClause is one key:'value' pair inside an opaque q expression.
type qClause struct {
	key, value string
}

// buildQuery renders clauses into the brace-delimited, comma-separated q
// expression the upstream expects (spec.md §6), skipping empty values.
func buildQuery(clauses ...qClause) string {
	var parts []string
	for _, c := range clauses {
		if c.value == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:'%s'", c.key, c.value))
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
