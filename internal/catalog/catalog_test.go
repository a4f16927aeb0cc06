package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllHasNoDuplicateToolNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, tool := range All() {
		require.False(t, seen[tool.Name], "duplicate tool name %q", tool.Name)
		seen[tool.Name] = true
		require.NotEmpty(t, tool.Name)
		require.NotEmpty(t, tool.Description)
		require.NotNil(t, tool.Handler)
	}
	assert.NotEmpty(t, seen)
}

func TestEveryToolDeclaresTenantAsRequired(t *testing.T) {
	for _, tool := range All() {
		var found bool
		for _, p := range tool.Properties {
			if p.Name == "tenant" {
				found = true
				assert.True(t, p.Required, "tool %q declares tenant but not as required", tool.Name)
			}
		}
		assert.True(t, found, "tool %q does not declare a tenant property", tool.Name)
	}
}

func TestInputSchemaMarksRequiredProperties(t *testing.T) {
	tool := Tool{
		Name: "example",
		Properties: []Property{
			TenantProperty(),
			{Name: "errorId", Type: "string", Required: true},
			{Name: "duration", Type: "string"},
		},
	}
	schema := tool.InputSchema()
	assert.ElementsMatch(t, []string{"tenant", "errorId"}, schema.Required)
	assert.Contains(t, schema.Properties, "duration")
	assert.True(t, schema.AdditionalProperties)
}

func TestJSONSchemaDocumentRendersEnumAndBounds(t *testing.T) {
	tool := Tool{
		Name: "example",
		Properties: []Property{
			{Name: "status", Type: "string", Enum: []string{"ACTIVATED", "DEACTIVATED"}},
			{Name: "limit", Type: "integer", Minimum: Min(1), Maximum: Max(100)},
		},
	}
	doc := tool.JSONSchemaDocument()
	props := doc["properties"].(map[string]any)

	status := props["status"].(map[string]any)
	assert.Equal(t, []any{"ACTIVATED", "DEACTIVATED"}, status["enum"])

	limit := props["limit"].(map[string]any)
	assert.Equal(t, 1.0, limit["minimum"])
	assert.Equal(t, 100.0, limit["maximum"])
}

func TestArgsStringAndStringOr(t *testing.T) {
	a := Args{"tenant": "dev"}
	v, ok := a.String("tenant")
	assert.True(t, ok)
	assert.Equal(t, "dev", v)

	_, ok = a.String("missing")
	assert.False(t, ok)

	assert.Equal(t, "fallback", a.StringOr("missing", "fallback"))
	assert.Equal(t, "dev", a.StringOr("tenant", "fallback"))
}

func TestArgsIntTruncatesFloat(t *testing.T) {
	a := Args{"limit": float64(42)}
	v, ok := a.Int("limit")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = a.Int("missing")
	assert.False(t, ok)
}

func TestArgsStringSliceFiltersNonStrings(t *testing.T) {
	a := Args{"ids": []any{"1", "2", 3, "4"}}
	assert.Equal(t, []string{"1", "2", "4"}, a.StringSlice("ids"))

	assert.Nil(t, Args{}.StringSlice("ids"))
}

func TestResourceURLJoinsSegments(t *testing.T) {
	u := resourceURL("https://api.example.com/", "errors", "abc", "resubmit")
	assert.Equal(t, "https://api.example.com/ic/api/integration/v1/monitoring/errors/abc/resubmit", u)
}

func TestBuildQuerySkipsEmptyClauses(t *testing.T) {
	q := buildQuery(qClause{"status", "ACTIVATED"}, qClause{"timewindow", ""})
	assert.Equal(t, "{status:'ACTIVATED'}", q)

	assert.Equal(t, "", buildQuery(qClause{"timewindow", ""}))
}
