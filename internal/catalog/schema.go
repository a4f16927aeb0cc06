// Package catalog holds the fixed, statically-constructed table of Tool
// Definitions (spec.md §3, §4.2): one record per tool naming its schema and
// handler, built without reflection or inheritance (spec.md §9).
package catalog

import "github.com/nareshsaladi2024/OICAgentOps/internal/mcp"

// Property describes one input-schema parameter: semantic type, human
// description, optional enum/default/bounds, and whether it is required
// (spec.md §3 Tool Definition).
type Property struct {
	Name        string
	Type        string // "string", "integer", "number", "boolean", "array"
	Description string
	Enum        []string
	Default     any
	Minimum     *float64
	Maximum     *float64
	Required    bool
	// ItemType is the element type when Type == "array" (e.g. "string").
	ItemType string
}

func floatPtr(f float64) *float64 { return &f }

// Min and Max build bound pointers inline in a family's tool table.
func Min(f float64) *float64 { return floatPtr(f) }
func Max(f float64) *float64 { return floatPtr(f) }

// TenantProperty is the standard required `tenant` parameter every
// tenant-scoped tool declares (spec.md §3: "every tool declares tenant as
// a required parameter").
func TenantProperty() Property {
	return Property{
		Name:        "tenant",
		Type:        "string",
		Description: "Target tenant environment",
		Required:    true,
	}
}

// InputSchema renders the property table into the MCP wire schema returned
// by tools/list.
func (t Tool) InputSchema() mcp.ToolInputSchema {
	props := make(map[string]mcp.SchemaProperty, len(t.Properties))
	var required []string
	for _, p := range t.Properties {
		sp := mcp.SchemaProperty{
			Type:        p.Type,
			Description: p.Description,
			Default:     p.Default,
			Minimum:     p.Minimum,
			Maximum:     p.Maximum,
		}
		if p.Type == "array" && p.ItemType != "" {
			sp.Items = &mcp.SchemaProperty{Type: p.ItemType}
		}
		for _, e := range p.Enum {
			sp.Enum = append(sp.Enum, e)
		}
		props[p.Name] = sp
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: true, // unknown extra properties are silently ignored (spec.md §4.3)
	}
}

// JSONSchemaDocument renders the property table as a draft-7 JSON Schema
// document suitable for compiling with gojsonschema, used by the
// dispatcher to validate raw tool-call arguments before invoking a
// handler (spec.md §4.3 step 2).
func (t Tool) JSONSchemaDocument() map[string]any {
	props := make(map[string]any, len(t.Properties))
	var required []string
	for _, p := range t.Properties {
		node := map[string]any{"type": jsonSchemaType(p.Type)}
		if len(p.Enum) > 0 {
			enumVals := make([]any, len(p.Enum))
			for i, e := range p.Enum {
				enumVals[i] = e
			}
			node["enum"] = enumVals
		}
		if p.Minimum != nil {
			node["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			node["maximum"] = *p.Maximum
		}
		if p.Type == "array" && p.ItemType != "" {
			node["items"] = map[string]any{"type": jsonSchemaType(p.ItemType)}
		}
		props[p.Name] = node
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func jsonSchemaType(t string) string {
	if t == "" {
		return "string"
	}
	return t
}
