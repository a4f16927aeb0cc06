// Package dispatch resolves a tools/call request against the catalog,
// validates its arguments, acquires a tenant token, invokes the handler,
// and shapes the result into the MCP content envelope (spec.md §4.3).
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"github.com/nareshsaladi2024/OICAgentOps/internal/catalog"
	"github.com/nareshsaladi2024/OICAgentOps/internal/config"
	"github.com/nareshsaladi2024/OICAgentOps/internal/jsonrpc"
	"github.com/nareshsaladi2024/OICAgentOps/internal/logctx"
	"github.com/nareshsaladi2024/OICAgentOps/internal/mcp"
	"github.com/nareshsaladi2024/OICAgentOps/internal/tokencache"
	"github.com/nareshsaladi2024/OICAgentOps/internal/upstream"
)

// Authorizer acquires a usable bearer token for a tenant and evicts it on
// Invalidate; the single retry after an upstream 401 is made by
// upstream.Client. It is the composition of internal/tokencache.Cache and
// a tokencache.Acquirer.
type Authorizer interface {
	Token(ctx context.Context, tenant string) (string, error)
	Invalidate(tenant string)
}

// tenantAuthorizer adapts a tokencache.Cache + Acquirer + one config.Tenant
// into the upstream.Authenticator / dispatch.Authorizer seam.
type tenantAuthorizer struct {
	cache  *tokencache.Cache
	acq    tokencache.Acquirer
	tenant config.Tenant
}

func (a *tenantAuthorizer) Token(ctx context.Context, _ string) (string, error) {
	tok, err := a.cache.Ensure(ctx, a.acq, a.tenant)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (a *tenantAuthorizer) Invalidate(_ string) {
	a.cache.Evict(a.tenant.ID)
}

// Dispatcher is the process-wide, stateless-between-calls tool dispatcher.
type Dispatcher struct {
	log      *slog.Logger
	tools    map[string]catalog.Tool
	schemas  map[string]*gojsonschema.Schema
	ordered  []catalog.Tool
	tenants  *config.Registry
	cache    *tokencache.Cache
	acq      tokencache.Acquirer
	bulkMode upstream.BulkMode
}

// New compiles the catalog's JSON schemas once and returns a ready
// Dispatcher. A malformed schema is a programmer error in the catalog, not
// a runtime condition, so New panics rather than returning an error —
// mirrored on the teacher's static-tools-container construction pattern,
// which likewise treats a bad static definition as fatal at startup.
func New(log *slog.Logger, tenants *config.Registry, cache *tokencache.Cache, acq tokencache.Acquirer, bulkMode upstream.BulkMode) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	all := catalog.All()
	d := &Dispatcher{
		log:      log,
		tools:    make(map[string]catalog.Tool, len(all)),
		schemas:  make(map[string]*gojsonschema.Schema, len(all)),
		ordered:  all,
		tenants:  tenants,
		cache:    cache,
		acq:      acq,
		bulkMode: bulkMode,
	}
	for _, t := range all {
		if _, dup := d.tools[t.Name]; dup {
			panic("catalog: duplicate tool name " + t.Name)
		}
		d.tools[t.Name] = t

		loader := gojsonschema.NewGoLoader(t.JSONSchemaDocument())
		schema, err := gojsonschema.NewSchema(loader)
		if err != nil {
			panic(fmt.Sprintf("catalog: invalid schema for tool %q: %v", t.Name, err))
		}
		d.schemas[t.Name] = schema
	}
	return d
}

// ListTools returns the full catalog in a stable name order (L2:
// tools/list is idempotent — repeated calls return byte-identical entries).
func (d *Dispatcher) ListTools() mcp.ListToolsResult {
	names := make([]string, 0, len(d.tools))
	for name := range d.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]mcp.Tool, 0, len(names))
	for _, name := range names {
		t := d.tools[name]
		out = append(out, mcp.Tool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema()})
	}
	return mcp.ListToolsResult{Tools: out}
}

// CallTool resolves, validates, authenticates, and invokes a tool, always
// returning a *mcp.CallToolResult (never a transport-level error) per
// spec.md §4.1: "Tool-level failures are returned as a successful JSON-RPC
// response whose MCP content carries isError=true".
func (d *Dispatcher) CallTool(ctx context.Context, name string, rawArgs json.RawMessage) *mcp.CallToolResult {
	tool, ok := d.tools[name]
	if !ok {
		return mcp.ErrorResult(fmt.Sprintf("Unknown tool: %s", name))
	}

	args, verr := d.validate(tool, rawArgs)
	if verr != nil {
		return mcp.ErrorResult(verr.Error())
	}

	tenantID, _ := args.String("tenant")
	tenant, terr := d.tenants.ConfigFor(tenantID)
	if terr != nil {
		if errors.Is(terr, config.ErrUnknownTenant) {
			return mcp.ErrorResult(fmt.Sprintf("Unknown tenant: %s", tenantID))
		}
		return mcp.ErrorResult(fmt.Sprintf("Tenant not configured: %s", tenantID))
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: name, Tenant: tenantID})
	d.log.InfoContext(ctx, "dispatch.call_tool")

	auth := &tenantAuthorizer{cache: d.cache, acq: d.acq, tenant: tenant}
	client := upstream.New(auth, d.log)
	hc := catalog.Context{Context: ctx, Tenant: tenant, Client: client, Bulk: d.bulkMode}

	payload, err := tool.Handler(hc, args)
	if err != nil {
		return mcp.ErrorResult(renderError(name, err))
	}

	if text, ok := payload.(string); ok {
		return mcp.TextResult(text)
	}

	b, merr := json.Marshal(payload)
	if merr != nil {
		return mcp.ErrorResult(fmt.Sprintf("Error executing %s: failed to encode result: %v", name, merr))
	}
	return mcp.TextResult(string(b))
}

// validate checks rawArgs against the tool's compiled JSON Schema and, on
// success, decodes it into a catalog.Args map. A schema violation is
// reported naming the offending field (spec.md §4.3 step 2: "missing
// required properties, out-of-enum values, and type mismatches each yield
// InvalidArguments with the offending field name").
func (d *Dispatcher) validate(tool catalog.Tool, rawArgs json.RawMessage) (catalog.Args, error) {
	if len(rawArgs) == 0 {
		rawArgs = json.RawMessage("{}")
	}

	var decoded any
	if err := json.Unmarshal(rawArgs, &decoded); err != nil {
		return nil, fmt.Errorf("Invalid arguments: %v", err)
	}

	schema := d.schemas[tool.Name]
	result, err := schema.Validate(gojsonschema.NewGoLoader(decoded))
	if err != nil {
		return nil, fmt.Errorf("Invalid arguments: %v", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("Invalid arguments: %s", describeValidationErrors(result.Errors()))
	}

	args, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("Invalid arguments: expected a JSON object")
	}
	return catalog.Args(args), nil
}

// describeValidationErrors renders the first schema violation, naming its
// field, to keep the surfaced message short and stable rather than dumping
// every violation gojsonschema collected.
func describeValidationErrors(errs []gojsonschema.ResultError) string {
	if len(errs) == 0 {
		return "validation failed"
	}
	first := errs[0]
	field := first.Field()
	if field == "" || field == "(root)" {
		return first.Description()
	}
	return fmt.Sprintf("%s: %s", field, first.Description())
}

// Handle routes one JSON-RPC request (already known to carry an id, i.e.
// not a notification) to tools/list or tools/call and shapes the
// JSON-RPC response. Both wire transports share this so the method
// dispatch table lives in exactly one place.
func (d *Dispatcher) Handle(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	switch req.Method {
	case mcp.MethodToolsList:
		result := d.ListTools()
		resp, err := jsonrpc.NewResultResponse(req.ID, result)
		if err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
		}
		return resp

	case mcp.MethodToolsCall:
		var call mcp.CallToolRequest
		if err := json.Unmarshal(req.Params, &call); err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid tools/call params", nil)
		}
		result := d.CallTool(ctx, call.Name, call.Arguments)
		resp, err := jsonrpc.NewResultResponse(req.ID, result)
		if err != nil {
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
		}
		return resp

	default:
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method), nil)
	}
}

// renderError renders a handler failure with the stable wording spec.md §7
// specifies for the taxonomy's surfaced kinds.
func renderError(toolName string, err error) string {
	var uerr *upstream.Error
	if errors.As(err, &uerr) {
		if uerr.Kind == upstream.KindUpstreamFailure {
			return fmt.Sprintf("Error executing %s: %s", toolName, uerr.Error())
		}
		return uerr.Error()
	}
	if invalidArgs, ok := asInvalidArguments(err); ok {
		return "Invalid arguments: " + invalidArgs
	}
	return fmt.Sprintf("Error executing %s: %v", toolName, err)
}
