package catalog

import (
	"fmt"

	"github.com/nareshsaladi2024/OICAgentOps/internal/upstream"
)

// erroredInstanceTools implements spec.md §4.2's Errored instances family:
// list, details, discard one, discard many, resubmit one, resubmit many.
func erroredInstanceTools() []Tool {
	return []Tool{
		{
			Name:        "monitoringErroredInstances",
			Description: "List errored integration instances for a tenant, optionally filtered by duration.",
			Properties: []Property{
				TenantProperty(),
				{Name: "duration", Type: "string", Description: "Relative time window, e.g. '1h' or '1d'"},
			},
			Handler: listErroredInstances,
		},
		{
			Name:        "monitoringErroredInstanceDetails",
			Description: "Get details for one errored instance by id.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceId", Type: "string", Description: "Errored instance identifier", Required: true},
			},
			Handler: erroredInstanceDetails,
		},
		{
			Name:        "monitoringDiscardErroredInstance",
			Description: "Discard one errored instance.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceId", Type: "string", Description: "Errored instance identifier", Required: true},
			},
			Handler: discardOne,
		},
		{
			Name:        "monitoringDiscardErroredInstances",
			Description: "Discard up to 50 errored instances by id, in one call.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceIds", Type: "array", ItemType: "string", Description: "Errored instance identifiers (max 50)", Required: true},
			},
			Handler: discardMany,
		},
		{
			Name:        "monitoringResubmitErroredInstance",
			Description: "Resubmit one errored instance.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceId", Type: "string", Description: "Errored instance identifier", Required: true},
			},
			Handler: resubmitOne,
		},
		{
			Name:        "monitoringResubmitErroredInstances",
			Description: "Resubmit up to 50 errored instances by id, in one call.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceIds", Type: "array", ItemType: "string", Description: "Errored instance identifiers (max 50)", Required: true},
			},
			Handler: resubmitMany,
		},
	}
}

func listErroredInstances(hc Context, args Args) (any, error) {
	duration, _ := args.String("duration")
	q := buildQuery(qClause{"timewindow", duration})
	u := resourceURL(hc.Tenant.APIBaseURL, "errors")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), q, hc.Tenant.ID)
}

func erroredInstanceDetails(hc Context, args Args) (any, error) {
	id, _ := args.String("instanceId")
	u := resourceURL(hc.Tenant.APIBaseURL, "errors", id)
	return hc.Client.GetSingle(hc, u, baseParams(hc.Tenant.IntegrationInstance), hc.Tenant.ID)
}

func discardOne(hc Context, args Args) (any, error) {
	id, _ := args.String("instanceId")
	u := resourceURL(hc.Tenant.APIBaseURL, "errors", id, "discard")
	return hc.Client.Post(hc, u, nil, map[string]any{}, hc.Tenant.ID)
}

func resubmitOne(hc Context, args Args) (any, error) {
	id, _ := args.String("instanceId")
	u := resourceURL(hc.Tenant.APIBaseURL, "errors", id, "resubmit")
	return hc.Client.Post(hc, u, nil, map[string]any{}, hc.Tenant.ID)
}

// InvalidArgumentsError is returned, rendered by the dispatcher as
// InvalidArguments, when a bulk array is empty or oversized (spec.md §4.5,
// L3, boundary scenario 6): validated here because the tool's JSON Schema
// carries no `minItems`/`maxItems` keywords, so the handler is what
// guarantees "no upstream traffic" on an empty or oversized array.
type InvalidArgumentsError struct{ Msg string }

func (e *InvalidArgumentsError) Error() string { return e.Msg }

func discardMany(hc Context, args Args) (any, error) {
	return bulkMutate(hc, args, "instanceIds", "discard")
}

func resubmitMany(hc Context, args Args) (any, error) {
	return bulkMutate(hc, args, "instanceIds", "resubmit")
}

func bulkMutate(hc Context, args Args, idsField, action string) (any, error) {
	ids := args.StringSlice(idsField)
	if len(ids) == 0 {
		return nil, &InvalidArgumentsError{Msg: fmt.Sprintf("%s must be a non-empty array", idsField)}
	}
	if len(ids) > upstream.MaxBulkIDs {
		return nil, &InvalidArgumentsError{Msg: fmt.Sprintf("%s exceeds the maximum of %d ids", idsField, upstream.MaxBulkIDs)}
	}

	if hc.Bulk == upstream.BulkModeCollective {
		u := resourceURL(hc.Tenant.APIBaseURL, "errors", action)
		return hc.Client.BulkCollective(hc, hc.Tenant.ID, u, ids)
	}

	urlFor := func(id string) string {
		return resourceURL(hc.Tenant.APIBaseURL, "errors", id, action)
	}
	return hc.Client.BulkFanout(hc, hc.Tenant.ID, ids, urlFor)
}
