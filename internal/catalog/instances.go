package catalog

// instanceTools implements spec.md §4.2's Instances family: list, details,
// activity stream, activity stream detail (by item key), logs (as text),
// abort. Grounded on original_source/Agents/MonitorQueueRequestAgent,
// which queries instance activity and logs as a distinct concern from
// integration- and agent-level monitoring.
func instanceTools() []Tool {
	return []Tool{
		{
			Name:        "monitoringInstances",
			Description: "List integration flow instances for a tenant, optionally filtered by duration and status.",
			Properties: []Property{
				TenantProperty(),
				{Name: "duration", Type: "string", Description: "Relative time window, e.g. '1h' or '1d'"},
				{Name: "status", Type: "string", Description: "Instance status filter", Enum: []string{"IN_PROGRESS", "COMPLETED", "FAILED", "ABORTED"}},
			},
			Handler: listInstances,
		},
		{
			Name:        "monitoringInstanceDetails",
			Description: "Get details for one integration flow instance by id.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceId", Type: "string", Description: "Instance identifier", Required: true},
			},
			Handler: instanceDetails,
		},
		{
			Name:        "monitoringInstanceActivityStream",
			Description: "List the activity stream (tracking events) for one instance.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceId", Type: "string", Description: "Instance identifier", Required: true},
			},
			Handler: instanceActivityStream,
		},
		{
			Name:        "monitoringInstanceActivityStreamDetail",
			Description: "Get one activity stream entry for an instance by its item key.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceId", Type: "string", Description: "Instance identifier", Required: true},
				{Name: "itemKey", Type: "string", Description: "Activity stream item key", Required: true},
			},
			Handler: instanceActivityStreamDetail,
		},
		{
			Name:        "monitoringInstanceLogs",
			Description: "Fetch the diagnostic log for an instance as plain text.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceId", Type: "string", Description: "Instance identifier", Required: true},
			},
			Handler: instanceLogs,
		},
		{
			Name:        "monitoringAbortInstance",
			Description: "Abort a running integration flow instance.",
			Properties: []Property{
				TenantProperty(),
				{Name: "instanceId", Type: "string", Description: "Instance identifier", Required: true},
			},
			Handler: abortInstance,
		},
	}
}

func listInstances(hc Context, args Args) (any, error) {
	duration, _ := args.String("duration")
	status, _ := args.String("status")
	q := buildQuery(qClause{"timewindow", duration}, qClause{"status", status})

	u := resourceURL(hc.Tenant.APIBaseURL, "instances")
	params := baseParams(hc.Tenant.IntegrationInstance)
	return hc.Client.GetPaginated(hc, u, params, q, hc.Tenant.ID)
}

func instanceDetails(hc Context, args Args) (any, error) {
	id, _ := args.String("instanceId")
	u := resourceURL(hc.Tenant.APIBaseURL, "instances", id)
	return hc.Client.GetSingle(hc, u, baseParams(hc.Tenant.IntegrationInstance), hc.Tenant.ID)
}

func instanceActivityStream(hc Context, args Args) (any, error) {
	id, _ := args.String("instanceId")
	u := resourceURL(hc.Tenant.APIBaseURL, "instances", id, "activities")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), "", hc.Tenant.ID)
}

func instanceActivityStreamDetail(hc Context, args Args) (any, error) {
	id, _ := args.String("instanceId")
	itemKey, _ := args.String("itemKey")
	u := resourceURL(hc.Tenant.APIBaseURL, "instances", id, "activities", itemKey)
	return hc.Client.GetSingle(hc, u, baseParams(hc.Tenant.IntegrationInstance), hc.Tenant.ID)
}

func instanceLogs(hc Context, args Args) (any, error) {
	id, _ := args.String("instanceId")
	u := resourceURL(hc.Tenant.APIBaseURL, "instances", id, "logs")
	text, err := hc.Client.GetText(hc, u, baseParams(hc.Tenant.IntegrationInstance), hc.Tenant.ID)
	if err != nil {
		return nil, err
	}
	// Returned as a bare string: the dispatcher renders string payloads as
	// a plain text content block instead of a JSON-quoted one (spec.md
	// §4.5: "logs tool, which sets an explicit text response type").
	return text, nil
}

func abortInstance(hc Context, args Args) (any, error) {
	id, _ := args.String("instanceId")
	u := resourceURL(hc.Tenant.APIBaseURL, "instances", id, "abort")
	return hc.Client.Post(hc, u, nil, map[string]any{}, hc.Tenant.ID)
}
