package catalog

// integrationTools implements spec.md §4.2's Integrations family: list,
// details, message-count summary, history.
func integrationTools() []Tool {
	return []Tool{
		{
			Name:        "monitoringIntegrations",
			Description: "List deployed integrations for a tenant.",
			Properties: []Property{
				TenantProperty(),
				{Name: "integrationStyle", Type: "string", Description: "Filter by integration style", Enum: []string{"appdriven", "scheduled"}},
			},
			Handler: listIntegrations,
		},
		{
			Name:        "monitoringIntegrationDetails",
			Description: "Get details for one integration by id.",
			Properties: []Property{
				TenantProperty(),
				{Name: "integrationId", Type: "string", Description: "Integration identifier", Required: true},
			},
			Handler: integrationDetails,
		},
		{
			Name:        "monitoringIntegrationMessageCount",
			Description: "Get a message-count summary for one integration over a duration window.",
			Properties: []Property{
				TenantProperty(),
				{Name: "integrationId", Type: "string", Description: "Integration identifier", Required: true},
				{Name: "duration", Type: "string", Description: "Relative time window, e.g. '1h' or '1d'", Default: "1d"},
			},
			Handler: integrationMessageCount,
		},
		{
			Name:        "monitoringIntegrationHistory",
			Description: "List the deployment/activation history of one integration.",
			Properties: []Property{
				TenantProperty(),
				{Name: "integrationId", Type: "string", Description: "Integration identifier", Required: true},
			},
			Handler: integrationHistory,
		},
	}
}

func listIntegrations(hc Context, args Args) (any, error) {
	style, _ := args.String("integrationStyle")
	q := buildQuery(qClause{"integration-style", style})
	u := resourceURL(hc.Tenant.APIBaseURL, "integrations")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), q, hc.Tenant.ID)
}

func integrationDetails(hc Context, args Args) (any, error) {
	id, _ := args.String("integrationId")
	u := resourceURL(hc.Tenant.APIBaseURL, "integrations", id)
	return hc.Client.GetSingle(hc, u, baseParams(hc.Tenant.IntegrationInstance), hc.Tenant.ID)
}

func integrationMessageCount(hc Context, args Args) (any, error) {
	id, _ := args.String("integrationId")
	duration := args.StringOr("duration", "1d")
	u := resourceURL(hc.Tenant.APIBaseURL, "integrations", id, "messagecount")
	params := baseParams(hc.Tenant.IntegrationInstance)
	params.Set("timewindow", duration)
	return hc.Client.GetSingle(hc, u, params, hc.Tenant.ID)
}

func integrationHistory(hc Context, args Args) (any, error) {
	id, _ := args.String("integrationId")
	u := resourceURL(hc.Tenant.APIBaseURL, "integrations", id, "history")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), "", hc.Tenant.ID)
}
