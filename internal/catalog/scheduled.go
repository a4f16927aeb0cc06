package catalog

// scheduledRunTools implements spec.md §4.2's Scheduled runs family: list.
func scheduledRunTools() []Tool {
	return []Tool{
		{
			Name:        "monitoringScheduledRuns",
			Description: "List scheduled integration runs for a tenant.",
			Properties: []Property{
				TenantProperty(),
				{Name: "status", Type: "string", Description: "Scheduled run status filter", Enum: []string{"SCHEDULED", "COMPLETED", "FAILED"}},
			},
			Handler: listScheduledRuns,
		},
	}
}

func listScheduledRuns(hc Context, args Args) (any, error) {
	status, _ := args.String("status")
	q := buildQuery(qClause{"status", status})
	u := resourceURL(hc.Tenant.APIBaseURL, "scheduledRuns")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), q, hc.Tenant.ID)
}
