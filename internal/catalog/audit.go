package catalog

// auditTools implements spec.md §4.2's Audit records family: list.
func auditTools() []Tool {
	return []Tool{
		{
			Name:        "monitoringAuditRecords",
			Description: "List audit records for a tenant, optionally filtered by duration.",
			Properties: []Property{
				TenantProperty(),
				{Name: "duration", Type: "string", Description: "Relative time window, e.g. '1h' or '1d'"},
			},
			Handler: listAuditRecords,
		},
	}
}

func listAuditRecords(hc Context, args Args) (any, error) {
	duration, _ := args.String("duration")
	q := buildQuery(qClause{"timewindow", duration})
	u := resourceURL(hc.Tenant.APIBaseURL, "audits")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), q, hc.Tenant.ID)
}
