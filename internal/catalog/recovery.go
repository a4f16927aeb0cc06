package catalog

// recoveryJobTools implements spec.md §4.2's Error recovery jobs family:
// list, details.
func recoveryJobTools() []Tool {
	return []Tool{
		{
			Name:        "monitoringRecoveryJobs",
			Description: "List error recovery jobs for a tenant.",
			Properties:  []Property{TenantProperty()},
			Handler:     listRecoveryJobs,
		},
		{
			Name:        "monitoringRecoveryJobDetails",
			Description: "Get details for one error recovery job by id.",
			Properties: []Property{
				TenantProperty(),
				{Name: "jobId", Type: "string", Description: "Recovery job identifier", Required: true},
			},
			Handler: recoveryJobDetails,
		},
	}
}

func listRecoveryJobs(hc Context, _ Args) (any, error) {
	u := resourceURL(hc.Tenant.APIBaseURL, "recoveryJobs")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), "", hc.Tenant.ID)
}

func recoveryJobDetails(hc Context, args Args) (any, error) {
	id, _ := args.String("jobId")
	u := resourceURL(hc.Tenant.APIBaseURL, "recoveryJobs", id)
	return hc.Client.GetSingle(hc, u, baseParams(hc.Tenant.IntegrationInstance), hc.Tenant.ID)
}
