package catalog

// agentTools implements spec.md §4.2's Agents family: groups list, group
// detail, agents in group, agent detail. The agent-detail handler passes
// the upstream's agentGroupId and heartbeat fields through verbatim (see
// SPEC_FULL.md §4.2's supplemented-feature note grounded on
// original_source/Agents/MonitorQueueRequestAgent) — the gateway does not
// implement upstream domain logic (spec.md §1 Non-goals).
func agentTools() []Tool {
	return []Tool{
		{
			Name:        "monitoringAgentGroups",
			Description: "List connectivity agent groups for a tenant.",
			Properties:  []Property{TenantProperty()},
			Handler:     listAgentGroups,
		},
		{
			Name:        "monitoringAgentGroupDetails",
			Description: "Get details for one agent group by id.",
			Properties: []Property{
				TenantProperty(),
				{Name: "groupId", Type: "string", Description: "Agent group identifier", Required: true},
			},
			Handler: agentGroupDetails,
		},
		{
			Name:        "monitoringAgentsInGroup",
			Description: "List the agents belonging to one agent group.",
			Properties: []Property{
				TenantProperty(),
				{Name: "groupId", Type: "string", Description: "Agent group identifier", Required: true},
			},
			Handler: agentsInGroup,
		},
		{
			Name:        "monitoringAgentDetails",
			Description: "Get details and health for one connectivity agent by id.",
			Properties: []Property{
				TenantProperty(),
				{Name: "agentId", Type: "string", Description: "Agent identifier", Required: true},
			},
			Handler: agentDetails,
		},
	}
}

func listAgentGroups(hc Context, _ Args) (any, error) {
	u := resourceURL(hc.Tenant.APIBaseURL, "agentGroups")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), "", hc.Tenant.ID)
}

func agentGroupDetails(hc Context, args Args) (any, error) {
	id, _ := args.String("groupId")
	u := resourceURL(hc.Tenant.APIBaseURL, "agentGroups", id)
	return hc.Client.GetSingle(hc, u, baseParams(hc.Tenant.IntegrationInstance), hc.Tenant.ID)
}

func agentsInGroup(hc Context, args Args) (any, error) {
	id, _ := args.String("groupId")
	u := resourceURL(hc.Tenant.APIBaseURL, "agentGroups", id, "agents")
	return hc.Client.GetPaginated(hc, u, baseParams(hc.Tenant.IntegrationInstance), "", hc.Tenant.ID)
}

func agentDetails(hc Context, args Args) (any, error) {
	id, _ := args.String("agentId")
	u := resourceURL(hc.Tenant.APIBaseURL, "agents", id)
	return hc.Client.GetSingle(hc, u, baseParams(hc.Tenant.IntegrationInstance), hc.Tenant.ID)
}
