package upstream

import (
	"context"
	"encoding/json"
	"fmt"
)

// MaxBulkIDs is the largest id array a bulk fan-out call accepts; exceeding
// it is an InvalidArguments error raised before any upstream traffic
// (spec.md §4.5, L3, boundary scenario 6).
const MaxBulkIDs = 50

// BulkMode selects which wire shape a bulk mutation uses against the
// upstream. spec.md §9 leaves this as an open question the implementation
// must resolve; this gateway resolves it in favor of fan-out (see
// DESIGN.md) and keeps the collective shape available; its tests only
// check that it sends one POST carrying the ids array.
type BulkMode string

const (
	BulkModeFanout     BulkMode = "fanout"
	BulkModeCollective BulkMode = "collective"
)

// BulkDetail is one id's outcome within a bulk fan-out response.
type BulkDetail struct {
	ID      string `json:"id"`
	JobID   string `json:"jobId,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkResult is the aggregate response shape spec.md §4.5 mandates:
// totalRequested == successCount + failedCount == len(details) (P4), and
// details preserves input id order (spec.md §5 ordering guarantee).
type BulkResult struct {
	TotalRequested int          `json:"totalRequested"`
	SuccessCount   int          `json:"successCount"`
	FailedCount    int          `json:"failedCount"`
	JobIDs         []string     `json:"recoveryJobIds"`
	Details        []BulkDetail `json:"details"`
}

// mutationResponse is the upstream's per-id mutation acknowledgment shape
// (spec.md §6: "a response containing recoveryJobId and resubmitSuccessful
// (or equivalent flags)").
type mutationResponse struct {
	RecoveryJobID      string `json:"recoveryJobId"`
	ResubmitSuccessful *bool  `json:"resubmitSuccessful"`
	DiscardSuccessful  *bool  `json:"discardSuccessful"`
}

func (m mutationResponse) succeeded() bool {
	if m.ResubmitSuccessful != nil {
		return *m.ResubmitSuccessful
	}
	if m.DiscardSuccessful != nil {
		return *m.DiscardSuccessful
	}
	// No explicit flag: presence of a job id is treated as success.
	return m.RecoveryJobID != ""
}

// BulkFanout iterates ids sequentially, POSTing one mutation per id via
// urlFor(id), and aggregates outcomes. It never runs concurrently across
// ids: the spec only requires input-order preservation in details, and a
// sequential loop is the simplest thing that guarantees it without extra
// synchronization.
func (c *Client) BulkFanout(ctx context.Context, tenant string, ids []string, urlFor func(id string) string) (*BulkResult, error) {
	result := &BulkResult{
		TotalRequested: len(ids),
		Details:        make([]BulkDetail, 0, len(ids)),
		JobIDs:         []string{},
	}

	for _, id := range ids {
		raw, err := c.Post(ctx, urlFor(id), nil, map[string]any{}, tenant)
		if err != nil {
			result.FailedCount++
			result.Details = append(result.Details, BulkDetail{ID: id, Success: false, Error: err.Error()})
			continue
		}

		var resp mutationResponse
		if uerr := json.Unmarshal(raw, &resp); uerr != nil {
			result.FailedCount++
			result.Details = append(result.Details, BulkDetail{ID: id, Success: false, Error: fmt.Sprintf("unparseable response: %v", uerr)})
			continue
		}

		if resp.succeeded() {
			result.SuccessCount++
			if resp.RecoveryJobID != "" {
				result.JobIDs = append(result.JobIDs, resp.RecoveryJobID)
			}
			result.Details = append(result.Details, BulkDetail{ID: id, JobID: resp.RecoveryJobID, Success: true})
		} else {
			result.FailedCount++
			result.Details = append(result.Details, BulkDetail{ID: id, Success: false, Error: "upstream reported failure"})
		}
	}

	return result, nil
}

// BulkCollective posts a single {ids:[...]} body to a collective endpoint.
// Kept for the alternate shape named in spec.md §9; the default shape is
// BulkFanout, and the tests of this one only check the single POST and its
// ids array.
func (c *Client) BulkCollective(ctx context.Context, tenant, url string, ids []string) (json.RawMessage, error) {
	return c.Post(ctx, url, nil, map[string]any{"ids": ids}, tenant)
}
