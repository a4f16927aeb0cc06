package upstream

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// pageLimit is the canonical page size used for every paginated batch
// (spec.md §4.5 step 1; upstream allows 1..1000 but 50 is canonical).
const pageLimit = 50

// windowCap is the maximum cumulative offset the upstream will serve within
// one filter "window" before the filter must be rewritten (spec.md glossary
// "Paging window").
const windowCap = 500

// maxBatches bounds the number of date-keyed batches a single paginated
// call may issue; exceeding it returns what has been collected so far
// (spec.md §4.5 step 4, P5).
const maxBatches = 100

// recordDateKeys lists, in priority order, the item fields tried to find
// the "record date" used to advance the paging window (glossary
// "Record date").
var recordDateKeys = []string{"creation-date", "creationDate", "last-tracked-time", "lastTrackedTime", "date"}

// upstreamPage is the shape of one listing response page.
type upstreamPage struct {
	Items             []json.RawMessage `json:"items"`
	TotalRecordsCount *int              `json:"totalRecordsCount"`
}

// PageResult is the aggregated result of a fully-paginated tool call.
type PageResult struct {
	Total     int               `json:"total"`
	Retrieved int               `json:"retrieved"`
	Items     []json.RawMessage `json:"items"`
}

// GetPaginated implements the date-keyed iterative pagination loop of
// spec.md §4.5. filter is the caller's opaque `q` expression; it may be
// empty. url and params carry everything else (integrationInstance,
// orderBy, fields, ...) the tool handler has already assembled.
func (c *Client) GetPaginated(ctx context.Context, rawURL string, params url.Values, filter string, tenant string) (*PageResult, error) {
	result := &PageResult{Items: []json.RawMessage{}}
	var reportedTotal *int

	currentFilter := filter
	for batch := 0; batch < maxBatches; batch++ {
		offset := 0
		for {
			batchParams := cloneValues(params)
			batchParams.Set("limit", strconv.Itoa(pageLimit))
			batchParams.Set("offset", strconv.Itoa(offset))
			if currentFilter != "" {
				batchParams.Set("q", currentFilter)
			}

			body, status, err := c.getRaw(ctx, rawURL, batchParams, tenant)
			if err != nil {
				return nil, err
			}
			if status < 200 || status >= 300 {
				return nil, classify(status, string(body))
			}

			var page upstreamPage
			if err := json.Unmarshal(body, &page); err != nil {
				return nil, &Error{Kind: KindUpstreamFailure, StatusCode: status, Body: "unparseable page response: " + err.Error()}
			}

			result.Items = append(result.Items, page.Items...)
			if reportedTotal == nil && page.TotalRecordsCount != nil {
				reportedTotal = page.TotalRecordsCount
			}

			c.Log.Debug("paginated batch page", "url", rawURL, "offset", offset, "items", len(page.Items), "totalRecordsCount", page.TotalRecordsCount)

			if len(page.Items) < pageLimit {
				// End of this window: this batch is fully drained.
				result.Retrieved = len(result.Items)
				if reportedTotal != nil {
					result.Total = *reportedTotal
				} else {
					result.Total = result.Retrieved
				}
				return result, nil
			}

			offset += pageLimit
			if offset > windowCap {
				break
			}
		}

		// Window cap reached with a full last page: try to advance the
		// filter by the last item's record date and restart the loop.
		nextFilter, ok := advanceFilter(currentFilter, result.Items[len(result.Items)-1])
		if !ok {
			result.Retrieved = len(result.Items)
			if reportedTotal != nil {
				result.Total = *reportedTotal
			} else {
				result.Total = result.Retrieved
			}
			return result, nil
		}
		currentFilter = nextFilter
	}

	c.Log.Warn("paginated retrieval exceeded batch safety bound, returning partial results", "url", rawURL, "batches", maxBatches)
	result.Retrieved = len(result.Items)
	result.Total = result.Retrieved
	return result, nil
}

// advanceFilter rewrites filter to carry a startdate clause derived from
// last's record date, trying recordDateKeys in order. ok is false if no
// candidate field was present, meaning pagination should stop.
func advanceFilter(filter string, last json.RawMessage) (string, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(last, &fields); err != nil {
		return "", false
	}

	var date string
	for _, key := range recordDateKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			date = s
			break
		}
	}
	if date == "" {
		return "", false
	}

	return rewriteStartDate(filter, date), true
}

// rewriteStartDate replaces an existing startdate:'...' clause in an
// opaque brace-delimited, comma-separated q expression, or adds one.
func rewriteStartDate(filter, date string) string {
	clause := "startdate:'" + date + "'"
	trimmed := strings.TrimSpace(filter)

	if trimmed == "" {
		return "{" + clause + "}"
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "{"), "}")

	parts := splitClauses(inner)
	out := make([]string, 0, len(parts)+1)
	replaced := false
	for _, p := range parts {
		if strings.HasPrefix(strings.TrimSpace(p), "startdate:") {
			out = append(out, clause)
			replaced = true
			continue
		}
		if p != "" {
			out = append(out, p)
		}
	}
	if !replaced {
		out = append(out, clause)
	}
	return "{" + strings.Join(out, ", ") + "}"
}

// splitClauses splits an opaque q-expression's interior on top-level
// commas, tolerating commas inside single-quoted values.
func splitClauses(inner string) []string {
	var parts []string
	var cur strings.Builder
	inQuote := false
	for _, r := range inner {
		switch {
		case r == '\'':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == ',' && !inQuote:
			parts = append(parts, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, strings.TrimSpace(cur.String()))
	}
	return parts
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		cp := make([]string, len(vs))
		copy(cp, vs)
		out[k] = cp
	}
	return out
}
