package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemsPage(n int, startID int, total *int) []byte {
	items := make([]map[string]any, n)
	for i := 0; i < n; i++ {
		items[i] = map[string]any{
			"id":           fmt.Sprintf("%d", startID+i),
			"creationDate": "2026-01-01T00:00:00Z",
		}
	}
	page := map[string]any{"items": items}
	if total != nil {
		page["totalRecordsCount"] = *total
	}
	b, _ := json.Marshal(page)
	return b
}

func TestGetPaginatedSinglePartialPageStops(t *testing.T) {
	total := 12
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		w.Write(itemsPage(12, 0, &total))
	}))
	defer srv.Close()

	c := New(newStubAuth("tok"), nil)
	result, err := c.GetPaginated(context.Background(), srv.URL, nil, "", "dev")
	require.NoError(t, err)
	assert.Equal(t, 12, result.Retrieved)
	assert.Equal(t, 12, result.Total)
}

func TestGetPaginatedAdvancesOffsetAcrossFullPages(t *testing.T) {
	var seenOffsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		seenOffsets = append(seenOffsets, offset)
		if offset == "0" {
			w.Write(itemsPage(pageLimit, 0, nil))
			return
		}
		// Second page of the first batch: partial page, ends the window.
		w.Write(itemsPage(10, pageLimit, nil))
	}))
	defer srv.Close()

	c := New(newStubAuth("tok"), nil)
	result, err := c.GetPaginated(context.Background(), srv.URL, nil, "", "dev")
	require.NoError(t, err)
	assert.Equal(t, pageLimit+10, result.Retrieved)
	assert.Equal(t, []string{"0", fmt.Sprintf("%d", pageLimit)}, seenOffsets)
}

func TestGetPaginatedRewritesFilterAtWindowCap(t *testing.T) {
	var filtersSeen []string
	batchesInWindow := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		offset := r.URL.Query().Get("offset")
		if offset == "0" {
			filtersSeen = append(filtersSeen, q)
			batchesInWindow++
		}
		// Always return a full page so the window cap is hit within
		// each filter window, forcing advanceFilter.
		if batchesInWindow >= 2 {
			w.Write(itemsPage(5, 9999, nil)) // partial -> final stop
			return
		}
		w.Write(itemsPage(pageLimit, 0, nil))
	}))
	defer srv.Close()

	c := New(newStubAuth("tok"), nil)
	_, err := c.GetPaginated(context.Background(), srv.URL, nil, "", "dev")
	require.NoError(t, err)

	require.Len(t, filtersSeen, 2)
	assert.Equal(t, "", filtersSeen[0])
	assert.Contains(t, filtersSeen[1], "startdate:")
}

func TestGetPaginatedStopsWhenNoRecordDateAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Full pages with no date field at all, every batch.
		items := make([]map[string]any, pageLimit)
		for i := range items {
			items[i] = map[string]any{"id": fmt.Sprintf("%d", i)}
		}
		b, _ := json.Marshal(map[string]any{"items": items})
		w.Write(b)
	}))
	defer srv.Close()

	c := New(newStubAuth("tok"), nil)
	result, err := c.GetPaginated(context.Background(), srv.URL, nil, "", "dev")
	require.NoError(t, err)
	// windowCap/pageLimit + 1 pages fill the first window, then
	// advanceFilter fails (no date field) and pagination stops.
	assert.Greater(t, result.Retrieved, 0)
}

func TestGetPaginatedPropagatesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(newStubAuth("tok"), nil)
	_, err := c.GetPaginated(context.Background(), srv.URL, nil, "", "dev")
	require.Error(t, err)
	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, KindUpstreamFailure, uerr.Kind)
}

func TestRewriteStartDateAddsClauseToEmptyFilter(t *testing.T) {
	got := rewriteStartDate("", "2026-01-01T00:00:00Z")
	assert.Equal(t, "{startdate:'2026-01-01T00:00:00Z'}", got)
}

func TestRewriteStartDateReplacesExistingClause(t *testing.T) {
	got := rewriteStartDate("{status:'ACTIVATED', startdate:'2025-01-01T00:00:00Z'}", "2026-01-01T00:00:00Z")
	assert.Contains(t, got, "status:'ACTIVATED'")
	assert.Contains(t, got, "startdate:'2026-01-01T00:00:00Z'")
	assert.NotContains(t, got, "2025-01-01")
}

func TestAdvanceFilterFalseWhenNoDateKeyPresent(t *testing.T) {
	_, ok := advanceFilter("", json.RawMessage(`{"id":"1"}`))
	assert.False(t, ok)
}

func TestAdvanceFilterTriesKeysInPriorityOrder(t *testing.T) {
	next, ok := advanceFilter("", json.RawMessage(`{"last-tracked-time":"2026-02-02T00:00:00Z","date":"2020-01-01T00:00:00Z"}`))
	require.True(t, ok)
	assert.Contains(t, next, "2026-02-02")
}
