package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nareshsaladi2024/OICAgentOps/internal/config"
	"github.com/nareshsaladi2024/OICAgentOps/internal/upstream"
)

type noopAuth struct{}

func (noopAuth) Token(context.Context, string) (string, error) { return "tok", nil }
func (noopAuth) Invalidate(string)                              {}

func testContext(t *testing.T, baseURL string, bulk upstream.BulkMode) Context {
	t.Helper()
	return Context{
		Context: context.Background(),
		Tenant:  config.Tenant{ID: "dev", APIBaseURL: baseURL},
		Client:  upstream.New(noopAuth{}, nil),
		Bulk:    bulk,
	}
}

func TestBulkMutateRejectsEmptyArrayWithoutUpstreamCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	hc := testContext(t, srv.URL, upstream.BulkModeFanout)
	_, err := discardMany(hc, Args{"instanceIds": []any{}})
	require.Error(t, err)

	var ierr *InvalidArgumentsError
	require.ErrorAs(t, err, &ierr)
	assert.False(t, called, "an oversized/empty bulk array must never reach the upstream")
}

func TestBulkMutateRejectsOversizedArrayWithoutUpstreamCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	ids := make([]any, upstream.MaxBulkIDs+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}

	hc := testContext(t, srv.URL, upstream.BulkModeFanout)
	_, err := resubmitMany(hc, Args{"instanceIds": ids})
	require.Error(t, err)

	var ierr *InvalidArgumentsError
	require.ErrorAs(t, err, &ierr)
	assert.False(t, called)
}

func TestBulkMutateFanoutHitsOnePathPerID(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"recoveryJobId":"job","resubmitSuccessful":true}`))
	}))
	defer srv.Close()

	hc := testContext(t, srv.URL, upstream.BulkModeFanout)
	result, err := resubmitMany(hc, Args{"instanceIds": []any{"1", "2", "3"}})
	require.NoError(t, err)

	bulk, ok := result.(*upstream.BulkResult)
	require.True(t, ok)
	assert.Equal(t, 3, hits)
	assert.Equal(t, 3, bulk.SuccessCount)
}

func TestBulkMutateCollectiveModePostsOnce(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	hc := testContext(t, srv.URL, upstream.BulkModeCollective)
	_, err := discardMany(hc, Args{"instanceIds": []any{"1", "2", "3"}})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestErroredInstanceDetailsFetchesByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "errors/err-1")
		w.Write([]byte(`{"id":"err-1"}`))
	}))
	defer srv.Close()

	hc := testContext(t, srv.URL, upstream.BulkModeFanout)
	_, err := erroredInstanceDetails(hc, Args{"instanceId": "err-1"})
	require.NoError(t, err)
}
