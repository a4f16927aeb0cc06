package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAuth hands out a fixed token and counts invalidations, standing in
// for internal/tokencache.Cache without pulling it into this package's
// tests.
type stubAuth struct {
	token       atomic.Value
	invalidated atomic.Int64
}

func newStubAuth(token string) *stubAuth {
	a := &stubAuth{}
	a.token.Store(token)
	return a
}

func (a *stubAuth) Token(_ context.Context, _ string) (string, error) {
	return a.token.Load().(string), nil
}

func (a *stubAuth) Invalidate(_ string) {
	a.invalidated.Add(1)
	a.token.Store("refreshed-token")
}

func TestGetSingleSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","status":"ACTIVATED"}`))
	}))
	defer srv.Close()

	c := New(newStubAuth("good-token"), nil)
	body, err := c.GetSingle(context.Background(), srv.URL, nil, "dev")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "ACTIVATED", decoded["status"])
}

func TestGetSingleRetriesOnceOn401ThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer refreshed-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	auth := newStubAuth("stale-token")
	c := New(auth, nil)
	_, err := c.GetSingle(context.Background(), srv.URL, nil, "dev")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
	assert.EqualValues(t, 1, auth.invalidated.Load())
}

func TestGetSingleSecondConsecutive401IsAuthenticationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(newStubAuth("stale-token"), nil)
	_, err := c.GetSingle(context.Background(), srv.URL, nil, "dev")
	require.Error(t, err)

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, KindAuthenticationFailure, uerr.Kind)
}

func TestGetSingleClassifiesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"no such instance"}`))
	}))
	defer srv.Close()

	c := New(newStubAuth("good-token"), nil)
	_, err := c.GetSingle(context.Background(), srv.URL, nil, "dev")
	require.Error(t, err)

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, KindUpstreamNotFound, uerr.Kind)
}

func TestGetSingleClassifiesPermissionDenied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(newStubAuth("good-token"), nil)
	_, err := c.GetSingle(context.Background(), srv.URL, nil, "dev")
	require.Error(t, err)

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, KindUpstreamPermission, uerr.Kind)
}

func TestGetSingleClassifiesGenericFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(newStubAuth("good-token"), nil)
	_, err := c.GetSingle(context.Background(), srv.URL, nil, "dev")
	require.Error(t, err)

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, KindUpstreamFailure, uerr.Kind)
	assert.Equal(t, "Internal Server Error", uerr.Status)
	assert.Equal(t, "500 Internal Server Error - boom", uerr.Error())
}

func TestGetTextReturnsRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("line one\nline two\n"))
	}))
	defer srv.Close()

	c := New(newStubAuth("good-token"), nil)
	text, err := c.GetText(context.Background(), srv.URL, nil, "dev")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", text)
}

func TestPostSendsJSONBodyAndBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "abc", body["errorId"])

		w.Write([]byte(`{"recoveryJobId":"job-1","resubmitSuccessful":true}`))
	}))
	defer srv.Close()

	c := New(newStubAuth("good-token"), nil)
	raw, err := c.Post(context.Background(), srv.URL, nil, map[string]any{"errorId": "abc"}, "dev")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "job-1")
}

func TestGetSingleTransportErrorIsClassified(t *testing.T) {
	c := New(newStubAuth("good-token"), nil)
	_, err := c.GetSingle(context.Background(), "http://127.0.0.1:1", nil, "dev")
	require.Error(t, err)

	var uerr *Error
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, KindUpstreamTransport, uerr.Kind)
}
