// Package upstream implements the three mediator primitives (get_single,
// get_paginated, post) and the bulk fan-out handler pattern spec.md §4.5
// describes, against the upstream monitoring REST API.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Authenticator supplies bearer tokens per tenant and lets the client evict
// a token that the upstream has just rejected with a 401. It is the only
// seam between this package and internal/tokencache.
type Authenticator interface {
	Token(ctx context.Context, tenant string) (string, error)
	Invalidate(tenant string)
}

// Client issues authenticated HTTPS calls against one tenant's upstream at
// a time, retrying exactly once on a 401 with a freshly acquired token
// (spec.md §4.5, P3).
type Client struct {
	HTTP *http.Client
	Auth Authenticator
	Log  *slog.Logger
}

// New constructs a Client with sane defaults for the HTTP transport.
func New(auth Authenticator, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		HTTP: &http.Client{Timeout: 120 * time.Second},
		Auth: auth,
		Log:  log,
	}
}

// doWithRetry performs build(token) -> request -> send, retrying once with
// a freshly acquired token if the first attempt returns 401. It returns the
// final *http.Response (caller must close Body) or a classified *Error.
func (c *Client) doWithRetry(ctx context.Context, tenant string, build func(token string) (*http.Request, error)) (*http.Response, error) {
	token, err := c.Auth.Token(ctx, tenant)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, build, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	c.Auth.Invalidate(tenant)
	token, err = c.Auth.Token(ctx, tenant)
	if err != nil {
		return nil, err
	}

	resp, err = c.send(ctx, build, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &Error{Kind: KindAuthenticationFailure, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, build func(token string) (*http.Request, error), token string) (*http.Response, error) {
	req, err := build(token)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req = req.WithContext(ctx)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: KindRequestCancelled, Err: ctx.Err()}
		}
		return nil, &Error{Kind: KindUpstreamTransport, Err: err}
	}
	c.Log.Debug("upstream request", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)
	return resp, nil
}

// GetSingle issues one GET with params and returns the parsed JSON body.
// It is used by every non-paginated, non-mutating tool handler.
func (c *Client) GetSingle(ctx context.Context, rawURL string, params url.Values, tenant string) (json.RawMessage, error) {
	body, status, err := c.getRaw(ctx, rawURL, params, tenant)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classify(status, string(body))
	}
	return json.RawMessage(body), nil
}

// GetText behaves like GetSingle but returns the raw response body as text
// instead of attempting JSON decoding; used by the "logs as text" tool.
func (c *Client) GetText(ctx context.Context, rawURL string, params url.Values, tenant string) (string, error) {
	body, status, err := c.getRaw(ctx, rawURL, params, tenant)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", classify(status, string(body))
	}
	return string(body), nil
}

func (c *Client) getRaw(ctx context.Context, rawURL string, params url.Values, tenant string) ([]byte, int, error) {
	build := func(token string) (*http.Request, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		if params != nil {
			u.RawQuery = params.Encode()
		}
		req, err := http.NewRequest(http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := c.doWithRetry(ctx, tenant, build)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &Error{Kind: KindUpstreamTransport, Err: err}
	}
	return body, resp.StatusCode, nil
}

// Post issues one POST with a JSON body and bearer auth, applying the same
// 401 retry-once policy, and returns the parsed JSON response.
func (c *Client) Post(ctx context.Context, rawURL string, params url.Values, payload any, tenant string) (json.RawMessage, error) {
	var bodyBytes []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyBytes = b
	} else {
		bodyBytes = []byte("{}")
	}

	build := func(token string) (*http.Request, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		if params != nil {
			u.RawQuery = params.Encode()
		}
		req, err := http.NewRequest(http.MethodPost, u.String(), strings.NewReader(string(bodyBytes)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := c.doWithRetry(ctx, tenant, build)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindUpstreamTransport, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classify(resp.StatusCode, string(respBody))
	}
	return json.RawMessage(respBody), nil
}
