package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerAddsRequestDataGroup(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithRequestData(context.Background(), &RequestData{
		RequestID:  "r1",
		Method:     "GET",
		RemoteAddr: "127.0.0.1:1234",
		Path:       "/health",
	})
	log.InfoContext(ctx, "http.request")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	req, ok := line["req"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "r1", req["id"])
	assert.Equal(t, "/health", req["path"])
}

func TestHandlerAddsToolCallDataGroup(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx := WithToolCallData(context.Background(), &ToolCallData{ToolName: "monitoringErroredInstances", Tenant: "prod1"})
	log.InfoContext(ctx, "dispatch.call_tool")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	tool, ok := line["tool"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "monitoringErroredInstances", tool["name"])
	assert.Equal(t, "prod1", tool["tenant"])
}

func TestHandlerOmitsGroupsWhenContextDataAbsent(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.New(slog.NewJSONHandler(&buf, nil)))

	log.InfoContext(context.Background(), "no.context.data")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	_, hasReq := line["req"]
	_, hasTool := line["tool"]
	assert.False(t, hasReq)
	assert.False(t, hasTool)
}
