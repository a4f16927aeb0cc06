package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnyMessageUnmarshalRejectsWrongVersion(t *testing.T) {
	var m AnyMessage
	err := json.Unmarshal([]byte(`{"jsonrpc":"1.0","method":"ping","id":1}`), &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON-RPC version")
}

func TestAnyMessageUnmarshalRejectsRequestWithResult(t *testing.T) {
	var m AnyMessage
	err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"ping","result":{},"id":1}`), &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot have result or error")
}

func TestAnyMessageUnmarshalRejectsResponseWithBothResultAndError(t *testing.T) {
	var m AnyMessage
	err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","result":{},"error":{"code":-32000,"message":"x"},"id":1}`), &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot have both result and error")
}

func TestAnyMessageUnmarshalRejectsResponseWithNeitherResultNorError(t *testing.T) {
	var m AnyMessage
	err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":1}`), &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must have either result or error")
}

func TestAnyMessageTypeClassifiesRequestNotificationResponse(t *testing.T) {
	var request AnyMessage
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"ping","id":1}`), &request))
	assert.Equal(t, "request", request.Type())

	var notification AnyMessage
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"ping"}`), &notification))
	assert.Equal(t, "notification", notification.Type())

	var response AnyMessage
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","result":{},"id":1}`), &response))
	assert.Equal(t, "response", response.Type())
}

func TestAnyMessageAsRequestAndAsResponseAreMutuallyExclusive(t *testing.T) {
	var request AnyMessage
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"ping","id":1}`), &request))
	require.NotNil(t, request.AsRequest())
	assert.Nil(t, request.AsResponse())

	var response AnyMessage
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","result":{},"id":1}`), &response))
	assert.Nil(t, response.AsRequest())
	require.NotNil(t, response.AsResponse())
}

func TestNewResultResponseMarshalsResult(t *testing.T) {
	id := NewRequestID(int64(5))
	resp, err := NewResultResponse(id, map[string]string{"ok": "true"})
	require.NoError(t, err)
	assert.Nil(t, resp.Error)
	assert.JSONEq(t, `{"ok":"true"}`, string(resp.Result))
}

func TestNewErrorResponseSetsCodeAndMessage(t *testing.T) {
	id := NewRequestID("req-1")
	resp := NewErrorResponse(id, ErrorCodeInvalidParams, "bad params", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrorCodeInvalidParams, resp.Error.Code)
	assert.Equal(t, "bad params", resp.Error.Message)
}
