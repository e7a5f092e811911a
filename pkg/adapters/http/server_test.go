package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/history"
	"github.com/aretw0/history/pkg/adapters/memory"
	"github.com/aretw0/history/pkg/observability"
	"github.com/aretw0/history/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	return NewHandler(session.NewManager(memory.NewStore()), opts...)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestGetHealth(t *testing.T) {
	rr := do(t, newTestHandler(t), "GET", "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	rr := do(t, newTestHandler(t), "GET", "/info", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "history-http", resp["app"])
	assert.NotEmpty(t, resp["version"])
	assert.Equal(t, APIVersion, resp["api_version"])
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, "POST", "/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode(t, rr)
	require.NotEmpty(t, created.Session)
	assert.Equal(t, "/", created.Location.Pathname)
	base := "/sessions/" + created.Session

	rr = do(t, h, "POST", base+"/push", `{"path":"/a?x=1","state":{"n":1}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode(t, rr)
	assert.Equal(t, "/a", resp.Location.Pathname)
	assert.Equal(t, "?x=1", resp.Location.Search)
	assert.Equal(t, 1, resp.Index)
	assert.Len(t, resp.Entries, 2)

	rr = do(t, h, "POST", base+"/push", `{"path":"/b"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, "POST", base+"/go", `{"delta":-2}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode(t, rr).Index)

	rr = do(t, h, "POST", base+"/forward", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/a", decode(t, rr).Location.Pathname)

	rr = do(t, h, "POST", base+"/replace", `{"path":"/c"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	resp = decode(t, rr)
	assert.Equal(t, "/c", resp.Location.Pathname)
	assert.Len(t, resp.Entries, 3)

	rr = do(t, h, "POST", base+"/back", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/", decode(t, rr).Location.Pathname)

	rr = do(t, h, "GET", base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode(t, rr).Index)

	rr = do(t, h, "GET", "/sessions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), created.Session)

	rr = do(t, h, "DELETE", base, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, "GET", base, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNavigate_Errors(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, "POST", "/sessions/missing/push", `{"path":"/a"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, "POST", "/sessions", "")
	base := "/sessions/" + decode(t, rr).Session

	rr = do(t, h, "POST", base+"/push", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, "POST", base+"/push", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	sessions := session.NewManager(memory.NewStore(),
		session.WithHistoryOptions(history.WithLifecycleHooks(metrics.Hooks())),
	)
	h := NewHandler(sessions, WithMetrics(reg))

	rr := do(t, h, "POST", "/sessions", "")
	rr = do(t, h, "POST", "/sessions/"+decode(t, rr).Session+"/push", `{"path":"/a"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `history_transitions_total{action="PUSH",event="transition_commit"} 1`)

	rr = do(t, newTestHandler(t), "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOpenAPISpec(t *testing.T) {
	doc, err := LoadSpec()
	require.NoError(t, err)
	assert.Equal(t, APIVersion, doc.Info.Version)
	assert.NotNil(t, doc.Paths.Find("/sessions/{id}/push"))

	rr := do(t, newTestHandler(t), "GET", "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "openapi: 3.0.3")
}

func TestNavigate_RequestValidation(t *testing.T) {
	h := newTestHandler(t)
	base := "/sessions/" + decode(t, do(t, h, "POST", "/sessions", "")).Session

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"path must be a string", "POST", base + "/push", `{"path":42}`},
		{"path must not be empty", "POST", base + "/replace", `{"path":""}`},
		{"delta is required", "POST", base + "/go", `{}`},
		{"delta must be an integer", "POST", base + "/go", `{"delta":1.5}`},
		{"unknown watch field", "GET", base + "/events?watch=nothing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), "error")
		})
	}

	rr := do(t, h, "GET", base, "")
	assert.Len(t, decode(t, rr).Entries, 1, "rejected requests never reach the session")
}
