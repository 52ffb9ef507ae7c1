package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	"github.com/felixgeelhaar/aira/internal/devapi/store"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const familyWID = "120363000000000001@g.us"

func newTestServer(t *testing.T, token string) (*httptest.Server, store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, store.Seed(ctx, st))

	cfg := DefaultServerConfig()
	cfg.Token = token
	srv := NewServer(cfg, st, observability.Discard())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, st
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServer_RuleLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := do(t, ts, http.MethodPost, "/rules",
		`{"w_id":["`+familyWID+`"],"raw_text":"Summarise the group chat","trigger_time":"08:30","interval":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decode[rules.MutationResponse](t, resp)
	assert.Equal(t, msgRuleCreated, created.Success)
	require.NotEmpty(t, created.RuleID)

	resp = do(t, ts, http.MethodGet, "/rules", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]rules.Rule](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, rules.StatusActive, list[0].Status)
	assert.True(t, list[0].Schedule().IsScheduled())

	resp = do(t, ts, http.MethodGet, "/rules/chat/"+familyWID, "")
	assert.Len(t, decode[[]rules.Rule](t, resp), 1)

	resp = do(t, ts, http.MethodPut, "/rules",
		`{"rule_id":"`+created.RuleID+`","w_id":["`+familyWID+`"],"raw_text":"Summarise the group chat","status":"inactive"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/waha/groups", "")
	listing := decode[groups.Listing](t, resp)
	family, err := groups.Find(listing.Merge(), familyWID)
	require.NoError(t, err)
	assert.Equal(t, 0, family.NumActiveRules)
	assert.Equal(t, 1, family.NumInactiveRules)

	resp = do(t, ts, http.MethodDelete, "/rules", `{"rule_id":"`+created.RuleID+`"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/rules", `{"rule_id":"`+created.RuleID+`"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Validation(t *testing.T) {
	ts, _ := newTestServer(t, "")

	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"empty text", http.MethodPost, `{"w_id":[],"raw_text":"  "}`, http.StatusBadRequest},
		{"bad status", http.MethodPost, `{"w_id":[],"raw_text":"hi","status":"paused"}`, http.StatusBadRequest},
		{"bad trigger", http.MethodPost, `{"w_id":[],"raw_text":"hi","trigger_time":"25:00","interval":1}`, http.StatusBadRequest},
		{"not json", http.MethodPost, `nope`, http.StatusBadRequest},
		{"update without id", http.MethodPut, `{"w_id":[],"raw_text":"hi"}`, http.StatusBadRequest},
		{"update unknown rule", http.MethodPut, `{"rule_id":"missing","w_id":[],"raw_text":"hi"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, tt.method, "/rules", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestServer_RunOnceDoesNotPersist(t *testing.T) {
	ts, st := newTestServer(t, "")

	resp := do(t, ts, http.MethodPost, "/rules/run-once",
		`{"w_id":["`+familyWID+`","unknown@g.us"],"raw_text":"Save every pdf to drive","trigger_time":"07:00","interval":7}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[rules.RunOnceResult](t, resp)

	assert.True(t, res.Success)
	require.NotNil(t, res.MessagesScanned)
	assert.Equal(t, 0, *res.MessagesScanned)
	require.Len(t, res.GroupsProcessed, 1)
	assert.Equal(t, "Family", res.GroupsProcessed[0].ChatName)

	var types []string
	for _, a := range res.Actions {
		types = append(types, a.Type)
	}
	assert.Contains(t, types, "connector")
	assert.Contains(t, types, "schedule")

	stored, err := st.ListRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stored)

	t.Run("invalid rules fail in the result", func(t *testing.T) {
		resp := do(t, ts, http.MethodPost, "/rules/run-once", `{"w_id":[],"raw_text":""}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		res := decode[rules.RunOnceResult](t, resp)
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)
	})
}

func TestServer_Connectors(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp := do(t, ts, http.MethodGet, "/connectors", "")
	statuses := decode[[]connectors.Status](t, resp)
	require.Len(t, statuses, len(connectors.KnownIDs))
	assert.Equal(t, connectors.Status{ID: connectors.WhatsApp, IsConnected: true}, statuses[0])

	resp = do(t, ts, http.MethodPost, "/connectors/connect", `{"connectorType":"whatsapp","platform":"web"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/connectors/connect", `{"connectorType":"slack","platform":"web"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/connectors/connect", `{"connectorType":"google_drive","platform":"web"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	redirect := decode[connectors.ConnectResponse](t, resp)
	require.Contains(t, redirect.RedirectURL, "/connectors/callback?connector=google_drive")

	cb, err := ts.Client().Get(redirect.RedirectURL)
	require.NoError(t, err)
	defer cb.Body.Close()
	text, _ := io.ReadAll(cb.Body)
	assert.Equal(t, http.StatusOK, cb.StatusCode)
	assert.Contains(t, string(text), "Google Drive connected")

	resp = do(t, ts, http.MethodGet, "/connectors", "")
	for _, s := range decode[[]connectors.Status](t, resp) {
		if s.ID == connectors.GoogleDrive {
			assert.True(t, s.IsConnected)
		}
	}
}

func TestServer_Auth(t *testing.T) {
	ts, _ := newTestServer(t, "s3cret")

	resp := do(t, ts, http.MethodGet, "/rules", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/rules", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	ok, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)
	assert.NotEmpty(t, ok.Header.Get(observability.RequestIDHeader))

	resp = do(t, ts, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode[observability.OverallHealth](t, resp)
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
}

func TestServer_StartAndShutdown(t *testing.T) {
	st, err := store.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var logs strings.Builder
	logger := observability.NewLogger(observability.LogConfig{Format: observability.LogFormatJSON, Output: &logs})
	cfg := DefaultServerConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := NewServer(cfg, st, logger)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)

	assert.Contains(t, logs.String(), `"health_checks":["store"]`)
}
