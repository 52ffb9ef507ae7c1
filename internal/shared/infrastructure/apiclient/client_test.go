package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	shared "github.com/felixgeelhaar/aira/internal/shared/domain"
	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, Token: "secret", Logger: observability.Discard()}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew(t *testing.T) {
	_, err := New(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "://"})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "https://api.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", c.baseURL.String())
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, `[]`)
	})

	ctx := observability.WithCorrelationID(context.Background(), "corr-1")
	ctx = observability.WithRequestID(ctx, "req-1")
	_, err := c.ListRules(ctx)

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "req-1", got.Get(observability.RequestIDHeader))
	assert.Equal(t, "corr-1", got.Get(observability.CorrelationIDHeader))
	assert.Equal(t, "application/json", got.Get("Accept"))

	t.Run("generates a request id and skips auth without a token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Clone()
			writeJSON(w, http.StatusOK, `[]`)
		}, func(cfg *Config) { cfg.Token = "" })

		_, err := c.ListRules(context.Background())

		require.NoError(t, err)
		assert.Empty(t, got.Get("Authorization"))
		assert.Len(t, got.Get(observability.RequestIDHeader), 36)
	})
}

func TestClient_ListRules(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes rules", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/rules", r.URL.Path)
			writeJSON(w, http.StatusOK, `[{"rule_id":"r1","w_id":["a@g.us"],"raw_text":"hi","status":"active",
				"trigger_time":"09:00","interval":7,"is_default":false}]`)
		})

		got, err := c.ListRules(ctx)

		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "r1", got[0].RuleID)
		assert.True(t, got[0].Schedule().IsScheduled())
	})

	t.Run("schema mismatch", func(t *testing.T) {
		bodies := []string{
			`[{"rule_id":"r1","raw_text":"hi","status":"active","is_default":false}]`,
			`[{"rule_id":"r1","w_id":[],"raw_text":"hi","status":"paused","is_default":false}]`,
			`{"rules":[]}`,
			`null`,
			``,
		}
		for _, body := range bodies {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			})
			_, err := c.ListRules(ctx)
			assert.ErrorIs(t, err, shared.ErrSchemaMismatch, body)
		}
	})

	t.Run("chat rules escape the id", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rules/chat/a b@g.us", r.URL.Path)
			writeJSON(w, http.StatusOK, `[]`)
		})

		got, err := c.ListChatRules(ctx, "a b@g.us")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestClient_Mutations(t *testing.T) {
	ctx := context.Background()

	t.Run("create posts the payload", func(t *testing.T) {
		var body map[string]any
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, http.StatusOK, `{"success":"Rule created","rule_id":"r9"}`)
		})

		resp, err := c.CreateRule(ctx, rules.CreateRuleRequest{RulePayload: rules.RulePayload{
			WIDs: []string{}, RawText: "hi", Status: rules.StatusActive,
		}})

		require.NoError(t, err)
		assert.Equal(t, "r9", resp.RuleID)
		assert.Equal(t, "hi", body["raw_text"])
		assert.Equal(t, []any{}, body["w_id"])
		assert.NotContains(t, body, "trigger_time")
	})

	t.Run("update uses PUT and validates the response", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			writeJSON(w, http.StatusOK, `{"success":true,"rule_id":"r1"}`)
		})

		_, err := c.UpdateRule(ctx, rules.UpdateRuleRequest{RuleID: "r1"})
		assert.ErrorIs(t, err, shared.ErrSchemaMismatch)
	})

	t.Run("delete sends the id in the body and accepts any 2xx", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			data, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"rule_id":"r1"}`, string(data))
			w.WriteHeader(http.StatusNoContent)
		})

		assert.NoError(t, c.DeleteRule(ctx, rules.DeleteRuleRequest{RuleID: "r1"}))
	})

	t.Run("run once accepts failure without an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/rules/run-once", r.URL.Path)
			writeJSON(w, http.StatusOK, `{"success":false}`)
		})

		res, err := c.RunOnce(ctx, rules.CreateRuleRequest{})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Empty(t, res.Error)
	})
}

func TestClient_StatusErrors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error field", http.StatusBadRequest, `{"error":"raw_text is required"}`, "raw_text is required"},
		{"detail string", http.StatusNotFound, `{"detail":"Rule not found"}`, "Rule not found"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"bad"}]}`, "field required; bad"},
		{"plain text", http.StatusBadGateway, `upstream down`, "upstream down"},
		{"html", http.StatusInternalServerError, `<html>oops</html>`, ""},
		{"empty", http.StatusServiceUnavailable, ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := c.ListRules(ctx)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.message, se.Message)
			assert.True(t, IsStatus(err, tt.status))
			if tt.message == "" {
				assert.Contains(t, se.Error(), "GET /rules")
			} else {
				assert.Equal(t, tt.message, se.Error())
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	ctx := context.Background()
	calls := 0
	status := http.StatusInternalServerError
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, status, `{"error":"boom"}`)
	}, func(cfg *Config) {
		cfg.BreakerFailures = 2
		cfg.BreakerTimeout = time.Hour
	})

	_, err := c.ListRules(ctx)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	_, err = c.ListRules(ctx)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))

	_, err = c.ListRules(ctx)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, calls)

	t.Run("client errors do not trip", func(t *testing.T) {
		calls = 0
		status = http.StatusBadRequest
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			writeJSON(w, status, `{"error":"bad"}`)
		}, func(cfg *Config) { cfg.BreakerFailures = 1 })

		for i := 0; i < 3; i++ {
			_, err := c.ListRules(ctx)
			assert.True(t, IsStatus(err, http.StatusBadRequest))
		}
		assert.Equal(t, 3, calls)
	})
}

func TestClient_Groups(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/waha/groups", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("moderation_status"))
		writeJSON(w, http.StatusOK, `{"groups":[{"w_id":"a@g.us","chat_name":"A","num_active_rules":1}],"chats":[{"w_id":"b@c.us"}]}`)
	})

	listing, err := c.ListGroups(context.Background())

	require.NoError(t, err)
	merged := listing.Merge()
	require.Len(t, merged, 2)
	assert.Equal(t, 1, merged[0].NumActiveRules)
}

func TestClient_Connectors(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/connectors":
			writeJSON(w, http.StatusOK, `[{"id":"whatsapp","is_connected":true},{"id":"google_drive","is_connected":false}]`)
		case "/connectors/connect":
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, map[string]string{"connectorType": "google_drive", "platform": "web"}, req)
			writeJSON(w, http.StatusOK, `{"redirect_url":"https://auth.example.com"}`)
		default:
			http.NotFound(w, r)
		}
	})

	statuses, err := c.ListStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []connectors.Status{
		{ID: connectors.WhatsApp, IsConnected: true},
		{ID: connectors.GoogleDrive},
	}, statuses)

	resp, err := c.Connect(ctx, connectors.ConnectRequest{ConnectorType: connectors.GoogleDrive, Platform: "web"})
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com", resp.RedirectURL)
}
