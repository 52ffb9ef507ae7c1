package domain

import (
	"encoding/json"
	"errors"
	"testing"

	shared "github.com/felixgeelhaar/aira/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequests_JSON(t *testing.T) {
	tt := "13:00"
	days := 7

	t.Run("create flattens payload and omits unset fields", func(t *testing.T) {
		req := CreateRuleRequest{RulePayload: RulePayload{WIDs: []string{}, RawText: "hi", Status: StatusActive}}

		out, err := json.Marshal(req)
		require.NoError(t, err)
		assert.JSONEq(t, `{"w_id":[],"raw_text":"hi","status":"active"}`, string(out))
	})

	t.Run("create with schedule and suggestion", func(t *testing.T) {
		req := CreateRuleRequest{
			RulePayload:  RulePayload{WIDs: []string{"g1"}, RawText: "hi", TriggerTime: &tt, Interval: &days, Status: StatusActive},
			SuggestionID: "s1",
		}

		out, err := json.Marshal(req)
		require.NoError(t, err)
		assert.JSONEq(t, `{"w_id":["g1"],"raw_text":"hi","trigger_time":"13:00","interval":7,
			"status":"active","suggestion_id":"s1"}`, string(out))
	})

	t.Run("update carries rule id", func(t *testing.T) {
		req := UpdateRuleRequest{RuleID: "r1", RulePayload: RulePayload{WIDs: []string{"g1"}, RawText: "hi", Status: StatusInactive}}

		out, err := json.Marshal(req)
		require.NoError(t, err)
		assert.JSONEq(t, `{"rule_id":"r1","w_id":["g1"],"raw_text":"hi","status":"inactive"}`, string(out))
	})
}

func TestRulePayload_Validate(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }

	tests := []struct {
		name    string
		payload RulePayload
		wantErr error
	}{
		{"valid", RulePayload{RawText: "hi"}, nil},
		{"valid real-time", RulePayload{RawText: "hi", TriggerTime: str(RealTimeTrigger)}, nil},
		{"blank text", RulePayload{RawText: "  "}, ErrInvalidRule},
		{"bad status", RulePayload{RawText: "hi", Status: "paused"}, ErrInvalidStatus},
		{"bad trigger", RulePayload{RawText: "hi", TriggerTime: str("noon")}, ErrInvalidRule},
		{"zero interval", RulePayload{RawText: "hi", Interval: num(0)}, ErrInvalidRule},
		{"blank target", RulePayload{RawText: "hi", WIDs: []string{""}}, ErrInvalidRule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.ErrorIs(t, UpdateRuleRequest{RulePayload: RulePayload{RawText: "hi"}}.Validate(), ErrInvalidRule)
	assert.ErrorIs(t, DeleteRuleRequest{}.Validate(), ErrInvalidRule)
	assert.NoError(t, DeleteRuleRequest{RuleID: "r1"}.Validate())
}

func TestSubmission(t *testing.T) {
	payload := RulePayload{RawText: "hi"}

	var subs []Submission = []Submission{
		CreateRuleRequest{RulePayload: payload},
		UpdateRuleRequest{RuleID: "r1", RulePayload: payload},
	}
	for _, s := range subs {
		assert.Equal(t, "hi", s.Payload().RawText)
	}
}

func TestToggleRequest(t *testing.T) {
	t.Run("keeps the schedule", func(t *testing.T) {
		tt, days := "08:30", 7
		rule := Rule{RuleID: "r1", WIDs: []string{"g1"}, RawText: "hi", Status: StatusActive, TriggerTime: &tt, Interval: &days}

		req := ToggleRequest(rule)

		assert.Equal(t, "r1", req.RuleID)
		assert.Equal(t, StatusInactive, req.Status)
		assert.Equal(t, []string{"g1"}, req.WIDs)
		require.NotNil(t, req.TriggerTime)
		assert.Equal(t, "08:30", *req.TriggerTime)
		require.NotNil(t, req.Interval)
		assert.Equal(t, 7, *req.Interval)
		assert.True(t, req.Schedule().IsScheduled())
		assert.NoError(t, req.Validate())

		days = 14
		assert.Equal(t, 7, *req.Interval)
	})

	t.Run("real-time rule", func(t *testing.T) {
		tt := RealTimeTrigger
		req := ToggleRequest(Rule{RuleID: "r1", RawText: "hi", Status: StatusInactive, TriggerTime: &tt})

		assert.Equal(t, StatusActive, req.Status)
		assert.Equal(t, []string{}, req.WIDs)
		require.NotNil(t, req.TriggerTime)
		assert.Equal(t, RealTimeTrigger, *req.TriggerTime)
		assert.Nil(t, req.Interval)
	})

	t.Run("drops values that would not validate", func(t *testing.T) {
		tt, days := "soon", 0
		req := ToggleRequest(Rule{RuleID: "r1", RawText: "hi", Status: StatusActive, TriggerTime: &tt, Interval: &days})

		assert.Nil(t, req.TriggerTime)
		assert.Nil(t, req.Interval)
		assert.NoError(t, req.Validate())
	})
}

func TestMutationResponse_UnmarshalJSON(t *testing.T) {
	var m MutationResponse
	require.NoError(t, json.Unmarshal([]byte(`{"success":"Rule created","rule_id":"r1"}`), &m))
	assert.Equal(t, "r1", m.RuleID)

	err := json.Unmarshal([]byte(`{"success":true,"rule_id":"r1"}`), &m)
	assert.ErrorIs(t, err, shared.ErrSchemaMismatch)

	err = json.Unmarshal([]byte(`{"success":"ok"}`), &m)
	assert.ErrorIs(t, err, shared.ErrSchemaMismatch)
}

func TestRunOnceResult_UnmarshalJSON(t *testing.T) {
	t.Run("full result", func(t *testing.T) {
		data := `{"success":true,"summary":"Sent 2 replies","messages_scanned":12,
			"groups_processed":[{"w_id":"g1","chat_name":"Family","message_count":12}],
			"actions":[{"type":"reply","description":"Replied","target":"Family"}]}`

		var r RunOnceResult
		require.NoError(t, json.Unmarshal([]byte(data), &r))
		assert.True(t, r.Success)
		require.NotNil(t, r.MessagesScanned)
		assert.Equal(t, 12, *r.MessagesScanned)
		require.Len(t, r.GroupsProcessed, 1)
		assert.Equal(t, "Family", r.GroupsProcessed[0].ChatName)
		require.Len(t, r.Actions, 1)
		assert.Equal(t, "Family", r.Actions[0].Target)
		assert.False(t, r.IsEmpty())
	})

	t.Run("failure without error is valid", func(t *testing.T) {
		var r RunOnceResult
		require.NoError(t, json.Unmarshal([]byte(`{"success":false}`), &r))
		assert.False(t, r.Success)
		assert.Empty(t, r.Error)
		assert.True(t, r.IsEmpty())
	})

	tests := []struct {
		name string
		data string
	}{
		{"missing success", `{"summary":"x"}`},
		{"success as string", `{"success":"yes"}`},
		{"group missing count", `{"success":true,"groups_processed":[{"w_id":"g1","chat_name":"x"}]}`},
		{"action missing description", `{"success":true,"actions":[{"type":"reply"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r RunOnceResult
			assert.ErrorIs(t, json.Unmarshal([]byte(tt.data), &r), shared.ErrSchemaMismatch)
		})
	}
}

func TestRunOnceFailure(t *testing.T) {
	r := RunOnceFailure(errors.New("backend unavailable"))
	assert.False(t, r.Success)
	assert.Equal(t, "backend unavailable", r.Error)

	r = RunOnceFailure(errors.New(""))
	assert.Equal(t, RunOnceFailedMessage, r.Error)

	r = RunOnceFailure(nil)
	assert.Equal(t, RunOnceFailedMessage, r.Error)
}
