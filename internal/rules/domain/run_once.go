package domain

import (
	"encoding/json"

	shared "github.com/felixgeelhaar/aira/internal/shared/domain"
)

// RunOnceFailedMessage is shown when a run-once call fails without a
// message of its own.
const RunOnceFailedMessage = "Run once failed. The backend may not support this yet. You can still create the rule."

// RunOnceResult reports a single dry run of a rule. It is never persisted.
type RunOnceResult struct {
	Success         bool             `json:"success" yaml:"success"`
	Summary         string           `json:"summary,omitempty" yaml:"summary,omitempty"`
	MessagesScanned *int             `json:"messages_scanned,omitempty" yaml:"messages_scanned,omitempty"`
	GroupsProcessed []ProcessedGroup `json:"groups_processed,omitempty" yaml:"groups_processed,omitempty"`
	Actions         []RunOnceAction  `json:"actions,omitempty" yaml:"actions,omitempty"`
	Error           string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// ProcessedGroup is one chat scanned during a run.
type ProcessedGroup struct {
	WID          string `json:"w_id" yaml:"w_id"`
	ChatName     string `json:"chat_name" yaml:"chat_name"`
	MessageCount int    `json:"message_count" yaml:"message_count"`
}

// RunOnceAction is one action the rule would take.
type RunOnceAction struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Target      string `json:"target,omitempty" yaml:"target,omitempty"`
	Preview     string `json:"preview,omitempty" yaml:"preview,omitempty"`
}

// RunOnceFailure turns a transport or API error into a failed result so
// it can be shown in place of a response.
func RunOnceFailure(err error) RunOnceResult {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = RunOnceFailedMessage
	}
	return RunOnceResult{Success: false, Error: msg}
}

// IsEmpty reports whether a result carries nothing beyond its success flag.
func (r RunOnceResult) IsEmpty() bool {
	return r.Summary == "" && len(r.Actions) == 0 && len(r.GroupsProcessed) == 0
}

// UnmarshalJSON requires success and validates nested entries.
func (r *RunOnceResult) UnmarshalJSON(data []byte) error {
	type plain RunOnceResult
	var w struct {
		plain
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return shared.SchemaError("run-once result", err)
	}
	if err := shared.MissingFields("run-once result", map[string]bool{"success": w.Success != nil}); err != nil {
		return err
	}
	*r = RunOnceResult(w.plain)
	r.Success = *w.Success
	return nil
}

// UnmarshalJSON requires every field.
func (g *ProcessedGroup) UnmarshalJSON(data []byte) error {
	var w struct {
		WID          *string `json:"w_id"`
		ChatName     *string `json:"chat_name"`
		MessageCount *int    `json:"message_count"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return shared.SchemaError("processed group", err)
	}
	if err := shared.MissingFields("processed group", map[string]bool{
		"w_id":          w.WID != nil,
		"chat_name":     w.ChatName != nil,
		"message_count": w.MessageCount != nil,
	}); err != nil {
		return err
	}
	*g = ProcessedGroup{WID: *w.WID, ChatName: *w.ChatName, MessageCount: *w.MessageCount}
	return nil
}

// UnmarshalJSON requires type and description.
func (a *RunOnceAction) UnmarshalJSON(data []byte) error {
	var w struct {
		Type        *string `json:"type"`
		Description *string `json:"description"`
		Target      string  `json:"target"`
		Preview     string  `json:"preview"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return shared.SchemaError("run-once action", err)
	}
	if err := shared.MissingFields("run-once action", map[string]bool{
		"type":        w.Type != nil,
		"description": w.Description != nil,
	}); err != nil {
		return err
	}
	*a = RunOnceAction{Type: *w.Type, Description: *w.Description, Target: w.Target, Preview: w.Preview}
	return nil
}
