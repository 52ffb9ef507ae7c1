package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	shared "github.com/felixgeelhaar/aira/internal/shared/domain"
)

// RulePayload carries the fields shared by create, update and run-once
// requests.
type RulePayload struct {
	WIDs        []string `json:"w_id"`
	RawText     string   `json:"raw_text"`
	TriggerTime *string  `json:"trigger_time,omitempty"`
	Interval    *int     `json:"interval,omitempty"`
	Status      Status   `json:"status,omitempty"`
}

// Payload returns the shared fields. It is promoted to both request types so
// either satisfies Submission.
func (p RulePayload) Payload() RulePayload {
	return p
}

// Schedule reads the payload's schedule fields.
func (p RulePayload) Schedule() Schedule {
	return ScheduleOf(p.TriggerTime, p.Interval)
}

// Validate checks the payload before it is sent or stored.
func (p RulePayload) Validate() error {
	if strings.TrimSpace(p.RawText) == "" {
		return fmt.Errorf("%w: raw_text is required", ErrInvalidRule)
	}
	if p.Status != "" && !p.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, p.Status)
	}
	if p.TriggerTime != nil && *p.TriggerTime != RealTimeTrigger {
		if _, err := ParseTriggerTime(*p.TriggerTime); err != nil {
			return fmt.Errorf("%w: trigger_time: %v", ErrInvalidRule, err)
		}
	}
	if p.Interval != nil && *p.Interval <= 0 {
		return fmt.Errorf("%w: interval must be a positive day count", ErrInvalidRule)
	}
	for _, id := range p.WIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: empty w_id entry", ErrInvalidRule)
		}
	}
	return nil
}

// CreateRuleRequest creates a rule or dry-runs it once.
type CreateRuleRequest struct {
	RulePayload
	SuggestionID string `json:"suggestion_id,omitempty"`
}

// UpdateRuleRequest replaces an existing rule.
type UpdateRuleRequest struct {
	RuleID string `json:"rule_id"`
	RulePayload
}

// Validate checks the request.
func (r UpdateRuleRequest) Validate() error {
	if strings.TrimSpace(r.RuleID) == "" {
		return fmt.Errorf("%w: rule_id is required", ErrInvalidRule)
	}
	return r.RulePayload.Validate()
}

// DeleteRuleRequest deletes a rule.
type DeleteRuleRequest struct {
	RuleID string `json:"rule_id"`
}

// Validate checks the request.
func (r DeleteRuleRequest) Validate() error {
	if strings.TrimSpace(r.RuleID) == "" {
		return fmt.Errorf("%w: rule_id is required", ErrInvalidRule)
	}
	return nil
}

// Submission is what saving a form produces: a CreateRuleRequest or an
// UpdateRuleRequest.
type Submission interface {
	Payload() RulePayload
	Validate() error
}

// ToggleRequest builds the update that flips a rule's status. Everything
// else the rule carries is sent back unchanged, since an update replaces the
// whole rule. Schedule values that would fail validation are left out.
func ToggleRequest(r Rule) UpdateRuleRequest {
	wids := r.WIDs
	if wids == nil {
		wids = []string{}
	}
	req := UpdateRuleRequest{
		RuleID: r.RuleID,
		RulePayload: RulePayload{
			WIDs:    wids,
			RawText: r.RawText,
			Status:  r.Status.Toggled(),
		},
	}
	if r.TriggerTime != nil {
		if t := *r.TriggerTime; t == RealTimeTrigger || validTrigger(t) {
			req.TriggerTime = &t
		}
	}
	if r.Interval != nil && *r.Interval > 0 {
		days := *r.Interval
		req.Interval = &days
	}
	return req
}

func validTrigger(v string) bool {
	_, err := ParseTriggerTime(v)
	return err == nil
}

// MutationResponse is returned by create and update.
type MutationResponse struct {
	Success string `json:"success" yaml:"success"`
	RuleID  string `json:"rule_id" yaml:"rule_id"`
}

// UnmarshalJSON requires both fields to be present strings.
func (m *MutationResponse) UnmarshalJSON(data []byte) error {
	var w struct {
		Success *string `json:"success"`
		RuleID  *string `json:"rule_id"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return shared.SchemaError("mutation response", err)
	}
	if err := shared.MissingFields("mutation response", map[string]bool{
		"success": w.Success != nil,
		"rule_id": w.RuleID != nil,
	}); err != nil {
		return err
	}
	*m = MutationResponse{Success: *w.Success, RuleID: *w.RuleID}
	return nil
}

// Gateway is the remote rules API.
type Gateway interface {
	// ListRules returns every rule of the user.
	ListRules(ctx context.Context) ([]Rule, error)

	// ListChatRules returns the rules targeting one chat.
	ListChatRules(ctx context.Context, wID string) ([]Rule, error)

	CreateRule(ctx context.Context, req CreateRuleRequest) (MutationResponse, error)
	UpdateRule(ctx context.Context, req UpdateRuleRequest) (MutationResponse, error)
	DeleteRule(ctx context.Context, req DeleteRuleRequest) error

	// RunOnce evaluates the rule a single time without saving it.
	RunOnce(ctx context.Context, req CreateRuleRequest) (RunOnceResult, error)
}
