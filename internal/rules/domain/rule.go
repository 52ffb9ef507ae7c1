// Package domain contains the rule model and its wire contracts.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	shared "github.com/felixgeelhaar/aira/internal/shared/domain"
)

// Common errors for rules.
var (
	ErrRuleNotFound  = errors.New("rule not found")
	ErrInvalidRule   = errors.New("invalid rule")
	ErrInvalidStatus = errors.New("invalid rule status")
)

// Status is the lifecycle state of a rule.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// Toggled returns the opposite status.
func (s Status) Toggled() Status {
	if s == StatusActive {
		return StatusInactive
	}
	return StatusActive
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
	}
	return s, nil
}

// RealTimeTrigger is the trigger_time sentinel for rules evaluated as
// messages arrive.
const RealTimeTrigger = "Real-time"

// TitleLength is how much rule text list views show before truncating.
const TitleLength = 50

// Rule is the canonical rule as served by the API.
type Rule struct {
	RuleID      string   `json:"rule_id" yaml:"rule_id"`
	WIDs        []string `json:"w_id" yaml:"w_id"`
	RawText     string   `json:"raw_text" yaml:"raw_text"`
	Status      Status   `json:"status" yaml:"status"`
	TriggerTime *string  `json:"trigger_time" yaml:"trigger_time"`
	Interval    *int     `json:"interval" yaml:"interval"`
	IsDefault   bool     `json:"is_default" yaml:"is_default"`
}

// IsActive reports whether the rule is active.
func (r Rule) IsActive() bool {
	return r.Status == StatusActive
}

// Schedule collapses trigger_time and interval into a Schedule.
func (r Rule) Schedule() Schedule {
	return ScheduleOf(r.TriggerTime, r.Interval)
}

// Title returns the rule text cut to TitleLength characters, with an
// ellipsis when it was longer.
func (r Rule) Title() string {
	if utf8.RuneCountInString(r.RawText) <= TitleLength {
		return r.RawText
	}
	runes := []rune(r.RawText)
	return string(runes[:TitleLength]) + "..."
}

// TargetsChat reports whether wID is one of the rule's targets.
func (r Rule) TargetsChat(wID string) bool {
	for _, id := range r.WIDs {
		if id == wID {
			return true
		}
	}
	return false
}

// MatchesQuery reports whether the rule text contains query, ignoring case.
// An empty query matches every rule.
func (r Rule) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.RawText), q)
}

// FilterRules keeps the rules whose text matches query.
func FilterRules(rules []Rule, query string) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.MatchesQuery(query) {
			out = append(out, r)
		}
	}
	return out
}

// FindRule returns the rule with the given id.
func FindRule(rules []Rule, ruleID string) (Rule, error) {
	for _, r := range rules {
		if r.RuleID == ruleID {
			return r, nil
		}
	}
	return Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
}

// UnmarshalJSON decodes a rule and rejects payloads that miss required
// fields or carry an unknown status.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var w struct {
		RuleID      *string   `json:"rule_id"`
		WIDs        *[]string `json:"w_id"`
		RawText     *string   `json:"raw_text"`
		Status      *Status   `json:"status"`
		TriggerTime *string   `json:"trigger_time"`
		Interval    *int      `json:"interval"`
		IsDefault   *bool     `json:"is_default"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return shared.SchemaError("rule", err)
	}
	if err := shared.MissingFields("rule", map[string]bool{
		"rule_id":    w.RuleID != nil,
		"w_id":       w.WIDs != nil,
		"raw_text":   w.RawText != nil,
		"status":     w.Status != nil,
		"is_default": w.IsDefault != nil,
	}); err != nil {
		return err
	}
	if !w.Status.IsValid() {
		return shared.SchemaError("rule", fmt.Errorf("status %q", *w.Status))
	}

	*r = Rule{
		RuleID:      *w.RuleID,
		WIDs:        *w.WIDs,
		RawText:     *w.RawText,
		Status:      *w.Status,
		TriggerTime: w.TriggerTime,
		Interval:    w.Interval,
		IsDefault:   *w.IsDefault,
	}
	return nil
}
