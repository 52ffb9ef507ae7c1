package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/aira/internal/rules/domain"
)

// ToggleRuleStatusCommand flips the status of a listed rule.
type ToggleRuleStatusCommand struct {
	Rule domain.Rule
}

// Validate validates the command.
func (c ToggleRuleStatusCommand) Validate() error {
	if c.Rule.RuleID == "" {
		return errors.New("rule_id is required")
	}
	if !c.Rule.Status.IsValid() {
		return domain.ErrInvalidStatus
	}
	return nil
}

// SetRuleStatusCommand moves a rule to the given status.
type SetRuleStatusCommand struct {
	RuleID string
	Status domain.Status
}

// Validate validates the command.
func (c SetRuleStatusCommand) Validate() error {
	if c.RuleID == "" {
		return errors.New("rule_id is required")
	}
	if !c.Status.IsValid() {
		return domain.ErrInvalidStatus
	}
	return nil
}

// ToggleResult reports the outcome of a status change.
type ToggleResult struct {
	RuleID string
	Status domain.Status
	// Changed is false when the rule already had the requested status.
	Changed bool
}

// ToggleRuleStatusHandler sends status updates. There is no optimistic
// update and nothing to roll back: callers re-fetch after a success and
// simply re-fetch after a failure.
type ToggleRuleStatusHandler struct {
	gateway     domain.Gateway
	invalidator Invalidator
}

// NewToggleRuleStatusHandler creates a new ToggleRuleStatusHandler.
func NewToggleRuleStatusHandler(gateway domain.Gateway, invalidator Invalidator) *ToggleRuleStatusHandler {
	return &ToggleRuleStatusHandler{gateway: gateway, invalidator: orNoop(invalidator)}
}

// Toggle executes the ToggleRuleStatusCommand.
func (h *ToggleRuleStatusHandler) Toggle(ctx context.Context, cmd ToggleRuleStatusCommand) (ToggleResult, error) {
	if err := cmd.Validate(); err != nil {
		return ToggleResult{}, err
	}
	req := domain.ToggleRequest(cmd.Rule)
	if _, err := h.gateway.UpdateRule(ctx, req); err != nil {
		return ToggleResult{}, fmt.Errorf("toggle rule status: %w", err)
	}
	_ = h.invalidator.InvalidateGroups(ctx)
	return ToggleResult{RuleID: req.RuleID, Status: req.Status, Changed: true}, nil
}

// Set executes the SetRuleStatusCommand. The rule is looked up first so the
// update carries its current targets and text.
func (h *ToggleRuleStatusHandler) Set(ctx context.Context, cmd SetRuleStatusCommand) (ToggleResult, error) {
	if err := cmd.Validate(); err != nil {
		return ToggleResult{}, err
	}
	rules, err := h.gateway.ListRules(ctx)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("list rules: %w", err)
	}
	rule, err := domain.FindRule(rules, cmd.RuleID)
	if err != nil {
		return ToggleResult{}, err
	}
	if rule.Status == cmd.Status {
		return ToggleResult{RuleID: rule.RuleID, Status: rule.Status}, nil
	}
	return h.Toggle(ctx, ToggleRuleStatusCommand{Rule: rule})
}
