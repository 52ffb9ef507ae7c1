package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/aira/internal/rules/domain"
)

// DeleteRuleCommand deletes a rule.
type DeleteRuleCommand struct {
	Request domain.DeleteRuleRequest
}

// Validate validates the command.
func (c DeleteRuleCommand) Validate() error {
	return c.Request.Validate()
}

// DeleteRuleHandler handles DeleteRuleCommand.
type DeleteRuleHandler struct {
	gateway     domain.Gateway
	invalidator Invalidator
}

// NewDeleteRuleHandler creates a new DeleteRuleHandler.
func NewDeleteRuleHandler(gateway domain.Gateway, invalidator Invalidator) *DeleteRuleHandler {
	return &DeleteRuleHandler{gateway: gateway, invalidator: orNoop(invalidator)}
}

// Handle executes the DeleteRuleCommand.
func (h *DeleteRuleHandler) Handle(ctx context.Context, cmd DeleteRuleCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := h.gateway.DeleteRule(ctx, cmd.Request); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	_ = h.invalidator.InvalidateGroups(ctx)
	return nil
}
