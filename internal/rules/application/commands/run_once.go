package commands

import (
	"context"

	"github.com/felixgeelhaar/aira/internal/rules/domain"
)

// RunRuleOnceCommand dry-runs a rule without saving it.
type RunRuleOnceCommand struct {
	Request domain.CreateRuleRequest
}

// Validate validates the command.
func (c RunRuleOnceCommand) Validate() error {
	return c.Request.Validate()
}

// RunRuleOnceHandler handles RunRuleOnceCommand.
type RunRuleOnceHandler struct {
	gateway domain.Gateway
}

// NewRunRuleOnceHandler creates a new RunRuleOnceHandler.
func NewRunRuleOnceHandler(gateway domain.Gateway) *RunRuleOnceHandler {
	return &RunRuleOnceHandler{gateway: gateway}
}

// Handle executes the command. Failures never escape as errors: they are
// folded into an unsuccessful result so they can be shown in place.
func (h *RunRuleOnceHandler) Handle(ctx context.Context, cmd RunRuleOnceCommand) domain.RunOnceResult {
	if err := cmd.Validate(); err != nil {
		return domain.RunOnceFailure(err)
	}
	req := cmd.Request
	req.Status = domain.StatusActive
	if req.WIDs == nil {
		req.WIDs = []string{}
	}

	result, err := h.gateway.RunOnce(ctx, req)
	if err != nil {
		return domain.RunOnceFailure(err)
	}
	return result
}
