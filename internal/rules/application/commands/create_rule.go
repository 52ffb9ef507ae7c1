package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/aira/internal/rules/domain"
)

// Invalidator is told when rule changes make cached group counts stale.
type Invalidator interface {
	InvalidateGroups(ctx context.Context) error
}

type noopInvalidator struct{}

func (noopInvalidator) InvalidateGroups(context.Context) error { return nil }

func orNoop(inv Invalidator) Invalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

// CreateRuleCommand creates a rule.
type CreateRuleCommand struct {
	Request domain.CreateRuleRequest
}

// Validate validates the command.
func (c CreateRuleCommand) Validate() error {
	return c.Request.Validate()
}

// CreateRuleHandler handles CreateRuleCommand.
type CreateRuleHandler struct {
	gateway     domain.Gateway
	invalidator Invalidator
}

// NewCreateRuleHandler creates a new CreateRuleHandler.
func NewCreateRuleHandler(gateway domain.Gateway, invalidator Invalidator) *CreateRuleHandler {
	return &CreateRuleHandler{gateway: gateway, invalidator: orNoop(invalidator)}
}

// Handle executes the CreateRuleCommand.
func (h *CreateRuleHandler) Handle(ctx context.Context, cmd CreateRuleCommand) (domain.MutationResponse, error) {
	if err := cmd.Validate(); err != nil {
		return domain.MutationResponse{}, err
	}
	req := cmd.Request
	if req.Status == "" {
		req.Status = domain.StatusActive
	}
	if req.WIDs == nil {
		req.WIDs = []string{}
	}

	resp, err := h.gateway.CreateRule(ctx, req)
	if err != nil {
		return domain.MutationResponse{}, fmt.Errorf("create rule: %w", err)
	}
	// Stale counts are tolerable; the next listing fixes them.
	_ = h.invalidator.InvalidateGroups(ctx)
	return resp, nil
}

// UpdateRuleCommand replaces a rule.
type UpdateRuleCommand struct {
	Request domain.UpdateRuleRequest
}

// Validate validates the command.
func (c UpdateRuleCommand) Validate() error {
	return c.Request.Validate()
}

// UpdateRuleHandler handles UpdateRuleCommand.
type UpdateRuleHandler struct {
	gateway     domain.Gateway
	invalidator Invalidator
}

// NewUpdateRuleHandler creates a new UpdateRuleHandler.
func NewUpdateRuleHandler(gateway domain.Gateway, invalidator Invalidator) *UpdateRuleHandler {
	return &UpdateRuleHandler{gateway: gateway, invalidator: orNoop(invalidator)}
}

// Handle executes the UpdateRuleCommand.
func (h *UpdateRuleHandler) Handle(ctx context.Context, cmd UpdateRuleCommand) (domain.MutationResponse, error) {
	if err := cmd.Validate(); err != nil {
		return domain.MutationResponse{}, err
	}
	req := cmd.Request
	if req.WIDs == nil {
		req.WIDs = []string{}
	}

	resp, err := h.gateway.UpdateRule(ctx, req)
	if err != nil {
		return domain.MutationResponse{}, fmt.Errorf("update rule: %w", err)
	}
	_ = h.invalidator.InvalidateGroups(ctx)
	return resp, nil
}

// SaveRule dispatches a form submission to the create or update handler.
func SaveRule(ctx context.Context, create *CreateRuleHandler, update *UpdateRuleHandler, sub domain.Submission) (domain.MutationResponse, error) {
	switch req := sub.(type) {
	case domain.CreateRuleRequest:
		return create.Handle(ctx, CreateRuleCommand{Request: req})
	case domain.UpdateRuleRequest:
		return update.Handle(ctx, UpdateRuleCommand{Request: req})
	case nil:
		return domain.MutationResponse{}, errors.New("nothing to save")
	default:
		return domain.MutationResponse{}, fmt.Errorf("unsupported submission %T", sub)
	}
}
