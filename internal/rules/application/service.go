// Package application contains the rules application layer.
package application

import (
	"context"

	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	"github.com/felixgeelhaar/aira/internal/rules/application/commands"
	"github.com/felixgeelhaar/aira/internal/rules/application/queries"
	"github.com/felixgeelhaar/aira/internal/rules/domain"
)

// Service provides a facade for rule operations.
type Service struct {
	// Command handlers
	createRuleHandler   *commands.CreateRuleHandler
	updateRuleHandler   *commands.UpdateRuleHandler
	deleteRuleHandler   *commands.DeleteRuleHandler
	toggleStatusHandler *commands.ToggleRuleStatusHandler
	runOnceHandler      *commands.RunRuleOnceHandler

	// Query handlers
	connectorRulesHandler *queries.ListConnectorRulesHandler
	groupRulesHandler     *queries.ListGroupRulesHandler
	getRuleHandler        *queries.GetRuleHandler
}

// NewService creates a new rule service. invalidator may be nil.
func NewService(
	catalog *connectors.Catalog,
	ruleGateway domain.Gateway,
	groupGateway groups.Gateway,
	invalidator commands.Invalidator,
) *Service {
	return &Service{
		createRuleHandler:   commands.NewCreateRuleHandler(ruleGateway, invalidator),
		updateRuleHandler:   commands.NewUpdateRuleHandler(ruleGateway, invalidator),
		deleteRuleHandler:   commands.NewDeleteRuleHandler(ruleGateway, invalidator),
		toggleStatusHandler: commands.NewToggleRuleStatusHandler(ruleGateway, invalidator),
		runOnceHandler:      commands.NewRunRuleOnceHandler(ruleGateway),

		connectorRulesHandler: queries.NewListConnectorRulesHandler(catalog, ruleGateway),
		groupRulesHandler:     queries.NewListGroupRulesHandler(ruleGateway, groupGateway),
		getRuleHandler:        queries.NewGetRuleHandler(ruleGateway),
	}
}

// CreateRule creates a rule.
func (s *Service) CreateRule(ctx context.Context, cmd commands.CreateRuleCommand) (domain.MutationResponse, error) {
	return s.createRuleHandler.Handle(ctx, cmd)
}

// UpdateRule replaces a rule.
func (s *Service) UpdateRule(ctx context.Context, cmd commands.UpdateRuleCommand) (domain.MutationResponse, error) {
	return s.updateRuleHandler.Handle(ctx, cmd)
}

// SaveRule sends a form submission.
func (s *Service) SaveRule(ctx context.Context, sub domain.Submission) (domain.MutationResponse, error) {
	return commands.SaveRule(ctx, s.createRuleHandler, s.updateRuleHandler, sub)
}

// DeleteRule deletes a rule.
func (s *Service) DeleteRule(ctx context.Context, cmd commands.DeleteRuleCommand) error {
	return s.deleteRuleHandler.Handle(ctx, cmd)
}

// ToggleRuleStatus flips the status of a listed rule.
func (s *Service) ToggleRuleStatus(ctx context.Context, cmd commands.ToggleRuleStatusCommand) (commands.ToggleResult, error) {
	return s.toggleStatusHandler.Toggle(ctx, cmd)
}

// SetRuleStatus moves a rule to a status.
func (s *Service) SetRuleStatus(ctx context.Context, cmd commands.SetRuleStatusCommand) (commands.ToggleResult, error) {
	return s.toggleStatusHandler.Set(ctx, cmd)
}

// RunRuleOnce dry-runs a rule.
func (s *Service) RunRuleOnce(ctx context.Context, cmd commands.RunRuleOnceCommand) domain.RunOnceResult {
	return s.runOnceHandler.Handle(ctx, cmd)
}

// ListConnectorRules lists the rules of a connector page.
func (s *Service) ListConnectorRules(ctx context.Context, q queries.ListConnectorRulesQuery) (*queries.ConnectorRulesResult, error) {
	return s.connectorRulesHandler.Handle(ctx, q)
}

// ListGroupRules lists the rules of a group page.
func (s *Service) ListGroupRules(ctx context.Context, q queries.ListGroupRulesQuery) (*queries.GroupRulesResult, error) {
	return s.groupRulesHandler.Handle(ctx, q)
}

// GetRule fetches one rule.
func (s *Service) GetRule(ctx context.Context, q queries.GetRuleQuery) (domain.Rule, error) {
	return s.getRuleHandler.Handle(ctx, q)
}
