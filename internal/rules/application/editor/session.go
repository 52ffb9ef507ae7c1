// Package editor couples a rule form to the rules service. Each operation
// is split into prepare, send and complete steps so interactive front ends
// can run the send step off their event loop; the one-shot methods chain
// all three.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	connectorApp "github.com/felixgeelhaar/aira/internal/connectors/application"
	ruleApp "github.com/felixgeelhaar/aira/internal/rules/application"
	"github.com/felixgeelhaar/aira/internal/rules/application/commands"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
	"github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/felixgeelhaar/aira/pkg/observability"
)

// RuleService is the part of the rules service a session uses.
type RuleService interface {
	SaveRule(ctx context.Context, sub domain.Submission) (domain.MutationResponse, error)
	DeleteRule(ctx context.Context, cmd commands.DeleteRuleCommand) error
	RunRuleOnce(ctx context.Context, cmd commands.RunRuleOnceCommand) domain.RunOnceResult
}

// ConnectorService is the part of the connectors service a session uses.
type ConnectorService interface {
	Connect(ctx context.Context, cmd connectorApp.ConnectCommand) (connectorApp.ConnectResult, error)
}

var _ RuleService = (*ruleApp.Service)(nil)
var _ ConnectorService = (*connectorApp.Service)(nil)

// Session drives one form.
type Session struct {
	Form       *form.Form
	rules      RuleService
	connectors ConnectorService
	logger     *slog.Logger

	// LastError is the most recent save or delete failure, shown inline.
	LastError error
}

// NewSession creates a session. connectors may be nil when the front end
// cannot start connector flows.
func NewSession(f *form.Form, rules RuleService, connectors ConnectorService, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{Form: f, rules: rules, connectors: connectors, logger: logger}
}

// PrepareSave builds the submission and marks the form as saving.
func (s *Session) PrepareSave() (domain.Submission, error) {
	if s.Form.IsLoading() {
		return nil, form.ErrBusy
	}
	sub, err := s.Form.Save()
	if err != nil {
		return nil, err
	}
	s.Form.SetSaving(true)
	s.LastError = nil
	return sub, nil
}

// SendSave performs the request. It does not touch the form.
func (s *Session) SendSave(ctx context.Context, sub domain.Submission) (domain.MutationResponse, error) {
	return s.rules.SaveRule(ctx, sub)
}

// CompleteSave records the outcome. On failure the form keeps its draft.
func (s *Session) CompleteSave(err error) {
	s.Form.SetSaving(false)
	s.LastError = err
	log := observability.LogOperation(s.logger, "rule.save", "mode", s.Form.Mode())
	if err != nil {
		log.Warn("rule save failed", "error", err)
		return
	}
	log.Info("rule saved")
}

// Save runs the whole save flow.
func (s *Session) Save(ctx context.Context) (domain.MutationResponse, error) {
	sub, err := s.PrepareSave()
	if err != nil {
		return domain.MutationResponse{}, err
	}
	resp, err := s.SendSave(ctx, sub)
	s.CompleteSave(err)
	return resp, err
}

// PrepareRunOnce builds the dry-run request and marks the form as running.
func (s *Session) PrepareRunOnce() (domain.CreateRuleRequest, error) {
	if s.Form.IsLoading() {
		return domain.CreateRuleRequest{}, form.ErrBusy
	}
	req, err := s.Form.RunOnce()
	if err != nil {
		return domain.CreateRuleRequest{}, err
	}
	s.Form.SetRunningOnce(true)
	s.Form.DismissRunOnceResult()
	return req, nil
}

// SendRunOnce performs the dry run. It does not touch the form.
func (s *Session) SendRunOnce(ctx context.Context, req domain.CreateRuleRequest) domain.RunOnceResult {
	return s.rules.RunRuleOnce(ctx, commands.RunRuleOnceCommand{Request: req})
}

// CompleteRunOnce shows the result.
func (s *Session) CompleteRunOnce(result domain.RunOnceResult) {
	s.Form.SetRunningOnce(false)
	s.Form.SetRunOnceResult(result)
	log := observability.LogOperation(s.logger, "rule.run_once")
	if !result.Success {
		log.Warn("rule run once failed", "error", result.Error)
		return
	}
	log.Info("rule ran once", "actions", len(result.Actions))
}

// RunOnce runs the whole dry-run flow and returns the result shown.
func (s *Session) RunOnce(ctx context.Context) (domain.RunOnceResult, error) {
	req, err := s.PrepareRunOnce()
	if err != nil {
		return domain.RunOnceResult{}, err
	}
	result := s.SendRunOnce(ctx, req)
	s.CompleteRunOnce(result)
	return result, nil
}

// PrepareDelete accepts the pending confirmation and marks the form as
// deleting. RequestDelete must have been called first.
func (s *Session) PrepareDelete() (domain.DeleteRuleRequest, error) {
	req, err := s.Form.ConfirmDelete()
	if err != nil {
		return domain.DeleteRuleRequest{}, err
	}
	s.Form.SetDeleting(true)
	s.LastError = nil
	return req, nil
}

// SendDelete performs the request. It does not touch the form.
func (s *Session) SendDelete(ctx context.Context, req domain.DeleteRuleRequest) error {
	return s.rules.DeleteRule(ctx, commands.DeleteRuleCommand{Request: req})
}

// CompleteDelete records the outcome.
func (s *Session) CompleteDelete(err error) {
	s.Form.SetDeleting(false)
	s.LastError = err
	log := observability.LogOperation(s.logger, "rule.delete", "rule_id", s.Form.Rule().RuleID)
	if err != nil {
		log.Warn("rule delete failed", "error", err)
		return
	}
	log.Info("rule deleted")
}

// Delete runs the confirmation and delete flow in one go, for callers that
// confirmed out of band.
func (s *Session) Delete(ctx context.Context) error {
	if s.Form.DeleteState() != form.DeleteConfirming {
		if err := s.Form.RequestDelete(); err != nil {
			return err
		}
	}
	req, err := s.PrepareDelete()
	if err != nil {
		return err
	}
	err = s.SendDelete(ctx, req)
	s.CompleteDelete(err)
	return err
}

// Integrate starts connecting a suggested connector. WhatsApp returns a
// setup hint through connectors.ErrSetupRequired; the others return the
// provider URL to open.
func (s *Session) Integrate(ctx context.Context, connectorID string) (connectorApp.ConnectResult, error) {
	if s.connectors == nil {
		return connectorApp.ConnectResult{}, errors.New("connector flows are not available")
	}
	res, err := s.connectors.Connect(ctx, connectorApp.ConnectCommand{ConnectorID: connectorID})
	if err != nil {
		return connectorApp.ConnectResult{}, fmt.Errorf("integrate %s: %w", connectorID, err)
	}
	return res, nil
}
