package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	connectorApp "github.com/felixgeelhaar/aira/internal/connectors/application"
	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	"github.com/felixgeelhaar/aira/internal/rules/application/commands"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
	"github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRuleService struct {
	mock.Mock
}

func (m *mockRuleService) SaveRule(ctx context.Context, sub domain.Submission) (domain.MutationResponse, error) {
	args := m.Called(ctx, sub)
	return args.Get(0).(domain.MutationResponse), args.Error(1)
}

func (m *mockRuleService) DeleteRule(ctx context.Context, cmd commands.DeleteRuleCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}

func (m *mockRuleService) RunRuleOnce(ctx context.Context, cmd commands.RunRuleOnceCommand) domain.RunOnceResult {
	args := m.Called(ctx, cmd)
	return args.Get(0).(domain.RunOnceResult)
}

type mockConnectorService struct {
	mock.Mock
}

func (m *mockConnectorService) Connect(ctx context.Context, cmd connectorApp.ConnectCommand) (connectorApp.ConnectResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(connectorApp.ConnectResult), args.Error(1)
}

func deps() form.Deps {
	catalog := connectors.DefaultCatalog()
	return form.Deps{
		Catalog:    catalog,
		Connectors: catalog.Join([]connectors.Status{{ID: connectors.WhatsApp, IsConnected: true}}),
		Groups:     []groups.Group{{WID: "fam@g.us", ChatName: "Family"}},
		Location:   time.UTC,
		Now:        func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func editForm() *form.Form {
	return form.NewEditForm(deps(), domain.Rule{
		RuleID:  "r1",
		WIDs:    []string{"fam@g.us"},
		RawText: "Reply to the group chat",
		Status:  domain.StatusInactive,
	})
}

func TestSession_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("create sends an active rule", func(t *testing.T) {
		svc := new(mockRuleService)
		f := form.NewCreateForm(deps(), form.CreateOptions{Suggestion: "Reply to the group chat", ChatIDs: []string{"fam@g.us"}})
		s := NewSession(f, svc, nil, observability.Discard())

		svc.On("SaveRule", ctx, mock.MatchedBy(func(sub domain.Submission) bool {
			req, ok := sub.(domain.CreateRuleRequest)
			return ok && req.Status == domain.StatusActive && req.WIDs[0] == "fam@g.us"
		})).Return(domain.MutationResponse{Success: "ok", RuleID: "new"}, nil)

		resp, err := s.Save(ctx)

		require.NoError(t, err)
		assert.Equal(t, "new", resp.RuleID)
		assert.False(t, f.Saving())
		assert.NoError(t, s.LastError)
		svc.AssertExpectations(t)
	})

	t.Run("edit keeps the status and records failures", func(t *testing.T) {
		svc := new(mockRuleService)
		f := editForm()
		s := NewSession(f, svc, nil, observability.Discard())
		boom := errors.New("500")

		svc.On("SaveRule", ctx, mock.MatchedBy(func(sub domain.Submission) bool {
			req, ok := sub.(domain.UpdateRuleRequest)
			return ok && req.RuleID == "r1" && req.Status == domain.StatusInactive
		})).Return(domain.MutationResponse{}, boom)

		_, err := s.Save(ctx)

		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, s.LastError, boom)
		assert.False(t, f.Saving())
		assert.Equal(t, "Reply to the group chat", f.RawText())
	})

	t.Run("busy form is refused", func(t *testing.T) {
		svc := new(mockRuleService)
		f := editForm()
		f.SetDeleting(true)
		s := NewSession(f, svc, nil, nil)

		_, err := s.Save(ctx)

		assert.ErrorIs(t, err, form.ErrBusy)
		svc.AssertNotCalled(t, "SaveRule", mock.Anything, mock.Anything)
	})

	t.Run("prepare marks the form as saving", func(t *testing.T) {
		f := editForm()
		s := NewSession(f, new(mockRuleService), nil, nil)

		_, err := s.PrepareSave()
		require.NoError(t, err)
		assert.True(t, f.Saving())
		assert.False(t, f.CanSave())

		_, err = s.PrepareSave()
		assert.ErrorIs(t, err, form.ErrBusy)
	})
}

func TestSession_RunOnce(t *testing.T) {
	ctx := context.Background()
	svc := new(mockRuleService)
	f := form.NewCreateForm(deps(), form.CreateOptions{
		Suggestion: "Reply to the group chat",
		ChatIDs:    []string{"fam@g.us"},
		RunOnce:    true,
	})
	s := NewSession(f, svc, nil, nil)
	result := domain.RunOnceResult{Success: true, Summary: "Nothing to do"}
	svc.On("RunRuleOnce", ctx, mock.AnythingOfType("commands.RunRuleOnceCommand")).Return(result)

	got, err := s.RunOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, result, got)
	shown, ok := f.RunOnceResult()
	require.True(t, ok)
	assert.Equal(t, "Nothing to do", shown.Summary)
	assert.False(t, f.RunningOnce())

	t.Run("edit forms have no run once", func(t *testing.T) {
		_, err := NewSession(editForm(), svc, nil, nil).RunOnce(ctx)
		assert.ErrorIs(t, err, form.ErrRunOnceUnavailable)
	})
}

func TestSession_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed delete is sent", func(t *testing.T) {
		svc := new(mockRuleService)
		f := editForm()
		s := NewSession(f, svc, nil, nil)
		svc.On("DeleteRule", ctx, commands.DeleteRuleCommand{Request: domain.DeleteRuleRequest{RuleID: "r1"}}).Return(nil)

		require.NoError(t, f.RequestDelete())
		req, err := s.PrepareDelete()
		require.NoError(t, err)
		assert.True(t, f.Deleting())

		s.CompleteDelete(s.SendDelete(ctx, req))

		assert.False(t, f.Deleting())
		assert.Equal(t, form.DeleteConfirmed, f.DeleteState())
		svc.AssertExpectations(t)
	})

	t.Run("delete without confirmation fails", func(t *testing.T) {
		_, err := NewSession(editForm(), new(mockRuleService), nil, nil).PrepareDelete()
		assert.ErrorIs(t, err, form.ErrDeleteUnavailable)
	})

	t.Run("one-shot delete records failures", func(t *testing.T) {
		svc := new(mockRuleService)
		s := NewSession(editForm(), svc, nil, observability.Discard())
		svc.On("DeleteRule", ctx, mock.Anything).Return(errors.New("gone"))

		err := s.Delete(ctx)

		assert.ErrorContains(t, err, "gone")
		assert.Error(t, s.LastError)
	})

	t.Run("create forms cannot delete", func(t *testing.T) {
		f := form.NewCreateForm(deps(), form.CreateOptions{})
		err := NewSession(f, new(mockRuleService), nil, nil).Delete(ctx)
		assert.ErrorIs(t, err, form.ErrDeleteUnavailable)
	})
}

func TestSession_Integrate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the redirect", func(t *testing.T) {
		conn := new(mockConnectorService)
		conn.On("Connect", ctx, connectorApp.ConnectCommand{ConnectorID: "google_drive"}).
			Return(connectorApp.ConnectResult{RedirectURL: "https://example.com/auth"}, nil)

		res, err := NewSession(editForm(), new(mockRuleService), conn, nil).Integrate(ctx, "google_drive")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/auth", res.RedirectURL)
	})

	t.Run("keeps setup errors matchable", func(t *testing.T) {
		conn := new(mockConnectorService)
		conn.On("Connect", ctx, mock.Anything).
			Return(connectorApp.ConnectResult{}, connectors.ErrSetupRequired)

		_, err := NewSession(editForm(), new(mockRuleService), conn, nil).Integrate(ctx, "whatsapp")

		assert.ErrorIs(t, err, connectors.ErrSetupRequired)
	})

	t.Run("no connector service", func(t *testing.T) {
		_, err := NewSession(editForm(), new(mockRuleService), nil, nil).Integrate(ctx, "google_drive")
		assert.Error(t, err)
	})
}

func TestSession_LogsOperations(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{Format: observability.LogFormatJSON, Output: &buf})

	svc := new(mockRuleService)
	f := editForm()
	s := NewSession(f, svc, nil, logger)
	svc.On("SaveRule", ctx, mock.Anything).Return(domain.MutationResponse{}, errors.New("backend down")).Once()
	svc.On("DeleteRule", ctx, mock.Anything).Return(nil).Once()

	_, err := s.Save(ctx)
	require.Error(t, err)
	require.NoError(t, s.Delete(ctx))

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 2)

	assert.Equal(t, "rule.save", entries[0][observability.OperationKey])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, string(form.ModeEdit), entries[0]["mode"])
	assert.Equal(t, "backend down", entries[0]["error"])

	assert.Equal(t, "rule.delete", entries[1][observability.OperationKey])
	assert.Equal(t, "INFO", entries[1]["level"])
	assert.Equal(t, "r1", entries[1]["rule_id"])
	svc.AssertExpectations(t)
}
