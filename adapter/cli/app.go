package cli

import (
	"context"
	"errors"
	"time"

	connectorApp "github.com/felixgeelhaar/aira/internal/connectors/application"
	groupApp "github.com/felixgeelhaar/aira/internal/groups/application"
	ruleApp "github.com/felixgeelhaar/aira/internal/rules/application"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
)

// ErrNotInitialized is returned by commands run without an API connection.
var ErrNotInitialized = errors.New("application not initialized - set AIRA_API_URL and check the API is reachable")

// App holds the CLI application dependencies.
type App struct {
	RuleService      *ruleApp.Service
	GroupService     *groupApp.Service
	ConnectorService *connectorApp.Service

	// FormDeps loads what the rule form needs: connectors and groups.
	FormDeps func(ctx context.Context) (form.Deps, error)

	// RunOnce enables the run-once action on new rules.
	RunOnce bool

	// Location is the time zone schedule times are shown in.
	Location *time.Location
	// Now is the clock used for schedule previews.
	Now func() time.Time
}

// NewApp creates a new CLI application with the provided services.
func NewApp(
	ruleService *ruleApp.Service,
	groupService *groupApp.Service,
	connectorService *connectorApp.Service,
	formDeps func(ctx context.Context) (form.Deps, error),
) *App {
	return &App{
		RuleService:      ruleService,
		GroupService:     groupService,
		ConnectorService: connectorService,
		FormDeps:         formDeps,
		RunOnce:          true,
		Location:         time.Local,
		Now:              time.Now,
	}
}

// SetRunOnce toggles the run-once action.
func (a *App) SetRunOnce(enabled bool) {
	a.RunOnce = enabled
}

// SetLocation updates the display time zone.
func (a *App) SetLocation(loc *time.Location) {
	if loc != nil {
		a.Location = loc
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil || app.RuleService == nil || app.GroupService == nil || app.ConnectorService == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}
