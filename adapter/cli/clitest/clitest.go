// Package clitest runs CLI commands against an in-process development API
// backed by an in-memory SQLite store.
package clitest

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/aira/adapter/api"
	"github.com/felixgeelhaar/aira/adapter/cli"
	internalApp "github.com/felixgeelhaar/aira/internal/app"
	"github.com/felixgeelhaar/aira/internal/devapi/store"
	"github.com/felixgeelhaar/aira/pkg/config"
	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// Seeded chat ids.
const (
	FamilyWID = "120363000000000001@g.us"
	WorkWID   = "120363000000000002@g.us"
	AlexWID   = "15550000001@c.us"
)

// Now is the clock installed on the test app.
var Now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

// Setup starts the development API, wires a CLI app against it and installs
// it with cli.SetApp. Everything is torn down with t.
func Setup(t *testing.T) (*cli.App, store.Store) {
	t.Helper()
	ctx := context.Background()

	st, err := store.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, store.Seed(ctx, st))

	srv := api.NewServer(api.DefaultServerConfig(), st, observability.Discard())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	cfg := &config.Config{
		AppEnv:      "test",
		LogLevel:    "error",
		Timezone:    "UTC",
		APIURL:      ts.URL,
		APITimeout:  5 * time.Second,
		Platform:    "cli",
		RunOnceMode: true,
	}
	container, err := internalApp.NewContainer(ctx, cfg, observability.Discard())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	app := cli.NewApp(container.RuleService, container.GroupService, container.ConnectorService, container.FormDeps)
	app.SetRunOnce(cfg.RunOnceMode)
	app.SetLocation(time.UTC)
	app.Now = func() time.Time { return Now }

	cli.SetApp(app)
	cli.SetLogger(observability.Discard())
	t.Cleanup(func() {
		cli.SetApp(nil)
		cli.SetOutputFormat(cli.FormatTable)
		cli.SetPrompter(nil)
	})
	return app, st
}

// Execute runs root with args and returns what it printed. Flags of every
// command under root are reset first, since cobra keeps their values in
// package variables between runs.
func Execute(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	ResetFlags(root)

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	root.SilenceUsage = true
	root.SilenceErrors = true
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// ResetFlags restores every flag under root to its default.
func ResetFlags(root *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	root.Flags().VisitAll(reset)
	for _, c := range root.Commands() {
		ResetFlags(c)
	}
}
