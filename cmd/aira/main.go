package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/aira/adapter/cli"
	"github.com/felixgeelhaar/aira/adapter/cli/connector"
	"github.com/felixgeelhaar/aira/adapter/cli/group"
	"github.com/felixgeelhaar/aira/adapter/cli/rule"
	"github.com/felixgeelhaar/aira/internal/app"
	"github.com/felixgeelhaar/aira/pkg/config"
	"github.com/felixgeelhaar/aira/pkg/observability"
)

func main() {
	// Setup logger
	logCfg := observability.DefaultLogConfig("aira")
	logCfg.ServiceVersion = cli.Version
	logger := observability.LoggerFromEnv(logCfg)

	// Cancel in-flight requests on Ctrl+C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if os.Getenv("AIRA_LOG_LEVEL") == "" && os.Getenv("LOG_LEVEL") != "" {
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
		logger = observability.LoggerFromEnv(logCfg)
	}
	cli.SetLogger(logger)

	// Commands that need the API fail with cli.ErrNotInitialized when the
	// container cannot be built; version and help still work.
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Warn("failed to initialize container", "error", err)
	} else {
		defer container.Close()

		cliApp := cli.NewApp(
			container.RuleService,
			container.GroupService,
			container.ConnectorService,
			container.FormDeps,
		)
		cliApp.SetRunOnce(cfg.RunOnceMode)
		cliApp.SetLocation(container.Location)
		cli.SetApp(cliApp)
	}

	// Register commands
	cli.AddCommand(rule.Cmd)
	cli.AddCommand(group.Cmd)
	cli.AddCommand(connector.Cmd)

	// Execute CLI
	cli.Execute(ctx)
}
