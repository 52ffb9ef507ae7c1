package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/felixgeelhaar/aira/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	verbose      bool
	outputFormat string
	logger       *slog.Logger
)

type commandContext struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandContextKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aira",
	Short: "Aira - messaging automation rules",
	Long: `Aira manages automation rules for your messaging groups and
connected apps.

Rules are written in plain language. Aira suggests the connectors a rule
needs, lets you target WhatsApp groups and chats, and runs rules in real
time or on a daily, weekly or monthly schedule.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := ParseFormat(outputFormat); err != nil {
			return err
		}
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		info := commandContext{
			correlationID: uuid.New(),
			startedAt:     time.Now(),
		}
		ctx = context.WithValue(ctx, commandContextKey{}, info)
		ctx = observability.WithCorrelationID(ctx, info.correlationID.String())
		cmd.SetContext(ctx)
		logger.Debug("command start",
			"command", cmd.CommandPath(),
			observability.CorrelationIDKey, info.correlationID.String(),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		info, ok := cmd.Context().Value(commandContextKey{}).(commandContext)
		if !ok {
			return
		}
		logger.Debug("command end",
			"command", cmd.CommandPath(),
			observability.CorrelationIDKey, info.correlationID.String(),
			observability.DurationKey, time.Since(info.startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", string(FormatTable), "output format (table, json, yaml)")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}

// Logger returns the CLI logger.
func Logger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Verbose reports whether --verbose was given.
func Verbose() bool {
	return verbose
}

// OutputFormat returns the --output format.
func OutputFormat() Format {
	f, err := ParseFormat(outputFormat)
	if err != nil {
		return FormatTable
	}
	return f
}

// SetOutputFormat overrides --output. Used by tests.
func SetOutputFormat(f Format) {
	outputFormat = string(f)
}
