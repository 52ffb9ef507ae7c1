package rule

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/aira/adapter/cli"
	"github.com/felixgeelhaar/aira/adapter/tui/ruleform"
	"github.com/felixgeelhaar/aira/internal/rules/application/editor"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
	"github.com/spf13/cobra"
)

var (
	suggestion   string
	chatIDs      string
	chatID       string
	suggestionID string
	newSchedule  scheduleOptions
	dryRun       bool
	interactive  bool
)

var newCmd = &cobra.Command{
	Use:     "new [text]",
	Aliases: []string{"create", "add"},
	Short:   "Create a rule",
	Long: `Create a rule from plain-language text.

The connectors the rule needs are suggested from its wording. Rules that
use WhatsApp must target at least one group or chat.

Examples:
  aira rule new "Summarise the family chat every evening" --chat-id 120363000000000001@g.us
  aira rule new "Save every pdf to drive"
  aira rule new "Send me a digest" --schedule --time 18:00 --interval weekly
  aira rule new "Reply to questions" --chat-ids a@g.us,b@g.us --run-once
  aira rule new -i                                   # Interactive form`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createRule(cmd, args, dryRun)
	},
}

var runOnceCmd = &cobra.Command{
	Use:   "run-once [text]",
	Short: "Try a rule once without saving it",
	Long: `Run a draft rule once against recent messages and show what it
would do. Nothing is saved.

Examples:
  aira rule run-once "Save every pdf to drive"
  aira rule run-once "Summarise the chat" --chat-id 120363000000000001@g.us`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return createRule(cmd, args, true)
	},
}

func createRule(cmd *cobra.Command, args []string, runOnce bool) error {
	app, err := cli.RequireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	deps, err := app.FormDeps(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rule form: %w", err)
	}

	text := suggestion
	if len(args) > 0 {
		text = args[0]
	}
	f := form.NewCreateForm(deps, form.CreateOptions{
		Suggestion:   text,
		ChatIDs:      form.ParseChatIDs(chatIDs, chatID),
		SuggestionID: suggestionID,
		RunOnce:      app.RunOnce,
	})
	if err := newSchedule.apply(f); err != nil {
		return err
	}
	session := editor.NewSession(f, app.RuleService, app.ConnectorService, cli.Logger())

	if interactive {
		outcome, err := ruleform.Run(ctx, session)
		if err != nil {
			return err
		}
		return printOutcome(out, outcome)
	}

	if runOnce {
		res, err := session.RunOnce(ctx)
		if errors.Is(err, form.ErrRunOnceUnavailable) {
			return fmt.Errorf("%w (enable it with AIRA_RUN_ONCE=true)", err)
		}
		if err != nil {
			return err
		}
		return renderRunOnce(out, res)
	}

	resp, err := session.Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	if err := renderMutation(out, resp, "created"); err != nil {
		return err
	}
	if cli.OutputFormat() == cli.FormatTable {
		printConnectors(out, f)
		if f.ScheduleEnabled() {
			fmt.Fprintf(out, "  schedule: %s at %s\n", f.ScheduleInterval().Label(), f.ScheduleTime())
		}
	}
	return nil
}

func bindCreateFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&suggestion, "suggestion", "", "prefill the rule text")
	fs.StringVar(&chatIDs, "chat-ids", "", "comma separated groups or chats to target")
	fs.StringVar(&chatID, "chat-id", "", "single group or chat to target (ignored with --chat-ids)")
	fs.StringVar(&suggestionID, "suggestion-id", "", "id of the suggestion the rule came from")
	fs.BoolVar(&newSchedule.on, "schedule", false, "run on a schedule instead of in real time")
	fs.StringVar(&newSchedule.time, "time", "", "local time of day for scheduled runs (HH:MM, default "+form.DefaultScheduleTime+")")
	fs.StringVar(&newSchedule.interval, "interval", "", "how often scheduled runs repeat (daily, weekly, biweekly, monthly)")
	fs.BoolVarP(&interactive, "interactive", "i", false, "open the interactive form")
}

func init() {
	bindCreateFlags(newCmd)
	bindCreateFlags(runOnceCmd)
	newCmd.Flags().BoolVar(&dryRun, "run-once", false, "run the rule once without saving it")
}
