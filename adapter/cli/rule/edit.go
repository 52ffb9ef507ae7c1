package rule

import (
	"fmt"

	"github.com/felixgeelhaar/aira/adapter/cli"
	"github.com/felixgeelhaar/aira/adapter/tui/ruleform"
	"github.com/felixgeelhaar/aira/internal/rules/application/editor"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
	"github.com/spf13/cobra"
)

var (
	editText        string
	editChatIDs     string
	editSchedule    scheduleOptions
	editInteractive bool
)

var editCmd = &cobra.Command{
	Use:   "edit <rule-id>",
	Short: "Edit a rule",
	Long: `Change the text, targets or schedule of a rule. Flags that are not
given keep their current value; the rule keeps its status.

Examples:
  aira rule edit 3f2a --text "Summarise the chat every morning"
  aira rule edit 3f2a --chat-ids a@g.us,b@g.us
  aira rule edit 3f2a --time 07:30 --interval daily
  aira rule edit 3f2a --no-schedule
  aira rule edit 3f2a -i`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		rule, err := resolveRule(ctx, app, args[0])
		if err != nil {
			return fmt.Errorf("failed to load rule: %w", err)
		}
		deps, err := app.FormDeps(ctx)
		if err != nil {
			return fmt.Errorf("failed to load rule form: %w", err)
		}

		f := form.NewEditForm(deps, rule)
		if cmd.Flags().Changed("text") {
			f.SetRawText(editText)
		}
		if cmd.Flags().Changed("chat-ids") {
			f.SetSelectedGroups(form.ParseChatIDs(editChatIDs, ""))
		}
		if err := editSchedule.apply(f); err != nil {
			return err
		}
		session := editor.NewSession(f, app.RuleService, app.ConnectorService, cli.Logger())

		if editInteractive {
			outcome, err := ruleform.Run(ctx, session)
			if err != nil {
				return err
			}
			return printOutcome(out, outcome)
		}

		resp, err := session.Save(ctx)
		if err != nil {
			return fmt.Errorf("failed to update rule: %w", err)
		}
		return renderMutation(out, resp, "updated")
	},
}

func init() {
	editCmd.Flags().StringVar(&editText, "text", "", "new rule text")
	editCmd.Flags().StringVar(&editChatIDs, "chat-ids", "", "comma separated groups or chats, replacing the current targets")
	editCmd.Flags().BoolVar(&editSchedule.on, "schedule", false, "run on a schedule")
	editCmd.Flags().BoolVar(&editSchedule.off, "no-schedule", false, "run in real time")
	editCmd.Flags().StringVar(&editSchedule.time, "time", "", "local time of day for scheduled runs (HH:MM)")
	editCmd.Flags().StringVar(&editSchedule.interval, "interval", "", "how often scheduled runs repeat (daily, weekly, biweekly, monthly)")
	editCmd.Flags().BoolVarP(&editInteractive, "interactive", "i", false, "open the interactive form")
	editCmd.MarkFlagsMutuallyExclusive("schedule", "no-schedule")
}
