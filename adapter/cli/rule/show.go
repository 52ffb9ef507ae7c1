package rule

import (
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/aira/adapter/cli"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/spf13/cobra"
)

// upcomingRuns is how many scheduled runs show previews.
const upcomingRuns = 3

type ruleDetails struct {
	rules.Rule `yaml:",inline"`
	NextRuns   []time.Time `json:"next_runs,omitempty" yaml:"next_runs,omitempty"`
}

var showCmd = &cobra.Command{
	Use:   "show <rule-id>",
	Short: "Show a rule",
	Long: `Show a rule with its targets, schedule and next runs.

Examples:
  aira rule show 3f2a9c1e-0d5b-4c7e-9a51-2b7f0c6d8e14`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		rule, err := resolveRule(ctx, app, args[0])
		if err != nil {
			return fmt.Errorf("failed to load rule: %w", err)
		}

		details := ruleDetails{Rule: rule}
		if sched := rule.Schedule(); sched.IsScheduled() {
			runs, err := sched.Upcoming(app.Now(), upcomingRuns)
			if err == nil {
				details.NextRuns = runs
			}
		}

		// Group names are cosmetic; ids are shown when the listing fails.
		all, err := app.GroupService.AllGroups(ctx)
		if err != nil {
			cli.Logger().DebugContext(ctx, "group names unavailable", "error", err)
		}

		return cli.Render(cmd.OutOrStdout(), details, func(w io.Writer) error {
			status := "inactive"
			if rule.IsActive() {
				status = "active"
			}
			fmt.Fprintln(w, cli.Header(rule.Title()))
			fmt.Fprintf(w, "  ID:       %s\n", rule.RuleID)
			fmt.Fprintf(w, "  Status:   %s %s\n", cli.StatusBadge(rule.IsActive()), status)
			fmt.Fprintf(w, "  Text:     %s\n", rule.RawText)
			fmt.Fprintf(w, "  Targets:  %s\n", joinOr(targetNames(all, rule.WIDs), "none"))
			fmt.Fprintf(w, "  Schedule: %s\n", app.DescribeSchedule(rule))
			if rule.IsDefault {
				fmt.Fprintln(w, "  Default rule")
			}
			if len(details.NextRuns) > 0 {
				fmt.Fprintln(w, "  Next runs:")
				for _, run := range details.NextRuns {
					fmt.Fprintf(w, "    %s\n", run.In(app.Location).Format("Mon 2006-01-02 15:04 MST"))
				}
			}
			return nil
		})
	},
}

func targetNames(all []groups.Group, wids []string) []string {
	out := make([]string, 0, len(wids))
	for _, id := range wids {
		if g, err := groups.Find(all, id); err == nil {
			out = append(out, fmt.Sprintf("%s (%s)", g.DisplayName(), id))
			continue
		}
		out = append(out, id)
	}
	return out
}
