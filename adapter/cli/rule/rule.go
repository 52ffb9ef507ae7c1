package rule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/aira/adapter/cli"
	"github.com/felixgeelhaar/aira/adapter/tui/ruleform"
	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
	"github.com/felixgeelhaar/aira/internal/rules/application/queries"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/spf13/cobra"
)

// Cmd is the rule command group
var Cmd = &cobra.Command{
	Use:     "rule",
	Aliases: []string{"rules"},
	Short:   "Manage automation rules",
	Long: `Create, edit, list and delete automation rules.

A rule is a plain-language instruction. Aira suggests the connectors it
needs from its wording; rules that use WhatsApp must target at least one
group or chat. Rules run in real time unless they carry a schedule.`,
}

func init() {
	Cmd.AddCommand(newCmd)
	Cmd.AddCommand(editCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(enableCmd)
	Cmd.AddCommand(disableCmd)
	Cmd.AddCommand(toggleCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(runOnceCmd)
}

// scheduleOptions are the schedule flags of new and edit.
type scheduleOptions struct {
	on       bool
	off      bool
	time     string
	interval string
}

// apply copies the flags into the form. Giving a time or interval implies
// --schedule; an enabled schedule without an interval repeats daily.
func (o scheduleOptions) apply(f *form.Form) error {
	if o.off {
		f.SetScheduleEnabled(false)
		return nil
	}
	if !o.on && o.time == "" && o.interval == "" {
		return nil
	}
	f.SetScheduleEnabled(true)
	if o.time != "" {
		if err := f.SetScheduleTime(o.time); err != nil {
			return fmt.Errorf("invalid --time, use HH:MM: %w", err)
		}
	}
	if o.interval != "" {
		i, err := rules.ParseInterval(o.interval)
		if err != nil {
			return fmt.Errorf("invalid --interval (daily, weekly, biweekly, monthly): %w", err)
		}
		return f.SetScheduleInterval(i)
	}
	if f.ScheduleInterval() == rules.IntervalNone {
		return f.SetScheduleInterval(rules.DefaultInterval)
	}
	return nil
}

// resolveRule finds a rule by full id or by a unique id prefix, such as the
// short ids printed by list.
func resolveRule(ctx context.Context, app *cli.App, id string) (rules.Rule, error) {
	rule, err := app.RuleService.GetRule(ctx, queries.GetRuleQuery{RuleID: id})
	if err == nil || !errors.Is(err, rules.ErrRuleNotFound) || id == "" {
		return rule, err
	}
	res, listErr := app.RuleService.ListConnectorRules(ctx, queries.ListConnectorRulesQuery{ConnectorID: string(connectors.WhatsApp)})
	if listErr != nil {
		return rules.Rule{}, err
	}
	var matches []rules.Rule
	for _, r := range res.Rules {
		if strings.HasPrefix(r.RuleID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return rules.Rule{}, err
	default:
		return rules.Rule{}, fmt.Errorf("rule id %q is ambiguous: %d rules match", id, len(matches))
	}
}

func connectorName(f *form.Form, id connectors.ID) string {
	for _, c := range f.Connectors() {
		if c.ID == id {
			return c.Name
		}
	}
	return string(id)
}

// printConnectors lists what the rule text suggests.
func printConnectors(w io.Writer, f *form.Form) {
	for _, c := range f.SelectedConnectors() {
		fmt.Fprintf(w, "  connector: %s\n", c.Name)
	}
	for _, id := range f.UnconnectedSuggestions() {
		fmt.Fprintf(w, "  connector: %s (not connected, run 'aira connector connect %s')\n", connectorName(f, id), id)
	}
}

func renderMutation(w io.Writer, resp rules.MutationResponse, verb string) error {
	return cli.Render(w, resp, func(w io.Writer) error {
		fmt.Fprintf(w, "Rule %s: %s\n", verb, resp.RuleID)
		if resp.Success != "" {
			fmt.Fprintf(w, "  %s\n", resp.Success)
		}
		return nil
	})
}

func renderRunOnce(w io.Writer, res rules.RunOnceResult) error {
	return cli.Render(w, res, func(w io.Writer) error {
		v := form.DescribeRunOnce(res)
		fmt.Fprintln(w, cli.Header(v.Title))
		for _, line := range v.Lines() {
			fmt.Fprintf(w, "  %s\n", line)
		}
		return nil
	})
}

func printOutcome(w io.Writer, outcome ruleform.Outcome) error {
	switch {
	case outcome.Saved:
		return renderMutation(w, outcome.Response, "saved")
	case outcome.Deleted:
		fmt.Fprintln(w, "Rule deleted.")
	default:
		fmt.Fprintln(w, "Cancelled.")
	}
	return nil
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}
