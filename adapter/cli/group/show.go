package group

import (
	"errors"
	"fmt"
	"io"

	"github.com/felixgeelhaar/aira/adapter/cli"
	groups "github.com/felixgeelhaar/aira/internal/groups/domain"
	"github.com/felixgeelhaar/aira/internal/rules/application/queries"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/spf13/cobra"
)

var ruleSearch string

type groupPage struct {
	Group groups.Group `json:"group" yaml:"group"`
	Total int          `json:"total" yaml:"total"`
	Rules []rules.Rule `json:"rules" yaml:"rules"`
}

var showCmd = &cobra.Command{
	Use:   "show <w_id>",
	Short: "Show a group or chat and its rules",
	Long: `Show one group or chat with the rules that target it.

Examples:
  aira group show 120363000000000001@g.us
  aira group show 120363000000000001@g.us --search digest`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		res, err := app.RuleService.ListGroupRules(cmd.Context(), queries.ListGroupRulesQuery{WID: args[0], Search: ruleSearch})
		if errors.Is(err, groups.ErrGroupNotFound) {
			fmt.Fprintln(cmd.OutOrStdout(), "Group not found")
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to load group: %w", err)
		}

		page := groupPage{Group: res.Group, Total: res.Total, Rules: res.Rules}
		return cli.Render(cmd.OutOrStdout(), page, func(w io.Writer) error {
			fmt.Fprintln(w, cli.Header(res.Group.DisplayName()))
			fmt.Fprintf(w, "  ID:    %s\n", res.Group.WID)
			fmt.Fprintf(w, "  Rules: %d active, %d inactive\n\n", res.Group.NumActiveRules, res.Group.NumInactiveRules)
			if len(res.Rules) == 0 {
				if ruleSearch != "" && res.Total > 0 {
					fmt.Fprintf(w, "No rules match %q.\n", ruleSearch)
				} else {
					fmt.Fprintf(w, "No rules yet. Create one with: aira rule new --chat-id %s\n", res.Group.WID)
				}
				return nil
			}
			app.RuleTable(w, res.Rules)
			return nil
		})
	},
}

func init() {
	showCmd.Flags().StringVarP(&ruleSearch, "search", "s", "", "only rules whose text contains this")
}
