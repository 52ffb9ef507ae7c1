package rule

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/aira/adapter/cli"
	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	"github.com/felixgeelhaar/aira/internal/rules/application/queries"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/spf13/cobra"
)

var (
	listConnector string
	listChat      string
	listSearch    string
)

// listing is the machine-readable list output.
type listing struct {
	Title  string       `json:"title" yaml:"title"`
	Total  int          `json:"total" yaml:"total"`
	Active int          `json:"active" yaml:"active"`
	Rules  []rules.Rule `json:"rules" yaml:"rules"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List rules",
	Long: `List the rules of a connector or of one group or chat.

Examples:
  aira rule list                                     # WhatsApp rules
  aira rule list --connector email                   # Rules of another connector
  aira rule list --chat 120363000000000001@g.us      # Rules of one chat
  aira rule list --search digest -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var out listing
		if listChat != "" {
			res, err := app.RuleService.ListGroupRules(ctx, queries.ListGroupRulesQuery{WID: listChat, Search: listSearch})
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}
			out = listing{Title: res.Group.DisplayName(), Total: res.Total, Active: res.Active(), Rules: res.Rules}
		} else {
			res, err := app.RuleService.ListConnectorRules(ctx, queries.ListConnectorRulesQuery{ConnectorID: listConnector, Search: listSearch})
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}
			out = listing{Title: res.Connector.Name, Total: res.Total, Active: res.Active(), Rules: res.Rules}
		}

		return cli.Render(cmd.OutOrStdout(), out, func(w io.Writer) error {
			return printRules(w, app, out)
		})
	},
}

func printRules(w io.Writer, app *cli.App, l listing) error {
	fmt.Fprintf(w, "%s (%d active of %d)\n", cli.Header(l.Title+" rules"), l.Active, len(l.Rules))
	if len(l.Rules) == 0 {
		if listSearch != "" && l.Total > 0 {
			fmt.Fprintf(w, "No rules match %q.\n", listSearch)
		} else {
			fmt.Fprintln(w, "No rules found.")
		}
		return nil
	}
	app.RuleTable(w, l.Rules)
	return nil
}

func init() {
	listCmd.Flags().StringVarP(&listConnector, "connector", "c", string(connectors.WhatsApp), "connector whose rules to list")
	listCmd.Flags().StringVar(&listChat, "chat", "", "list the rules of one group or chat instead")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "only rules whose text contains this")
}
