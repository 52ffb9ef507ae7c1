package connector

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/aira/adapter/cli"
	connectors "github.com/felixgeelhaar/aira/internal/connectors/domain"
	"github.com/felixgeelhaar/aira/internal/rules/application/queries"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/spf13/cobra"
)

var search string

type connectorPage struct {
	Connector connectors.Connector `json:"connector" yaml:"connector"`
	Total     int                  `json:"total" yaml:"total"`
	Active    int                  `json:"active" yaml:"active"`
	Rules     []rules.Rule         `json:"rules" yaml:"rules"`
}

var rulesCmd = &cobra.Command{
	Use:   "rules <connector>",
	Short: "Show a connector and its rules",
	Long: `Show a connector's connection status and the rules that use it.

Examples:
  aira connector rules whatsapp
  aira connector rules whatsapp --search digest
  aira connector rules calendar`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		res, err := app.RuleService.ListConnectorRules(ctx, queries.ListConnectorRulesQuery{ConnectorID: args[0], Search: search})
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}
		conn, err := app.ConnectorService.GetConnector(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to load connector: %w", err)
		}

		page := connectorPage{Connector: conn, Total: res.Total, Active: res.Active(), Rules: res.Rules}
		return cli.Render(cmd.OutOrStdout(), page, func(w io.Writer) error {
			status := "not connected"
			if conn.IsConnected {
				status = "connected"
			}
			fmt.Fprintf(w, "%s %s (%s)\n", cli.StatusBadge(conn.IsConnected), cli.Header(conn.Name), status)
			if res.Connector.Description != "" {
				fmt.Fprintf(w, "  %s\n", res.Connector.Description)
			}
			fmt.Fprintf(w, "  %d active of %d rules\n\n", page.Active, len(res.Rules))
			if len(res.Rules) == 0 {
				if search != "" && res.Total > 0 {
					fmt.Fprintf(w, "No rules match %q.\n", search)
				} else {
					fmt.Fprintln(w, "No rules found.")
				}
				return nil
			}
			app.RuleTable(w, res.Rules)
			return nil
		})
	},
}

func init() {
	rulesCmd.Flags().StringVarP(&search, "search", "s", "", "only rules whose text contains this")
}
