package connector

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/aira/adapter/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List connectors and whether they are connected",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		conns, err := app.ConnectorService.ListConnectors(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list connectors: %w", err)
		}

		catalog := app.ConnectorService.Catalog()
		return cli.Render(cmd.OutOrStdout(), conns, func(w io.Writer) error {
			rows := [][]string{{"", "ID", "NAME", "DESCRIPTION"}}
			for _, c := range conns {
				desc := ""
				if def, err := catalog.Resolve(string(c.ID)); err == nil {
					desc = def.Description
				}
				rows = append(rows, []string{cli.StatusBadge(c.IsConnected), string(c.ID), c.Name, desc})
			}
			cli.Table(w, rows)
			return nil
		})
	},
}
