package connector

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/aira/adapter/cli"
	connectorApp "github.com/felixgeelhaar/aira/internal/connectors/application"
	"github.com/spf13/cobra"
)

var connectCmd = &cobra.Command{
	Use:   "connect <connector>",
	Short: "Connect an app",
	Long: `Start connecting an app. Aira prints the link to finish the connection
in your browser. WhatsApp is linked from the mobile app instead.

Examples:
  aira connector connect drive
  aira connector connect google_calendar`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		res, err := app.ConnectorService.Connect(cmd.Context(), connectorApp.ConnectCommand{ConnectorID: args[0]})
		var setup *connectorApp.SetupRequiredError
		if errors.As(err, &setup) {
			fmt.Fprintln(out, setup.Connector.SetupHint)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}

		if res.RedirectURL == "" {
			fmt.Fprintf(out, "%s connection started.\n", res.Connector.Name)
			return nil
		}
		fmt.Fprintf(out, "Open this link to connect %s:\n  %s\n", res.Connector.Name, res.RedirectURL)
		return nil
	},
}
