package connector

import (
	"github.com/spf13/cobra"
)

// Cmd is the connector command group
var Cmd = &cobra.Command{
	Use:     "connector",
	Aliases: []string{"connectors", "conn"},
	Short:   "Manage connected apps",
	Long: `List connectors, see their rules and connect new ones.

Connectors are the apps rules act on: WhatsApp, Email, Google Calendar and
Google Drive. Connector ids accept their short aliases (email, calendar,
drive).`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(rulesCmd)
	Cmd.AddCommand(connectCmd)
}
