package group

import (
	"github.com/spf13/cobra"
)

// Cmd is the group command group
var Cmd = &cobra.Command{
	Use:     "group",
	Aliases: []string{"groups", "chat", "chats"},
	Short:   "Browse WhatsApp groups and chats",
	Long:    `List the WhatsApp groups and chats rules can target, with their rule counts.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
}
