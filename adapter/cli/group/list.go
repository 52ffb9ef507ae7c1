package group

import (
	"fmt"
	"io"
	"strconv"

	"github.com/felixgeelhaar/aira/adapter/cli"
	"github.com/felixgeelhaar/aira/internal/groups/application/queries"
	"github.com/spf13/cobra"
)

var search string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List groups and chats",
	Long: `List groups and direct chats with their active and inactive rule
counts.

Examples:
  aira group list
  aira group list --search family`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		res, err := app.GroupService.ListGroups(cmd.Context(), queries.ListGroupsQuery{Search: search})
		if err != nil {
			return fmt.Errorf("failed to list groups: %w", err)
		}

		return cli.Render(cmd.OutOrStdout(), res.Groups, func(w io.Writer) error {
			fmt.Fprintf(w, "%s (%d, %d active rules)\n", cli.Header("Groups and chats"), len(res.Groups), res.ActiveRules())
			if len(res.Groups) == 0 {
				if search != "" && res.Total > 0 {
					fmt.Fprintf(w, "No groups match %q.\n", search)
				} else {
					fmt.Fprintln(w, "No groups found.")
				}
				return nil
			}
			rows := [][]string{{"NAME", "ID", "ACTIVE", "INACTIVE"}}
			for _, g := range res.Groups {
				rows = append(rows, []string{
					g.DisplayName(),
					g.WID,
					strconv.Itoa(g.NumActiveRules),
					strconv.Itoa(g.NumInactiveRules),
				})
			}
			cli.Table(w, rows)
			return nil
		})
	},
}

func init() {
	listCmd.Flags().StringVarP(&search, "search", "s", "", "only groups whose name contains this")
}
