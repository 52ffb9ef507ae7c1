package rule

import (
	"fmt"

	"github.com/felixgeelhaar/aira/adapter/cli"
	"github.com/felixgeelhaar/aira/internal/rules/application/editor"
	"github.com/felixgeelhaar/aira/internal/rules/application/form"
	"github.com/spf13/cobra"
)

var force bool

var deleteCmd = &cobra.Command{
	Use:     "delete <rule-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a rule",
	Long: `Delete a rule permanently. You are asked to confirm unless --force
is given.

Examples:
  aira rule delete 3f2a9c1e-0d5b-4c7e-9a51-2b7f0c6d8e14
  aira rule delete 3f2a9c1e-0d5b-4c7e-9a51-2b7f0c6d8e14 --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		rule, err := resolveRule(ctx, app, args[0])
		if err != nil {
			return fmt.Errorf("failed to load rule: %w", err)
		}

		// Deleting needs no connectors or groups.
		f := form.NewEditForm(form.Deps{Location: app.Location, Now: app.Now}, rule)
		session := editor.NewSession(f, app.RuleService, nil, cli.Logger())

		if err := f.RequestDelete(); err != nil {
			return err
		}
		if !force {
			fmt.Fprintf(out, "%s\n  %s\n", cli.Header(rule.Title()), rule.RuleID)
			ok, err := cli.Confirm(form.DeleteConfirmation)
			if err != nil {
				return err
			}
			if !ok {
				f.CancelDelete()
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}

		if err := session.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete rule: %w", err)
		}
		fmt.Fprintf(out, "Rule deleted: %s\n", rule.RuleID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&force, "force", "f", false, "delete without asking")
}
