package rule

import (
	"fmt"

	"github.com/felixgeelhaar/aira/adapter/cli"
	"github.com/felixgeelhaar/aira/internal/rules/application/commands"
	rules "github.com/felixgeelhaar/aira/internal/rules/domain"
	"github.com/spf13/cobra"
)

var enableCmd = &cobra.Command{
	Use:   "enable <rule-id>",
	Short: "Activate a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], rules.StatusActive)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <rule-id>",
	Short: "Deactivate a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], rules.StatusInactive)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <rule-id>",
	Short: "Flip a rule between active and inactive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		rule, err := resolveRule(ctx, app, args[0])
		if err != nil {
			return fmt.Errorf("failed to load rule: %w", err)
		}
		res, err := app.RuleService.ToggleRuleStatus(ctx, commands.ToggleRuleStatusCommand{Rule: rule})
		if err != nil {
			return fmt.Errorf("failed to toggle rule: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rule %s is now %s\n", res.RuleID, res.Status)
		return nil
	},
}

func setStatus(cmd *cobra.Command, ruleID string, status rules.Status) error {
	app, err := cli.RequireApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	rule, err := resolveRule(ctx, app, ruleID)
	if err != nil {
		return fmt.Errorf("failed to load rule: %w", err)
	}
	res, err := app.RuleService.SetRuleStatus(ctx, commands.SetRuleStatusCommand{RuleID: rule.RuleID, Status: status})
	if err != nil {
		return fmt.Errorf("failed to update rule status: %w", err)
	}
	if !res.Changed {
		fmt.Fprintf(cmd.OutOrStdout(), "Rule %s is already %s\n", res.RuleID, res.Status)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rule %s is now %s\n", res.RuleID, res.Status)
	return nil
}
