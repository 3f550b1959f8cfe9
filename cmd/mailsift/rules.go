package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mailsift/mailsift/internal/cli"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/provider"
	"github.com/mailsift/mailsift/internal/rules"
	"github.com/mailsift/mailsift/internal/storage"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage automation rules",
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesToggleCmd("enable", true))
	cmd.AddCommand(rulesToggleCmd("disable", false))
	cmd.AddCommand(rulesTestCmd())
	cmd.AddCommand(rulesSuggestCmd())
	cmd.AddCommand(rulesExportCmd())

	return cmd
}

// newRuleEngine opens the store and builds a rule engine over it with the
// configured category set. The caller owns closing the returned store.
func newRuleEngine() (*rules.Engine, *storage.Store, func(), error) {
	defs, err := categoryDefinitions()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := openStore()
	if err != nil {
		return nil, nil, nil, err
	}
	engine := rules.NewWithConfig(store, provider.NewLogGateway(), rules.Config{
		Categories: defs,
	})
	return engine, store, func() { _ = store.Close() }, nil
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			all, err := store.GetRules(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Println(cli.FormatInfo("No rules defined"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Automation rules"))
			for _, rule := range all {
				state := cli.SuccessStyle.Render("enabled")
				if !rule.Enabled {
					state = cli.SubtleStyle.Render("disabled")
				}
				fmt.Printf("%4d  %s  [%s, priority %d, %d hits]\n",
					rule.ID, cli.BoldStyle.Render(rule.Name), state, rule.Priority, rule.HitCount)
				for _, cond := range rule.Conditions {
					fmt.Printf("        when %s %s %q\n", cond.Field, cond.Operator, cond.Value)
				}
				for _, action := range rule.Actions {
					if action.Value != "" {
						fmt.Printf("        then %s %q\n", action.Type, action.Value)
					} else {
						fmt.Printf("        then %s\n", action.Type)
					}
				}
			}
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	var (
		name       string
		priority   int
		conditions []string
		actions    []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a rule",
		Example: `  mailsift rules add --name "File bank mail" \
    --when "from:contains:@bank.com" \
    --then "categorize:financial" --then "markRead"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rule := model.Rule{Name: name, Priority: priority, Enabled: true}

			for _, raw := range conditions {
				cond, err := parseConditionFlag(raw)
				if err != nil {
					return err
				}
				rule.Conditions = append(rule.Conditions, cond)
			}
			for _, raw := range actions {
				action, err := parseActionFlag(raw)
				if err != nil {
					return err
				}
				rule.Actions = append(rule.Actions, action)
			}

			engine, _, closeStore, err := newRuleEngine()
			if err != nil {
				return err
			}
			defer closeStore()

			if err := engine.CreateRule(cmd.Context(), &rule); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created rule %d: %s", rule.ID, rule.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "rule name (required)")
	cmd.Flags().IntVar(&priority, "priority", 0, "evaluation priority (higher runs first)")
	cmd.Flags().StringArrayVar(&conditions, "when", nil, "condition as field:operator:value (repeatable)")
	cmd.Flags().StringArrayVar(&actions, "then", nil, "action as type or type:value (repeatable)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			engine, _, closeStore, err := newRuleEngine()
			if err != nil {
				return err
			}
			defer closeStore()

			if err := engine.DeleteRule(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}
}

func rulesToggleCmd(use string, enabled bool) *cobra.Command {
	short := "Enable a rule"
	if !enabled {
		short = "Disable a rule"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			engine, store, closeStore, err := newRuleEngine()
			if err != nil {
				return err
			}
			defer closeStore()

			rule, err := store.GetRule(cmd.Context(), id)
			if err != nil {
				return err
			}
			if rule == nil {
				return fmt.Errorf("rule %d not found", id)
			}

			rule.Enabled = enabled
			if err := engine.UpdateRule(cmd.Context(), rule); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %d %sd", id, use)))
			return nil
		},
	}
}

func rulesTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <id>",
		Short: "Dry-run a rule against recent messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			engine, _, closeStore, err := newRuleEngine()
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := engine.TestRule(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%d matching messages", result.Total)))
			for _, msg := range result.Matches {
				fmt.Printf("  %s  %s  %s\n",
					msg.Date.Format("2006-01-02"),
					cli.BoldStyle.Render(msg.FromAddress),
					msg.Subject)
			}
			return nil
		},
	}
}

func rulesSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Suggest rules mined from your mail history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, closeStore, err := newRuleEngine()
			if err != nil {
				return err
			}
			defer closeStore()

			suggestions, err := engine.GetSuggestions(cmd.Context())
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Println(cli.FormatInfo("No rule suggestions yet; classify more mail first"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Suggested rules"))
			for _, s := range suggestions {
				fmt.Printf("%s %s\n",
					cli.BoldStyle.Render(fmt.Sprintf("(%.0f%%)", s.Confidence*100)),
					s.Rule.Name)
				fmt.Printf("      %s\n", cli.SubtleStyle.Render(s.Reason))
			}
			return nil
		},
	}
}

func rulesExportCmd() *cobra.Command {
	var (
		target string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export rules to a provider filter format",
		Long: `Export translates your enabled rules into a provider automation format.
The conversion is lossy: only from/to/subject criteria and
archive/markRead/delete/label actions carry over.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, closeStore, err := newRuleEngine()
			if err != nil {
				return err
			}
			defer closeStore()

			out, err := engine.ExportRules(cmd.Context(), rules.ExportTarget(target))
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				fmt.Println(string(out))
				return nil
			}
			if err := os.WriteFile(output, out, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Println(cli.FormatSuccess("Exported rules to " + output))
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "gmail", "export format (gmail, sieve)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
