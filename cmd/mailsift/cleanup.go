package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mailsift/mailsift/internal/cleanup"
	"github.com/mailsift/mailsift/internal/cli"
	"github.com/mailsift/mailsift/internal/provider"
	"github.com/mailsift/mailsift/internal/service"
	"github.com/mailsift/mailsift/internal/storage"
)

func cleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Find and remove low-value mail",
	}

	cmd.AddCommand(cleanupSuggestCmd())
	cmd.AddCommand(cleanupExecuteCmd())
	cmd.AddCommand(cleanupUnsubscribeCmd())
	cmd.AddCommand(cleanupSubscriptionsCmd())
	cmd.AddCommand(cleanupDuplicatesCmd())

	return cmd
}

// newCleanupEngine opens the store and builds a cleanup engine over it.
// The caller owns closing the returned store.
func newCleanupEngine() (*cleanup.Engine, *storage.Store, error) {
	store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return cleanup.New(store, provider.NewLogGateway()), store, nil
}

func cleanupSuggestCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Show ranked cleanup suggestions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, store, err := newCleanupEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			suggestions, err := engine.GetSuggestions(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Println(cli.FormatSuccess("Nothing to clean up"))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Cleanup suggestions", cli.BroomIcon)))
			for _, s := range suggestions {
				fmt.Printf("%s %s  %s\n",
					priorityBadge(string(s.Priority)),
					cli.BoldStyle.Render(s.Title),
					cli.SubtleStyle.Render(fmt.Sprintf("(%d messages)", len(s.EmailIDs))))
				fmt.Printf("     %s\n", s.Description)
				if s.EstimatedBytes > 0 {
					fmt.Printf("     %s\n", cli.SubtleStyle.Render(formatBytes(s.EstimatedBytes)+" reclaimable"))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "limit to one account")

	return cmd
}

func cleanupExecuteCmd() *cobra.Command {
	var (
		accountID  string
		actionType string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "execute <suggestion-type>",
		Short: "Apply an action to a suggestion's messages",
		Long: `Execute looks up the current suggestion of the given type (duplicate,
inactive_subscription, spam, large_attachment, old_transactional) and
applies the chosen action to its messages.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			engine, store, err := newCleanupEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			suggestions, err := engine.GetSuggestions(ctx, accountID)
			if err != nil {
				return err
			}

			var ids []string
			for _, s := range suggestions {
				if string(s.Type) == args[0] {
					ids = append(ids, s.EmailIDs...)
				}
			}
			if len(ids) == 0 {
				fmt.Println(cli.FormatInfo("No current suggestion of type " + args[0]))
				return nil
			}

			if !yes {
				fmt.Println(cli.FormatWarning(fmt.Sprintf(
					"This will %s %d messages. Re-run with --yes to confirm.", actionType, len(ids))))
				return nil
			}

			handler := cli.NewInterruptHandler(nil)
			ctx = handler.HandleInterrupts(ctx)

			report, err := engine.ExecuteAction(ctx, cleanup.Action{
				Type:     cleanup.ActionType(actionType),
				EmailIDs: ids,
			})
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("%s applied to %d messages", actionType, report.Affected)
			if report.Failed > 0 {
				msg += fmt.Sprintf(" (%d failed)", report.Failed)
			}
			fmt.Println(cli.FormatSuccess(msg))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "limit to one account")
	cmd.Flags().StringVar(&actionType, "action", "archive", "action to apply (archive, delete, mark_read, unsubscribe)")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip confirmation")

	return cmd
}

func cleanupUnsubscribeCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "unsubscribe",
		Short: "Bulk unsubscribe from dormant subscriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			engine, store, err := newCleanupEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			msgs, err := store.GetMessages(ctx, service.MessageFilter{AccountID: accountID})
			if err != nil {
				return err
			}

			inactive := engine.FindInactiveSubscriptions(msgs)
			if len(inactive) == 0 {
				fmt.Println(cli.FormatSuccess("No dormant subscriptions found"))
				return nil
			}

			ids := make([]string, 0, len(inactive))
			for _, msg := range inactive {
				ids = append(ids, msg.ID)
			}

			handler := cli.NewInterruptHandler(nil)
			ctx = handler.HandleInterrupts(ctx)

			result, err := engine.BulkUnsubscribe(ctx, ids)
			if result != nil {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf(
					"Unsubscribed from %d senders (%d skipped, no link)",
					result.Processed, result.Skipped)))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "limit to one account")

	return cmd
}

func cleanupSubscriptionsCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "Analyze newsletter and marketing senders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, store, err := newCleanupEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			subs, err := engine.SubscriptionAnalysis(cmd.Context(), accountID)
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Println(cli.FormatInfo("No subscriptions found"))
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%s Subscriptions", cli.ChartIcon)))
			fmt.Printf("%-32s %6s %10s %8s %s\n", "DOMAIN", "COUNT", "READ RATE", "ACTIVE", "LAST SEEN")
			for _, sub := range subs {
				active := cli.SubtleStyle.Render("no")
				if sub.Active {
					active = cli.SuccessStyle.Render("yes")
				}
				fmt.Printf("%-32s %6d %9.0f%% %8s %s\n",
					sub.Domain, sub.Count, sub.ReadRate, active,
					sub.LastDate.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "limit to one account")

	return cmd
}

func cleanupDuplicatesCmd() *cobra.Command {
	var (
		accountID string
		remove    bool
	)

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Find duplicate messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			engine, store, err := newCleanupEngine()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			msgs, err := store.GetMessages(ctx, service.MessageFilter{AccountID: accountID})
			if err != nil {
				return err
			}

			groups := engine.FindDuplicates(msgs)
			if len(groups) == 0 {
				fmt.Println(cli.FormatSuccess("No duplicates found"))
				return nil
			}

			var removable []string
			for _, group := range groups {
				canonical := group.Messages[0]
				fmt.Printf("%s %s\n",
					cli.BoldStyle.Render(canonical.Subject),
					cli.SubtleStyle.Render(fmt.Sprintf("(%d copies from %s)", len(group.Messages), canonical.FromAddress)))
				for _, dup := range group.Messages[1:] {
					removable = append(removable, dup.ID)
				}
			}
			fmt.Printf("\n%d removable copies across %d groups\n", len(removable), len(groups))

			if !remove {
				return nil
			}

			handler := cli.NewInterruptHandler(nil)
			ctx = handler.HandleInterrupts(ctx)

			bar := progressbar.Default(int64(len(removable)), "deleting")
			report, err := engine.ExecuteAction(ctx, cleanup.Action{
				Type:     cleanup.ActionDelete,
				EmailIDs: removable,
			})
			_ = bar.Finish()
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %d duplicate messages", report.Affected)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "limit to one account")
	cmd.Flags().BoolVar(&remove, "remove", false, "delete non-canonical copies")

	return cmd
}

func priorityBadge(priority string) string {
	switch priority {
	case "high":
		return cli.ErrorStyle.Render("[high]  ")
	case "medium":
		return cli.WarningStyle.Render("[medium]")
	default:
		return cli.SubtleStyle.Render("[low]   ")
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
