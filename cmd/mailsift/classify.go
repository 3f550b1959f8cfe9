package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mailsift/mailsift/internal/cli"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/provider"
	"github.com/mailsift/mailsift/internal/rules"
	"github.com/mailsift/mailsift/internal/service"
)

func classifyCmd() *cobra.Command {
	var (
		accountID string
		all       bool
		skipRules bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Categorize messages and run automation rules",
		Long: `Classify assigns a category, importance score, and keyword tags to each
message, persists the labels, then evaluates your enabled automation rules
against the newly labeled mail.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, accountID, all, skipRules)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "limit to one account")
	cmd.Flags().BoolVar(&all, "all", false, "re-classify already categorized messages")
	cmd.Flags().BoolVar(&skipRules, "skip-rules", false, "classify only, do not run rules")

	return cmd
}

func runClassify(cmd *cobra.Command, accountID string, all, skipRules bool) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	clf, err := newClassifier()
	if err != nil {
		return err
	}

	filter := service.MessageFilter{AccountID: accountID}
	if !all {
		filter.Category = model.CategoryUncategorized
	}
	msgs, err := store.GetMessages(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}
	if len(msgs) == 0 {
		fmt.Println(cli.FormatInfo("No messages to classify"))
		return nil
	}

	results, err := clf.ClassifyBatch(ctx, msgs)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	engine := rules.New(store, provider.NewLogGateway())

	bar := progressbar.Default(int64(len(msgs)), "classifying")
	var categorized, actions int
	for _, msg := range msgs {
		_ = bar.Add(1)

		result, ok := results[msg.ID]
		if !ok {
			continue
		}

		if err := store.UpdateCategory(ctx, msg.ID, result.Category); err != nil {
			slog.Error("Failed to persist category", "message_id", msg.ID, "error", err)
			continue
		}
		if err := store.UpdateImportance(ctx, msg.ID, result.Importance); err != nil {
			slog.Error("Failed to persist importance", "message_id", msg.ID, "error", err)
		}
		if result.Category != model.CategoryUncategorized {
			categorized++
		}

		if skipRules {
			continue
		}

		msg.Category = result.Category
		applied, err := engine.ApplyToMessage(ctx, msg)
		if err != nil {
			slog.Error("Rule evaluation failed", "message_id", msg.ID, "error", err)
			continue
		}
		succeeded, failed := rules.CountResults(applied)
		actions += succeeded
		if failed > 0 {
			slog.Warn("Some rule actions failed", "message_id", msg.ID, "failed", failed)
		}
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Classified %d messages (%d categorized, %d rule actions)",
		len(msgs), categorized, actions)))
	return nil
}
