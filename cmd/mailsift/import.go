package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mailsift/mailsift/internal/cli"
	"github.com/mailsift/mailsift/internal/model"
)

const importBatchSize = 500

func importCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import messages from a JSON export",
		Long: `Import reads a JSON array of messages, as produced by a mailbox export,
and loads them into the local store. Re-importing the same file is safe:
existing messages are replaced, not duplicated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var msgs []model.Message
			if err := json.Unmarshal(data, &msgs); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}
			if len(msgs) == 0 {
				fmt.Println(cli.FormatInfo("No messages in file"))
				return nil
			}

			if accountID != "" {
				for i := range msgs {
					msgs[i].AccountID = accountID
				}
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			bar := progressbar.Default(int64(len(msgs)), "importing")
			for start := 0; start < len(msgs); start += importBatchSize {
				end := start + importBatchSize
				if end > len(msgs) {
					end = len(msgs)
				}
				if err := store.SaveMessages(ctx, msgs[start:end]); err != nil {
					return fmt.Errorf("failed to save messages: %w", err)
				}
				_ = bar.Add(end - start)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d messages", len(msgs))))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "assign all messages to this account")

	return cmd
}
