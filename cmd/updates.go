package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/review"
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Review updates staged by ingestion",
	Long:  "Lists pending source updates to tracked postings. Use the accept and reject subcommands to apply or discard them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		items, err := env.Reviewer.List(ctx)
		if err != nil {
			return informational(os.Stdout, err)
		}
		formatUpdates(os.Stdout, items)
		return nil
	},
}

// -- updates accept --

var updatesAcceptCmd = &cobra.Command{
	Use:   "accept <origin> <id>",
	Short: "Accept pending updates for a posting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		key := keyArgs(args)
		field, _ := cmd.Flags().GetString("field")
		if field == "" {
			if _, err := env.Reviewer.AcceptAll(ctx, key); err != nil {
				return err
			}
			fmt.Printf("Accepted all updates for %s\n", key)
			return nil
		}

		remaining, err := env.Reviewer.AcceptField(ctx, key, field)
		if err != nil {
			return err
		}
		if remaining == nil {
			fmt.Printf("Accepted %s for %s; no updates remain\n", field, key)
			return nil
		}
		fmt.Printf("Accepted %s for %s; still pending: %s\n", field, key, strings.Join(remaining.Fields(), ", "))
		return nil
	},
}

// -- updates reject --

var updatesRejectCmd = &cobra.Command{
	Use:   "reject <origin> <id>",
	Short: "Discard pending updates for a posting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		key := keyArgs(args)
		if err := env.Reviewer.RejectAll(ctx, key); err != nil {
			return err
		}
		fmt.Printf("Rejected updates for %s\n", key)
		return nil
	},
}

// formatUpdates writes each pending change as current and proposed values.
func formatUpdates(out io.Writer, items []review.Item) {
	for _, it := range items {
		_, _ = fmt.Fprintf(out, "%s  %s, %s\n", it.Posting.Key(), it.Posting.Institution, it.Posting.Title)
		for _, f := range it.Fields {
			cur, _ := it.Posting.Get(f)
			_, _ = fmt.Fprintf(out, "  %-12s %q -> %q\n", f, cur, it.Change.NewValue(f))
		}
	}
}

func init() {
	updatesAcceptCmd.Flags().String("field", "", "accept only this field")

	updatesCmd.AddCommand(updatesAcceptCmd)
	updatesCmd.AddCommand(updatesRejectCmd)
	rootCmd.AddCommand(updatesCmd)
}
