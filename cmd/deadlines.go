package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/tracker"
)

var deadlinesCmd = &cobra.Command{
	Use:   "deadlines",
	Short: "Show interested postings grouped by deadline",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var f tracker.Filter
		f.Maybe, _ = cmd.Flags().GetBool("maybe")
		f.Applied, _ = cmd.Flags().GetBool("applied")
		f.Expired, _ = cmd.Flags().GetBool("expired")

		groups, err := env.Tracker.Deadlines(ctx, f)
		if err != nil {
			return informational(os.Stdout, err)
		}

		if show, _ := cmd.Flags().GetBool("postings"); show {
			for _, g := range groups {
				fmt.Printf("\n%s (%s)\n", g.Deadline, g.TimeLeft)
				formatPostings(os.Stdout, g.Postings)
			}
			return nil
		}
		formatDeadlines(os.Stdout, groups)
		return nil
	},
}

func init() {
	deadlinesCmd.Flags().Bool("maybe", false, "include maybe postings")
	deadlinesCmd.Flags().Bool("applied", false, "include applied postings")
	deadlinesCmd.Flags().Bool("expired", false, "include past deadlines")
	deadlinesCmd.Flags().Bool("postings", false, "list the postings under each deadline")
	rootCmd.AddCommand(deadlinesCmd)
}
