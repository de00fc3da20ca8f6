package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/model"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Triage new postings",
	Long: "Lists postings in status new. Pass --set origin/id=status (interested, maybe or ignore) " +
		"one or more times to record decisions; every decided posting is marked reviewed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sets, _ := cmd.Flags().GetStringArray("set")
		if len(sets) == 0 {
			postings, err := env.Tracker.NewPostings(ctx)
			if err != nil {
				return informational(os.Stdout, err)
			}
			formatPostings(os.Stdout, postings)
			return nil
		}

		decisions, err := parseDecisions(sets)
		if err != nil {
			return err
		}
		n, err := env.Tracker.Triage(ctx, decisions)
		if err != nil {
			return err
		}
		fmt.Printf("Reviewed %d postings.\n", n)
		return nil
	},
}

// parseDecisions reads "origin/id=status" pairs.
func parseDecisions(sets []string) (map[model.Key]model.Status, error) {
	pairs, err := parseAssignments(sets)
	if err != nil {
		return nil, err
	}
	out := make(map[model.Key]model.Status, len(pairs))
	for k, v := range pairs {
		key, err := parseKey(k)
		if err != nil {
			return nil, err
		}
		st, err := model.ParseStatus(v)
		if err != nil {
			return nil, err
		}
		out[key] = st
	}
	return out, nil
}

func init() {
	reviewCmd.Flags().StringArray("set", nil, "decision as origin/id=status (repeatable)")
	rootCmd.AddCommand(reviewCmd)
}
