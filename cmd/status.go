package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status <origin> <id> <status>",
	Short: "Move a posting to another status",
	Long:  "Statuses: new, interested, maybe, ignore, applied, deleted. Moving to applied starts tracking the application.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status, err := model.ParseStatus(args[2])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Tracker.SetStatus(ctx, keyArgs(args), status)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", p.Key(), p.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
