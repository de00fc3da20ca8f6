package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/model"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Track submitted applications",
	Long:  "Lists open applications, or resolved ones with --resolved. Subcommands move an application through interview, flyout and offer.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		resolved, _ := cmd.Flags().GetBool("resolved")
		postings, err := env.Tracker.Applications(ctx, resolved)
		if err != nil {
			return informational(os.Stdout, err)
		}
		formatApplications(os.Stdout, postings)
		return nil
	},
}

func appActionCmd(action model.ApplicationAction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <origin> <id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := initEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			p, err := env.Tracker.ApplyAction(ctx, keyArgs(args), action)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", p.Key(), p.ApplicationStatus)
			return nil
		},
	}
}

func init() {
	appsCmd.Flags().Bool("resolved", false, "show resolved applications")

	appsCmd.AddCommand(appActionCmd(model.ActionProgress, "Advance an application (interview, flyout, offer, accepted)"))
	appsCmd.AddCommand(appActionCmd(model.ActionInterrupt, "Record a negative outcome at the current stage"))
	appsCmd.AddCommand(appActionCmd(model.ActionRegress, "Undo the last positive step"))
	rootCmd.AddCommand(appsCmd)
}
