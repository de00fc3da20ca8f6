package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/tracker"
)

// Named views accepted by the postings and export commands. Any status
// name is also a view.
const (
	viewNew          = "new"
	viewInterested   = "interested"
	viewIgnored      = "ignored"
	viewApplications = "applications"
)

var postingsCmd = &cobra.Command{
	Use:   "postings [view]",
	Short: "List postings in a view",
	Long: "Views: new, interested (default), ignored, applications, or any status name. " +
		"The interested and ignored views hide expired postings unless --expired is set.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		view := viewInterested
		if len(args) == 1 {
			view = args[0]
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		postings, err := loadView(ctx, env.Tracker, view, filterFlags(cmd))
		if err != nil {
			return informational(os.Stdout, err)
		}
		if view == viewApplications {
			formatApplications(os.Stdout, postings)
			return nil
		}
		formatPostings(os.Stdout, postings)
		return nil
	},
}

// loadView returns the postings of a named view.
func loadView(ctx context.Context, svc *tracker.Service, view string, f viewFilter) ([]model.Posting, error) {
	switch view {
	case viewNew:
		return svc.NewPostings(ctx)
	case viewInterested:
		return svc.Interested(ctx, f.Filter)
	case viewIgnored:
		return svc.Ignored(ctx, f.Filter)
	case viewApplications:
		return svc.Applications(ctx, f.Resolved)
	}
	status, err := model.ParseStatus(view)
	if err != nil {
		return nil, err
	}
	return svc.ByStatus(ctx, status)
}

type viewFilter struct {
	tracker.Filter
	Resolved bool
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("maybe", false, "include maybe postings")
	cmd.Flags().Bool("applied", false, "include applied postings")
	cmd.Flags().Bool("expired", false, "include postings past their deadline")
	cmd.Flags().Bool("resolved", false, "applications: show resolved instead of open applications")
	cmd.Flags().String("sort", model.ColDeadline, "column to sort by")
}

func filterFlags(cmd *cobra.Command) viewFilter {
	var f viewFilter
	f.Maybe, _ = cmd.Flags().GetBool("maybe")
	f.Applied, _ = cmd.Flags().GetBool("applied")
	f.Expired, _ = cmd.Flags().GetBool("expired")
	f.Resolved, _ = cmd.Flags().GetBool("resolved")
	f.SortBy, _ = cmd.Flags().GetString("sort")
	return f
}

func init() {
	addFilterFlags(postingsCmd)
	rootCmd.AddCommand(postingsCmd)
}
