package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List ingestion history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		origin, _ := cmd.Flags().GetString("origin")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{Origin: origin, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			_, _ = os.Stderr.WriteString("No runs found.\n")
			return nil
		}

		if stats, _ := cmd.Flags().GetBool("stats"); stats {
			formatRunStats(os.Stdout, computeRunStats(runs))
			return nil
		}
		formatRuns(os.Stdout, runs)
		return nil
	},
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total    int
	Failed   int
	Rows     int
	Added    int
	Staged   int
	Skipped  int
	ByOrigin map[string]int
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.IngestRun) runStats {
	s := runStats{Total: len(runs), ByOrigin: make(map[string]int)}
	for _, r := range runs {
		s.ByOrigin[r.Origin]++
		if r.Outcome == model.IngestFailed {
			s.Failed++
			continue
		}
		s.Rows += r.Rows
		s.Added += r.Added
		s.Staged += r.Staged
		s.Skipped += r.Skipped
	}
	return s
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Rows read:\t%d\n", s.Rows)
	_, _ = fmt.Fprintf(w, "Postings added:\t%d\n", s.Added)
	_, _ = fmt.Fprintf(w, "Updates staged:\t%d\n", s.Staged)
	_, _ = fmt.Fprintf(w, "Rows skipped:\t%d\n", s.Skipped)
	origins := make([]string, 0, len(s.ByOrigin))
	for o := range s.ByOrigin {
		origins = append(origins, o)
	}
	sort.Strings(origins)
	for _, o := range origins {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", o, s.ByOrigin[o])
	}
	_ = w.Flush()
}

func init() {
	runsCmd.Flags().String("origin", "", "filter by source origin")
	runsCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsCmd.Flags().Bool("stats", false, "show aggregate statistics instead of the list")
	rootCmd.AddCommand(runsCmd)
}
