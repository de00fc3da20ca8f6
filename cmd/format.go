package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/internal/tracker"
)

// formatPostings writes a tabular list of postings to w.
func formatPostings(out io.Writer, postings []model.Posting) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tSTATUS\tINSTITUTION\tTITLE\tDEADLINE\tUPDATED")
	_, _ = fmt.Fprintln(w, "---\t------\t-----------\t-----\t--------\t-------")
	for _, p := range postings {
		updated := ""
		if p.Updated {
			updated = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Key(), p.Status, truncate(p.Institution, 30), truncate(p.Title, 40), p.Deadline, updated)
	}
	_ = w.Flush()
}

// formatApplications writes the applications view to w.
func formatApplications(out io.Writer, postings []model.Posting) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tINSTITUTION\tTITLE\tAPPLICATION\tLETTERS")
	_, _ = fmt.Fprintln(w, "---\t-----------\t-----\t-----------\t-------")
	for _, p := range postings {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.Key(), truncate(p.Institution, 30), truncate(p.Title, 40), p.ApplicationStatus, p.LettersStatus)
	}
	_ = w.Flush()
}

// formatDeadlines writes deadline groups to w.
func formatDeadlines(out io.Writer, groups []tracker.DeadlineGroup) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DEADLINE\tPOSTINGS\tTIME LEFT")
	_, _ = fmt.Fprintln(w, "--------\t--------\t---------")
	for _, g := range groups {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", g.Deadline, g.Count, g.TimeLeft)
	}
	_ = w.Flush()
}

// formatRuns writes ingestion runs to w.
func formatRuns(out io.Writer, runs []model.IngestRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tORIGIN\tOUTCOME\tROWS\tADDED\tSTAGED\tSTARTED\tMESSAGE")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t----\t-----\t------\t-------\t-------")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID), r.Origin, r.Outcome, r.Rows, r.Added, r.Staged,
			r.StartedAt.Format("2006-01-02 15:04"), truncate(r.Message, 50))
	}
	_ = w.Flush()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
