package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/jmtracker/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Full-text search over postings",
	Long:  "Searches titles, institutions, departments, keywords and full posting text. The index is built on first use; pass --reindex after ingesting.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reindex, _ := cmd.Flags().GetBool("reindex")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		query := strings.Join(args, " ")
		if query == "" && !reindex {
			return fmt.Errorf("nothing to search for")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		idx, err := search.Open(cfg.IndexPath())
		if err != nil {
			return err
		}
		n, err := idx.Count()
		if err != nil {
			idx.Close() //nolint:errcheck
			return err
		}
		if reindex || n == 0 {
			idx.Close() //nolint:errcheck
			postings, err := env.Store.LoadPostings(ctx)
			if err != nil {
				return err
			}
			if idx, err = search.Rebuild(cfg.IndexPath(), postings); err != nil {
				return err
			}
			zap.L().Info("rebuilt search index", zap.Int("postings", len(postings)))
		}
		defer idx.Close() //nolint:errcheck

		if query == "" {
			return nil
		}
		hits, err := idx.Search(query, status, limit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matching postings.")
			return nil
		}
		formatHits(os.Stdout, hits)
		return nil
	},
}

func formatHits(out io.Writer, hits []search.Hit) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tSTATUS\tINSTITUTION\tTITLE\tDEADLINE\tSCORE")
	_, _ = fmt.Fprintln(w, "---\t------\t-----------\t-----\t--------\t-----")
	for _, h := range hits {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
			h.Key, h.Status, truncate(h.Institution, 30), truncate(h.Title, 40), h.Deadline, h.Score)
	}
	_ = w.Flush()
}

func init() {
	searchCmd.Flags().Bool("reindex", false, "rebuild the index from the posting store")
	searchCmd.Flags().String("status", "", "only postings with this status")
	searchCmd.Flags().Int("limit", 20, "max number of results")
	rootCmd.AddCommand(searchCmd)
}
