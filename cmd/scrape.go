package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/sells-group/jmtracker/internal/fetcher"
	"github.com/sells-group/jmtracker/internal/scrape"
	"github.com/sells-group/jmtracker/internal/source"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect postings from job boards without an export",
}

var scrapeAJOCmd = &cobra.Command{
	Use:   "ajo",
	Short: "Scrape AcademicJobsOnline economics listings",
	Long:  "Writes " + source.AJOInputFileName + " to the input directory. Pass --ingest to ingest it right away.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		for _, dir := range []string{cfg.Dirs.Input, cfg.Dirs.Output} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:   cfg.Scrape.UserAgent,
			Timeout:     time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
			MaxRetries:  cfg.Scrape.MaxRetries,
			RatePerHost: rate.Limit(cfg.Scrape.RatePerSec),
		})
		s := scrape.NewAJOScraper(f, cfg.Scrape.AJOURL, cfg.Scrape.Concurrency)

		res, err := s.Run(ctx, cfg.Dirs.Input, cfg.Dirs.Output)
		if err != nil {
			return err
		}
		fmt.Printf("Scraped %d postings to %s\n", res.Listings, res.Path)

		if ingest, _ := cmd.Flags().GetBool("ingest"); !ingest {
			return nil
		}
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sc, err := env.Registry.Get(source.OriginAJO)
		if err != nil {
			return err
		}
		ir, err := env.Engine.IngestFile(ctx, sc, "", cfg.Dirs.Input)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d new postings, %d staged updates (%s)\n", source.OriginAJO, ir.Added, ir.Staged, ir.Outcome)
		return nil
	},
}

func init() {
	scrapeAJOCmd.Flags().Bool("ingest", false, "ingest the scraped file")

	scrapeCmd.AddCommand(scrapeAJOCmd)
	rootCmd.AddCommand(scrapeCmd)
}
