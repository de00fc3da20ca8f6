package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/model"
	"github.com/sells-group/jmtracker/pkg/notion"
)

var notionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Publish applications to Notion",
}

var notionPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upsert applied postings into the Notion applications database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Notion.Token == "" || cfg.Notion.DatabaseID == "" {
			return eris.New("notion token and database id are required (JMTRACKER_NOTION_TOKEN, JMTRACKER_NOTION_DATABASE_ID)")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		postings, err := env.Tracker.ByStatus(ctx, model.StatusApplied)
		if err != nil {
			return informational(cmd.OutOrStdout(), err)
		}

		client := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(float64(cfg.Notion.RateLimitRPS)))
		res, err := notion.PushApplications(ctx, client, cfg.Notion.DatabaseID, postings)
		if err != nil {
			return err
		}
		fmt.Printf("Notion: %d created, %d updated\n", res.Created, res.Updated)
		return nil
	},
}

func init() {
	notionCmd.AddCommand(notionPushCmd)
	rootCmd.AddCommand(notionCmd)
}
