package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a source export into the posting store",
	Long: "Loads and validates an export for one source, appends new postings and stages " +
		"changes to tracked postings for review with `jmtracker updates`. Without --file the " +
		"file already staged in the input directory is loaded.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		origin, _ := cmd.Flags().GetString("source")
		file, _ := cmd.Flags().GetString("file")

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sc, err := env.Registry.Get(origin)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Dirs.Input, 0o755); err != nil {
			return err
		}

		res, err := env.Engine.IngestFile(ctx, sc, file, cfg.Dirs.Input)
		if err != nil {
			return err
		}

		zap.L().Info("ingest complete",
			zap.String("origin", origin),
			zap.String("outcome", string(res.Outcome)),
			zap.Int("added", res.Added),
			zap.Int("staged", res.Staged),
		)
		fmt.Printf("%s: %d rows, %d new postings, %d staged updates (%s)\n",
			origin, res.Rows, res.Added, res.Staged, res.Outcome)
		if res.Staged > 0 {
			fmt.Println("Review staged updates with `jmtracker updates`.")
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("source", "", "source origin (e.g. AEA, EJM, AJO)")
	ingestCmd.Flags().String("file", "", "path to the export (default: staged input file)")
	_ = ingestCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(ingestCmd)
}
