package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [view]",
	Short: "Write a view to a spreadsheet in the output directory",
	Long:  "Views are the same as for `jmtracker postings`. The file is named <view>_<date>.xlsx.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		view := viewInterested
		if len(args) == 1 {
			view = args[0]
		}
		columns, _ := cmd.Flags().GetStringSlice("columns")

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		postings, err := loadView(ctx, env.Tracker, view, filterFlags(cmd))
		if err != nil {
			return informational(os.Stdout, err)
		}

		if err := os.MkdirAll(cfg.Dirs.Output, 0o755); err != nil {
			return err
		}
		path := filepath.Join(cfg.Dirs.Output, export.FileName(view, time.Now()))
		if err := export.WriteXLSX(path, view, postings, columns, env.Personal.CustomColumns); err != nil {
			return err
		}
		fmt.Printf("Exported %d postings to %s\n", len(postings), path)
		return nil
	},
}

func init() {
	addFilterFlags(exportCmd)
	exportCmd.Flags().StringSlice("columns", nil, "columns to export (default: a standard set)")
	rootCmd.AddCommand(exportCmd)
}
