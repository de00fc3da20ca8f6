package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/jmtracker/internal/source"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources and how to download their exports",
	RunE: func(_ *cobra.Command, _ []string) error {
		reg, err := cfg.Registry()
		if err != nil {
			return err
		}
		formatSources(os.Stdout, reg.All())
		return nil
	},
}

func formatSources(out io.Writer, configs []source.Config) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ORIGIN\tFORMAT\tINPUT FILE\tDOWNLOAD")
	_, _ = fmt.Fprintln(w, "------\t------\t----------\t--------")
	for _, c := range configs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Origin, c.ExpectedExtension, c.InputFileName, c.DownloadURL)
	}
	_ = w.Flush()
	for _, c := range configs {
		if c.DownloadInstructions != "" {
			_, _ = fmt.Fprintf(out, "\n%s: %s\n", c.Origin, c.DownloadInstructions)
		}
	}
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
