package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/harborline/resolve-cli/internal/report"
)

var (
	exportRunID  string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored run's trials as CSV, with its summary on stderr",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		trials, err := st.ListTrials(ctx, exportRunID)
		if err != nil {
			return err
		}
		if len(trials) == 0 {
			return eris.Errorf("no trials stored for run %s", exportRunID)
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return eris.Wrap(err, "export: create output file")
			}
			defer f.Close()
			out = f
		}
		if err := report.WriteCSV(out, trials); err != nil {
			return err
		}

		fmt.Fprint(os.Stderr, report.FormatSummary(report.Summarize(trials)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run ID to export")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output CSV path (default stdout)")
	_ = exportCmd.MarkFlagRequired("run")

	rootCmd.AddCommand(exportCmd)
}
