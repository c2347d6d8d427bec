package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harborline/resolve-cli/internal/dataset"
	"github.com/harborline/resolve-cli/internal/report"
)

var (
	batchInput       string
	batchOutput      string
	batchLimit       int
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve every company in a Companies House CSV extract",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		o, err := buildOrchestrator()
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		src, err := dataset.OpenFile(batchInput)
		if err != nil {
			return err
		}

		runID := uuid.NewString()
		zap.L().Info("batch: starting run",
			zap.String("run_id", runID),
			zap.String("input", batchInput),
		)

		concurrency := cfg.Batch.MaxConcurrentTrials
		if batchConcurrency > 0 {
			concurrency = batchConcurrency
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)

		var queued int
		for batchLimit <= 0 || queued < batchLimit {
			company, err := src.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			queued++

			g.Go(func() error {
				result, err := o.Resolve(gctx, company)
				if err != nil {
					// The partial record is still worth keeping; the
					// summary will show the trial as unresolved.
					zap.L().Error("batch: trial failed",
						zap.String("company", company.RegistrationNumber),
						zap.Error(err),
					)
				}
				if result == nil {
					return nil
				}
				return st.SaveTrial(gctx, runID, result)
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch: run trials")
		}

		trials, err := st.ListTrials(ctx, runID)
		if err != nil {
			return err
		}

		fmt.Printf("run: %s\n%s", runID, report.FormatSummary(report.Summarize(trials)))

		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return eris.Wrap(err, "batch: create output file")
			}
			defer f.Close()
			if err := report.WriteCSV(f, trials); err != nil {
				return err
			}
			zap.L().Info("batch: wrote results",
				zap.String("path", batchOutput),
				zap.Int("trials", len(trials)),
			)
		}

		zap.L().Info("batch: run complete",
			zap.String("run_id", runID),
			zap.Int("queued", queued),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "Companies House CSV extract to resolve")
	batchCmd.Flags().StringVar(&batchOutput, "out", "", "write per-trial results to this CSV file")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "resolve at most this many companies (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel trials (default from config)")
	_ = batchCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(batchCmd)
}
