package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tlscore/internal/scoring"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	batchTranscripts string
	batchReferences  string
	batchWorkers     int
	batchOutput      string
)

// batchCmd scores every transcript in a directory
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Score a directory of transcripts concurrently",
	Long: `Scores every *.md transcript in --transcripts. The task id is the file name
without extension and an optional "_transcript" suffix; each task resolves its
reference as <references dir>/<task>_solution.json.

Tasks that cannot be scored are reported as entries with an error and do not
stop the batch.`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVar(&batchTranscripts, "transcripts", "", "Directory of transcripts (required)")
	batchCmd.Flags().StringVar(&batchReferences, "references", "", "Reference directory (default: config references.dir)")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Concurrent scoring runs (default: config batch.workers)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Write the JSON report to this file")
	_ = batchCmd.MarkFlagRequired("transcripts")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchTranscripts == "" {
		return errors.New("--transcripts is required")
	}
	conf := activeConfig()
	refDir := batchReferences
	if refDir == "" {
		refDir = conf.References.Dir
	}
	workers := batchWorkers
	if workers <= 0 {
		workers = conf.Batch.Workers
	}

	tasks, err := scoring.DiscoverTasks(batchTranscripts, refDir)
	if err != nil {
		return err
	}
	logger.Info("Scoring batch",
		zap.Int("tasks", len(tasks)),
		zap.Int("workers", workers),
		zap.String("references", refDir),
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := scoring.New(conf.Scoring).ScoreBatch(ctx, tasks, workers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := writeResult(out, report, batchOutput); err != nil {
		return err
	}
	s := report.Summary
	fmt.Fprintf(out, "Scored %d/%d task(s), %d error(s), %d perfect, mean total %.3f\n",
		s.Scored, s.Count, s.Errors, s.Perfect, s.MeanTotal)
	return nil
}
