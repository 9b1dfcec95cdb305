package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tlscore/internal/scoring"
	"tlscore/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	watchTranscript string
	watchReference  string
	watchTask       string
	watchDebounce   time.Duration
	watchFormat     string
)

// watchCmd re-scores a transcript as it is written
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-score a transcript every time it changes",
	Long: `Scores the transcript once, then again after every settled write until
interrupted. Scoring failures are printed and watching continues.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchTranscript, "transcript", "t", "", "Transcript file (required)")
	watchCmd.Flags().StringVarP(&watchReference, "reference", "r", "", "Reference solution file")
	watchCmd.Flags().StringVar(&watchTask, "task", "", "Task id; resolves the reference in the references dir")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "Quiet period before re-scoring")
	watchCmd.Flags().StringVar(&watchFormat, "format", formatText, "Summary format: text, markdown or none")
	_ = watchCmd.MarkFlagRequired("transcript")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchTranscript == "" {
		return errors.New("--transcript is required")
	}
	refPath, err := resolveReference(watchReference, watchTask)
	if err != nil {
		return err
	}
	if err := checkSummaryFormat(watchFormat); err != nil {
		return err
	}

	scorer := scoring.New(activeConfig().Scoring)
	out := cmd.OutOrStdout()
	rescore := func(_ context.Context, path string) error {
		res, err := scoreOnce(scorer, path, refPath)
		if err != nil {
			return err
		}
		return renderSummary(out, res, watchFormat)
	}

	w, err := watch.New(watchTranscript, watchDebounce, rescore)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The file may not exist yet; the first create event scores it.
	if err := rescore(ctx, w.Path()); err != nil {
		logger.Warn("Initial score failed", zap.Error(err))
	}

	logger.Info("Watching transcript", zap.String("path", w.Path()), zap.String("reference", refPath))
	return w.Run(ctx)
}
