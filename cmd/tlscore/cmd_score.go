package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"tlscore/internal/reference"
	"tlscore/internal/scoring"
	"tlscore/internal/transcript"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	scoreTranscript string
	scoreReference  string
	scoreTask       string
	scoreOutput     string
	scoreFormat     string
)

// scoreCmd scores a single transcript
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one transcript against its reference solution",
	Long: `Scores a transcript and prints the result as JSON followed by a summary.

The reference is given directly with --reference, or derived from --task as
<references dir>/<task>_solution.json.

Example:
  tlscore score --transcript runs/A1.md --task A1`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreTranscript, "transcript", "t", "", "Transcript file (required)")
	scoreCmd.Flags().StringVarP(&scoreReference, "reference", "r", "", "Reference solution file")
	scoreCmd.Flags().StringVar(&scoreTask, "task", "", "Task id; resolves the reference in the references dir")
	scoreCmd.Flags().StringVarP(&scoreOutput, "output", "o", "", "Write the JSON result to this file")
	scoreCmd.Flags().StringVar(&scoreFormat, "format", formatText, "Summary format: text, markdown or none")
	_ = scoreCmd.MarkFlagRequired("transcript")
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoreTranscript == "" {
		return errors.New("--transcript is required")
	}
	refPath, err := resolveReference(scoreReference, scoreTask)
	if err != nil {
		return err
	}
	if err := checkSummaryFormat(scoreFormat); err != nil {
		return err
	}

	scorer := scoring.New(activeConfig().Scoring)
	res, err := scoreOnce(scorer, scoreTranscript, refPath)
	if err != nil {
		return err
	}
	logger.Info("Scored transcript",
		zap.String("task_id", res.TaskID),
		zap.Int("total", res.Total),
		zap.Int("max_total", res.MaxTotal),
	)

	out := cmd.OutOrStdout()
	if err := writeResult(out, res, scoreOutput); err != nil {
		return err
	}
	return renderSummary(out, res, scoreFormat)
}

// resolveReference returns the explicit reference path, or the conventional
// path for task.
func resolveReference(ref, task string) (string, error) {
	if ref != "" {
		return ref, nil
	}
	if task != "" {
		return reference.PathForTask(activeConfig().References.Dir, task), nil
	}
	return "", errors.New("either --reference or --task is required")
}

// scoreOnce scores one transcript and maps missing inputs to user-facing
// messages. A missing transcript is reported before a missing reference.
func scoreOnce(scorer *scoring.Scorer, transcriptPath, referencePath string) (*scoring.Result, error) {
	res, err := scorer.ScoreFiles(transcriptPath, referencePath)
	switch {
	case errors.Is(err, transcript.ErrNotFound):
		return nil, fmt.Errorf("Transcript not found: %s", transcriptPath)
	case errors.Is(err, reference.ErrNotFound):
		return nil, fmt.Errorf("Reference not found: %s", referencePath)
	case err != nil:
		return nil, err
	}
	return res, nil
}

// writeResult emits v as indented JSON, to path when set or to w otherwise.
func writeResult(w io.Writer, v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if path != "" {
		if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(w, "Scores written to %s\n", path)
		return nil
	}
	fmt.Fprintln(w, string(data))
	return nil
}
