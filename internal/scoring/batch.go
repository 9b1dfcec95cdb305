package scoring

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tlscore/internal/logging"
	"tlscore/internal/reference"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TranscriptSuffix is stripped from a transcript's base name to get its task id.
const TranscriptSuffix = "_transcript"

// Task pairs a transcript with the reference it is scored against.
type Task struct {
	TaskID        string
	Transcript    string
	ReferencePath string
}

// BatchEntry is the outcome of one task. Exactly one of Result and Error is set.
type BatchEntry struct {
	TaskID     string  `json:"task_id"`
	Transcript string  `json:"transcript"`
	Result     *Result `json:"result,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// BatchSummary aggregates a batch.
type BatchSummary struct {
	Count     int     `json:"count"`
	Scored    int     `json:"scored"`
	Errors    int     `json:"errors"`
	Perfect   int     `json:"perfect"` // total >= max_total
	MeanTotal float64 `json:"mean_total"`
}

// BatchReport is the batch command's output document.
type BatchReport struct {
	Results []BatchEntry `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// DiscoverTasks lists *.md transcripts in transcriptDir and resolves each to
// <referenceDir>/<task>_solution.json. Tasks are sorted by id.
func DiscoverTasks(transcriptDir, referenceDir string) ([]Task, error) {
	entries, err := os.ReadDir(transcriptDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}

	var tasks []Task
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".md") {
			continue
		}
		id := TaskIDFromPath(e.Name())
		tasks = append(tasks, Task{
			TaskID:        id,
			Transcript:    filepath.Join(transcriptDir, e.Name()),
			ReferencePath: reference.PathForTask(referenceDir, id),
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskID < tasks[j].TaskID })
	return tasks, nil
}

// TaskIDFromPath derives a task id from a transcript file name:
// "runs/A1_transcript.md" -> "A1".
func TaskIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, TranscriptSuffix)
}

// ScoreBatch scores tasks concurrently with at most workers runs in flight.
// Per-task failures are recorded in the report; only cancellation of ctx
// returns an error.
func (s *Scorer) ScoreBatch(ctx context.Context, tasks []Task, workers int) (*BatchReport, error) {
	if workers < 1 {
		workers = 1
	}
	log := logging.Get(logging.CategoryBatch)

	entries := make([]BatchEntry, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry := BatchEntry{TaskID: task.TaskID, Transcript: task.Transcript}
			res, err := s.ScoreFiles(task.Transcript, task.ReferencePath)
			if err != nil {
				log.Warn("task failed", zap.String("task_id", task.TaskID), zap.Error(err))
				entry.Error = err.Error()
			} else {
				entry.Result = res
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	report := &BatchReport{Results: entries, Summary: summarize(entries)}
	log.Info("batch complete",
		zap.Int("count", report.Summary.Count),
		zap.Int("errors", report.Summary.Errors),
		zap.Float64("mean_total", report.Summary.MeanTotal),
	)
	return report, nil
}

func summarize(entries []BatchEntry) BatchSummary {
	sum := BatchSummary{Count: len(entries)}
	total := 0
	for _, e := range entries {
		if e.Result == nil {
			sum.Errors++
			continue
		}
		sum.Scored++
		total += e.Result.Total
		if e.Result.Total >= e.Result.MaxTotal {
			sum.Perfect++
		}
	}
	if sum.Scored > 0 {
		sum.MeanTotal = round3(float64(total) / float64(sum.Scored))
	}
	return sum
}
