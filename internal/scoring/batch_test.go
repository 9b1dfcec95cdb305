package scoring

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestTaskIDFromPath(t *testing.T) {
	assert.Equal(t, "A1", TaskIDFromPath("runs/A1_transcript.md"))
	assert.Equal(t, "A1", TaskIDFromPath("A1.md"))
	assert.Equal(t, "B2_final", TaskIDFromPath("/x/B2_final.md"))
}

func TestDiscoverTasks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "B2.md"), "")
	writeFile(t, filepath.Join(dir, "A1_transcript.md"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0755))

	tasks, err := DiscoverTasks(dir, "/refs")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "A1", tasks[0].TaskID)
	assert.Equal(t, filepath.Join("/refs", "A1_solution.json"), tasks[0].ReferencePath)
	assert.Equal(t, "B2", tasks[1].TaskID)
}

func TestDiscoverTasksMissingDir(t *testing.T) {
	_, err := DiscoverTasks(filepath.Join(t.TempDir(), "nope"), "/refs")
	assert.Error(t, err)
}

func TestScoreBatch(t *testing.T) {
	dir := t.TempDir()
	refs := filepath.Join(dir, "refs")
	runs := filepath.Join(dir, "runs")

	writeFile(t, filepath.Join(refs, "A1_solution.json"),
		`{"task_id": "A1", "request": {"program": {"rules": ["r"]}, "facts": []}, "expected_derived_facts": []}`)
	writeFile(t, filepath.Join(refs, "B2_solution.json"),
		`{"task_id": "B2", "scoring": {"total": 1}}`)
	writeFile(t, filepath.Join(runs, "A1.md"),
		fence(`{"program": {"rules": ["r"]}, "facts": []}`)+fence(`{"status": "ok", "facts": []}`))
	writeFile(t, filepath.Join(runs, "B2.md"), "no blocks here")
	writeFile(t, filepath.Join(runs, "C3.md"), "no reference for this one")

	tasks, err := DiscoverTasks(runs, refs)
	require.NoError(t, err)

	report, err := newTestScorer().ScoreBatch(context.Background(), tasks, 2)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	a1 := report.Results[0]
	require.NotNil(t, a1.Result)
	assert.Equal(t, 1+2+1+2, a1.Result.Total)

	b2 := report.Results[1]
	require.NotNil(t, b2.Result)
	assert.Equal(t, 0, b2.Result.Total)

	c3 := report.Results[2]
	assert.Nil(t, c3.Result)
	assert.Contains(t, c3.Error, "reference not found")

	assert.Equal(t, BatchSummary{Count: 3, Scored: 2, Errors: 1, Perfect: 0, MeanTotal: 3}, report.Summary)
}

func TestScoreBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task{{TaskID: "A1", Transcript: "x.md", ReferencePath: "y.json"}}
	_, err := newTestScorer().ScoreBatch(ctx, tasks, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScoreBatchEmpty(t *testing.T) {
	report, err := newTestScorer().ScoreBatch(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, BatchSummary{}, report.Summary)
}
