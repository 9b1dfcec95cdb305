package transcript

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tlscore/internal/facts"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = "I will call the tool.\n\n" +
	"```json\n" +
	`{"program": {"rules": ["ancestor(X,Y) :- parent(X,Y)", "ancestor(X,Z) :- parent(X,Y), ancestor(Y,Z)"]}, "facts": ["parent(alice,bob)", "parent(bob,carol)"]}` + "\n" +
	"```\n\n" +
	"The tool replied:\n\n" +
	"```\n" +
	`{"status": "ok", "facts": [{"atom": {"pred": "ancestor", "args": ["alice", "bob"]}}, {"atom": {"pred": "ancestor", "args": ["alice", "carol"]}}]}` + "\n" +
	"```\n"

func TestExtractJSONBlocks(t *testing.T) {
	blocks := ExtractJSONBlocks(sampleTranscript)
	require.Len(t, blocks, 2)
	assert.True(t, len(blocks[0]) > 0 && blocks[0][0] == '{')
	assert.Contains(t, blocks[0], `"program"`)
	assert.Contains(t, blocks[1], `"status"`)
}

func TestExtractJSONBlocksNoFences(t *testing.T) {
	assert.Empty(t, ExtractJSONBlocks("just prose, {\"a\": 1} but no fences"))
}

func TestExtractJSONBlocksSkipsNonObjectBlocks(t *testing.T) {
	text := "```python\nprint('hi')\n```\n```json\n[1, 2]\n```\n"
	assert.Empty(t, ExtractJSONBlocks(text))
}

func TestExtractJSONBlocksUnbalancedFence(t *testing.T) {
	assert.Empty(t, ExtractJSONBlocks("```json\n{\"program\": {}}\n"))
}

func TestExtractJSONBlocksNested(t *testing.T) {
	text := "```json\n{\"a\": {\"b\": {\"c\": 1}}}\n```"
	blocks := ExtractJSONBlocks(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, `{"a": {"b": {"c": 1}}}`, blocks[0])
}

func TestExtractJSONBlocksUnicodeWhitespace(t *testing.T) {
	for name, sep := range map[string]string{
		"vertical tab": "\v",
		"nbsp":         "\u00a0",
		"line sep":     "\u2028",
		"nel":          "\u0085",
	} {
		t.Run(name, func(t *testing.T) {
			text := "```json" + sep + `{"a": 1}` + sep + "```"
			assert.Equal(t, []string{`{"a": 1}`}, ExtractJSONBlocks(text))
		})
	}
}

func TestValidate(t *testing.T) {
	ok, obj, msg := Validate(`{"program": {}}`)
	assert.True(t, ok)
	assert.Empty(t, msg)
	assert.True(t, obj.Has("program"))

	ok, _, msg = Validate(`{"program": }`)
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

func TestValidObjectsDropsInvalid(t *testing.T) {
	objs := ValidObjects([]string{`{bad}`, `{"a": 1}`, `{"b": trailing,}`})
	require.Len(t, objs, 1)
	assert.True(t, objs[0].Has("a"))
}

func TestClassify(t *testing.T) {
	objs := ValidObjects(ExtractJSONBlocks(sampleTranscript))
	a := Classify(objs)

	require.NotNil(t, a.Request)
	require.NotNil(t, a.Output)
	assert.Equal(t, 2, a.Request.RuleCount())
	assert.Equal(t, 2, a.Request.FactCount())
	assert.Equal(t, "ok", a.Output.Status())
	assert.Equal(t, []string{"ancestor(alice,bob)", "ancestor(alice,carol)"}, a.Output.AtomStrings())
}

func TestClassifyFirstMatchWins(t *testing.T) {
	objs := ValidObjects([]string{
		`{"note": "nothing"}`,
		`{"program": {"rules": [1]}}`,
		`{"program": {"rules": [1, 2, 3]}}`,
		`{"status": "first", "facts": []}`,
		`{"status": "second", "facts": []}`,
	})
	a := Classify(objs)
	require.NotNil(t, a.Request)
	assert.Equal(t, 1, a.Request.RuleCount())
	require.NotNil(t, a.Output)
	assert.Equal(t, "first", a.Output.Status())
}

func TestClassifyStatusWithoutFactsIsNotOutput(t *testing.T) {
	a := Classify(ValidObjects([]string{`{"status": "ok"}`, `{"facts": []}`}))
	assert.Nil(t, a.Output)
	assert.Nil(t, a.Request)
}

func TestClassifySingleObjectServesBoth(t *testing.T) {
	a := Classify(ValidObjects([]string{`{"program": {"rules": []}, "status": "ok", "facts": []}`}))
	assert.NotNil(t, a.Request)
	assert.NotNil(t, a.Output)
}

func TestRequestCountsTolerateOddShapes(t *testing.T) {
	tests := []struct {
		block      string
		rules, fct int
	}{
		{`{"program": null}`, 0, 0},
		{`{"program": "text"}`, 0, 0},
		{`{"program": {"rules": "r1"}}`, 0, 0},
		{`{"program": {"rules": {"a": 1}}, "facts": {"b": 2}}`, 0, 0},
		{`{"program": {"rules": [{}, {}]}, "facts": [1, 2, 3]}`, 2, 3},
	}
	for _, tt := range tests {
		ok, obj, msg := Validate(tt.block)
		require.True(t, ok, msg)
		req, found := obj.Request()
		require.True(t, found)
		assert.Equal(t, tt.rules, req.RuleCount(), tt.block)
		assert.Equal(t, tt.fct, req.FactCount(), tt.block)
	}
}

func TestKeysMatchCaseSensitively(t *testing.T) {
	ok, obj, msg := Validate(`{"program": {"RULES": ["a", "b"], "Rules": ["c"]}, "Facts": ["f"]}`)
	require.True(t, ok, msg)
	req, found := obj.Request()
	require.True(t, found)
	assert.Equal(t, 0, req.RuleCount())
	assert.Equal(t, 0, req.FactCount())

	ok, obj, msg = Validate(`{"Program": {"rules": ["a"]}, "STATUS": "ok", "facts": []}`)
	require.True(t, ok, msg)
	_, found = obj.Request()
	assert.False(t, found)
	_, found = obj.ToolOutput()
	assert.False(t, found)
}

func TestToolOutputAtoms(t *testing.T) {
	ok, obj, msg := Validate(`{"status": 0, "facts": [
		{"atom": {"pred": "p", "args": ["a", 1, true]}},
		{"weight": 1.0},
		"not an object",
		{"atom": {"pred": "q"}}
	]}`)
	require.True(t, ok, msg)
	out, found := obj.ToolOutput()
	require.True(t, found)

	want := []facts.Atom{
		{Pred: "p", Args: []string{"a", "1", "true"}},
		{},
		{Pred: "q"},
	}
	if d := cmp.Diff(want, out.Atoms()); d != "" {
		t.Errorf("Atoms() mismatch (-want +got):\n%s", d)
	}
	assert.Equal(t, []string{"p(a,1,true)", "()", "q()"}, out.AtomStrings())
	assert.Equal(t, "0", out.Status())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = Load(filepath.Join(dir, "missing.md"))
	assert.True(t, errors.Is(err, ErrNotFound))
}
