package scoring

import "math"

// Points available per category. Their sum is MaxAchievable.
const (
	PointsValidJSON   = 1
	PointsRules       = 2
	PointsFacts       = 1
	PointsAnswer      = 2
	PointsExplanation = 1

	MaxAchievable = PointsValidJSON + PointsRules + PointsFacts + PointsAnswer + PointsExplanation
)

// Detail keys.
const (
	DetailJSONExtraction   = "json_extraction"
	DetailJSONValidity     = "json_validity"
	DetailRequestFound     = "request_found"
	DetailRules            = "rules"
	DetailFacts            = "facts"
	DetailAccuracy         = "accuracy"
	DetailToolStatus       = "tool_status"
	DetailExplanationTerms = "explanation_terms"
	DetailCrossCheckError  = "crosscheck_error"
	DetailMaxTotalNote     = "max_total_note"
)

// Diagnostic messages.
const (
	MsgNoJSONBlocks = "No JSON blocks found in transcript"
	MsgNoValidJSON  = "No valid JSON blocks"
	MsgNoRequest    = "No request JSON with 'program' key found"
	MsgNoToolOutput = "Could not find tool output in transcript"
)

// Result is the scored outcome of one transcript.
type Result struct {
	TaskID        string  `json:"task_id"`
	ValidJSON     int     `json:"valid_json"`
	CorrectRules  int     `json:"correct_rules"`
	CorrectFacts  int     `json:"correct_facts"`
	CorrectAnswer int     `json:"correct_answer"`
	Explanation   int     `json:"explanation"`
	Total         int     `json:"total"`
	MaxTotal      int     `json:"max_total"`
	Details       Details `json:"details"`
}

// Details is a free-form diagnostic mapping. Values are strings, ints or
// *AccuracyDetail.
type Details map[string]any

// AccuracyDetail is the accuracy breakdown stored under details.accuracy.
// Metrics are rounded to three decimals.
type AccuracyDetail struct {
	Precision float64  `json:"precision"`
	Recall    float64  `json:"recall"`
	F1        float64  `json:"f1"`
	Expected  []string `json:"expected"`
	Actual    []string `json:"actual"`
	Missing   []string `json:"missing,omitempty"`
	Spurious  []string `json:"spurious,omitempty"`
}

// Accuracy returns details.accuracy when the tool output was found.
func (r *Result) Accuracy() (*AccuracyDetail, bool) {
	a, ok := r.Details[DetailAccuracy].(*AccuracyDetail)
	return a, ok
}

// Message returns a string-valued detail.
func (r *Result) Message(key string) (string, bool) {
	s, ok := r.Details[key].(string)
	return s, ok
}

func (r *Result) sum() {
	r.Total = r.ValidJSON + r.CorrectRules + r.CorrectFacts + r.CorrectAnswer + r.Explanation
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
