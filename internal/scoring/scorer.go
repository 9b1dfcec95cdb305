// Package scoring turns a transcript and a reference solution into a
// Result. Scoring is a short-circuiting sequence of gates: no blocks, no
// valid JSON and no request object each end the run early with the
// remaining sub-scores at zero and total left at 0.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"tlscore/internal/config"
	"tlscore/internal/facts"
	"tlscore/internal/logging"
	"tlscore/internal/reference"
	"tlscore/internal/transcript"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Scorer applies a scoring configuration. It holds no per-run state and is
// safe for concurrent use.
type Scorer struct {
	cfg config.ScoringConfig
}

// New returns a Scorer for cfg.
func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreFiles loads the transcript, then the reference, and scores them.
// Only unreadable or missing files (and unparseable references) are errors;
// missing files wrap transcript.ErrNotFound or reference.ErrNotFound.
func (s *Scorer) ScoreFiles(transcriptPath, referencePath string) (*Result, error) {
	text, err := transcript.Load(transcriptPath)
	if err != nil {
		return nil, err
	}
	ref, err := reference.Load(referencePath)
	if err != nil {
		return nil, err
	}
	return s.Score(text, ref), nil
}

// Score grades a transcript against a reference solution.
func (s *Scorer) Score(text string, ref *reference.Solution) *Result {
	log := logging.Get(logging.CategoryScoring).With(
		zap.String("run_id", uuid.NewString()),
		zap.String("task_id", ref.ID()),
	)

	res := &Result{
		TaskID:   ref.ID(),
		MaxTotal: ref.MaxTotal(s.cfg.DefaultMaxTotal),
		Details:  Details{},
	}
	if res.MaxTotal != MaxAchievable {
		res.Details[DetailMaxTotalNote] = fmt.Sprintf(
			"sub-scores can sum to %d but the reference declares max_total %d", MaxAchievable, res.MaxTotal)
	}

	blocks := transcript.ExtractJSONBlocks(text)
	if len(blocks) == 0 {
		res.Details[DetailJSONExtraction] = MsgNoJSONBlocks
		log.Info("no JSON blocks in transcript")
		return res
	}

	objects := transcript.ValidObjects(blocks)
	if len(objects) == 0 {
		res.Details[DetailJSONValidity] = MsgNoValidJSON
		log.Info("no valid JSON blocks", zap.Int("blocks", len(blocks)))
		return res
	}
	res.ValidJSON = PointsValidJSON
	res.Details[DetailJSONValidity] = fmt.Sprintf("Found %d valid JSON block(s)", len(objects))

	artifacts := transcript.Classify(objects)
	if artifacts.Request == nil {
		res.Details[DetailRequestFound] = MsgNoRequest
		log.Info("no request object", zap.Int("valid_blocks", len(objects)))
		return res
	}

	s.scoreRules(res, artifacts.Request, ref)
	s.scoreFacts(res, artifacts.Request, ref)
	if artifacts.Output != nil {
		s.scoreAnswer(res, artifacts.Output, ref)
	} else {
		res.Details[DetailAccuracy] = MsgNoToolOutput
	}
	s.scoreExplanation(res, text)

	res.sum()
	log.Debug("scored transcript",
		zap.Int("total", res.Total),
		zap.Int("max_total", res.MaxTotal),
		zap.Int("correct_rules", res.CorrectRules),
		zap.Int("correct_facts", res.CorrectFacts),
		zap.Int("correct_answer", res.CorrectAnswer),
		zap.Int("explanation", res.Explanation),
	)
	return res
}

// scoreRules awards full points for an exact rule count, one point for any
// other non-empty rule list, none for no rules.
func (s *Scorer) scoreRules(res *Result, req *transcript.Request, ref *reference.Solution) {
	got, want := req.RuleCount(), ref.RuleCount()
	switch {
	case got == want:
		res.CorrectRules = PointsRules
		res.Details[DetailRules] = fmt.Sprintf("Correct rule count (%d)", got)
	case got > 0:
		res.CorrectRules = 1
		res.Details[DetailRules] = fmt.Sprintf("Expected %d rules, got %d", want, got)
	default:
		res.Details[DetailRules] = fmt.Sprintf("Expected %d rules, got %d", want, got)
	}
}

// scoreFacts has no partial credit.
func (s *Scorer) scoreFacts(res *Result, req *transcript.Request, ref *reference.Solution) {
	got, want := req.FactCount(), ref.FactCount()
	if got == want {
		res.CorrectFacts = PointsFacts
		res.Details[DetailFacts] = fmt.Sprintf("Correct fact count (%d)", got)
		return
	}
	res.Details[DetailFacts] = fmt.Sprintf("Expected %d facts, got %d", want, got)
}

func (s *Scorer) scoreAnswer(res *Result, out *transcript.ToolOutput, ref *reference.Solution) {
	expected := ref.ExpectedDerivedFacts
	if expected == nil {
		expected = []string{}
	}
	actual := distinctSorted(out.AtomStrings())

	acc := facts.Score(expected, actual)
	switch {
	case acc.F1 >= s.cfg.FullCreditF1:
		res.CorrectAnswer = PointsAnswer
	case acc.F1 >= s.cfg.PartialCreditF1:
		res.CorrectAnswer = 1
	}

	detail := &AccuracyDetail{
		Precision: round3(acc.Precision),
		Recall:    round3(acc.Recall),
		F1:        round3(acc.F1),
		Expected:  expected,
		Actual:    actual,
	}
	if diff, err := facts.CrossCheck(expected, actual); err != nil {
		logging.Get(logging.CategoryCrossCheck).Warn("cross-check failed", zap.Error(err))
		res.Details[DetailCrossCheckError] = err.Error()
	} else {
		detail.Missing = diff.Missing
		detail.Spurious = diff.Spurious
	}
	res.Details[DetailAccuracy] = detail
	if status := out.Status(); status != "" {
		res.Details[DetailToolStatus] = status
	}
}

// scoreExplanation counts configured keywords appearing anywhere in the
// transcript, case-insensitively.
func (s *Scorer) scoreExplanation(res *Result, text string) {
	lower := strings.ToLower(text)
	count := 0
	for _, term := range s.cfg.ExplanationTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			count++
		}
	}
	if count >= s.cfg.ExplanationMinTerms {
		res.Explanation = PointsExplanation
	}
	res.Details[DetailExplanationTerms] = count
}

func distinctSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
