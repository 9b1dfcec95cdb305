package facts

// Accuracy holds information-retrieval metrics over two atom sets.
type Accuracy struct {
	Precision float64
	Recall    float64
	F1        float64

	TruePositives  int
	FalsePositives int
	FalseNegatives int
}

// Score computes precision, recall and F1 of actual against expected.
//
// With no expected atoms the task is solved only by an empty answer:
// (1,1,1) when actual is empty too, otherwise (0,1,0) with recall vacuously 1.
// Any zero denominator yields 0 for that metric.
func Score(expected, actual []string) Accuracy {
	exp := NewSet(expected)
	act := NewSet(actual)

	if len(exp) == 0 {
		if len(act) == 0 {
			return Accuracy{Precision: 1, Recall: 1, F1: 1}
		}
		return Accuracy{Precision: 0, Recall: 1, F1: 0, FalsePositives: len(act)}
	}

	tp := len(exp.Intersect(act))
	fp := len(act.Minus(exp))
	fn := len(exp.Minus(act))

	acc := Accuracy{TruePositives: tp, FalsePositives: fp, FalseNegatives: fn}
	if tp+fp > 0 {
		acc.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		acc.Recall = float64(tp) / float64(tp+fn)
	}
	if acc.Precision+acc.Recall > 0 {
		acc.F1 = 2 * acc.Precision * acc.Recall / (acc.Precision + acc.Recall)
	}
	return acc
}
