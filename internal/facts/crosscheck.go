package facts

import (
	"fmt"

	"tlscore/internal/mangle"
)

// crossCheckProgram re-derives the set comparison in Datalog. Atom strings
// are loaded already normalized, so string equality is set membership.
const crossCheckProgram = `
Decl expected(Atom).
Decl actual(Atom).
Decl matched(Atom).
Decl missing(Atom).
Decl spurious(Atom).

matched(A) :- expected(A), actual(A).
missing(A) :- expected(A), !actual(A).
spurious(A) :- actual(A), !expected(A).
`

// Diff lists normalized atoms by how they compare across the two sets.
type Diff struct {
	Matched  []string `json:"matched"`
	Missing  []string `json:"missing"`
	Spurious []string `json:"spurious"`
}

// CrossCheck loads both atom sets into a Mangle fact store and derives the
// matched, missing and spurious atoms. Each list is sorted.
func CrossCheck(expected, actual []string) (Diff, error) {
	engine := mangle.NewEngine(mangle.DefaultConfig())
	if err := engine.LoadSchemaString(crossCheckProgram); err != nil {
		return Diff{}, fmt.Errorf("load cross-check program: %w", err)
	}

	var input []mangle.Fact
	for _, a := range NewSet(expected).Sorted() {
		input = append(input, mangle.Fact{Predicate: "expected", Args: []interface{}{a}})
	}
	for _, a := range NewSet(actual).Sorted() {
		input = append(input, mangle.Fact{Predicate: "actual", Args: []interface{}{a}})
	}
	if err := engine.AddFacts(input); err != nil {
		return Diff{}, fmt.Errorf("load atoms: %w", err)
	}
	if err := engine.Evaluate(); err != nil {
		return Diff{}, err
	}

	var diff Diff
	for _, target := range []struct {
		pred string
		dst  *[]string
	}{
		{"matched", &diff.Matched},
		{"missing", &diff.Missing},
		{"spurious", &diff.Spurious},
	} {
		derived, err := engine.GetFacts(target.pred)
		if err != nil {
			return Diff{}, err
		}
		var out []string
		for _, f := range derived {
			if s, ok := f.Args[0].(string); ok {
				out = append(out, s)
			}
		}
		*target.dst = out
	}
	return diff, nil
}
