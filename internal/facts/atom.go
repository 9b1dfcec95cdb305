// Package facts compares the derived facts a reasoning tool reported against
// the facts a reference solution expects.
//
// Comparison is syntactic: an atom is reduced to its canonical string
// pred(arg1,arg2,...) and then normalized by removing all whitespace and
// lowercasing. Argument order matters, so p(a,b) and p(b,a) are distinct.
package facts

import (
	"sort"
	"strings"
	"unicode"
)

// Atom is a single logical fact: a predicate name plus ordered arguments.
type Atom struct {
	Pred string   `json:"pred"`
	Args []string `json:"args"`
}

// String returns the canonical form pred(arg1,arg2,...).
func (a Atom) String() string {
	return a.Pred + "(" + strings.Join(a.Args, ",") + ")"
}

// Normalize strips every whitespace rune and lowercases the atom string.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(atom string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(atom))
}

// Set is a set of normalized atom strings.
type Set map[string]struct{}

// NewSet normalizes every atom and collects the distinct results.
func NewSet(atoms []string) Set {
	s := make(Set, len(atoms))
	for _, a := range atoms {
		s[Normalize(a)] = struct{}{}
	}
	return s
}

// Intersect returns the members present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for k := range s {
		if _, ok := other[k]; ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Minus returns the members of s that are not in other.
func (s Set) Minus(other Set) Set {
	out := make(Set)
	for k := range s {
		if _, ok := other[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
