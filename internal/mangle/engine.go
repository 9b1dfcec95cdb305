// Package mangle provides a small Google Mangle engine wrapper: load a
// Datalog schema, insert extensional facts, evaluate rules to fixpoint and
// read derived facts back as Go values.
package mangle

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// Config holds Mangle engine configuration.
type Config struct {
	FactLimit int `json:"fact_limit" yaml:"fact_limit"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		FactLimit: 100000,
	}
}

// Engine wraps a Mangle program and its fact store.
type Engine struct {
	config Config

	mu              sync.RWMutex
	store           factstore.ConcurrentFactStore
	programInfo     *analysis.ProgramInfo
	predicateIndex  map[string]ast.PredicateSym
	schemaFragments []parse.SourceUnit
	factCount       int
}

// Fact represents a single fact in the store.
type Fact struct {
	Predicate string        `json:"predicate"`
	Args      []interface{} `json:"args"`
}

// String returns the Datalog representation of the fact.
func (f Fact) String() string {
	args := make([]string, 0, len(f.Args))
	for _, arg := range f.Args {
		switch v := arg.(type) {
		case string:
			args = append(args, fmt.Sprintf("%q", v))
		default:
			args = append(args, fmt.Sprintf("%v", v))
		}
	}
	return fmt.Sprintf("%s(%s).", f.Predicate, strings.Join(args, ", "))
}

// NewEngine creates a new Mangle engine instance.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		config:         cfg,
		store:          factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore()),
		predicateIndex: make(map[string]ast.PredicateSym),
	}
}

// LoadSchemaString parses and analyzes a Mangle source fragment. Fragments
// accumulate; each call re-analyzes the whole program.
func (e *Engine) LoadSchemaString(schema string) error {
	unit, err := parse.Unit(bytes.NewReader([]byte(schema)))
	if err != nil {
		return fmt.Errorf("failed to parse schema: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.schemaFragments = append(e.schemaFragments, unit)
	if err := e.rebuildProgramLocked(); err != nil {
		e.schemaFragments = e.schemaFragments[:len(e.schemaFragments)-1]
		return fmt.Errorf("failed to analyze schema: %w", err)
	}
	return nil
}

func (e *Engine) rebuildProgramLocked() error {
	var clauses []ast.Clause
	var decls []ast.Decl
	for _, fragment := range e.schemaFragments {
		clauses = append(clauses, fragment.Clauses...)
		decls = append(decls, fragment.Decls...)
	}

	programInfo, err := analysis.AnalyzeOneUnit(parse.SourceUnit{Clauses: clauses, Decls: decls}, nil)
	if err != nil {
		return err
	}

	e.programInfo = programInfo
	e.predicateIndex = make(map[string]ast.PredicateSym, len(programInfo.Decls))
	for sym := range programInfo.Decls {
		e.predicateIndex[sym.Symbol] = sym
	}
	return nil
}

// AddFacts inserts extensional facts. Rules are not evaluated until Evaluate.
func (e *Engine) AddFacts(facts []Fact) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no schemas loaded; call LoadSchemaString first")
	}

	for _, fact := range facts {
		if err := e.insertFactLocked(fact); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) insertFactLocked(fact Fact) error {
	if e.config.FactLimit > 0 && e.factCount >= e.config.FactLimit {
		return fmt.Errorf("fact limit exceeded: %d", e.config.FactLimit)
	}

	sym, ok := e.predicateIndex[fact.Predicate]
	if !ok {
		return fmt.Errorf("predicate %s is not declared in schemas", fact.Predicate)
	}
	if len(fact.Args) != sym.Arity {
		return fmt.Errorf("predicate %s expects %d args, got %d", fact.Predicate, sym.Arity, len(fact.Args))
	}

	args := make([]ast.BaseTerm, len(fact.Args))
	for i, raw := range fact.Args {
		term, err := convertValueToTerm(raw)
		if err != nil {
			return fmt.Errorf("predicate %s arg %d: %w", fact.Predicate, i, err)
		}
		args[i] = term
	}

	if e.store.Add(ast.Atom{Predicate: sym, Args: args}) {
		e.factCount++
	}
	return nil
}

// Evaluate runs all loaded rules to fixpoint over the current store.
func (e *Engine) Evaluate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no schemas loaded; call LoadSchemaString first")
	}
	if _, err := mengine.EvalProgramWithStats(e.programInfo, e.store); err != nil {
		return fmt.Errorf("rule evaluation failed: %w", err)
	}
	return nil
}

// GetFacts retrieves all facts for a given predicate, sorted by their
// Datalog representation.
func (e *Engine) GetFacts(predicate string) ([]Fact, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sym, ok := e.predicateIndex[predicate]
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", predicate)
	}

	var results []Fact
	err := e.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		args := make([]interface{}, len(atom.Args))
		for i, arg := range atom.Args {
			args[i] = convertBaseTermToInterface(arg)
		}
		results = append(results, Fact{Predicate: predicate, Args: args})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].String() < results[j].String()
	})
	return results, nil
}

// FactCount returns the number of extensional facts inserted.
func (e *Engine) FactCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.factCount
}

func convertValueToTerm(value interface{}) (ast.BaseTerm, error) {
	switch v := value.(type) {
	case ast.BaseTerm:
		return v, nil
	case string:
		return ast.String(v), nil
	case int:
		return ast.Number(int64(v)), nil
	case int64:
		return ast.Number(v), nil
	case float64:
		return ast.Float64(v), nil
	case bool:
		if v {
			return ast.TrueConstant, nil
		}
		return ast.FalseConstant, nil
	default:
		return nil, fmt.Errorf("unsupported fact argument type %T", v)
	}
}

func convertBaseTermToInterface(term ast.BaseTerm) interface{} {
	constant, ok := term.(ast.Constant)
	if !ok {
		return fmt.Sprintf("%v", term)
	}
	switch constant.Type {
	case ast.StringType, ast.NameType, ast.BytesType:
		return constant.Symbol
	case ast.NumberType:
		return constant.NumValue
	case ast.Float64Type:
		return math.Float64frombits(uint64(constant.NumValue))
	default:
		return constant.String()
	}
}
