package transcript

import (
	"bytes"
	"encoding/json"
	"strings"

	"tlscore/internal/facts"
	"tlscore/internal/logging"

	"go.uber.org/zap"
)

// Object is a JSON object parsed from a transcript block. Presence checks
// replace ad-hoc key probing: Request and ToolOutput return a typed view only
// when the object has the keys that define that artifact.
type Object struct {
	Raw    string
	fields map[string]json.RawMessage
}

// Validate strictly parses a candidate block as a JSON object. It reports
// whether the block is valid, the parsed object, and the parse error text.
func Validate(block string) (bool, Object, string) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return false, Object{}, err.Error()
	}
	if fields == nil {
		return false, Object{}, "not a JSON object"
	}
	return true, Object{Raw: block, fields: fields}, ""
}

// ValidObjects validates every block and keeps the valid ones in order.
// Invalid blocks are dropped; they are logged at debug level only.
func ValidObjects(blocks []string) []Object {
	log := logging.Get(logging.CategoryScanner)
	objects := make([]Object, 0, len(blocks))
	for i, b := range blocks {
		ok, obj, msg := Validate(b)
		if !ok {
			log.Debug("skipping invalid JSON block", zap.Int("index", i), zap.String("error", msg))
			continue
		}
		objects = append(objects, obj)
	}
	return objects
}

// Has reports whether the object has the given top-level key.
func (o Object) Has(key string) bool {
	_, ok := o.fields[key]
	return ok
}

// Request is the agent's call to the reasoning tool: a program plus facts.
type Request struct {
	program json.RawMessage
	facts   json.RawMessage
}

// Request returns the request view when the object has a "program" key.
func (o Object) Request() (*Request, bool) {
	if !o.Has("program") {
		return nil, false
	}
	return &Request{program: o.fields["program"], facts: o.fields["facts"]}, true
}

// RuleCount is the length of program.rules, or 0 when absent or not an array.
// Keys match exactly; "Rules" is not "rules".
func (r *Request) RuleCount() int {
	var program map[string]json.RawMessage
	if err := json.Unmarshal(r.program, &program); err != nil {
		return 0
	}
	return len(arrayElems(program["rules"]))
}

// FactCount is the length of the request's facts, or 0 when absent or not an array.
func (r *Request) FactCount() int {
	return len(arrayElems(r.facts))
}

// ToolOutput is the reasoning tool's response: a status and derived facts.
type ToolOutput struct {
	status json.RawMessage
	facts  json.RawMessage
}

// ToolOutput returns the output view when the object has both "status" and
// "facts" keys.
func (o Object) ToolOutput() (*ToolOutput, bool) {
	if !o.Has("status") || !o.Has("facts") {
		return nil, false
	}
	return &ToolOutput{status: o.fields["status"], facts: o.fields["facts"]}, true
}

// Status returns the status value as text. String values are unquoted.
func (t *ToolOutput) Status() string {
	return scalarText(t.status)
}

// Atoms returns one atom per entry of facts[*].atom. An entry without an
// atom yields the empty atom "()". Entries that are not objects are skipped.
func (t *ToolOutput) Atoms() []facts.Atom {
	var atoms []facts.Atom
	for _, entry := range arrayElems(t.facts) {
		var fact map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fact); err != nil || fact == nil {
			continue
		}

		var atom facts.Atom
		var parts map[string]json.RawMessage
		if raw, ok := fact["atom"]; ok && json.Unmarshal(raw, &parts) == nil {
			atom.Pred = scalarText(parts["pred"])
			for _, arg := range arrayElems(parts["args"]) {
				atom.Args = append(atom.Args, scalarText(arg))
			}
		}
		atoms = append(atoms, atom)
	}
	return atoms
}

// AtomStrings returns the canonical strings of Atoms.
func (t *ToolOutput) AtomStrings() []string {
	atoms := t.Atoms()
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.String()
	}
	return out
}

// Artifacts are the first request and first tool output found, in
// extraction order. Either may be nil.
type Artifacts struct {
	Request *Request
	Output  *ToolOutput
}

// Classify picks the first request object and the first tool output object.
// A single object may serve as both.
func Classify(objects []Object) Artifacts {
	var a Artifacts
	for _, obj := range objects {
		if a.Request == nil {
			if req, ok := obj.Request(); ok {
				a.Request = req
			}
		}
		if a.Output == nil {
			if out, ok := obj.ToolOutput(); ok {
				a.Output = out
			}
		}
		if a.Request != nil && a.Output != nil {
			break
		}
	}
	return a
}

func arrayElems(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	return elems
}

// scalarText renders a JSON value for atom text: strings unquoted, anything
// else as compact JSON. A missing value renders empty.
func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
