package prevue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	v8 "github.com/tommie/v8go"
)

// Kind tags the runtime type of an evaluated expression, mirroring the
// handful of ECMAScript value categories the directive engine needs to
// branch on.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindString
	KindBoolean
	KindNumber
	KindObject
	KindArray
)

// Value is a tagged evaluation result. Data holds a Go-native
// representation: nil for null/undefined, string, bool, float64,
// []any (array) or []ObjectEntry (object, order-preserving).
type Value struct {
	Kind Kind
	Data any
}

func (v Value) nullish() bool {
	return v.Kind == KindNull || v.Kind == KindUndefined
}

// ObjectEntry is one own property of an evaluated plain object, in the
// insertion order JSON.stringify produced it in, since v-for's object
// iteration and v-bind's object-form expansion both depend on that order.
type ObjectEntry struct {
	Key   string
	Value any
}

// Evaluator evaluates expressions against a stack of nested lexical scopes,
// backed by a real embedded ECMAScript engine so that statement sequences,
// `let` bindings and the rest of the language are available inside mustaches
// and directive attributes, not just a restricted expression subset.
//
// An Evaluator is not safe for concurrent use; render holds it for the
// duration of exactly one render call.
type Evaluator struct {
	iso *v8.Isolate
	ctx *v8.Context

	scopeNames   []string
	scopeCounter int
}

// NewEvaluator creates an Evaluator with a fresh, empty global scope.
func NewEvaluator() (*Evaluator, error) {
	iso := v8.NewIsolate()
	ctx := v8.NewContext(iso)
	return &Evaluator{iso: iso, ctx: ctx}, nil
}

// Close releases the underlying V8 context and isolate. Callers should defer
// Close after a render completes.
func (e *Evaluator) Close() {
	e.ctx.Close()
	e.iso.Dispose()
}

// Seed installs payload's top-level fields as bindings on the base (global)
// scope. A payload that is not a JSON object seeds nothing, per spec.
func (e *Evaluator) Seed(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}
	if !looksLikeObject(data) {
		return nil
	}
	script := fmt.Sprintf("Object.assign(globalThis, JSON.parse(%s));", strconv.Quote(string(data)))
	if _, err := e.ctx.RunScript(script, "prevue/seed.js"); err != nil {
		return fmt.Errorf("seeding payload: %w", err)
	}
	return nil
}

func looksLikeObject(jsonData []byte) bool {
	trimmed := strings.TrimSpace(string(jsonData))
	return strings.HasPrefix(trimmed, "{")
}

// EnterScope pushes a new, empty named scope onto the stack and returns its
// handle. Every successful EnterScope must be paired with ExitScope. A failed
// EnterScope pushes nothing, so a loop iteration skipped because scope entry
// failed has no scope to exit.
func (e *Evaluator) EnterScope() (string, error) {
	e.scopeCounter++
	name := fmt.Sprintf("__prevue_scope_%d", e.scopeCounter)
	script := fmt.Sprintf("globalThis[%q] = Object.create(null);", name)
	if _, err := e.ctx.RunScript(script, "prevue/enter_scope.js"); err != nil {
		return "", fmt.Errorf("entering scope: %w", err)
	}
	e.scopeNames = append(e.scopeNames, name)
	return name, nil
}

// ExitScope pops the innermost scope and deletes its binding from the
// global object so no later expression can observe it.
func (e *Evaluator) ExitScope() {
	n := len(e.scopeNames)
	if n == 0 {
		return
	}
	name := e.scopeNames[n-1]
	e.scopeNames = e.scopeNames[:n-1]
	script := fmt.Sprintf("delete globalThis[%q];", name)
	_, _ = e.ctx.RunScript(script, "prevue/exit_scope.js")
}

// Set assigns name to value in the innermost scope (or the base scope if no
// v-for iteration scope is currently entered).
func (e *Evaluator) Set(name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", name, err)
	}
	target := "globalThis"
	if n := len(e.scopeNames); n > 0 {
		target = fmt.Sprintf("globalThis[%q]", e.scopeNames[n-1])
	}
	script := fmt.Sprintf("%s[%q] = JSON.parse(%s);", target, name, strconv.Quote(string(data)))
	if _, err := e.ctx.RunScript(script, "prevue/set.js"); err != nil {
		return fmt.Errorf("binding %s: %w", name, err)
	}
	return nil
}

// wrapWithScopes nests expr inside a `with` block per active scope, innermost
// scope closest to expr so that identifier resolution consults it first and
// falls back outward through older scopes to the global (base) scope last.
//
// expr is first wrapped in a bare block so any top-level `let`/`const` it
// declares stays confined to that block rather than leaking into the
// Context's persistent global lexical environment, which V8 otherwise
// carries across separate RunScript calls — without this, `let x=1` in one
// mustache would make `x` visible to an unrelated sibling mustache. A block
// statement's completion value is still its last statement's value, so
// `{{ let x=1; x }}` keeps evaluating to 1.
func (e *Evaluator) wrapWithScopes(expr string) string {
	src := fmt.Sprintf("{\n%s\n}", expr)
	for i := len(e.scopeNames) - 1; i >= 0; i-- {
		src = fmt.Sprintf("with (globalThis[%q]) {\n%s\n}", e.scopeNames[i], src)
	}
	return src
}

// Eval evaluates expr (an expression or statement sequence, the value of the
// last statement being the result) against the current scope stack and
// returns a tagged Value.
func (e *Evaluator) Eval(expr string) (Value, error) {
	wrapped := e.wrapWithScopes(expr)
	result, err := e.ctx.RunScript(wrapped, "prevue/eval.js")
	if err != nil {
		return Value{}, fmt.Errorf("evaluating %q: %w", expr, err)
	}

	if err := e.ctx.Global().Set("__prevue_last", result); err != nil {
		return Value{}, fmt.Errorf("capturing result of %q: %w", expr, err)
	}
	classified, err := e.ctx.RunScript(classifyScript, "prevue/classify.js")
	if err != nil {
		return Value{}, fmt.Errorf("classifying result of %q: %w", expr, err)
	}

	var wire wireValue
	if err := json.Unmarshal([]byte(classified.String()), &wire); err != nil {
		return Value{}, fmt.Errorf("decoding result of %q: %w", expr, err)
	}
	return wire.toValue(), nil
}

// classifyScript inspects globalThis.__prevue_last (set immediately after an
// Eval's RunScript call) and reports its kind plus a JSON-safe value,
// special-casing NaN/Infinity which JSON.stringify cannot represent.
const classifyScript = `(function(){
	var v = globalThis.__prevue_last;
	delete globalThis.__prevue_last;
	if (v === undefined) return JSON.stringify({kind:"undefined"});
	if (v === null) return JSON.stringify({kind:"null"});
	var t = typeof v;
	if (t === "string") return JSON.stringify({kind:"string", value:v});
	if (t === "boolean") return JSON.stringify({kind:"boolean", value:v});
	if (t === "number") {
		if (v !== v) return JSON.stringify({kind:"number", special:"nan"});
		if (v === Infinity) return JSON.stringify({kind:"number", special:"inf"});
		if (v === -Infinity) return JSON.stringify({kind:"number", special:"-inf"});
		return JSON.stringify({kind:"number", value:v});
	}
	if (Array.isArray(v)) return JSON.stringify({kind:"array", value:v});
	if (t === "object") return JSON.stringify({kind:"object", value:v});
	return JSON.stringify({kind:"string", value:String(v)});
})()`

type wireValue struct {
	Kind    string          `json:"kind"`
	Value   json.RawMessage `json:"value"`
	Special string          `json:"special"`
}

func (w wireValue) toValue() Value {
	switch w.Kind {
	case "undefined":
		return Value{Kind: KindUndefined}
	case "null":
		return Value{Kind: KindNull}
	case "string":
		var s string
		_ = json.Unmarshal(w.Value, &s)
		return Value{Kind: KindString, Data: s}
	case "boolean":
		var b bool
		_ = json.Unmarshal(w.Value, &b)
		return Value{Kind: KindBoolean, Data: b}
	case "number":
		switch w.Special {
		case "nan":
			return Value{Kind: KindNumber, Data: math.NaN()}
		case "inf":
			return Value{Kind: KindNumber, Data: math.Inf(1)}
		case "-inf":
			return Value{Kind: KindNumber, Data: math.Inf(-1)}
		}
		var f float64
		_ = json.Unmarshal(w.Value, &f)
		return Value{Kind: KindNumber, Data: f}
	case "array":
		decoded, _ := decodeOrderedJSON(w.Value)
		arr, _ := decoded.([]any)
		return Value{Kind: KindArray, Data: arr}
	case "object":
		decoded, _ := decodeOrderedJSON(w.Value)
		entries, _ := decoded.([]ObjectEntry)
		return Value{Kind: KindObject, Data: entries}
	}
	return Value{Kind: KindUndefined}
}

// decodeOrderedJSON parses a single JSON value, returning plain objects as
// []ObjectEntry (key order preserved) instead of the order-losing
// map[string]any that encoding/json would otherwise produce.
func decodeOrderedJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeOrderedValue(dec)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeOrderedValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var entries []ObjectEntry
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				val, err := decodeOrderedValue(dec)
				if err != nil {
					return nil, err
				}
				entries = append(entries, ObjectEntry{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil { // consume closing '}'
				return nil, err
			}
			return entries, nil
		case '[':
			var items []any
			for dec.More() {
				val, err := decodeOrderedValue(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil { // consume closing ']'
				return nil, err
			}
			return items, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		f, err := t.Float64()
		return f, err
	default:
		return t, nil
	}
}

// marshalOrdered renders a decodeOrderedJSON-shaped value back to JSON text,
// preserving []ObjectEntry key order.
func marshalOrdered(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case []ObjectEntry:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(e.Key)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			child, err := marshalOrdered(e.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(child)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			child, err := marshalOrdered(item)
			if err != nil {
				return nil, err
			}
			buf.Write(child)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	default:
		return json.Marshal(val)
	}
}

// EvalString evaluates expr and returns its string coercion per spec §4.1:
// nothing for null/undefined/error, the raw string for string values, JSON
// for plain objects/arrays, and the canonical display form otherwise.
func (e *Evaluator) EvalString(expr string) (string, bool) {
	val, err := e.Eval(expr)
	if err != nil {
		return "", false
	}
	return val.asDisplayString()
}

func (v Value) asDisplayString() (string, bool) {
	switch v.Kind {
	case KindNull, KindUndefined:
		return "", false
	case KindString:
		return v.Data.(string), true
	case KindObject, KindArray:
		data, err := marshalOrdered(v.Data)
		if err != nil {
			return "", false
		}
		return string(data), true
	case KindBoolean:
		if v.Data.(bool) {
			return "true", true
		}
		return "false", true
	case KindNumber:
		return formatNumber(v.Data.(float64)), true
	}
	return "", false
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// EvalBool evaluates expr and returns its standard ECMAScript truthiness. An
// evaluation error is treated as false, per spec §7 (errors in v-if/
// v-else-if are localized to "treated as false").
func (e *Evaluator) EvalBool(expr string) (bool, error) {
	val, err := e.Eval(expr)
	if err != nil {
		return false, err
	}
	return val.truthy(), nil
}

// objectEntries returns v's own properties in insertion order, if v is a
// plain object.
func (v Value) objectEntries() ([]ObjectEntry, bool) {
	if v.Kind != KindObject {
		return nil, false
	}
	entries, _ := v.Data.([]ObjectEntry)
	return entries, true
}

// arrayItems returns v's elements in index order, if v is an array.
func (v Value) arrayItems() ([]any, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	items, _ := v.Data.([]any)
	return items, true
}

func (v Value) truthy() bool {
	switch v.Kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.Data.(bool)
	case KindString:
		return v.Data.(string) != ""
	case KindNumber:
		f := v.Data.(float64)
		if math.IsNaN(f) {
			return false
		}
		return f != 0
	case KindObject, KindArray:
		return true
	}
	return false
}
