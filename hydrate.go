package prevue

import (
	"regexp"
	"sort"

	"golang.org/x/net/html"

	"github.com/morugetsm/prevue/internal/helpers"
)

// mustacheRe matches a {{ expr }} interpolation token. The body is matched
// lazily up to the first "}}", so it may itself contain single braces (an
// object literal like {{ {a:1} }}), just not a literal "}}".
var mustacheRe = regexp.MustCompile(`\{\{\s*(.+?)\s*\}\}`)

var bindArgRe = regexp.MustCompile(`^(?:v-bind:|:)(.+)$`)
var dynamicArgRe = regexp.MustCompile(`^\[(.+)\]$`)

// hydrate runs the Attribute Rewriter on a single node: v-bind expansion on
// elements, mustache substitution on text nodes. It must run before the
// Directive Processor examines the same node.
func hydrate(n *html.Node, ev *Evaluator) {
	switch n.Type {
	case html.ElementNode:
		hydrateElement(n, ev)
	case html.TextNode:
		n.Data = hydrateText(n.Data, ev)
	}
}

type bindRename struct {
	index          int
	newKey, newVal string
}

type bindRemoval struct {
	index int
}

type bindAddition struct {
	key, val string
}

func hydrateElement(n *html.Node, ev *Evaluator) {
	var renames []bindRename
	var removals []bindRemoval
	var additions []bindAddition

	for i, attr := range n.Attr {
		switch {
		case attr.Key == "v-bind":
			val, err := ev.Eval(attr.Val)
			if err != nil || val.Kind != KindObject {
				continue // leave the attribute in place, unexpanded
			}
			entries, _ := val.objectEntries()
			for _, e := range entries {
				if e.Value == nil {
					continue
				}
				additions = append(additions, bindAddition{key: e.Key, val: stringifyBindValue(e.Value)})
			}
			removals = append(removals, bindRemoval{index: i})

		case bindArgRe.MatchString(attr.Key):
			m := bindArgRe.FindStringSubmatch(attr.Key)
			rawArg := m[1]

			if dyn := dynamicArgRe.FindStringSubmatch(rawArg); dyn != nil {
				name, ok := ev.EvalString(dyn[1])
				if !ok {
					removals = append(removals, bindRemoval{index: i})
					continue
				}
				if attr.Val == "" {
					removals = append(removals, bindRemoval{index: i})
					continue
				}
				value, ok := ev.EvalString(attr.Val)
				if !ok {
					removals = append(removals, bindRemoval{index: i})
					continue
				}
				renames = append(renames, bindRename{index: i, newKey: name, newVal: value})
				continue
			}

			if !helpers.IsBindArgToken(rawArg) {
				continue // not a recognized bind form; leave untouched
			}
			exprToEval := attr.Val
			if exprToEval == "" {
				exprToEval = rawArg // shorthand: value is the arg evaluated as an expression
			}
			value, ok := ev.EvalString(exprToEval)
			if !ok {
				removals = append(removals, bindRemoval{index: i})
				continue
			}
			renames = append(renames, bindRename{index: i, newKey: rawArg, newVal: value})
		}
	}

	applyBindPlan(n, renames, removals, additions)
}

func applyBindPlan(n *html.Node, renames []bindRename, removals []bindRemoval, additions []bindAddition) {
	for _, r := range renames {
		n.Attr[r.index].Key = r.newKey
		n.Attr[r.index].Val = r.newVal
	}

	sort.Slice(removals, func(i, j int) bool { return removals[i].index > removals[j].index })
	for _, r := range removals {
		n.Attr = append(n.Attr[:r.index], n.Attr[r.index+1:]...)
	}

	for _, a := range additions {
		helpers.SetAttr(n, a.key, a.val)
	}
}

// stringifyBindValue implements v-bind object-form's value stringification:
// the raw string for string values, the JSON serialization otherwise.
func stringifyBindValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := marshalOrdered(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// hydrateText substitutes every {{ expr }} mustache in s with its eval_string
// result (empty string on failure), right-to-left so earlier offsets stay
// valid.
func hydrateText(s string, ev *Evaluator) string {
	matches := mustacheRe.FindAllStringSubmatchIndex(s, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		expr := s[m[2]:m[3]]
		val, ok := ev.EvalString(expr)
		if !ok {
			val = ""
		}
		s = s[:m[0]] + val + s[m[1]:]
	}
	return s
}
