package prevue

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/morugetsm/prevue/internal/helpers"
)

var vForRe = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)\s*(?:,\s*([A-Za-z_$][\w$]*)\s*(?:,\s*([A-Za-z_$][\w$]*))?)?\s+(?:in|of)\s+(.+)$`)

// processDirectives runs the Directive Processor on host: v-if/v-else-if/
// v-else chain handling, falling through to v-for, falling through to a
// plain keep. inChain/chainHit carry the if-chain state across a parent's
// sibling run and are mutated in place.
//
// Returns replace=false to keep host as-is, or replace=true with the
// (possibly empty) list of nodes that should take host's place.
func processDirectives(host *html.Node, ev *Evaluator, inChain, chainHit *bool) (replace bool, nodes []*html.Node) {
	if helpers.HasAttr(host, "v-if") {
		expr := helpers.GetAttr(host, "v-if")
		helpers.RemoveAttr(host, "v-if")
		*inChain = true
		hit, _ := ev.EvalBool(expr)
		*chainHit = hit
		if hit {
			return true, expandHost(host, ev)
		}
		return true, nil
	}

	if helpers.HasAttr(host, "v-else-if") {
		expr := helpers.GetAttr(host, "v-else-if")
		helpers.RemoveAttr(host, "v-else-if")
		if !*inChain {
			*inChain = false
			return processVFor(host, ev)
		}
		if *chainHit {
			return true, nil
		}
		hit, _ := ev.EvalBool(expr)
		*chainHit = hit
		if hit {
			return true, expandHost(host, ev)
		}
		return true, nil
	}

	if helpers.HasAttr(host, "v-else") {
		helpers.RemoveAttr(host, "v-else")
		if !*inChain {
			*inChain = false
			return processVFor(host, ev)
		}
		wasHit := *chainHit
		*inChain = false
		*chainHit = true
		if !wasHit {
			return true, expandHost(host, ev)
		}
		return true, nil
	}

	*inChain = false
	return processVFor(host, ev)
}

// processVFor reads v-for (if present) and expands it; otherwise the node is
// unconditionally kept, except that a plain <template> with no directive at
// all has its children emptied (they are otherwise unreachable in the
// abstract template_contents model this engine mimics).
func processVFor(host *html.Node, ev *Evaluator) (bool, []*html.Node) {
	if !helpers.HasAttr(host, "v-for") {
		if host.Type == html.ElementNode && host.Data == "template" {
			clearChildren(host)
		}
		return false, nil
	}

	expr := helpers.GetAttr(host, "v-for")
	helpers.RemoveAttr(host, "v-for")
	return true, expandVFor(host, expr, ev)
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		c.Parent = nil
		c.PrevSibling = nil
		c.NextSibling = nil
		c = next
	}
	n.FirstChild = nil
	n.LastChild = nil
}

// expandHost builds and fully processes the target(s) for a fired
// v-if/v-else-if/v-else branch. v-for on the same host is suppressed: there
// is no iteration context, so it is simply discarded rather than evaluated.
func expandHost(host *html.Node, ev *Evaluator) []*html.Node {
	helpers.RemoveAttr(host, "v-for")
	indent := helpers.LeadingIndent(host)
	targets := buildTargets(host)

	var emitted []*html.Node
	for _, t := range targets {
		emitted = append(emitted, processChildFresh(t, ev)...)
	}
	return withIndentSeparators(emitted, indent)
}

// expandVFor evaluates and iterates a v-for expression, producing the full
// expansion of the loop body across every iteration.
func expandVFor(host *html.Node, expr string, ev *Evaluator) []*html.Node {
	valName, keyName, idxName, iterExpr, ok := parseVForExpr(expr)
	if !ok {
		return nil
	}

	wrapped := iterExpr
	if strings.HasPrefix(strings.TrimSpace(iterExpr), "{") {
		wrapped = "(" + iterExpr + ")"
	}
	iterVal, err := ev.Eval(wrapped)
	if err != nil {
		return nil
	}

	iterations := buildIterations(iterVal)
	if len(iterations) == 0 {
		return nil
	}

	indent := helpers.LeadingIndent(host)
	var emitted []*html.Node
	for _, it := range iterations {
		scopeName, err := ev.EnterScope()
		if err != nil {
			continue
		}
		_ = scopeName
		if valName != "" {
			_ = ev.Set(valName, it.val)
		}
		if keyName != "" && it.hasKey {
			_ = ev.Set(keyName, it.key)
		}
		if idxName != "" && it.hasIdx {
			_ = ev.Set(idxName, it.idx)
		}

		for _, t := range buildTargets(host) {
			emitted = append(emitted, processChildFresh(t, ev)...)
		}

		ev.ExitScope()
	}

	return withIndentSeparators(emitted, indent)
}

type forIteration struct {
	val, key, idx any
	hasKey, hasIdx bool
}

func buildIterations(v Value) []forIteration {
	switch v.Kind {
	case KindArray:
		items, _ := v.arrayItems()
		out := make([]forIteration, 0, len(items))
		for i, item := range items {
			out = append(out, forIteration{val: item, key: float64(i), hasKey: true})
		}
		return out
	case KindObject:
		entries, _ := v.objectEntries()
		out := make([]forIteration, 0, len(entries))
		for i, e := range entries {
			out = append(out, forIteration{val: e.Value, key: e.Key, hasKey: true, idx: float64(i), hasIdx: true})
		}
		return out
	case KindNumber:
		n, _ := v.Data.(float64)
		if math.IsInf(n, 0) || n != math.Trunc(n) || n < 1 {
			return nil
		}
		count := int(n)
		out := make([]forIteration, 0, count)
		for i := 0; i < count; i++ {
			out = append(out, forIteration{val: float64(i + 1), key: float64(i), hasKey: true})
		}
		return out
	case KindString:
		s, _ := v.Data.(string)
		var out []forIteration
		i := 0
		for _, r := range s {
			out = append(out, forIteration{val: string(r), key: float64(i), hasKey: true})
			i++
		}
		return out
	default:
		return nil
	}
}

func parseVForExpr(expr string) (valName, keyName, idxName, iterExpr string, ok bool) {
	m := vForRe.FindStringSubmatch(expr)
	if m == nil {
		return "", "", "", "", false
	}
	return m[1], m[2], m[3], strings.TrimSpace(m[4]), true
}

// buildTargets produces the clone(s) that stand in for host in one emission:
// a <template> host unwraps to its (non-whitespace) children reflowed to the
// template's column; any other host clones as a single node.
func buildTargets(host *html.Node) []*html.Node {
	if host.Type == html.ElementNode && host.Data == "template" {
		return buildTemplateTargets(host)
	}
	return []*html.Node{helpers.DeepClone(host)}
}

func buildTemplateTargets(host *html.Node) []*html.Node {
	hostIndent := helpers.LeadingIndent(host)

	var kept []*html.Node
	var contentIndent string
	haveContentIndent := false
	for c := host.FirstChild; c != nil; c = c.NextSibling {
		if helpers.IsWhitespaceText(c) {
			continue
		}
		if !haveContentIndent {
			contentIndent = helpers.LeadingIndent(c)
			haveContentIndent = true
		}
		kept = append(kept, c)
	}

	delta := len(contentIndent) - len(hostIndent)
	targets := make([]*html.Node, 0, len(kept))
	for _, c := range kept {
		clone := helpers.DeepClone(c)
		if delta != 0 {
			helpers.AdjustIndent(clone, -delta)
		}
		targets = append(targets, clone)
	}
	return targets
}

// withIndentSeparators inserts a copy of indent as a standalone Text node
// between every pair of consecutive nodes, so a multi-node emission reflows
// to the column the host originally occupied.
func withIndentSeparators(nodes []*html.Node, indent string) []*html.Node {
	if len(nodes) <= 1 || indent == "" {
		return nodes
	}
	out := make([]*html.Node, 0, len(nodes)*2-1)
	for i, n := range nodes {
		if i > 0 {
			out = append(out, &html.Node{Type: html.TextNode, Data: indent})
		}
		out = append(out, n)
	}
	return out
}
