package prevue

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/morugetsm/prevue/internal/helpers"
)

// traverseDocument runs the depth-first walk over the whole parsed document,
// mutating it in place per the Directive Processor's decisions.
func traverseDocument(doc *html.Node, ev *Evaluator) {
	hydrate(doc, ev)
	processChildren(doc, ev)
}

// processChildren walks n's children depth-first: snapshot first so
// splicing/removal during the loop never invalidates iteration, then dispatch
// each child through the v-pre/hydrate/Directive-Processor pipeline, fresh
// in_chain/chain_hit state for this parent.
func processChildren(n *html.Node, ev *Evaluator) {
	children := snapshotChildren(n)
	inChain, chainHit := false, false
	for _, child := range children {
		nodes := processOneChild(child, ev, &inChain, &chainHit)
		if len(nodes) == 1 && nodes[0] == child {
			continue // kept in place; its own children were already recursed into
		}
		spliceReplace(child, nodes)
	}
}

func snapshotChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// processChildFresh processes n as an independent unit (not part of a
// sibling if-chain run) — used for v-for/v-if target nodes, which are
// themselves full directive hosts in their own right.
func processChildFresh(n *html.Node, ev *Evaluator) []*html.Node {
	inChain, chainHit := false, false
	return processOneChild(n, ev, &inChain, &chainHit)
}

// processOneChild is the per-child pipeline of §4.5: v-pre short-circuit,
// hydrate, dispatch to the Directive Processor, and (when kept) recurse into
// its own children. The returned slice either is exactly []{n} (n stands as
// the final node, already recursed into) or is a fresh replacement list
// (already fully processed) ready to be spliced in place of n.
func processOneChild(n *html.Node, ev *Evaluator, inChain, chainHit *bool) []*html.Node {
	if n.Type == html.ElementNode && helpers.HasAttr(n, "v-pre") {
		helpers.RemoveAttr(n, "v-pre")
		// Nothing in a v-pre subtree is processed, except that every <template>
		// nested inside it has its children emptied, as a plain <template> does
		// elsewhere.
		var clearTemplates func(p *html.Node)
		clearTemplates = func(p *html.Node) {
			for c := p.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == "template" {
					clearChildren(c)
				} else {
					clearTemplates(c)
				}
			}
		}
		clearTemplates(n)
		return []*html.Node{n}
	}

	hydrate(n, ev)
	replace, nodes := processDirectives(n, ev, inChain, chainHit)
	if replace {
		return nodes
	}

	processChildren(n, ev)
	return []*html.Node{n}
}

// spliceReplace implements §4.4.5: removing host with an empty list also
// collapses its now-orphaned leading whitespace; a non-empty list is
// inserted contiguously in host's place.
//
// A preceding sibling that is entirely whitespace is removed along with
// host: it carried no content of its own, only host's indentation. A
// sibling that is not purely whitespace but ends in a blank run after its
// last newline (e.g. "hi\n  ") keeps its non-blank content but is truncated
// to that last newline, since the blank run was host's indentation too.
// Any other sibling (no trailing newline, or no blank run after it) is
// left untouched.
func spliceReplace(host *html.Node, nodes []*html.Node) {
	if len(nodes) == 0 {
		if sib := host.PrevSibling; sib != nil && sib.Type == html.TextNode {
			if helpers.IsWhitespaceText(sib) {
				helpers.Remove(sib)
			} else if idx := strings.LastIndexByte(sib.Data, '\n'); idx != -1 {
				afterNL := sib.Data[idx+1:]
				if afterNL != "" && strings.TrimSpace(afterNL) == "" {
					sib.Data = sib.Data[:idx+1]
				}
			}
		}
		helpers.Remove(host)
		return
	}
	helpers.InsertListAt(host, nodes)
}
