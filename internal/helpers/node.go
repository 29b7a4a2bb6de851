// Package helpers provides HTML node manipulation utilities for prevue.
package helpers

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// GetAttr returns the value of an attribute by key, or empty string if not found.
func GetAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries an attribute with the given key.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets key to val, overwriting any existing attribute of the same key.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes an attribute from a node by key, if present.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// DeepClone allocates a new node of the same kind, recursively cloning children
// and rewiring parent back-references to the new clones. The clone has no
// parent and no siblings of its own; callers splice it in with InsertAfter
// or by linking FirstChild/NextSibling directly.
func DeepClone(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}

	var prev *html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cc := DeepClone(c)
		cc.Parent = clone
		if prev == nil {
			clone.FirstChild = cc
		} else {
			prev.NextSibling = cc
			cc.PrevSibling = prev
		}
		prev = cc
	}
	clone.LastChild = prev

	return clone
}

// InsertAfter locates anchor in its parent's children and inserts newNode
// immediately after it, reparenting newNode to anchor's parent.
func InsertAfter(anchor, newNode *html.Node) {
	parent := anchor.Parent
	if parent == nil {
		return
	}
	newNode.Parent = parent
	newNode.PrevSibling = anchor
	newNode.NextSibling = anchor.NextSibling
	if anchor.NextSibling != nil {
		anchor.NextSibling.PrevSibling = newNode
	} else {
		parent.LastChild = newNode
	}
	anchor.NextSibling = newNode
}

// Remove detaches node from its parent's children and clears its parent
// back-reference. A no-op if node has no parent.
func Remove(node *html.Node) {
	parent := node.Parent
	if parent == nil {
		return
	}
	if node.PrevSibling != nil {
		node.PrevSibling.NextSibling = node.NextSibling
	} else {
		parent.FirstChild = node.NextSibling
	}
	if node.NextSibling != nil {
		node.NextSibling.PrevSibling = node.PrevSibling
	} else {
		parent.LastChild = node.PrevSibling
	}
	node.Parent = nil
	node.PrevSibling = nil
	node.NextSibling = nil
}

// InsertListAt removes host from its parent and splices nodes into its place,
// contiguously, reparenting each to host's former parent. If nodes is empty
// this degenerates to removing host.
func InsertListAt(host *html.Node, nodes []*html.Node) {
	parent := host.Parent
	if parent == nil {
		return
	}
	anchor := host
	for _, n := range nodes {
		InsertAfter(anchor, n)
		anchor = n
	}
	Remove(host)
}

// IsWhitespaceText reports whether node is a Text node whose contents are
// entirely Unicode whitespace (an empty Text node counts as whitespace-only
// too, vacuously).
func IsWhitespaceText(node *html.Node) bool {
	if node == nil || node.Type != html.TextNode {
		return false
	}
	for _, r := range node.Data {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// LeadingIndent returns the indentation that would precede host if it were
// re-emitted at its current position: the trailing "newline + spaces"
// segment of host's preceding Text sibling, starting at that sibling's last
// newline. The sibling need not be whitespace-only itself (a preceding
// sibling ending "hi  " before the newline still contributes the segment
// after its last newline) — any non-newline character in that trailing
// segment is normalized to a single space so the result is always safe to
// use as pure indentation. Returns "" if there is no preceding Text sibling
// or it contains no newline.
func LeadingIndent(host *html.Node) string {
	sib := host.PrevSibling
	if sib == nil || sib.Type != html.TextNode {
		return ""
	}
	text := sib.Data
	idx := strings.LastIndexByte(text, '\n')
	if idx == -1 {
		return ""
	}
	var b strings.Builder
	for _, r := range text[idx:] {
		if r == '\n' {
			b.WriteRune('\n')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// AdjustIndent shifts every Text node's non-first lines within subtree by
// delta leading spaces (negative to remove, clamped at zero), recursing into
// <template> contents as well as ordinary children.
func AdjustIndent(subtree *html.Node, delta int) {
	if delta == 0 {
		return
	}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			n.Data = shiftLines(n.Data, delta)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(subtree)
}

func shiftLines(s string, delta int) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = shiftLine(lines[i], delta)
	}
	return strings.Join(lines, "\n")
}

func shiftLine(line string, delta int) string {
	if delta > 0 {
		return strings.Repeat(" ", delta) + line
	}
	n := -delta
	i := 0
	for i < len(line) && i < n && line[i] == ' ' {
		i++
	}
	return line[i:]
}
