package prevue

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// parseDocument parses raw as a full HTML document. golang.org/x/net/html's
// Parse always runs the standard HTML5 tree construction algorithm, which
// synthesizes a <head> and <body> when the input carries neither — that is
// what spec's "body wrapper is synthesized if absent" refers to, so no
// separate fragment-parsing path is needed.
func parseDocument(raw string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return doc, nil
}

// serialize renders doc back to an HTML5-conformant string.
func serialize(doc *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	return buf.String(), nil
}
