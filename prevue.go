// Package prevue renders an HTML template carrying Vue-style single-file
// directives (v-if/v-else-if/v-else, v-for, v-bind, v-pre, mustache
// interpolation) against a data payload, producing plain HTML.
package prevue

// Render parses html as a full HTML document, seeds the expression
// evaluator from data (top-level fields of a JSON object become top-level
// bindings; a non-object payload seeds nothing), walks the document
// rewriting directives in place, and serializes the result.
//
// Parse, serialize and payload-seeding failures are returned as errors.
// Failures inside the template — a bad expression, a malformed v-for, a scope
// that could not be entered — are contained locally per directive and never
// reach this return value.
func Render(htmlSrc string, data any) (string, error) {
	doc, err := parseDocument(htmlSrc)
	if err != nil {
		return "", err
	}

	ev, err := NewEvaluator()
	if err != nil {
		return "", err
	}
	defer ev.Close()

	if err := ev.Seed(data); err != nil {
		return "", err
	}

	traverseDocument(doc, ev)

	return serialize(doc)
}
