// Package transform holds the passes that rewrite a snapshot: indentation,
// anonymization and script/style suppression. Every pass is a pure function
// from document to document.
package transform

import (
	"strings"

	"github.com/hyperifyio/snapstrip/internal/markup"
)

// DefaultIndentWidth is the number of spaces per nesting level.
const DefaultIndentWidth = 2

// Pretty puts every tag on its own line, indented by nesting depth. A closing
// tag lines up with its opening tag, void elements and text sit one level
// deeper than the element that holds them. Whitespace-only text
// is dropped. Script and style bodies are kept as one content unit. Block
// comments are stripped first.
func Pretty(doc string, unit int) string {
	if unit <= 0 {
		unit = DefaultIndentWidth
	}
	doc = markup.StripBlockComments(doc)

	var b strings.Builder
	b.Grow(len(doc) + len(doc)/4)
	sc := markup.NewScanner(doc, 0)
	depth := -1
	seenTag := false
	for {
		tok, ok := sc.Next()
		if !ok {
			break
		}
		raw := tok.Raw()
		if tok.Kind == markup.Content {
			if !seenTag {
				// prologue such as the DOCTYPE stays as is
				b.WriteString(raw)
				continue
			}
			if !markup.IsBlank(raw) {
				writeIndented(&b, raw, depth+1, unit)
			}
			continue
		}
		seenTag = true
		switch {
		case markup.IsVoid(tok.Label) || tok.SelfClosing():
			writeIndented(&b, raw, depth+1, unit)
		case tok.Kind == markup.ClosingTag:
			writeIndented(&b, raw, depth, unit)
			depth--
		default:
			depth++
			writeIndented(&b, raw, depth, unit)
			if tok.Label == "script" || tok.Label == "style" {
				// the body is one content unit, markup-like text included
				if start, _, ok := markup.RawEnd(doc, tok); ok {
					if body := doc[tok.End:start]; !markup.IsBlank(body) {
						writeIndented(&b, body, depth+1, unit)
					}
					sc.Seek(start)
				}
			}
		}
	}
	b.WriteString(doc[sc.Pos():])
	return b.String()
}

func writeIndented(b *strings.Builder, s string, depth, unit int) {
	if depth < 0 {
		depth = 0
	}
	b.WriteString("\r\n")
	b.WriteString(strings.Repeat(" ", depth*unit))
	b.WriteString(s)
}
