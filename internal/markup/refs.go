package markup

import "strings"

// StylesheetHref returns the href of a <link> tag that references a .css file.
func StylesheetHref(tok Token) (Attr, bool) {
	if tok.Kind != OpeningTag || tok.Label != "link" {
		return Attr{}, false
	}
	a, ok := tok.Attr("href")
	if !ok || !a.HasValue || a.Quote != '"' || !strings.HasSuffix(a.Value, ".css") {
		return Attr{}, false
	}
	return a, true
}

// Span is a half-open byte range of a document.
type Span struct {
	Start int
	End   int
}

// Text returns doc[s.Start:s.End].
func (s Span) Text(doc string) string { return doc[s.Start:s.End] }

const jsonSrcKey = `"src":"`

// JSONSources returns the value spans of every "src":"..." pair embedded in
// the document, such as the resource maps of deferred-load payloads. Values
// run to the next double quote.
func JSONSources(doc string) []Span {
	var out []Span
	pos := 0
	for {
		i := strings.Index(doc[pos:], jsonSrcKey)
		if i < 0 {
			return out
		}
		start := pos + i + len(jsonSrcKey)
		end := strings.IndexByte(doc[start:], '"')
		if end < 0 {
			return out
		}
		if end > 0 {
			out = append(out, Span{Start: start, End: start + end})
		}
		pos = start + end + 1
	}
}
