package markup

import "strings"

// Element is a raw-text element such as <script> or <style>, whose content is
// not tokenized and ends at the first literal closing tag.
type Element struct {
	Open         Token
	ContentStart int
	ContentEnd   int
	// End is the offset just past the closing tag.
	End int
}

// Start is the offset of the opening tag.
func (e Element) Start() int { return e.Open.Start }

// Content returns the element body.
func (e Element) Content(doc string) string { return doc[e.ContentStart:e.ContentEnd] }

// Outer returns the element including both tags.
func (e Element) Outer(doc string) string { return doc[e.Open.Start:e.End] }

// RawElements returns every label element in document order. Elements
// without a closing tag end the search.
func RawElements(doc, label string) []Element {
	var out []Element
	sc := NewScanner(doc, 0)
	for {
		tok, ok := sc.NextTag()
		if !ok {
			return out
		}
		if tok.Kind != OpeningTag || tok.Label != label {
			continue
		}
		if tok.SelfClosing() {
			out = append(out, Element{Open: tok, ContentStart: tok.End, ContentEnd: tok.End, End: tok.End})
			continue
		}
		contentEnd, end, ok := RawEnd(doc, tok)
		if !ok {
			return out
		}
		el := Element{Open: tok, ContentStart: tok.End, ContentEnd: contentEnd, End: end}
		out = append(out, el)
		sc.Seek(el.End)
	}
}

// RawEnd locates the closing tag of the raw-text element opened by open. It
// returns the start and end offsets of that closing tag.
func RawEnd(doc string, open Token) (int, int, bool) {
	rel := indexFold(doc[open.End:], "</"+open.Label)
	if rel < 0 {
		return 0, 0, false
	}
	start := open.End + rel
	gt := strings.IndexByte(doc[start:], '>')
	if gt < 0 {
		return 0, 0, false
	}
	return start, start + gt + 1, true
}

// EachTag calls fn for every tag in document order. Bodies of script and
// style elements are skipped. It returns the scanner error, if any.
func EachTag(doc string, fn func(Token)) error {
	sc := NewScanner(doc, 0)
	for {
		tok, ok := sc.NextTag()
		if !ok {
			return sc.Err()
		}
		fn(tok)
		skipRawText(sc, doc, tok)
	}
}

// skipRawText moves sc to the closing tag of a script or style element
// opened by tok, so that markup-like text in its body is not tokenized.
func skipRawText(sc *Scanner, doc string, tok Token) {
	if tok.Kind != OpeningTag || (tok.Label != "script" && tok.Label != "style") || tok.SelfClosing() {
		return
	}
	if start, _, ok := RawEnd(doc, tok); ok {
		sc.Seek(start)
	}
}

// indexFold is strings.Index with ASCII case folding of needle.
func indexFold(s, needle string) int {
	n := len(needle)
	for i := 0; i+n <= len(s); i++ {
		if s[i] == '<' && strings.EqualFold(s[i:i+n], needle) {
			return i
		}
	}
	return -1
}
