package markup

// Extraction is the outcome of cutting the content of an anchored element out
// of a document.
type Extraction struct {
	// Subtree is the markup between the anchor's opening tag and its matching
	// closing tag. It may be empty even when Found is true.
	Subtree string
	// Document is the input with Subtree removed, or the unmodified input when
	// Found is false.
	Document string
	// Found is false when the anchor is missing or its element never closes.
	Found bool
	// Start is the seam in Document where Subtree was cut; End is the offset
	// in the original document where the cut ended.
	Start int
	End   int
}

// Splice puts the subtree back at its seam, reproducing the original input.
func (e Extraction) Splice() string {
	if !e.Found {
		return e.Document
	}
	return e.Document[:e.Start] + e.Subtree + e.Document[e.Start:]
}

// FindAnchor returns the first opening tag whose id attribute equals anchor.
func FindAnchor(doc, anchor string) (Token, bool) {
	sc := NewScanner(doc, 0)
	for {
		tok, ok := sc.NextTag()
		if !ok {
			return Token{}, false
		}
		if tok.Kind != OpeningTag {
			continue
		}
		if a, ok := tok.Attr("id"); ok && a.HasValue && a.Value == anchor {
			return tok, true
		}
		skipRawText(sc, doc, tok)
	}
}

// Extract cuts the content of the element anchored by id="anchor" out of doc.
// Nesting is tracked by depth counting over tags; void and self-closing
// elements never change the depth. Malformed input (unterminated quotes, end
// of input before the element closes) yields Found == false and doc
// unchanged.
func Extract(doc, anchor string) Extraction {
	miss := Extraction{Document: doc}
	open, ok := FindAnchor(doc, anchor)
	if !ok {
		return miss
	}
	if open.SelfClosing() || IsVoid(open.Label) {
		return Extraction{Document: doc, Found: true, Start: open.End, End: open.End}
	}
	end, ok := closingTagStart(doc, open.End)
	if !ok {
		return miss
	}
	return Extraction{
		Subtree:  doc[open.End:end],
		Document: doc[:open.End] + doc[end:],
		Found:    true,
		Start:    open.End,
		End:      end,
	}
}

// closingTagStart scans forward from pos and returns the start of the first
// closing tag that under-closes the element whose content begins at pos.
func closingTagStart(doc string, pos int) (int, bool) {
	sc := NewScanner(doc, pos)
	depth := 0
	for {
		tok, ok := sc.NextTag()
		if !ok {
			return 0, false
		}
		switch {
		case IsVoid(tok.Label) || tok.SelfClosing():
		case tok.Kind == ClosingTag:
			depth--
			if depth < 0 {
				return tok.Start, true
			}
		default:
			depth++
			skipRawText(sc, doc, tok)
		}
	}
}
