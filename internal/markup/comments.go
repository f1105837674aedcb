package markup

import "strings"

// DoctypeEnd returns the length of a DOCTYPE declaration at the very start of
// doc, or 0 when there is none.
func DoctypeEnd(doc string) int {
	const prefix = "<!doctype"
	if len(doc) < len(prefix) || !strings.EqualFold(doc[:len(prefix)], prefix) {
		return 0
	}
	end := strings.IndexByte(doc, '>')
	if end < 0 {
		return 0
	}
	return end + 1
}

// StripBlockComments deletes /* ... */ comments. A leading DOCTYPE is kept
// verbatim and comment openers inside double-quoted spans are ignored. An
// unterminated comment or quote leaves the rest of the document as is.
func StripBlockComments(doc string) string {
	start := DoctypeEnd(doc)
	var edits []Edit
	i := start
	for i < len(doc) {
		switch doc[i] {
		case '\\':
			i += 2
		case '"':
			j, ok := skipQuote(doc, i)
			if !ok {
				return Apply(doc, edits)
			}
			i = j
		case '/':
			if i+1 < len(doc) && doc[i+1] == '*' {
				end := strings.Index(doc[i+2:], "*/")
				if end < 0 {
					return Apply(doc, edits)
				}
				edits = append(edits, Delete(i, i+2+end+2))
				i += 2 + end + 2
				continue
			}
			i++
		default:
			i++
		}
	}
	return Apply(doc, edits)
}
