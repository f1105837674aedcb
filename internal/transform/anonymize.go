package transform

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/hyperifyio/snapstrip/internal/markup"
	"github.com/hyperifyio/snapstrip/internal/selectors"
)

// Mode selects how anonymized characters are replaced.
type Mode int

const (
	// Mono replaces every non-whitespace character with '?'.
	Mono Mode = iota
	// Babble replaces every non-whitespace character with a random a-z.
	Babble
)

func (m Mode) String() string {
	if m == Babble {
		return "babble"
	}
	return "mono"
}

// ParseMode accepts "mono" and "babble".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mono":
		return Mono, nil
	case "babble":
		return Babble, nil
	}
	return Mono, fmt.Errorf("unknown anonymization mode %q", s)
}

// Anonymizer garbles attribute values and text while keeping the values that
// stylesheets select on. It is not safe for concurrent use when Rand is set.
type Anonymizer struct {
	Selectors selectors.Index
	Mode      Mode
	// Rand drives Babble mode; nil uses the global source.
	Rand *rand.Rand
}

// Apply anonymizes doc. Closing tags, script bodies, whitespace-only text,
// text before the first tag (the DOCTYPE) and the attributes of exempted
// elements are copied unchanged.
func (a *Anonymizer) Apply(doc string) string {
	doc = markup.StripBlockComments(doc)

	var b strings.Builder
	b.Grow(len(doc))
	sc := markup.NewScanner(doc, 0)
	seenTag := false
	for {
		tok, ok := sc.Next()
		if !ok {
			break
		}
		raw := tok.Raw()
		switch tok.Kind {
		case markup.OpeningTag:
			seenTag = true
			b.WriteString(a.Tag(tok))
			if tok.Label == "script" && !tok.SelfClosing() {
				if start, _, ok := markup.RawEnd(doc, tok); ok {
					b.WriteString(doc[tok.End:start])
					sc.Seek(start)
				}
			}
		case markup.ClosingTag:
			seenTag = true
			b.WriteString(raw)
		default:
			if !seenTag || markup.IsBlank(raw) {
				b.WriteString(raw)
			} else {
				b.WriteString(a.Garble(raw))
			}
		}
	}
	b.WriteString(doc[sc.Pos():])
	return b.String()
}

// Tag anonymizes the attribute values of an opening tag. Selector attributes
// keep the tokens present in the index, rendering attributes are kept, and
// everything else is garbled. Quote style and spacing are preserved.
func (a *Anonymizer) Tag(tok markup.Token) string {
	raw := tok.Raw()
	if tok.Kind != markup.OpeningTag || markup.IsExempted(tok.Label) {
		return raw
	}
	var edits []markup.Edit
	for _, at := range tok.Attrs() {
		if !at.HasValue || at.Value == "" {
			continue
		}
		var v string
		switch {
		case markup.IsSelectorAttr(at.Name):
			v = a.AttrValue(at.Name, at.Value)
		case !markup.IsRenderingAttr(at.Name):
			v = a.Garble(at.Value)
		default:
			continue
		}
		if v != at.Value {
			edits = append(edits, markup.Edit{Start: at.ValueStart - tok.Start, End: at.ValueEnd - tok.Start, Text: v})
		}
	}
	return markup.Apply(raw, edits)
}

// AttrValue anonymizes a space-separated selector attribute value. Tokens known
// to the index survive verbatim. A hyphenated token keeps its prefix when the
// part before the first hyphen is known.
func (a *Anonymizer) AttrValue(attr, value string) string {
	var b strings.Builder
	b.Grow(len(value))
	i := 0
	for i < len(value) {
		if isASCIISpace(value[i]) {
			b.WriteByte(value[i])
			i++
			continue
		}
		j := i
		for j < len(value) && !isASCIISpace(value[j]) {
			j++
		}
		b.WriteString(a.token(attr, value[i:j]))
		i = j
	}
	return b.String()
}

func (a *Anonymizer) token(attr, tok string) string {
	if a.Selectors.Has(attr, tok) {
		return tok
	}
	if k := strings.IndexByte(tok, '-'); k >= 0 {
		key, suffix := tok[:k], tok[k+1:]
		if a.Selectors.Has(attr, key) {
			return key + "-" + a.Garble(suffix)
		}
		return a.Garble(key) + "-" + a.Garble(suffix)
	}
	return a.Garble(tok)
}

// Garble replaces each non-whitespace character of s according to the mode.
func (a *Anonymizer) Garble(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case a.Mode == Babble:
			b.WriteByte(byte('a' + a.intN(26)))
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

func (a *Anonymizer) intN(n int) int {
	if a.Rand != nil {
		return a.Rand.IntN(n)
	}
	return rand.IntN(n)
}

func isASCIISpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
