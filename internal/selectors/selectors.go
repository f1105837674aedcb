// Package selectors indexes the id and class selectors used by stylesheets so
// the anonymizer can keep attribute values that rendering depends on.
package selectors

import (
	"sort"
	"strings"

	"github.com/gorilla/css/scanner"
)

// Index holds exact, case-sensitive id and class names. Use New; the zero
// value is read-only.
type Index struct {
	IDs     map[string]struct{}
	Classes map[string]struct{}
}

// New returns an empty, writable index.
func New() Index {
	return Index{IDs: map[string]struct{}{}, Classes: map[string]struct{}{}}
}

// Has reports whether token is a known selector for attribute attr ("id" or
// "class").
func (x Index) Has(attr, token string) bool {
	var ok bool
	switch attr {
	case "id":
		_, ok = x.IDs[token]
	case "class":
		_, ok = x.Classes[token]
	}
	return ok
}

func (x Index) AddIDs(ids ...string) {
	for _, id := range ids {
		if id != "" {
			x.IDs[id] = struct{}{}
		}
	}
}

func (x Index) AddClasses(classes ...string) {
	for _, c := range classes {
		if c != "" {
			x.Classes[c] = struct{}{}
		}
	}
}

// Merge adds every entry of o to x.
func (x Index) Merge(o Index) {
	for k := range o.IDs {
		x.IDs[k] = struct{}{}
	}
	for k := range o.Classes {
		x.Classes[k] = struct{}{}
	}
}

// Len is the total number of entries.
func (x Index) Len() int { return len(x.IDs) + len(x.Classes) }

// Sorted lists the entries for attr in lexical order.
func (x Index) Sorted(attr string) []string {
	src := x.IDs
	if attr == "class" {
		src = x.Classes
	}
	out := make([]string, 0, len(src))
	for k := range src {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// groupingRules are at-rules whose block holds further rules.
var groupingRules = map[string]bool{
	"@media":         true,
	"@supports":      true,
	"@document":      true,
	"@-moz-document": true,
	"@layer":         true,
	"@container":     true,
}

// FromCSS collects #id and .class selectors from the rule preludes of a
// stylesheet. Declarations and at-rule preludes are ignored, so colours like
// #fff never end up in the index.
func FromCSS(css string) Index {
	idx := New()
	sc := scanner.New(css)
	// each open block records whether it contains rules (true) or declarations
	var blocks []bool
	var prelude []*scanner.Token
	inRules := func() bool { return len(blocks) == 0 || blocks[len(blocks)-1] }

	for {
		tok := sc.Next()
		if tok.Type == scanner.TokenEOF || tok.Type == scanner.TokenError {
			return idx
		}
		if tok.Type == scanner.TokenChar {
			switch tok.Value {
			case "{":
				nested := false
				if inRules() {
					if at := firstSignificant(prelude); at != nil && at.Type == scanner.TokenAtKeyword {
						nested = groupingRules[strings.ToLower(at.Value)]
					} else {
						collect(idx, prelude)
					}
				}
				blocks = append(blocks, nested)
				prelude = prelude[:0]
				continue
			case "}":
				if len(blocks) > 0 {
					blocks = blocks[:len(blocks)-1]
				}
				prelude = prelude[:0]
				continue
			case ";":
				prelude = prelude[:0]
				continue
			}
		}
		if tok.Type == scanner.TokenComment {
			continue
		}
		if inRules() {
			prelude = append(prelude, tok)
		}
	}
}

func firstSignificant(toks []*scanner.Token) *scanner.Token {
	for _, t := range toks {
		if t.Type != scanner.TokenS {
			return t
		}
	}
	return nil
}

// collect indexes the ids and classes of one rule prelude. A hyphenated name
// also contributes its part before the first hyphen, the key the anonymizer
// looks up for hyphenated attribute tokens.
func collect(idx Index, prelude []*scanner.Token) {
	for i, t := range prelude {
		switch {
		case t.Type == scanner.TokenHash:
			idx.AddIDs(withPrefix(strings.TrimPrefix(t.Value, "#"))...)
		case t.Type == scanner.TokenChar && t.Value == "." && i+1 < len(prelude):
			if next := prelude[i+1]; next.Type == scanner.TokenIdent {
				idx.AddClasses(withPrefix(next.Value)...)
			}
		}
	}
}

func withPrefix(name string) []string {
	if k := strings.IndexByte(name, '-'); k > 0 {
		return []string{name, name[:k]}
	}
	return []string{name}
}
