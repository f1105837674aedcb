package pagelet

import (
	"errors"
	"strings"
)

// Dispatcher is the function every payload script calls.
const Dispatcher = "big_pipe.onPageletArrive"

var (
	// ErrNotPayload is returned by Parse for scripts that do not call the
	// dispatcher.
	ErrNotPayload = errors.New("pagelet: not a payload script")
	// ErrMalformed is returned by Parse when the argument object cannot be
	// split into fields.
	ErrMalformed = errors.New("pagelet: malformed payload")
)

// Record is one payload: the raw value text of every known field, keyed by
// short field name. Unknown keys are not kept.
type Record struct {
	values map[string]string
}

// Parse reads a payload script body of the form
// big_pipe.onPageletArrive({...}); and splits the object into fields.
func Parse(body string) (*Record, error) {
	s := strings.TrimSpace(body)
	if !strings.HasPrefix(s, Dispatcher+"(") {
		return nil, ErrNotPayload
	}
	s = strings.TrimPrefix(s, Dispatcher+"(")
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, ")") {
		return nil, ErrMalformed
	}
	s = strings.TrimSpace(s[:len(s)-1])
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, ErrMalformed
	}
	return parseObject(s[1 : len(s)-1])
}

func parseObject(s string) (*Record, error) {
	r := &Record{values: map[string]string{}}
	i := 0
	for {
		i = skipSpace(s, i)
		if i == len(s) {
			return r, nil
		}
		if s[i] != '"' {
			return nil, ErrMalformed
		}
		end, ok := stringEnd(s, i)
		if !ok {
			return nil, ErrMalformed
		}
		key := s[i+1 : end-1]
		i = skipSpace(s, end)
		if i == len(s) || s[i] != ':' {
			return nil, ErrMalformed
		}
		i = skipSpace(s, i+1)
		vend, ok := valueEnd(s, i)
		if !ok || vend == i {
			return nil, ErrMalformed
		}
		if f, known := byKey[key]; known {
			r.values[f.Name] = strings.TrimSpace(s[i:vend])
		}
		i = vend
		if i < len(s) {
			// valueEnd stops at a top-level comma
			i++
		}
	}
}

// valueEnd returns the offset of the comma ending the value starting at i,
// or len(s) for the last value. Brackets must balance.
func valueEnd(s string, i int) (int, bool) {
	depth := 0
	for i < len(s) {
		switch s[i] {
		case '"', '\'':
			end, ok := stringEnd(s, i)
			if !ok {
				return 0, false
			}
			i = end
			continue
		case '[', '{', '(':
			depth++
		case ']', '}', ')':
			depth--
			if depth < 0 {
				return 0, false
			}
		case ',':
			if depth == 0 {
				return i, true
			}
		}
		i++
	}
	return i, depth == 0
}

// stringEnd returns the offset just past the string literal opened at i.
func stringEnd(s string, i int) (int, bool) {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1, true
		}
	}
	return 0, false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// Has reports whether the field was present.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Value returns the raw value text of a field.
func (r *Record) Value(name string) string { return r.values[name] }

// Set replaces the raw value text of a field.
func (r *Record) Set(name, raw string) { r.values[name] = raw }

// ID returns the pagelet identifier, or "" when the record has no string id.
func (r *Record) ID() string {
	v, ok := r.values["id"]
	if !ok || len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return ""
	}
	return Unescape(v[1 : len(v)-1])
}

// SetContent fills the content field with markup, keyed by the record id.
// Empty markup is written as an empty array.
func (r *Record) SetContent(markup string) {
	if markup == "" {
		r.values["content"] = "[]"
		return
	}
	r.values["content"] = "{" + r.values["id"] + `:"` + Escape(markup) + `"}`
}

// Content returns the unescaped markup of the content field, if it holds
// one.
func (r *Record) Content() string {
	v := r.values["content"]
	id := r.values["id"]
	prefix := "{" + id + `:"`
	if id == "" || !strings.HasPrefix(v, prefix) || !strings.HasSuffix(v, `"}`) || len(v) < len(prefix)+2 {
		return ""
	}
	return Unescape(v[len(prefix) : len(v)-2])
}

// Serialize writes the payload body with the present fields that are not
// excluded, in canonical order.
func (r *Record) Serialize(excluded FieldSet) string {
	var b strings.Builder
	b.WriteString(Dispatcher)
	b.WriteString("({")
	first := true
	for _, f := range Fields {
		v, ok := r.values[f.Name]
		if !ok || excluded[f.Name] {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteByte('"')
		b.WriteString(f.Key)
		b.WriteString(`":`)
		b.WriteString(v)
	}
	b.WriteString("});")
	return b.String()
}
