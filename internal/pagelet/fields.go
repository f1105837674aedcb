// Package pagelet rebuilds the deferred-rendering payloads of a snapshot.
// Each payload is a script calling the pipe dispatcher with an object whose
// "content" field carries the markup of one pagelet; the markup itself sits
// in the page body and is moved back into the payload.
package pagelet

import (
	"fmt"
	"strings"
)

// Field is one entry of the dispatcher argument object.
type Field struct {
	// Name is the short name used in configuration and exclusion lists.
	Name string
	// Key is the object key in the serialized payload.
	Key string
}

// Fields lists the payload fields in canonical serialization order.
var Fields = []Field{
	{"id", "id"},
	{"phase", "phase"},
	{"last", "is_last"},
	{"append", "append"},
	{"dep", "display_dependency"},
	{"boot", "bootloadable"},
	{"css", "css"},
	{"js", "js"},
	{"rscmap", "resource_map"},
	{"require", "requires"},
	{"provide", "provides"},
	{"onload", "onload"},
	{"onafterload", "onafterload"},
	{"oncache", "onpagecache"},
	{"onaftercache", "onafterpagecache"},
	{"refresh", "refresh_pagelets"},
	{"invalidate", "invalidate_cache"},
	{"content", "content"},
	{"cache", "page_cache"},
}

var (
	byName = map[string]Field{}
	byKey  = map[string]Field{}
)

func init() {
	for _, f := range Fields {
		byName[f.Name] = f
		byKey[f.Key] = f
	}
}

// Lookup resolves a field by short name or by payload key.
func Lookup(s string) (Field, bool) {
	if f, ok := byName[s]; ok {
		return f, true
	}
	f, ok := byKey[s]
	return f, ok
}

// FieldSet is a set of short field names.
type FieldSet map[string]bool

// DefaultExcluded are the fields dropped from payloads whose scripts are
// otherwise stripped: the load callbacks.
func DefaultExcluded() FieldSet {
	return FieldSet{"onload": true, "onafterload": true}
}

// ParseFieldSet accepts short names or payload keys. Blank entries are
// ignored.
func ParseFieldSet(names []string) (FieldSet, error) {
	set := FieldSet{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		f, ok := Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown pagelet field %q", n)
		}
		set[f.Name] = true
	}
	return set, nil
}

// Names returns the members in canonical order.
func (s FieldSet) Names() []string {
	var out []string
	for _, f := range Fields {
		if s[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}
