// Package resource finds the external resources a snapshot references and
// points those references at local copies. It only rewrites text; fetching
// is left to the caller.
package resource

import (
	"net/url"
	"strings"
)

// Class groups resources by kind. Each class has its own directory.
type Class int

const (
	CSS Class = iota
	JS
	Image
	// CSSImage is an image referenced from a stylesheet. It is stored next
	// to the stylesheets.
	CSSImage
	Misc
)

// Classes lists every class.
var Classes = []Class{CSS, JS, Image, CSSImage, Misc}

func (c Class) String() string {
	switch c {
	case CSS:
		return "css"
	case JS:
		return "js"
	case Image:
		return "img"
	case CSSImage:
		return "cssimage"
	default:
		return "misc"
	}
}

// Dir is the directory, relative to the snapshot, holding the class.
func (c Class) Dir() string {
	if c == CSSImage {
		return CSS.Dir()
	}
	return c.String()
}

// Ref is one reference found in a document or stylesheet.
type Ref struct {
	Class Class
	// URL is the reference as written.
	URL string
	// Download is the URL to fetch.
	Download string
	// File is the local file name inside Class.Dir().
	File string
	// Local is the text that replaced URL, empty when the class is not
	// localized.
	Local string
}

// Path is the local path of the resource relative to the snapshot.
func (r Ref) Path() string { return r.Class.Dir() + "/" + r.File }

// FileName derives a local file name from a URL: the last path segment, or
// the text after the last '%' when that comes later.
func FileName(u string) string {
	pos := strings.LastIndexByte(u, '/') + 1
	if p := strings.LastIndexByte(u, '%'); p >= pos {
		pos = p + 1
	}
	return u[pos:]
}

// Unique drops repeated references, keeping the first of each class and
// local path (or URL when not localized).
func Unique(refs []Ref) []Ref {
	seen := map[string]bool{}
	var out []Ref
	for _, r := range refs {
		key := r.Class.String() + "\x00" + r.URL
		if r.Local != "" {
			key = r.Class.String() + "\x00" + r.Local
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

// Listing returns the manifest lines of refs: local names for localized
// references and URLs otherwise.
func Listing(refs []Ref) []string {
	var out []string
	for _, r := range Unique(refs) {
		if r.Local != "" {
			out = append(out, r.Local)
		} else {
			out = append(out, r.URL)
		}
	}
	return out
}

// downloadURL undoes percent-encoding and HTML entity escaping of '&' in a
// URL taken from markup.
func downloadURL(u string) string {
	if d, err := url.PathUnescape(u); err == nil {
		u = d
	}
	return strings.ReplaceAll(u, "&amp;", "&")
}
