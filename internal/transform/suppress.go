package transform

import (
	"strings"

	"github.com/hyperifyio/snapstrip/internal/markup"
)

// Markers of the loader bootstrap lines that KeepPipeScripts retains.
var bootMarkers = []string{"Bootloader.done", "Bootloader.configurePage"}

// Prefixes of script bodies that drive the deferred-load pipeline and are
// therefore kept whole by KeepPipeScripts.
var pipePrefixes = []string{"Bootloader.setResourceMap", "big_pipe"}

// DefaultLoggerMarker identifies the tracing script some snapshots carry in
// front of the page.
const DefaultLoggerMarker = "CavalryLogger"

// DefaultDummyCSS replaces stylesheet references in UnloadCSS.
const DefaultDummyCSS = "dummy.css"

// BlankScripts replaces every script element, attributes included, with an
// empty <script></script>.
func BlankScripts(doc string) string {
	var edits []markup.Edit
	for _, el := range markup.RawElements(doc, "script") {
		if el.Outer(doc) == "<script></script>" {
			continue
		}
		edits = append(edits, markup.Edit{Start: el.Start(), End: el.End, Text: "<script></script>"})
	}
	return markup.Apply(doc, edits)
}

// StripOnclick removes onclick attributes written with either quote style,
// together with the whitespace byte in front of them.
func StripOnclick(doc string) string {
	var edits []markup.Edit
	_ = markup.EachTag(doc, func(tok markup.Token) {
		if tok.Kind != markup.OpeningTag {
			return
		}
		for _, a := range tok.Attrs() {
			if !strings.EqualFold(a.Name, "onclick") || a.Quote == 0 {
				continue
			}
			start := a.Start
			if start > tok.Start && markup.IsBlank(doc[start-1:start]) {
				start--
			}
			edits = append(edits, markup.Delete(start, a.End))
		}
	})
	return markup.Apply(doc, edits)
}

// KeepPipeScripts empties inline scripts except for the loader bootstrap
// lines. Scripts whose body starts with a pipeline prefix, and scripts with
// an empty body, are left alone. The opening tag is kept.
func KeepPipeScripts(doc string) string {
	var edits []markup.Edit
	for _, el := range markup.RawElements(doc, "script") {
		body := el.Content(doc)
		if body == "" || hasAnyPrefix(body, pipePrefixes) {
			continue
		}
		var kept []string
		for _, line := range strings.Split(body, "\n") {
			if containsAny(line, bootMarkers) {
				kept = append(kept, line)
			}
		}
		if next := strings.Join(kept, "\n"); next != body {
			edits = append(edits, markup.Edit{Start: el.ContentStart, End: el.ContentEnd, Text: next})
		}
	}
	return markup.Apply(doc, edits)
}

// Region is the part of a document between the first occurrence of Start
// and the first occurrence of End after it.
type Region struct {
	Start string
	End   string
}

// Regions holding resources injected after the page loaded.
var (
	InjectedStyles  = Region{Start: "</title>", End: "</head>"}
	InjectedScripts = Region{Start: `title="Facebook"`, End: "</head>"}
)

// Bounds returns the offsets of the region in doc. ok is false when either
// anchor is missing.
func (r Region) Bounds(doc string) (int, int, bool) {
	if r.Start == "" || r.End == "" {
		return 0, 0, false
	}
	start := strings.Index(doc, r.Start)
	if start < 0 {
		return 0, 0, false
	}
	rel := strings.Index(doc[start:], r.End)
	if rel < 0 {
		return 0, 0, false
	}
	return start, start + rel, true
}

// StripInjectedScripts deletes the script elements lying entirely inside r.
func StripInjectedScripts(doc string, r Region) string {
	lo, hi, ok := r.Bounds(doc)
	if !ok {
		return doc
	}
	var edits []markup.Edit
	for _, el := range markup.RawElements(doc, "script") {
		if el.Start() >= lo && el.End <= hi {
			edits = append(edits, markup.Delete(el.Start(), el.End))
		}
	}
	return markup.Apply(doc, edits)
}

// StripInjectedStyles deletes the stylesheet links and style elements lying
// entirely inside r.
func StripInjectedStyles(doc string, r Region) string {
	lo, hi, ok := r.Bounds(doc)
	if !ok {
		return doc
	}
	var edits []markup.Edit
	_ = markup.EachTag(doc, func(tok markup.Token) {
		if tok.Start < lo || tok.End > hi {
			return
		}
		if _, ok := markup.StylesheetHref(tok); ok {
			edits = append(edits, markup.Delete(tok.Start, tok.End))
		}
	})
	for _, el := range markup.RawElements(doc, "style") {
		if el.Start() >= lo && el.End <= hi {
			edits = append(edits, markup.Delete(el.Start(), el.End))
		}
	}
	return markup.Apply(doc, edits)
}

// RemoveLoggerScript drops the first script element of doc if it mentions
// marker.
func RemoveLoggerScript(doc, marker string) string {
	if marker == "" {
		marker = DefaultLoggerMarker
	}
	els := markup.RawElements(doc, "script")
	if len(els) == 0 || !strings.Contains(els[0].Outer(doc), marker) {
		return doc
	}
	return markup.Apply(doc, []markup.Edit{markup.Delete(els[0].Start(), els[0].End)})
}

// UnloadCSS points every stylesheet reference at dummy: link tags are
// replaced by a plain stylesheet link and "src" entries of resource maps
// that name a .css file are rewritten.
func UnloadCSS(doc, dummy string) string {
	if dummy == "" {
		dummy = DefaultDummyCSS
	}
	link := `<link type="text/css" rel="stylesheet" href="` + dummy + `">`
	var edits []markup.Edit
	var tags []markup.Span
	_ = markup.EachTag(doc, func(tok markup.Token) {
		if _, ok := markup.StylesheetHref(tok); ok {
			tags = append(tags, markup.Span{Start: tok.Start, End: tok.End})
			if tok.Raw() != link {
				edits = append(edits, markup.Edit{Start: tok.Start, End: tok.End, Text: link})
			}
		}
	})
	for _, sp := range markup.JSONSources(doc) {
		if v := sp.Text(doc); strings.HasSuffix(v, ".css") && v != dummy && !within(sp, tags) {
			edits = append(edits, markup.Edit{Start: sp.Start, End: sp.End, Text: dummy})
		}
	}
	return markup.Apply(doc, edits)
}

func within(sp markup.Span, outer []markup.Span) bool {
	for _, o := range outer {
		if sp.Start < o.End && sp.End > o.Start {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
