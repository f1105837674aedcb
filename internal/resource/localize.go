package resource

import (
	"strings"

	"github.com/hyperifyio/snapstrip/internal/markup"
	"github.com/hyperifyio/snapstrip/internal/pagelet"
)

// DefaultSite is prepended to root-relative image URLs.
const DefaultSite = "http://static.ak.fbcdn.net"

// cssImagePrefix marks stylesheet images served by the resource endpoint;
// only those are localized.
const cssImagePrefix = "/rsrc.php"

var imageExts = []string{".gif", ".png", ".jpg"}

// Localizer rewrites resource references to local paths. A nil Localize map
// localizes every class.
type Localizer struct {
	Localize map[Class]bool
	Site     string
}

func (l Localizer) localizes(c Class) bool {
	if l.Localize == nil {
		return true
	}
	return l.Localize[c]
}

func (l Localizer) site() string {
	if l.Site == "" {
		return DefaultSite
	}
	return l.Site
}

// rewrite applies the local names of refs at spans and returns the new text.
func (l Localizer) rewrite(doc string, spans []markup.Span, refs []Ref) string {
	var edits []markup.Edit
	for i, r := range refs {
		if r.Local != "" {
			edits = append(edits, markup.Edit{Start: spans[i].Start, End: spans[i].End, Text: r.Local})
		}
	}
	return markup.Apply(doc, edits)
}

// htmlRef builds a reference found in an attribute. The local name stays
// entity-escaped in the document while the file on disk uses the decoded
// name the browser will ask for.
func (l Localizer) htmlRef(c Class, u, download string) Ref {
	name := FileName(u)
	r := Ref{Class: c, URL: u, Download: download, File: strings.ReplaceAll(name, "&amp;", "&")}
	if l.localizes(c) {
		r.Local = c.Dir() + "/" + name
	}
	return r
}

func (l Localizer) jsonRef(c Class, u string) Ref {
	r := Ref{Class: c, URL: u, Download: pagelet.Unescape(u), File: FileName(u)}
	if l.localizes(c) {
		r.Local = pagelet.Escape(c.Dir()+"/") + r.File
	}
	return r
}

// CSSInHTML localizes stylesheet links declared with type="text/css".
func (l Localizer) CSSInHTML(doc string) (string, []Ref) {
	var spans []markup.Span
	var refs []Ref
	_ = markup.EachTag(doc, func(tok markup.Token) {
		href, ok := markup.StylesheetHref(tok)
		if !ok {
			return
		}
		if t, ok := tok.Attr("type"); !ok || t.Value != "text/css" {
			return
		}
		spans = append(spans, markup.Span{Start: href.ValueStart, End: href.ValueEnd})
		refs = append(refs, l.htmlRef(CSS, href.Value, href.Value))
	})
	return l.rewrite(doc, spans, refs), refs
}

// CSSInJSON localizes stylesheets named by "src" entries of resource maps.
func (l Localizer) CSSInJSON(doc string) (string, []Ref) {
	return l.inJSON(doc, CSS, ".css")
}

// JSInHTML localizes external scripts.
func (l Localizer) JSInHTML(doc string) (string, []Ref) {
	var spans []markup.Span
	var refs []Ref
	for _, el := range markup.RawElements(doc, "script") {
		src, ok := el.Open.Attr("src")
		if !ok || src.Quote != '"' || !strings.HasSuffix(src.Value, ".js") {
			continue
		}
		spans = append(spans, markup.Span{Start: src.ValueStart, End: src.ValueEnd})
		refs = append(refs, l.htmlRef(JS, src.Value, src.Value))
	}
	return l.rewrite(doc, spans, refs), refs
}

// JSInJSON localizes scripts named by "src" entries of resource maps.
func (l Localizer) JSInJSON(doc string) (string, []Ref) {
	return l.inJSON(doc, JS, ".js")
}

func (l Localizer) inJSON(doc string, c Class, ext string) (string, []Ref) {
	var spans []markup.Span
	var refs []Ref
	for _, sp := range markup.JSONSources(doc) {
		u := sp.Text(doc)
		if !strings.HasSuffix(u, ext) {
			continue
		}
		spans = append(spans, sp)
		refs = append(refs, l.jsonRef(c, u))
	}
	return l.rewrite(doc, spans, refs), refs
}

// ImagesInHTML localizes <img> sources. Root-relative sources are resolved
// against Site.
func (l Localizer) ImagesInHTML(doc string) (string, []Ref) {
	var spans []markup.Span
	var refs []Ref
	_ = markup.EachTag(doc, func(tok markup.Token) {
		if tok.Kind != markup.OpeningTag || tok.Label != "img" {
			return
		}
		src, ok := tok.Attr("src")
		if !ok || src.Quote != '"' || !hasImageExt(src.Value) {
			return
		}
		u := src.Value
		if strings.HasPrefix(u, "/") {
			u = l.site() + u
		}
		spans = append(spans, markup.Span{Start: src.ValueStart, End: src.ValueEnd})
		refs = append(refs, l.htmlRef(Image, u, downloadURL(u)))
	})
	return l.rewrite(doc, spans, refs), refs
}

// ImagesInCSS localizes url(...) images of a stylesheet that are served from
// the resource endpoint. Other images are reported but left alone.
func (l Localizer) ImagesInCSS(css string) (string, []Ref) {
	var spans []markup.Span
	var refs []Ref
	pos := 0
	for {
		i := strings.Index(css[pos:], "url(")
		if i < 0 {
			break
		}
		start := pos + i + len("url(")
		end := strings.IndexByte(css[start:], ')')
		if end < 0 {
			break
		}
		end += start
		pos = end + 1
		vs, ve := start, end
		for vs < ve && (css[vs] == ' ' || css[vs] == '"' || css[vs] == '\'') {
			vs++
		}
		for ve > vs && (css[ve-1] == ' ' || css[ve-1] == '"' || css[ve-1] == '\'') {
			ve--
		}
		u := css[vs:ve]
		if !hasImageExt(u) {
			continue
		}
		r := Ref{Class: CSSImage, URL: u, Download: l.site() + u, File: FileName(u)}
		if l.localizes(CSSImage) && strings.HasPrefix(u, cssImagePrefix) {
			// stylesheets live in the same directory as their images
			r.Local = r.File
		} else {
			r.Download = ""
		}
		spans = append(spans, markup.Span{Start: vs, End: ve})
		refs = append(refs, r)
	}
	return l.rewrite(css, spans, refs), refs
}

// Misc localizes the opensearch description, the shortcut icon and iframe
// documents.
func (l Localizer) Misc(doc string) (string, []Ref) {
	var spans []markup.Span
	var refs []Ref
	add := func(a markup.Attr, ext string) {
		if a.Quote != '"' || !strings.HasPrefix(a.Value, "http://") || !strings.HasSuffix(a.Value, ext) {
			return
		}
		spans = append(spans, markup.Span{Start: a.ValueStart, End: a.ValueEnd})
		refs = append(refs, l.htmlRef(Misc, a.Value, a.Value))
	}
	_ = markup.EachTag(doc, func(tok markup.Token) {
		if tok.Kind != markup.OpeningTag {
			return
		}
		switch tok.Label {
		case "link":
			rel, _ := tok.Attr("rel")
			href, ok := tok.Attr("href")
			if !ok {
				return
			}
			switch strings.ToLower(rel.Value) {
			case "search":
				if t, _ := tok.Attr("type"); t.Value == "application/opensearchdescription+xml" {
					add(href, ".xml")
				}
			case "shortcut icon":
				add(href, ".ico")
			}
		case "iframe":
			if src, ok := tok.Attr("src"); ok {
				add(src, ".html")
			}
		}
	})
	return l.rewrite(doc, spans, refs), refs
}

// BlankLinks points every remaining absolute href at about:blank. Stylesheet
// links are kept.
func BlankLinks(doc string) string {
	var edits []markup.Edit
	_ = markup.EachTag(doc, func(tok markup.Token) {
		if tok.Kind != markup.OpeningTag {
			return
		}
		if _, ok := markup.StylesheetHref(tok); ok {
			return
		}
		href, ok := tok.Attr("href")
		if !ok || href.Quote != '"' {
			return
		}
		if strings.HasPrefix(href.Value, "http://") || strings.HasPrefix(href.Value, "https://") {
			edits = append(edits, markup.Edit{Start: href.ValueStart, End: href.ValueEnd, Text: "about:blank"})
		}
	})
	return markup.Apply(doc, edits)
}

// RenameImages replaces <img> sources found in mapping.
func RenameImages(doc string, mapping map[string]string) string {
	if len(mapping) == 0 {
		return doc
	}
	var edits []markup.Edit
	_ = markup.EachTag(doc, func(tok markup.Token) {
		if tok.Kind != markup.OpeningTag || tok.Label != "img" {
			return
		}
		src, ok := tok.Attr("src")
		if !ok {
			return
		}
		if to, ok := mapping[src.Value]; ok && to != src.Value {
			edits = append(edits, markup.Edit{Start: src.ValueStart, End: src.ValueEnd, Text: to})
		}
	})
	return markup.Apply(doc, edits)
}

func hasImageExt(u string) bool {
	for _, ext := range imageExts {
		if strings.HasSuffix(u, ext) {
			return true
		}
	}
	return false
}
