package resource

import (
	"reflect"
	"testing"
)

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"http://a/b/c.js":     "c.js",
		"http://a/b%2Fc.png":  "2Fc.png",
		"noslash.css":         "noslash.css",
		"http:\\/\\/a\\/d.js": "d.js",
	}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Fatalf("FileName(%q) = %q want %q", in, got, want)
		}
	}
}

func TestCSSInHTML(t *testing.T) {
	doc := `<link type="text/css" rel="stylesheet" href="http://s.x/a/b.css" /><link rel="stylesheet" href="http://s.x/c.css">`
	got, refs := Localizer{}.CSSInHTML(doc)
	want := `<link type="text/css" rel="stylesheet" href="css/b.css" /><link rel="stylesheet" href="http://s.x/c.css">`
	if got != want {
		t.Fatalf("got %s", got)
	}
	if len(refs) != 1 || refs[0].Download != "http://s.x/a/b.css" || refs[0].File != "b.css" || refs[0].Path() != "css/b.css" {
		t.Fatalf("refs: %+v", refs)
	}
}

func TestCSSInHTML_NotLocalized(t *testing.T) {
	doc := `<link type="text/css" rel="stylesheet" href="http://s.x/b.css">`
	l := Localizer{Localize: map[Class]bool{CSS: false}}
	got, refs := l.CSSInHTML(doc)
	if got != doc {
		t.Fatalf("document must be unchanged: %s", got)
	}
	if !reflect.DeepEqual(Listing(refs), []string{"http://s.x/b.css"}) {
		t.Fatalf("listing: %v", Listing(refs))
	}
}

func TestInJSON(t *testing.T) {
	doc := `<script>m({"src":"http:\/\/s.x\/d.css"},{"src":"http:\/\/s.x\/f.js"},{"src":"http:\/\/s.x\/f.js"})</script>`
	l := Localizer{}
	doc, css := l.CSSInJSON(doc)
	doc, js := l.JSInJSON(doc)
	want := `<script>m({"src":"css\/d.css"},{"src":"js\/f.js"},{"src":"js\/f.js"})</script>`
	if doc != want {
		t.Fatalf("got %s", doc)
	}
	if len(css) != 1 || css[0].Download != "http://s.x/d.css" {
		t.Fatalf("css refs: %+v", css)
	}
	if len(js) != 2 || js[0].Download != "http://s.x/f.js" {
		t.Fatalf("js refs: %+v", js)
	}
	if !reflect.DeepEqual(Listing(js), []string{`js\/f.js`}) {
		t.Fatalf("listing must be unique: %v", Listing(js))
	}
}

func TestJSInHTML(t *testing.T) {
	doc := `<script type="text/javascript" src="http://s.x/e.js"></script><script>var a = "<img src=\"x.js\">";</script>`
	got, refs := Localizer{}.JSInHTML(doc)
	want := `<script type="text/javascript" src="js/e.js"></script><script>var a = "<img src=\"x.js\">";</script>`
	if got != want || len(refs) != 1 {
		t.Fatalf("got %s refs %+v", got, refs)
	}
}

func TestImagesInHTML(t *testing.T) {
	doc := `<img src="/images/g.png"><img class="x" src="http://x/safe.php?u=http%3A%2F%2Fy%2Fh.jpg&amp;w=1.jpg"><img src="a.svg">`
	got, refs := Localizer{}.ImagesInHTML(doc)
	want := `<img src="img/g.png"><img class="x" src="img/2Fh.jpg&amp;w=1.jpg"><img src="a.svg">`
	if got != want {
		t.Fatalf("got %s", got)
	}
	if len(refs) != 2 {
		t.Fatalf("refs: %+v", refs)
	}
	if refs[0].Download != DefaultSite+"/images/g.png" {
		t.Fatalf("root-relative image: %+v", refs[0])
	}
	if refs[1].Download != "http://x/safe.php?u=http://y/h.jpg&w=1.jpg" {
		t.Fatalf("download url: %q", refs[1].Download)
	}
	if refs[1].File != "2Fh.jpg&w=1.jpg" {
		t.Fatalf("file name: %q", refs[1].File)
	}
}

func TestImagesInCSS(t *testing.T) {
	css := `.a{background:url(/rsrc.php/v1/z/x.png) no-repeat}.b{background:url("http://other/y.gif")}.c{background:url(z.svg)}`
	got, refs := Localizer{Site: "http://cdn"}.ImagesInCSS(css)
	want := `.a{background:url(x.png) no-repeat}.b{background:url("http://other/y.gif")}.c{background:url(z.svg)}`
	if got != want {
		t.Fatalf("got %s", got)
	}
	if len(refs) != 2 || refs[0].Download != "http://cdn/rsrc.php/v1/z/x.png" || refs[1].Download != "" {
		t.Fatalf("refs: %+v", refs)
	}
	if refs[0].Path() != "css/x.png" {
		t.Fatalf("stylesheet images live with the stylesheets: %s", refs[0].Path())
	}
}

func TestMiscAndBlankLinks(t *testing.T) {
	doc := `<link rel="search" type="application/opensearchdescription+xml" href="http://s.x/os.xml" title="Facebook">` +
		`<link rel="shortcut icon" href="http://s.x/favicon.ico">` +
		`<link rel="stylesheet" href="http://s.x/keep.css">` +
		`<iframe src="http://s.x/frame.html"></iframe><a href="https://fb/x">x</a><a href="#top">t</a>`
	got, refs := Localizer{}.Misc(doc)
	got = BlankLinks(got)
	want := `<link rel="search" type="application/opensearchdescription+xml" href="misc/os.xml" title="Facebook">` +
		`<link rel="shortcut icon" href="misc/favicon.ico">` +
		`<link rel="stylesheet" href="http://s.x/keep.css">` +
		`<iframe src="misc/frame.html"></iframe><a href="about:blank">x</a><a href="#top">t</a>`
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
	if len(refs) != 3 {
		t.Fatalf("refs: %+v", refs)
	}
}

func TestRenameImages(t *testing.T) {
	doc := `<img src="img/a.png"><img src="img/b.png"><p>img/a.png</p>`
	got := RenameImages(doc, map[string]string{"img/a.png": "img/anonym_1.png"})
	want := `<img src="img/anonym_1.png"><img src="img/b.png"><p>img/a.png</p>`
	if got != want {
		t.Fatalf("got %s", got)
	}
}
