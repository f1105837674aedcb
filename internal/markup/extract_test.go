package markup

import (
	"strings"
	"testing"
)

func TestExtract_Scenario(t *testing.T) {
	doc := `<div id="x"><span>A</span></div>TAIL`
	ex := Extract(doc, "x")
	if !ex.Found {
		t.Fatalf("expected anchor to be found")
	}
	if ex.Subtree != "<span>A</span>" {
		t.Fatalf("subtree=%q", ex.Subtree)
	}
	if ex.Document != `<div id="x"></div>TAIL` {
		t.Fatalf("residual=%q", ex.Document)
	}
	if ex.Splice() != doc {
		t.Fatalf("splice does not reproduce input")
	}
}

func TestExtract_NestedSameLabel(t *testing.T) {
	doc := `<div id="outer"><div><div>deep</div></div><br><img src="a.png"></div><div>after</div>`
	ex := Extract(doc, "outer")
	if ex.Subtree != `<div><div>deep</div></div><br><img src="a.png">` {
		t.Fatalf("subtree=%q", ex.Subtree)
	}
	if ex.Document != `<div id="outer"></div><div>after</div>` {
		t.Fatalf("residual=%q", ex.Document)
	}
}

func TestExtract_SelfClosingDoesNotNest(t *testing.T) {
	doc := `<ul id="l"><x-icon/><li>1</li></ul>`
	ex := Extract(doc, "l")
	if ex.Subtree != `<x-icon/><li>1</li>` {
		t.Fatalf("subtree=%q", ex.Subtree)
	}
}

func TestExtract_QuotedMarkupIsIgnored(t *testing.T) {
	doc := `<div id="p"><a title="</div>">x</a></div>rest`
	ex := Extract(doc, "p")
	if ex.Subtree != `<a title="</div>">x</a>` {
		t.Fatalf("subtree=%q", ex.Subtree)
	}
}

func TestExtract_AnchorNotFound(t *testing.T) {
	doc := `<div id="a">x</div>`
	ex := Extract(doc, "b")
	if ex.Found || ex.Subtree != "" || ex.Document != doc {
		t.Fatalf("expected untouched miss, got %+v", ex)
	}
}

func TestExtract_AnchorIsExactMatch(t *testing.T) {
	doc := `<div id="ab">1</div><div id="a">2</div>`
	ex := Extract(doc, "a")
	if ex.Subtree != "2" {
		t.Fatalf("partial id matched: %q", ex.Subtree)
	}
}

func TestExtract_FoundButEmpty(t *testing.T) {
	doc := `<div id="e"></div>`
	ex := Extract(doc, "e")
	if !ex.Found || ex.Subtree != "" || ex.Document != doc {
		t.Fatalf("expected found-but-empty, got %+v", ex)
	}
}

func TestExtract_UnclosedIsFailSoft(t *testing.T) {
	doc := `<div id="x"><span>never closed`
	ex := Extract(doc, "x")
	if ex.Found || ex.Document != doc {
		t.Fatalf("expected fail-soft miss, got %+v", ex)
	}
}

func TestExtract_UnterminatedQuoteIsFailSoft(t *testing.T) {
	doc := `<div id="x"><span>"oops</span></div>`
	ex := Extract(doc, "x")
	if ex.Found || ex.Document != doc {
		t.Fatalf("expected fail-soft miss, got %+v", ex)
	}
}

func TestExtract_Lossless(t *testing.T) {
	docs := []string{
		`<html><body><div id="k"><p>1</p><p>2<br>3</p></div><div id="z"></div></body></html>`,
		`<div id="k">text only</div>`,
		`<p>pre</p><div id="k"><div id="k">inner</div></div>`,
		`<div id="k"><script>var a = "</div>";</script></div>!`,
	}
	for _, doc := range docs {
		ex := Extract(doc, "k")
		if !ex.Found {
			t.Fatalf("anchor not found in %q", doc)
		}
		if ex.Splice() != doc {
			t.Fatalf("lossless split violated for %q", doc)
		}
		if strings.Contains(ex.Document, ex.Subtree) && ex.Subtree != "" && strings.Count(doc, ex.Subtree) == 1 {
			t.Fatalf("subtree still present in residual for %q", doc)
		}
	}
}

func TestStripBlockComments(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a/* x */b", "ab"},
		{"a/* multi\nline */b/**/c", "abc"},
		{`<p title="/* kept */">/* gone */</p>`, `<p title="/* kept */"></p>`},
		{"<!DOCTYPE html /* keep */><p>/* gone */</p>", "<!DOCTYPE html /* keep */><p></p>"},
		{"<!doctype html><!-- c --><p>x</p>", "<!doctype html><!-- c --><p>x</p>"},
		{"a/* never closed", "a/* never closed"},
		{`a/* x */"open`, `a"open`},
	}
	for _, c := range cases {
		if got := StripBlockComments(c.in); got != c.want {
			t.Fatalf("StripBlockComments(%q)=%q, want %q", c.in, got, c.want)
		}
	}
}
