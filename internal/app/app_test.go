package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/snapstrip/internal/garble"
	"github.com/hyperifyio/snapstrip/internal/transform"
)

const snapshotTemplate = `<!DOCTYPE html>
<html><head>
<link type="text/css" rel="stylesheet" href="SRV/static/a.css">
<script src="SRV/static/b.js"></script>
<title>Home</title>
<style>.injected{color:red}</style>
</head><body>
/* tracking comment */
<div id="nav" class="nav other"><a href="http://example.com/x" onclick="go()">Hello</a></div>
<img src="SRV/static/p.png" alt="photo">
<div id="pagelet_one"><span class="keep">Inner text</span></div>
<script>big_pipe.onPageletArrive({"id":"pagelet_one","phase":0,"onload":["x()"],"content":[],"page_cache":true});</script>
<script>var a = 1;
Bootloader.done(["boot"]);</script>
</body></html>`

func writeSnapshot(t *testing.T, dir, site string) string {
	t.Helper()
	p := filepath.Join(dir, "home.html")
	doc := strings.ReplaceAll(snapshotTemplate, "SRV", site)
	if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return p
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read %s: %v", p, err)
	}
	return string(b)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func runApp(t *testing.T, cfg Config) {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_Pretty(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "page.html")
	if err := os.WriteFile(in, []byte(`<div><p>hi</p></div>`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Action = ActionPretty
	cfg.InputPath = in
	runApp(t, cfg)

	got := readFile(t, filepath.Join(dir, "pretty-page.html"))
	if !strings.Contains(got, "\n  <p>") {
		t.Fatalf("expected nested tag indented by two spaces, got:\n%s", got)
	}
}

func TestRun_EmptyInputIsNoDocument(t *testing.T) {
	in := filepath.Join(t.TempDir(), "empty.html")
	if err := os.WriteFile(in, []byte(" \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.InputPath = in
	cfg.Offline = true
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Run(context.Background()); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}

func TestReadDocument_DecodesDeclaredCharset(t *testing.T) {
	in := filepath.Join(t.TempDir(), "latin.html")
	raw := []byte("<meta charset=\"windows-1252\"><p>caf\xe9</p>")
	if err := os.WriteFile(in, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	doc, enc, err := readDocument(in)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	if enc != "windows-1252" || !strings.Contains(doc, "café") {
		t.Fatalf("got %q (%s)", doc, enc)
	}
}

func TestConvert_Offline(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	cfg := DefaultConfig()
	cfg.InputPath = writeSnapshot(t, dir, "http://cdn.example")
	cfg.OutputDir = out
	cfg.Offline = true
	runApp(t, cfg)

	for _, name := range VariantNames {
		if _, err := os.Stat(filepath.Join(out, name+"-home.html")); err != nil {
			t.Fatalf("variant %s missing: %v", name, err)
		}
	}
	for _, list := range []string{"css", "js", "img", "cssimage", "misc"} {
		if _, err := os.Stat(filepath.Join(out, "home."+list+"_list")); err != nil {
			t.Fatalf("%s list missing: %v", list, err)
		}
	}
	if got := readFile(t, filepath.Join(out, "home.css_list")); got != "css/a.css" {
		t.Fatalf("css list: %q", got)
	}
	if _, err := os.Stat(filepath.Join(out, "home.img_mapping")); !os.IsNotExist(err) {
		t.Fatalf("no mapping expected without downloaded images, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "missing_files.log")); !os.IsNotExist(err) {
		t.Fatalf("offline run must not write a retry log, got %v", err)
	}

	js3 := readFile(t, filepath.Join(out, "css1js3-home.html"))
	for _, want := range []string{`href="css/a.css"`, `src="js/b.js"`, `src="img/p.png"`, `href="about:blank"`, `<div id="pagelet_one"></div>`, `"onload"`, "onclick"} {
		if !strings.Contains(js3, want) {
			t.Fatalf("css1js3 lacks %q:\n%s", want, js3)
		}
	}
	if strings.Contains(js3, ".injected") || strings.Contains(js3, "tracking comment") {
		t.Fatalf("injected style or comment survived:\n%s", js3)
	}
	if strings.Index(js3, "Inner text") < strings.Index(js3, "onPageletArrive") {
		t.Fatalf("pagelet markup not moved into its payload:\n%s", js3)
	}

	if js2 := readFile(t, filepath.Join(out, "css1js2-home.html")); strings.Contains(js2, "onclick") {
		t.Fatalf("css1js2 keeps onclick")
	}
	js1 := readFile(t, filepath.Join(out, "css1js1-home.html"))
	if strings.Contains(js1, `"onload"`) || strings.Contains(js1, "var a = 1") || !strings.Contains(js1, "Bootloader.done") {
		t.Fatalf("css1js1 scripts not reduced:\n%s", js1)
	}
	if js0 := readFile(t, filepath.Join(out, "css1js0-home.html")); strings.Contains(js0, "big_pipe") {
		t.Fatalf("css1js0 keeps script bodies")
	}
	if css0 := readFile(t, filepath.Join(out, "css0js3-home.html")); !strings.Contains(css0, `href="dummy.css"`) || strings.Contains(css0, "css/a.css") {
		t.Fatalf("css0js3 still loads styles:\n%s", css0)
	}

	anon := readFile(t, filepath.Join(out, "anon_css1js1-home.html"))
	if !strings.Contains(anon, `id="pagelet_one"`) || strings.Contains(anon, "Inner text") || strings.Contains(anon, "Hello") {
		t.Fatalf("anon_css1js1 not anonymized:\n%s", anon)
	}

	var m Manifest
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(out, "home.manifest.json"))), &m); err != nil {
		t.Fatalf("manifest: %v", err)
	}
	if len(m.Variants) != len(VariantNames) || len(m.PageletIDs) != 1 || m.PageletIDs[0] != "pagelet_one" {
		t.Fatalf("manifest content: %+v", m)
	}
	if m.Resources["css"] != 1 || m.Resources["js"] != 1 || m.Resources["img"] != 1 {
		t.Fatalf("resource counts: %v", m.Resources)
	}
}

func TestConvert_DownloadsAndAnonymizesImages(t *testing.T) {
	var hits atomic.Int32
	img := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/static/a.css":
			w.Header().Set("Content-Type", "text/css")
			_, _ = w.Write([]byte(".nav{background:url(/rsrc.php/v1/x.png)} #keep{color:red}"))
		case "/static/b.js":
			w.Header().Set("Content-Type", "application/javascript")
			_, _ = w.Write([]byte("var b;"))
		case "/static/p.png", "/rsrc.php/v1/x.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(img)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.InputPath = writeSnapshot(t, dir, srv.URL)
	cfg.Site = srv.URL
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.AnonSeed = 7
	cfg.Timeout = 5 * time.Second
	cfg.EnablePDF = true
	runApp(t, cfg)

	for _, p := range []string{"css/a.css", "css/x.png", "js/b.js", "img/p.png", "home.report.pdf"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err != nil {
			t.Fatalf("%s not written: %v", p, err)
		}
	}
	if css := readFile(t, filepath.Join(dir, "css", "a.css")); !strings.Contains(css, "url(x.png)") {
		t.Fatalf("stylesheet image not localized: %q", css)
	}
	if got := readFile(t, filepath.Join(dir, "missing_files.log")); got != "" {
		t.Fatalf("expected empty retry log, got %q", got)
	}

	m, err := garble.LoadMapping(filepath.Join(dir, "home.img_mapping"))
	if err != nil {
		t.Fatalf("mapping: %v", err)
	}
	renamed := m["img/p.png"]
	if !strings.HasPrefix(renamed, "img/anonym_") || !strings.HasSuffix(renamed, ".png") {
		t.Fatalf("unexpected mapping %v", m)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(renamed))); err != nil {
		t.Fatalf("garbled copy missing: %v", err)
	}

	anon := readFile(t, filepath.Join(dir, "anon_css1js1-home.html"))
	if !strings.Contains(anon, `src="`+renamed+`"`) {
		t.Fatalf("anonymized variant does not use the renamed image:\n%s", anon)
	}
	if !strings.Contains(anon, `class="nav ?????"`) {
		t.Fatalf("stylesheet class not kept:\n%s", anon)
	}
	if js3 := readFile(t, filepath.Join(dir, "css1js3-home.html")); !strings.Contains(js3, `src="img/p.png"`) {
		t.Fatalf("plain variants must keep the original image")
	}

	// a second run reuses downloads and the mapping
	before := hits.Load()
	runApp(t, cfg)
	if hits.Load() != before {
		t.Fatalf("second run fetched again: %d -> %d", before, hits.Load())
	}
	if again := readFile(t, filepath.Join(dir, "anon_css1js1-home.html")); again != anon {
		t.Fatalf("second run changed the anonymized variant")
	}
}

func TestReadDocument_GuessesUndeclaredLatin1(t *testing.T) {
	in := filepath.Join(t.TempDir(), "latin.html")
	text := strings.Repeat("<p>Le caf\xe9 de la gare est ferm\xe9 depuis l'\xe9t\xe9 dernier.</p>\n", 20)
	if err := os.WriteFile(in, []byte("<html><body>"+text+"</body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, enc, err := readDocument(in)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	if !strings.Contains(doc, "café") || !strings.Contains(doc, "été") {
		t.Fatalf("not decoded (%s): %q", enc, doc[:80])
	}
}

func TestPrepare_KeepsHeadScriptsByDefault(t *testing.T) {
	doc := `<html><head><title>T</title><link rel="search" title="Facebook" href="x.xml"><script>keep()</script></head><body></body></html>`
	cfg := DefaultConfig()
	cfg.InputPath = "page.html"
	cfg.Offline = true
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.prepare(doc); !strings.Contains(got, "keep()") {
		t.Fatalf("default config stripped a head script:\n%s", got)
	}

	cfg.InjectedScripts = transform.InjectedScripts
	a, err = New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := a.prepare(doc); strings.Contains(got, "keep()") {
		t.Fatalf("configured region kept the injected script:\n%s", got)
	}
}
