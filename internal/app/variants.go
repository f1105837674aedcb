package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/snapstrip/internal/pagelet"
	"github.com/hyperifyio/snapstrip/internal/resource"
	"github.com/hyperifyio/snapstrip/internal/selectors"
	"github.com/hyperifyio/snapstrip/internal/transform"
)

// Variant is one rendered benchmark document. The name encodes the style
// level (css1 loaded, css0 dummy) and the script level (js3 everything, js2
// no onclick handlers, js1 only pagelet payloads, js0 no script bodies).
type Variant struct {
	Name string
	Doc  string
}

// VariantNames lists the variants in the order they are written.
var VariantNames = []string{
	"css1js3", "css1js2", "css1js1", "css1js0",
	"css0js3", "css0js2", "css0js1", "css0js0",
	"anon_css1js1", "anon_css1js0", "anon_css0js1", "anon_css0js0",
}

type rendered struct {
	variants   []Variant
	pageletIDs []string
	selectors  int
}

// renderVariants derives every variant from the localized base document.
// Each variant starts from an immutable string, so they render in parallel.
func (a *App) renderVariants(ctx context.Context, base string, images map[string]string, styles selectors.Index) (rendered, error) {
	out := make([]Variant, len(VariantNames))
	var ids []string
	set := func(i int, doc string) {
		out[i] = Variant{Name: VariantNames[i], Doc: doc}
	}
	pair := func(i int, doc string) {
		set(i, doc)
		set(i+4, transform.UnloadCSS(doc, a.cfg.DummyCSS))
	}

	dom12 := transform.StripOnclick(base)
	dom11 := transform.KeepPipeScripts(dom12)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := pagelet.Reassemble(base, nil)
		ids = res.IDs
		pair(0, res.Document)
		return gctx.Err()
	})
	g.Go(func() error {
		pair(1, pagelet.Reassemble(dom12, nil).Document)
		return gctx.Err()
	})
	g.Go(func() error {
		pair(2, pagelet.Reassemble(dom11, a.excluded).Document)
		return gctx.Err()
	})
	g.Go(func() error {
		pair(3, transform.BlankScripts(dom12))
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return rendered{}, err
	}

	// anonymized variants keep every pagelet id and stylesheet selector
	index := selectors.New()
	index.Merge(styles)
	index.AddIDs(ids...)
	anon := &transform.Anonymizer{Selectors: index, Mode: a.mode, Rand: a.newRand(3)}
	anon11 := anon.Apply(resource.RenameImages(dom11, images))

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		doc := pagelet.Reassemble(anon11, a.excluded).Document
		set(8, doc)
		set(10, transform.UnloadCSS(doc, a.cfg.DummyCSS))
		return gctx.Err()
	})
	g.Go(func() error {
		doc := transform.BlankScripts(anon11)
		set(9, doc)
		set(11, transform.UnloadCSS(doc, a.cfg.DummyCSS))
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return rendered{}, err
	}
	return rendered{variants: out, pageletIDs: ids, selectors: index.Len()}, nil
}
