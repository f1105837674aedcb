package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/snapstrip/internal/fetch"
	"github.com/hyperifyio/snapstrip/internal/resource"
	"github.com/hyperifyio/snapstrip/internal/selectors"
)

// localized is the snapshot after every resource reference was rewritten.
type localized struct {
	doc  string
	refs map[resource.Class][]resource.Ref
	// stylesheets are the slash separated paths of the local stylesheets.
	stylesheets []string
	fetched     fetch.Summary
}

// resourceDirs lists the directories that hold downloaded resources.
func resourceDirs() []string {
	var dirs []string
	seen := map[string]bool{}
	for _, c := range resource.Classes {
		if d := c.Dir(); !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// localize points stylesheets, scripts, images and miscellaneous resources
// at local copies, downloads them and writes one listing per class.
// Stylesheets are saved first because the images they reference are only
// known once they are on disk.
func (a *App) localize(ctx context.Context, snap snapshot, doc string) (localized, error) {
	l := a.localizer
	out := localized{refs: map[resource.Class][]resource.Ref{}}
	store := a.store(snap)

	doc, css := l.CSSInHTML(doc)
	doc, cssJSON := l.CSSInJSON(doc)
	css = append(css, cssJSON...)
	if err := a.download(ctx, store, css, &out.fetched); err != nil {
		return out, err
	}
	cssImages, sheets := a.localizeStylesheets(snap, css)
	out.refs[resource.CSS] = css
	out.refs[resource.CSSImage] = cssImages
	out.stylesheets = sheets

	doc, js := l.JSInHTML(doc)
	doc, jsJSON := l.JSInJSON(doc)
	js = append(js, jsJSON...)
	out.refs[resource.JS] = js

	doc, images := l.ImagesInHTML(doc)
	out.refs[resource.Image] = images

	doc, misc := l.Misc(doc)
	out.refs[resource.Misc] = misc
	doc = resource.BlankLinks(doc)

	var rest []resource.Ref
	for _, refs := range [][]resource.Ref{cssImages, js, images, misc} {
		rest = append(rest, refs...)
	}
	if err := a.download(ctx, store, rest, &out.fetched); err != nil {
		return out, err
	}

	for _, c := range resource.Classes {
		lines := resource.Listing(out.refs[c])
		if err := os.WriteFile(snap.listPath(c), []byte(strings.Join(lines, "\n")), 0o644); err != nil {
			return out, fmt.Errorf("write %s list: %w", c, err)
		}
		log.Debug().Str("class", c.String()).Int("count", len(lines)).Msg("resources listed")
	}
	out.doc = doc
	return out, nil
}

func (a *App) store(snap snapshot) *fetch.Store {
	if a.client == nil {
		return nil
	}
	return &fetch.Store{Client: a.client, Root: snap.Root, Concurrency: a.cfg.Concurrency}
}

// download saves the localized references of refs that can be fetched.
func (a *App) download(ctx context.Context, store *fetch.Store, refs []resource.Ref, sum *fetch.Summary) error {
	if store == nil {
		return nil
	}
	var items []fetch.Item
	for _, r := range resource.Unique(refs) {
		if r.Local == "" || !isHTTPURL(r.Download) {
			continue
		}
		items = append(items, fetch.Item{URL: r.Download, Dir: r.Class.Dir(), File: r.File})
	}
	if len(items) == 0 {
		return nil
	}
	s, err := store.SaveAll(ctx, items)
	sum.Saved += s.Saved
	sum.Skipped += s.Skipped
	sum.Failed += s.Failed
	log.Info().Int("saved", s.Saved).Int("skipped", s.Skipped).Int("failed", s.Failed).Msg("resources fetched")
	return err
}

// localizeStylesheets rewrites the images referenced by every local
// stylesheet and returns those references together with the stylesheets
// found on disk.
func (a *App) localizeStylesheets(snap snapshot, css []resource.Ref) ([]resource.Ref, []string) {
	var (
		images []resource.Ref
		sheets []string
	)
	for _, r := range resource.Unique(css) {
		if r.Local == "" {
			continue
		}
		p := snap.resourcePath(r.Path())
		b, err := os.ReadFile(p)
		if err != nil {
			log.Debug().Err(err).Str("stylesheet", r.Path()).Msg("stylesheet not available")
			continue
		}
		sheets = append(sheets, r.Path())
		text, refs := a.localizer.ImagesInCSS(string(b))
		images = append(images, refs...)
		if text == string(b) {
			continue
		}
		if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
			log.Warn().Err(err).Str("stylesheet", r.Path()).Msg("rewrite failed")
		}
	}
	return images, sheets
}

// stylesheetSelectors indexes the ids and classes used by the local
// stylesheets.
func stylesheetSelectors(snap snapshot, sheets []string) selectors.Index {
	idx := selectors.New()
	for _, s := range sheets {
		b, err := os.ReadFile(snap.resourcePath(s))
		if err != nil {
			continue
		}
		idx.Merge(selectors.FromCSS(string(b)))
	}
	return idx
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
