package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/snapstrip/internal/markup"
	"github.com/hyperifyio/snapstrip/internal/resource"
	"github.com/hyperifyio/snapstrip/internal/transform"
)

// prepare removes what never belongs in a benchmark variant: block
// comments, the logger bootstrap script and resources injected into the
// head after the page loaded.
func (a *App) prepare(doc string) string {
	doc = markup.StripBlockComments(doc)
	doc = transform.RemoveLoggerScript(doc, a.cfg.LoggerMarker)
	doc = transform.StripInjectedStyles(doc, a.cfg.InjectedStyles)
	return transform.StripInjectedScripts(doc, a.cfg.InjectedScripts)
}

// convert localizes the snapshot's resources and writes every variant plus
// the run manifest.
func (a *App) convert(ctx context.Context) error {
	snap := newSnapshot(a.cfg.InputPath, a.cfg.OutputDir)
	doc, enc, err := readDocument(a.cfg.InputPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(snap.Root, 0o755); err != nil {
		return err
	}
	log.Info().Str("input", a.cfg.InputPath).Str("encoding", enc).Int("bytes", len(doc)).Msg("snapshot loaded")

	loc, err := a.localize(ctx, snap, a.prepare(doc))
	if err != nil {
		return fmt.Errorf("localize: %w", err)
	}
	missing := 0
	if store := a.store(snap); store != nil {
		missing, err = store.RetryMissing(ctx, resourceDirs())
		if err != nil {
			return fmt.Errorf("retry missing resources: %w", err)
		}
		if missing > 0 {
			log.Warn().Int("count", missing).Msg("resources still missing after retry")
		}
	}

	images, err := a.anonymizeImages(snap, loc.refs[resource.Image])
	if err != nil {
		return err
	}
	out, err := a.renderVariants(ctx, loc.doc, images, stylesheetSelectors(snap, loc.stylesheets))
	if err != nil {
		return err
	}

	m := Manifest{
		Snapshot:    snap.Name,
		Encoding:    enc,
		Version:     VersionString(),
		GeneratedAt: time.Now().UTC(),
		PageletIDs:  out.pageletIDs,
		Selectors:   out.selectors,
		Resources:   map[string]int{},
		Fetched:     loc.fetched,
		Missing:     missing,
		Images:      len(images),
	}
	for _, c := range resource.Classes {
		m.Resources[c.String()] = len(resource.Unique(loc.refs[c]))
	}
	for _, v := range out.variants {
		p := snap.variantPath(v.Name)
		if err := writeDocument(p, v.Doc); err != nil {
			return fmt.Errorf("write %s: %w", v.Name, err)
		}
		log.Info().Str("variant", v.Name).Int("bytes", len(v.Doc)).Msg("variant written")
		m.Variants = append(m.Variants, newVariantEntry(p, v))
	}

	b, err := marshalManifestJSON(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(snap.manifestPath(), b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if a.cfg.EnablePDF {
		if err := writeReportPDF(m, snap.reportPath()); err != nil {
			// the manifest already holds everything the report shows
			log.Warn().Err(err).Msg("report pdf failed")
		}
	}
	return nil
}
