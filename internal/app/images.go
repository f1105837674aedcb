package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/snapstrip/internal/garble"
	"github.com/hyperifyio/snapstrip/internal/resource"
)

// anonymizeImages returns the table renaming localized images for the
// anonymized variants. An existing table is reused as is; otherwise every
// downloaded image gets a fresh name and a garbled copy under that name.
func (a *App) anonymizeImages(snap snapshot, refs []resource.Ref) (garble.Mapping, error) {
	p := snap.mappingPath()
	m, err := garble.LoadMapping(p)
	if err == nil {
		log.Info().Int("images", len(m)).Str("mapping", p).Msg("reusing image mapping")
		return m, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load image mapping: %w", err)
	}

	m = garble.Mapping{}
	sources := map[string]string{}
	var keys []string
	for _, r := range resource.Unique(refs) {
		if r.Local == "" {
			continue
		}
		if _, err := os.Stat(snap.resourcePath(r.Path())); err != nil {
			continue
		}
		sources[r.Local] = r.Path()
		keys = append(keys, r.Local)
	}
	if len(keys) == 0 {
		return m, nil
	}
	m.Assign(keys, a.newRand(1))
	g := &garble.Garbler{Rand: a.newRand(2)}
	done := g.Materialize(snap.Root, m, sources)
	if err := m.Save(p); err != nil {
		return nil, fmt.Errorf("save image mapping: %w", err)
	}
	log.Info().Int("images", len(keys)).Int("garbled", len(done)).Msg("images anonymized")
	return m, nil
}
