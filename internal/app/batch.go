package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// ErrBatchIncomplete is returned when at least one snapshot of a batch
// failed to convert.
var ErrBatchIncomplete = errors.New("batch incomplete")

// batch converts "<dir>/dom.html" for every subdirectory of the input
// directory, writing the variants next to each snapshot.
func (a *App) batch(ctx context.Context) error {
	entries, err := os.ReadDir(a.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDocument, err)
	}
	var found, failed int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := filepath.Join(a.cfg.InputPath, e.Name())
		doc := filepath.Join(dir, BatchDocument)
		if _, err := os.Stat(doc); err != nil {
			continue
		}
		found++

		sub := *a
		sub.cfg.InputPath = doc
		sub.cfg.OutputDir = ""
		if err := sub.convert(ctx); err != nil {
			failed++
			log.Warn().Err(err).Str("dir", dir).Msg("snapshot conversion failed")
			if a.cfg.BatchPrune {
				if err := os.RemoveAll(dir); err != nil {
					log.Warn().Err(err).Str("dir", dir).Msg("remove failed snapshot")
				} else {
					log.Info().Str("dir", dir).Msg("failed snapshot removed")
				}
			}
			continue
		}
		log.Info().Str("dir", dir).Msg("snapshot converted")
	}
	if found == 0 {
		return fmt.Errorf("%w: no %s under %s", ErrNoDocument, BatchDocument, a.cfg.InputPath)
	}
	log.Info().Int("snapshots", found).Int("failed", failed).Msg("batch finished")
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d snapshots failed", ErrBatchIncomplete, failed, found)
	}
	return nil
}
