package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/snapstrip/internal/garble"
)

// garbleImages garbles the input in place. A directory input garbles the
// files directly inside it whose extension is listed in GarbleTypes.
func (a *App) garbleImages() error {
	info, err := os.Stat(a.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoDocument, err)
	}
	g := &garble.Garbler{Rand: a.newRand(2)}
	if !info.IsDir() {
		if err := g.File(a.cfg.InputPath); err != nil {
			return err
		}
		log.Info().Str("file", a.cfg.InputPath).Msg("image garbled")
		return nil
	}

	entries, err := os.ReadDir(a.cfg.InputPath)
	if err != nil {
		return err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !a.garbleType(e.Name()) {
			continue
		}
		if err := g.File(filepath.Join(a.cfg.InputPath, e.Name())); err != nil {
			return err
		}
		n++
	}
	log.Info().Str("dir", a.cfg.InputPath).Int("garbled", n).Msg("images garbled")
	return nil
}

func (a *App) garbleType(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, t := range a.cfg.GarbleTypes {
		if strings.ToLower(t) == ext {
			return true
		}
	}
	return false
}
