package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/snapstrip/internal/cache"
	"github.com/hyperifyio/snapstrip/internal/fetch"
	"github.com/hyperifyio/snapstrip/internal/pagelet"
	"github.com/hyperifyio/snapstrip/internal/resource"
	"github.com/hyperifyio/snapstrip/internal/transform"
)

type App struct {
	cfg       Config
	mode      transform.Mode
	excluded  pagelet.FieldSet
	localizer resource.Localizer
	// client is nil when resources are not downloaded.
	client *fetch.Client
}

// New validates cfg and prepares the resource client and cache.
func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	mode, _ := transform.ParseMode(cfg.AnonMode)
	excluded, _ := pagelet.ParseFieldSet(cfg.ExcludedFields)
	skip, _ := parseClasses(cfg.NoLocalize)

	a := &App{cfg: cfg, mode: mode, excluded: excluded, localizer: resource.Localizer{Site: cfg.Site}}
	if len(skip) > 0 {
		a.localizer.Localize = map[resource.Class]bool{}
		for _, c := range resource.Classes {
			a.localizer.Localize[c] = true
		}
		for _, c := range skip {
			a.localizer.Localize[c] = false
		}
	}

	if (cfg.Action != ActionConvert && cfg.Action != ActionBatch) || cfg.Offline {
		return a, nil
	}
	var rc *cache.ResourceCache
	if cfg.CacheDir != "" {
		// Apply cache invalidation controls; failures only cost a refetch
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("count", n).Msg("expired cache entries removed")
			}
		}
		rc = &cache.ResourceCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	a.client = &fetch.Client{
		HTTPClient:        newResourceHTTPClient(cfg.Concurrency, cfg.Timeout),
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.Timeout,
		Cache:             rc,
		MaxConcurrent:     cfg.Concurrency,
	}
	if cfg.Rate > 0 {
		a.client.Limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return a, nil
}

func (a *App) Close() {
	if a.client != nil && a.client.HTTPClient != nil {
		a.client.HTTPClient.CloseIdleConnections()
	}
}

// Run performs the configured action.
func (a *App) Run(ctx context.Context) error {
	switch a.cfg.Action {
	case ActionPretty:
		return a.pretty()
	case ActionConvert:
		return a.convert(ctx)
	case ActionBatch:
		return a.batch(ctx)
	case ActionGarble:
		return a.garbleImages()
	}
	return fmt.Errorf("unknown action %q", a.cfg.Action)
}

// pretty writes "pretty-<name>" with one line per token.
func (a *App) pretty() error {
	snap := newSnapshot(a.cfg.InputPath, a.cfg.OutputDir)
	doc, enc, err := readDocument(a.cfg.InputPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(snap.Root, 0o755); err != nil {
		return err
	}
	out := filepath.Join(snap.Root, "pretty-"+snap.Name)
	if err := writeDocument(out, transform.Pretty(doc, a.cfg.IndentWidth)); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Info().Str("encoding", enc).Str("output", out).Msg("pretty printed")
	return nil
}

// newRand returns a source seeded from AnonSeed plus salt, or a random one.
func (a *App) newRand(salt uint64) *rand.Rand {
	if a.cfg.AnonSeed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(a.cfg.AnonSeed, salt))
}
