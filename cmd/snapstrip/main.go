package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/snapstrip/internal/app"
)

const usage = `usage: snapstrip [flags] [pretty|convert] <snapshot.html>
       snapstrip [flags] batch <dir>
       snapstrip [flags] garble <image|dir>

Rewrites a saved page snapshot into benchmark variants. The action defaults
to convert. batch converts <dir>/*/dom.html; garble replaces images in place.

Flags:
`

// options are the command line values before they are layered over the
// file and environment configuration.
type options struct {
	configPath  string
	envFiles    string
	showVersion bool

	outputDir   string
	indent      int
	anonMode    string
	anonSeed    uint64
	exclude     string
	site        string
	noLocalize  string
	offline     bool
	dummyCSS    string
	concurrency int
	attempts    int
	rate        float64
	timeout     time.Duration
	userAgent   string
	cacheDir    string
	cacheMaxAge time.Duration
	cacheClear  bool
	cacheStrict bool
	logger      string
	pdf         bool
	batchPrune  bool
	garbleTypes string
	verbose     bool
}

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, showVersion, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid arguments")
		os.Exit(1)
	}
	if showVersion {
		fmt.Println(app.VersionString())
		return
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps run errors to the process status: 2 when there was no
// document to work on, 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoDocument):
		return 2
	default:
		return 1
	}
}

// parseArgs builds the configuration from defaults, the optional config
// file, the environment and finally the flags given explicitly on the
// command line.
func parseArgs(args []string, stderr io.Writer) (app.Config, bool, error) {
	def := app.DefaultConfig()
	var o options

	fs := flag.NewFlagSet("snapstrip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.configPath, "config", "", "Path to a YAML or JSON config file")
	fs.StringVar(&o.envFiles, "env", "", "Comma-separated dotenv files loaded before reading SNAPSTRIP_* variables")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.StringVar(&o.outputDir, "out", "", "Output directory (default: directory of the snapshot)")
	fs.IntVar(&o.indent, "indent", def.IndentWidth, "Spaces per nesting level for pretty")
	fs.StringVar(&o.anonMode, "anon.mode", def.AnonMode, "Anonymization mode: mono or babble")
	fs.Uint64Var(&o.anonSeed, "anon.seed", 0, "Seed for reproducible anonymization (0 picks a random seed)")
	fs.StringVar(&o.exclude, "pagelet.exclude", strings.Join(def.ExcludedFields, ","), "Comma-separated payload fields dropped from js1 variants")
	fs.StringVar(&o.site, "site", def.Site, "Origin prepended to root-relative image URLs")
	fs.StringVar(&o.noLocalize, "no-localize", "", "Comma-separated resource classes left pointing at the network (css,js,img,cssimage,misc)")
	fs.BoolVar(&o.offline, "offline", false, "Rewrite references without downloading resources")
	fs.StringVar(&o.dummyCSS, "dummy.css", def.DummyCSS, "Stylesheet referenced by the css0 variants")
	fs.IntVar(&o.concurrency, "fetch.concurrency", def.Concurrency, "Parallel resource downloads")
	fs.IntVar(&o.attempts, "fetch.attempts", def.MaxAttempts, "Attempts per resource download")
	fs.Float64Var(&o.rate, "fetch.rate", 0, "Maximum resource requests per second; 0 disables pacing")
	fs.DurationVar(&o.timeout, "fetch.timeout", def.Timeout, "Timeout per resource request")
	fs.StringVar(&o.userAgent, "fetch.ua", def.UserAgent, "User-Agent for resource requests")
	fs.StringVar(&o.cacheDir, "cache.dir", def.CacheDir, "HTTP cache directory path")
	fs.DurationVar(&o.cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&o.cacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&o.cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.StringVar(&o.logger, "logger.marker", def.LoggerMarker, "Text identifying the logger bootstrap script")
	fs.BoolVar(&o.pdf, "report.pdf", false, "Write a PDF summary next to the manifest")
	fs.BoolVar(&o.batchPrune, "batch.prune", false, "Remove snapshot directories that fail to convert in batch mode")
	fs.StringVar(&o.garbleTypes, "garble.types", strings.Join(def.GarbleTypes, ","), "Comma-separated extensions garbled in a directory")
	fs.BoolVar(&o.verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return def, false, err
	}
	if o.showVersion {
		return def, true, nil
	}

	cfg := def
	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return cfg, false, fmt.Errorf("load config %s: %w", o.configPath, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if o.envFiles != "" {
		if err := app.LoadEnvFiles(splitList(o.envFiles)...); err != nil {
			return cfg, false, fmt.Errorf("load env files: %w", err)
		}
	}
	app.ApplyEnvOverrides(&cfg)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.OutputDir = o.outputDir
		case "indent":
			cfg.IndentWidth = o.indent
		case "anon.mode":
			cfg.AnonMode = o.anonMode
		case "anon.seed":
			cfg.AnonSeed = o.anonSeed
		case "pagelet.exclude":
			cfg.ExcludedFields = splitList(o.exclude)
		case "site":
			cfg.Site = o.site
		case "no-localize":
			cfg.NoLocalize = splitList(o.noLocalize)
		case "offline":
			cfg.Offline = o.offline
		case "dummy.css":
			cfg.DummyCSS = o.dummyCSS
		case "fetch.concurrency":
			cfg.Concurrency = o.concurrency
		case "fetch.attempts":
			cfg.MaxAttempts = o.attempts
		case "fetch.rate":
			cfg.Rate = o.rate
		case "fetch.timeout":
			cfg.Timeout = o.timeout
		case "fetch.ua":
			cfg.UserAgent = o.userAgent
		case "cache.dir":
			cfg.CacheDir = o.cacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = o.cacheMaxAge
		case "cache.clear":
			cfg.CacheClear = o.cacheClear
		case "cache.strictPerms":
			cfg.CacheStrictPerms = o.cacheStrict
		case "logger.marker":
			cfg.LoggerMarker = o.logger
		case "report.pdf":
			cfg.EnablePDF = o.pdf
		case "batch.prune":
			cfg.BatchPrune = o.batchPrune
		case "garble.types":
			cfg.GarbleTypes = splitList(o.garbleTypes)
		case "v":
			cfg.Verbose = o.verbose
		}
	})

	rest := fs.Args()
	if len(rest) > 0 {
		switch rest[0] {
		case app.ActionPretty, app.ActionConvert, app.ActionBatch, app.ActionGarble:
			cfg.Action = rest[0]
			rest = rest[1:]
		}
	}
	switch len(rest) {
	case 0:
	case 1:
		cfg.InputPath = rest[0]
	default:
		return cfg, false, fmt.Errorf("unexpected arguments: %s", strings.Join(rest[1:], " "))
	}
	if strings.TrimSpace(cfg.InputPath) == "" {
		fs.Usage()
		return cfg, false, errors.New("missing snapshot file")
	}
	return cfg, false, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
