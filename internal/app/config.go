package app

import (
	"time"

	"github.com/hyperifyio/snapstrip/internal/resource"
	"github.com/hyperifyio/snapstrip/internal/transform"
)

// Actions understood by Run.
const (
	ActionPretty  = "pretty"
	ActionConvert = "convert"
	// ActionBatch converts BatchDocument in every subdirectory of the input.
	ActionBatch = "batch"
	// ActionGarble garbles an image file, or the images directly inside a
	// directory, in place.
	ActionGarble = "garble"
)

// BatchDocument is the snapshot file name looked up by ActionBatch.
const BatchDocument = "dom.html"

// Config holds runtime configuration for the application.
type Config struct {
	Action    string
	InputPath string
	// OutputDir receives variants, manifests and resources. Empty means the
	// directory of the input file.
	OutputDir string

	// Pretty
	IndentWidth int

	// Anonymization
	AnonMode string
	// AnonSeed makes garbling reproducible; zero picks a random seed.
	AnonSeed uint64

	// Pagelets
	ExcludedFields []string

	// Resources
	Site string
	// NoLocalize lists resource classes ("css", "js", "img", "cssimage",
	// "misc") whose references are listed but left pointing at the network.
	NoLocalize []string
	// Offline rewrites references without downloading anything.
	Offline  bool
	DummyCSS string

	// Fetch
	Concurrency int
	MaxAttempts int
	// Rate caps resource requests per second; zero is unlimited.
	Rate        float64
	Timeout     time.Duration
	UserAgent   string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// Injected regions and logger script. InjectedScripts is empty by
	// default so every variant keeps the head scripts; set it to strip them.
	InjectedStyles  transform.Region
	InjectedScripts transform.Region
	LoggerMarker    string

	// Batch removes snapshot directories whose conversion failed.
	BatchPrune bool
	// GarbleTypes are the extensions picked up when garbling a directory.
	GarbleTypes []string

	EnablePDF bool
	Verbose   bool
}

// DefaultConfig returns the settings used when nothing else is configured.
func DefaultConfig() Config {
	return Config{
		Action:          ActionConvert,
		IndentWidth:     transform.DefaultIndentWidth,
		AnonMode:        transform.Mono.String(),
		ExcludedFields:  []string{"onload", "onafterload"},
		Site:            resource.DefaultSite,
		DummyCSS:        transform.DefaultDummyCSS,
		Concurrency:     8,
		MaxAttempts:     2,
		Timeout:         30 * time.Second,
		UserAgent:       "snapstrip/" + BuildVersion,
		CacheDir:        ".snapstrip-cache",
		InjectedStyles:  transform.InjectedStyles,
		LoggerMarker:    transform.DefaultLoggerMarker,
		GarbleTypes:     []string{".jpg", ".jpeg", ".png", ".gif"},
	}
}
