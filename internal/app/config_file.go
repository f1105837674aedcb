package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/snapstrip/internal/pagelet"
	"github.com/hyperifyio/snapstrip/internal/resource"
	"github.com/hyperifyio/snapstrip/internal/transform"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Action string `yaml:"action" json:"action"`
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
	Indent int    `yaml:"indent" json:"indent"`

	Anonymize struct {
		Mode string `yaml:"mode" json:"mode"`
		Seed uint64 `yaml:"seed" json:"seed"`
	} `yaml:"anonymize" json:"anonymize"`

	Pagelets struct {
		Exclude []string `yaml:"exclude" json:"exclude"`
	} `yaml:"pagelets" json:"pagelets"`

	Resources struct {
		Site       string   `yaml:"site" json:"site"`
		NoLocalize []string `yaml:"noLocalize" json:"noLocalize"`
		Offline    bool     `yaml:"offline" json:"offline"`
		DummyCSS   string   `yaml:"dummyCSS" json:"dummyCSS"`
	} `yaml:"resources" json:"resources"`

	Fetch struct {
		Concurrency int           `yaml:"concurrency" json:"concurrency"`
		Attempts    int           `yaml:"attempts" json:"attempts"`
		Rate        float64       `yaml:"rate" json:"rate"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout"`
		UserAgent   string        `yaml:"userAgent" json:"userAgent"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Injected struct {
		Styles       *region `yaml:"styles" json:"styles"`
		Scripts      *region `yaml:"scripts" json:"scripts"`
		LoggerMarker string  `yaml:"loggerMarker" json:"loggerMarker"`
	} `yaml:"injected" json:"injected"`

	Batch struct {
		Prune bool `yaml:"prune" json:"prune"`
	} `yaml:"batch" json:"batch"`

	Garble struct {
		Types []string `yaml:"types" json:"types"`
	} `yaml:"garble" json:"garble"`

	Report struct {
		PDF bool `yaml:"pdf" json:"pdf"`
	} `yaml:"report" json:"report"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

type region struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. cfg normally
// holds defaults at this point; environment and flags are applied after.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	setString(&cfg.Action, fc.Action)
	setString(&cfg.InputPath, fc.Input)
	setString(&cfg.OutputDir, fc.Output)
	if fc.Indent > 0 {
		cfg.IndentWidth = fc.Indent
	}

	setString(&cfg.AnonMode, fc.Anonymize.Mode)
	if fc.Anonymize.Seed != 0 {
		cfg.AnonSeed = fc.Anonymize.Seed
	}
	if fc.Pagelets.Exclude != nil {
		cfg.ExcludedFields = append([]string{}, fc.Pagelets.Exclude...)
	}

	setString(&cfg.Site, fc.Resources.Site)
	if len(fc.Resources.NoLocalize) > 0 {
		cfg.NoLocalize = append([]string{}, fc.Resources.NoLocalize...)
	}
	if fc.Resources.Offline {
		cfg.Offline = true
	}
	setString(&cfg.DummyCSS, fc.Resources.DummyCSS)

	if fc.Fetch.Concurrency > 0 {
		cfg.Concurrency = fc.Fetch.Concurrency
	}
	if fc.Fetch.Attempts > 0 {
		cfg.MaxAttempts = fc.Fetch.Attempts
	}
	if fc.Fetch.Rate > 0 {
		cfg.Rate = fc.Fetch.Rate
	}
	if fc.Fetch.Timeout > 0 {
		cfg.Timeout = fc.Fetch.Timeout
	}
	setString(&cfg.UserAgent, fc.Fetch.UserAgent)

	setString(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if r := fc.Injected.Styles; r != nil {
		cfg.InjectedStyles = transform.Region{Start: r.Start, End: r.End}
	}
	if r := fc.Injected.Scripts; r != nil {
		cfg.InjectedScripts = transform.Region{Start: r.Start, End: r.End}
	}
	setString(&cfg.LoggerMarker, fc.Injected.LoggerMarker)

	if fc.Batch.Prune {
		cfg.BatchPrune = true
	}
	if len(fc.Garble.Types) > 0 {
		cfg.GarbleTypes = append([]string{}, fc.Garble.Types...)
	}
	if fc.Report.PDF {
		cfg.EnablePDF = true
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	switch cfg.Action {
	case ActionPretty, ActionConvert, ActionBatch, ActionGarble:
	default:
		return fmt.Errorf("config: unknown action %q (want %s, %s, %s or %s)", cfg.Action, ActionPretty, ActionConvert, ActionBatch, ActionGarble)
	}
	if strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: input path is required")
	}
	if cfg.IndentWidth < 0 {
		return errors.New("config: indent must not be negative")
	}
	if cfg.Concurrency < 0 || cfg.MaxAttempts < 0 || cfg.Timeout < 0 || cfg.Rate < 0 {
		return errors.New("config: negative fetch limits are not allowed")
	}
	if _, err := transform.ParseMode(cfg.AnonMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := pagelet.ParseFieldSet(cfg.ExcludedFields); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := parseClasses(cfg.NoLocalize); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// parseClasses maps class names to resource classes.
func parseClasses(names []string) ([]resource.Class, error) {
	var out []resource.Class
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		found := false
		for _, c := range resource.Classes {
			if c.String() == n {
				out = append(out, c)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown resource class %q", n)
		}
	}
	return out, nil
}
