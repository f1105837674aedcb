package app

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/snapstrip/internal/transform"
)

func TestLoadConfigFile_YAML(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "snapstrip.yaml")
	content := `action: pretty
input: home.html
indent: 3
anonymize:
  mode: babble
  seed: 9
pagelets:
  exclude: [onload]
resources:
  site: http://cdn.example
  noLocalize: [img]
fetch:
  timeout: 5s
  rate: 2.5
  concurrency: 2
cache:
  dir: /tmp/snap-cache
  maxAge: 24h
injected:
  styles:
    start: "<!-- styles -->"
    end: "</head>"
report:
  pdf: true
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.Action != ActionPretty || cfg.InputPath != "home.html" || cfg.IndentWidth != 3 {
		t.Fatalf("top level: %+v", cfg)
	}
	if cfg.AnonMode != "babble" || cfg.AnonSeed != 9 {
		t.Fatalf("anonymize: %q %d", cfg.AnonMode, cfg.AnonSeed)
	}
	if !reflect.DeepEqual(cfg.ExcludedFields, []string{"onload"}) || !reflect.DeepEqual(cfg.NoLocalize, []string{"img"}) {
		t.Fatalf("lists: %v %v", cfg.ExcludedFields, cfg.NoLocalize)
	}
	if cfg.Timeout != 5*time.Second || cfg.Rate != 2.5 || cfg.Concurrency != 2 || cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("durations: %+v", cfg)
	}
	if cfg.InjectedStyles != (transform.Region{Start: "<!-- styles -->", End: "</head>"}) {
		t.Fatalf("styles region: %+v", cfg.InjectedStyles)
	}
	if cfg.InjectedScripts != (transform.Region{}) {
		t.Fatalf("unset region must keep its default: %+v", cfg.InjectedScripts)
	}
	if !cfg.EnablePDF || cfg.MaxAttempts != DefaultConfig().MaxAttempts {
		t.Fatalf("pdf/defaults: %+v", cfg)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "snapstrip.json")
	if err := os.WriteFile(p, []byte(`{"input":"a.html","resources":{"offline":true}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc)
	if cfg.InputPath != "a.html" || !cfg.Offline {
		t.Fatalf("json overlay: %+v", cfg)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := DefaultConfig()
	valid.InputPath = "x.html"
	if err := ValidateConfig(valid); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cases := map[string]func(*Config){
		"action":  func(c *Config) { c.Action = "explode" },
		"input":   func(c *Config) { c.InputPath = " " },
		"indent":  func(c *Config) { c.IndentWidth = -1 },
		"mode":    func(c *Config) { c.AnonMode = "loud" },
		"fields":  func(c *Config) { c.ExcludedFields = []string{"nope"} },
		"classes": func(c *Config) { c.NoLocalize = []string{"fonts"} },
		"limits":  func(c *Config) { c.Concurrency = -2 },
		"rate":    func(c *Config) { c.Rate = -1 },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		err := ValidateConfig(cfg)
		if err == nil || !strings.HasPrefix(err.Error(), "config:") {
			t.Fatalf("%s: expected config error, got %v", name, err)
		}
	}
}
