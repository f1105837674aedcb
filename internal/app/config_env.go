package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvOverrides.
const EnvPrefix = "SNAPSTRIP_"

func env(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

// ApplyEnvOverrides overrides cfg fields with SNAPSTRIP_* environment
// variables that are set. Call it after ApplyFileConfig and before applying
// explicitly set flags so the environment sits between the two.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString := func(dst *string, key string) {
		if v := env(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := env(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if v := env(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	setList := func(dst *[]string, key string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = splitList(v)
		}
	}
	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(env(key)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}

	setString(&cfg.Action, "ACTION")
	setString(&cfg.InputPath, "INPUT")
	setString(&cfg.OutputDir, "OUTPUT_DIR")
	setInt(&cfg.IndentWidth, "INDENT")
	setString(&cfg.AnonMode, "ANON_MODE")
	if v := env("ANON_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.AnonSeed = n
		}
	}
	setList(&cfg.ExcludedFields, "EXCLUDE_FIELDS")
	setString(&cfg.Site, "SITE")
	setList(&cfg.NoLocalize, "NO_LOCALIZE")
	setBool(&cfg.Offline, "OFFLINE")
	setString(&cfg.DummyCSS, "DUMMY_CSS")

	setInt(&cfg.Concurrency, "CONCURRENCY")
	setInt(&cfg.MaxAttempts, "MAX_ATTEMPTS")
	if v := env("RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Rate = f
		}
	}
	setDuration(&cfg.Timeout, "TIMEOUT")
	setString(&cfg.UserAgent, "USER_AGENT")

	setString(&cfg.CacheDir, "CACHE_DIR")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")

	setString(&cfg.LoggerMarker, "LOGGER_MARKER")
	setBool(&cfg.BatchPrune, "BATCH_PRUNE")
	setList(&cfg.GarbleTypes, "GARBLE_TYPES")
	setBool(&cfg.EnablePDF, "PDF")
	setBool(&cfg.Verbose, "VERBOSE")
}

// splitList splits a comma-separated list, dropping blank entries.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
