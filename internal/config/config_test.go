package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "DB_PATH", "JWT_SECRET", "LOG_LEVEL", "TIMEZONE",
		"CACHE_BACKEND", "CACHE_TTL", "REDIS_ADDR", "NIGHTLY_JOB_HOUR",
		"BACKGROUND_TIMEOUT", "RATE_LIMIT", "RATE_LIMIT_WINDOW",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != *Defaults() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \":9000\"\ntimezone: Asia/Shanghai\ncache_backend: redis\ncache_ttl: 90s\nnightly_job_hour: 3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", ":9100")
	t.Setenv("BACKGROUND_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != ":9100" {
		t.Errorf("env should override file, got port %s", cfg.Port)
	}
	if cfg.Timezone != "Asia/Shanghai" || cfg.CacheBackend != "redis" || cfg.NightlyJobHour != 3 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.CacheTTL != 90*time.Second || cfg.BackgroundTimeout != 5*time.Second {
		t.Errorf("unexpected durations: ttl=%v timeout=%v", cfg.CacheTTL, cfg.BackgroundTimeout)
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatal(err)
	}
	if loc.String() != "Asia/Shanghai" {
		t.Errorf("unexpected location %s", loc)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"TIMEZONE":         "Mars/Olympus",
		"NIGHTLY_JOB_HOUR": "24",
		"CACHE_TTL":        "soon",
		"RATE_LIMIT":       "many",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
