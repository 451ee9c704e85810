package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdirTemp mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HYMNIDX_CONFIG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HymnalPageDigits != 4 || cfg.CalendarPageDigits != 3 {
		t.Fatalf("digits=%d/%d", cfg.HymnalPageDigits, cfg.CalendarPageDigits)
	}
	if cfg.FuzzyThreshold != 70 {
		t.Fatalf("threshold=%d", cfg.FuzzyThreshold)
	}
	if len(cfg.SkipPhrases) != 3 {
		t.Fatalf("skip phrases=%v", cfg.SkipPhrases)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	body := "fuzzy_threshold = 55\nhymnal_page_digits = 5\nskip_phrases = [\"Index\"]\nxlsx_export = true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HYMNIDX_CONFIG", path)
	t.Setenv("FUZZY_THRESHOLD", "80")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.FuzzyThreshold != 80 {
		t.Fatalf("env should win over file, threshold=%d", cfg.FuzzyThreshold)
	}
	if cfg.HymnalPageDigits != 5 {
		t.Fatalf("digits=%d", cfg.HymnalPageDigits)
	}
	if !cfg.XLSXExport {
		t.Fatal("xlsx export not read from file")
	}
	if len(cfg.SkipPhrases) != 1 || cfg.SkipPhrases[0] != "Index" {
		t.Fatalf("skip phrases=%v", cfg.SkipPhrases)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("HYMNIDX_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "hymnal digits", mutate: func(c *Config) { c.HymnalPageDigits = 0 }},
		{name: "calendar digits", mutate: func(c *Config) { c.CalendarPageDigits = -1 }},
		{name: "threshold", mutate: func(c *Config) { c.FuzzyThreshold = 101 }},
		{name: "retries", mutate: func(c *Config) { c.YouTubeMaxRetries = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("SKIP_PHRASES", "Index of First Lines| continued |")
	got := getEnvList("SKIP_PHRASES", nil)
	if len(got) != 2 || got[1] != "continued" {
		t.Fatalf("got %v", got)
	}
}
