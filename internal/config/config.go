package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	DBPath    string `toml:"db_path"`
	OutputDir string `toml:"output_dir"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	HymnalPageDigits   int      `toml:"hymnal_page_digits"`
	CalendarPageDigits int      `toml:"calendar_page_digits"`
	SkipPhrases        []string `toml:"skip_phrases"`
	FuzzyThreshold     int      `toml:"fuzzy_threshold"`
	XLSXExport         bool     `toml:"xlsx_export"`

	YouTubeAPIKey       string `toml:"youtube_api_key"`
	YouTubeClientID     string `toml:"youtube_client_id"`
	YouTubeClientSecret string `toml:"youtube_client_secret"`
	YouTubeRefreshToken string `toml:"youtube_refresh_token"`
	YouTubeRateLimitRPS int    `toml:"youtube_rate_limit_rps"`
	YouTubeTimeoutMs    int    `toml:"youtube_timeout_ms"`
	YouTubeMaxRetries   int    `toml:"youtube_max_retries"`
}

// Default returns the configuration used when neither a config file nor
// environment variables override a field.
func Default() Config {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return Config{
		DBPath:    filepath.Join(cwd, "data", "hymnidx.db"),
		OutputDir: filepath.Join(cwd, "out"),

		LogLevel:  "info",
		LogFormat: "",

		HymnalPageDigits:   4,
		CalendarPageDigits: 3,
		SkipPhrases:        []string{"Index of First Lines", "continued", "Acknowledgements"},
		FuzzyThreshold:     70,
		XLSXExport:         false,

		YouTubeRateLimitRPS: 5,
		YouTubeTimeoutMs:    30000,
		YouTubeMaxRetries:   5,
	}
}

// Load layers defaults, the TOML file named by HYMNIDX_CONFIG (or
// ./hymnidx.toml when present) and environment variables, in that order.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path, explicit := configPath()
	if err := decodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func configPath() (string, bool) {
	if p := strings.TrimSpace(os.Getenv("HYMNIDX_CONFIG")); p != "" {
		return p, true
	}
	return "hymnidx.toml", false
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	cfg.HymnalPageDigits = getEnvInt("HYMNAL_PAGE_DIGITS", cfg.HymnalPageDigits)
	cfg.CalendarPageDigits = getEnvInt("CALENDAR_PAGE_DIGITS", cfg.CalendarPageDigits)
	cfg.SkipPhrases = getEnvList("SKIP_PHRASES", cfg.SkipPhrases)
	cfg.FuzzyThreshold = getEnvInt("FUZZY_THRESHOLD", cfg.FuzzyThreshold)
	cfg.XLSXExport = getEnvBool("XLSX_EXPORT", cfg.XLSXExport)

	cfg.YouTubeAPIKey = getEnv("YOUTUBE_API_KEY", cfg.YouTubeAPIKey)
	cfg.YouTubeClientID = getEnv("YOUTUBE_CLIENT_ID", cfg.YouTubeClientID)
	cfg.YouTubeClientSecret = getEnv("YOUTUBE_CLIENT_SECRET", cfg.YouTubeClientSecret)
	cfg.YouTubeRefreshToken = getEnv("YOUTUBE_REFRESH_TOKEN", cfg.YouTubeRefreshToken)
	cfg.YouTubeRateLimitRPS = getEnvInt("YOUTUBE_RATE_LIMIT_RPS", cfg.YouTubeRateLimitRPS)
	cfg.YouTubeTimeoutMs = getEnvInt("YOUTUBE_TIMEOUT_MS", cfg.YouTubeTimeoutMs)
	cfg.YouTubeMaxRetries = getEnvInt("YOUTUBE_MAX_RETRIES", cfg.YouTubeMaxRetries)
}

func (c Config) Validate() error {
	if c.HymnalPageDigits <= 0 {
		return fmt.Errorf("HYMNAL_PAGE_DIGITS must be positive, got %d", c.HymnalPageDigits)
	}
	if c.CalendarPageDigits <= 0 {
		return fmt.Errorf("CALENDAR_PAGE_DIGITS must be positive, got %d", c.CalendarPageDigits)
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("FUZZY_THRESHOLD must be within 0..100, got %d", c.FuzzyThreshold)
	}
	if c.YouTubeMaxRetries <= 0 {
		return fmt.Errorf("YOUTUBE_MAX_RETRIES must be positive, got %d", c.YouTubeMaxRetries)
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

// getEnvList splits a "|"-separated value; titles may contain commas.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
