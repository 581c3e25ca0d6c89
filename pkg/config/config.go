package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the feed scraper
type Config struct {
	// Target site endpoints and markers
	Site SiteConfig `yaml:"site" json:"site"`

	// Browser session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Infinite-scroll termination settings
	Scroll ScrollConfig `yaml:"scroll" json:"scroll"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SiteConfig holds the site-specific URLs and identifiers
type SiteConfig struct {
	BaseURL       string `yaml:"base_url" json:"base_url"`
	APIPrefix     string `yaml:"api_prefix" json:"api_prefix"`
	StateScriptID string `yaml:"state_script_id" json:"state_script_id"`
	TelemetryURL  string `yaml:"telemetry_url" json:"telemetry_url"`
}

// BrowserConfig holds render engine configuration
type BrowserConfig struct {
	Headless  bool   `yaml:"headless" json:"headless"`
	Stealth   bool   `yaml:"stealth" json:"stealth"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	Locale    string `yaml:"locale" json:"locale"`
	Bin       string `yaml:"bin" json:"bin"`
}

// ScrollConfig holds scroll loop configuration
type ScrollConfig struct {
	WindowSize int     `yaml:"window_size" json:"window_size"`
	StepPixels float64 `yaml:"step_pixels" json:"step_pixels"`
	LoadState  string  `yaml:"load_state" json:"load_state"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Directory         string        `yaml:"directory" json:"directory"`
	MaxConcurrent     int           `yaml:"max_concurrent" json:"max_concurrent"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	Referer           string        `yaml:"referer" json:"referer"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Load states accepted by the scroll loop
const (
	LoadStateDOMContentLoaded = "domcontentloaded"
	LoadStateLoad             = "load"
	LoadStateIdle             = "idle"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:       "https://www.tiktok.com",
			APIPrefix:     "https://www.tiktok.com/api/post/item_list/",
			StateScriptID: "SIGI_STATE",
			TelemetryURL:  "https://mon-va.byteoversea.com/monitor_browser/collect/batch/",
		},
		Browser: BrowserConfig{
			Headless:  true,
			Stealth:   true,
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/103.0.5060.53 Safari/537.36",
			Locale:    defaultLocale(),
		},
		Scroll: ScrollConfig{
			WindowSize: 300,
			StepPixels: 75,
			LoadState:  LoadStateDOMContentLoaded,
		},
		Download: DownloadConfig{
			Directory:         "video",
			MaxConcurrent:     0, // 0 means unbounded fan-out
			RequestsPerMinute: 0, // 0 means no pacing
			Timeout:           0, // 0 means rely on transport defaults
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/103.0.0.0 Safari/537.36",
			Referer:           "https://www.tiktok.com/",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// defaultLocale derives a BCP 47 tag from the process environment
func defaultLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		// en_US.UTF-8 -> en-US
		if i := strings.IndexAny(v, ".@"); i >= 0 {
			v = v[:i]
		}
		return strings.ReplaceAll(v, "_", "-")
	}
	return "en-US"
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("TTSCRAPER_BASE_URL"); baseURL != "" {
		c.Site.BaseURL = baseURL
	}
	if prefix := os.Getenv("TTSCRAPER_API_PREFIX"); prefix != "" {
		c.Site.APIPrefix = prefix
	}

	if headless := os.Getenv("TTSCRAPER_HEADLESS"); headless != "" {
		val, err := strconv.ParseBool(headless)
		if err != nil {
			return fmt.Errorf("invalid TTSCRAPER_HEADLESS: %w", err)
		}
		c.Browser.Headless = val
	}
	if userAgent := os.Getenv("TTSCRAPER_USER_AGENT"); userAgent != "" {
		c.Browser.UserAgent = userAgent
	}
	if bin := os.Getenv("TTSCRAPER_BROWSER_BIN"); bin != "" {
		c.Browser.Bin = bin
	}

	if loadState := os.Getenv("TTSCRAPER_LOAD_STATE"); loadState != "" {
		c.Scroll.LoadState = loadState
	}

	if dir := os.Getenv("TTSCRAPER_OUTPUT_DIR"); dir != "" {
		c.Download.Directory = dir
	}
	if concurrent := os.Getenv("TTSCRAPER_MAX_CONCURRENT"); concurrent != "" {
		val, err := strconv.Atoi(concurrent)
		if err != nil {
			return fmt.Errorf("invalid TTSCRAPER_MAX_CONCURRENT: %w", err)
		}
		c.Download.MaxConcurrent = val
	}
	if rpm := os.Getenv("TTSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid TTSCRAPER_REQUESTS_PER_MINUTE: %w", err)
		}
		c.Download.RequestsPerMinute = val
	}

	if logLevel := os.Getenv("TTSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("TTSCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"ttscraper.yaml",
		".ttscraper.yaml",
		".ttscraper.yml",
		filepath.Join(home, ".config", "ttscraper", "config.yaml"),
		filepath.Join(home, ".ttscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Site.BaseURL == "" {
		errs = append(errs, errors.New("site base URL is required"))
	}
	if c.Site.APIPrefix == "" {
		errs = append(errs, errors.New("site API prefix is required"))
	}
	if c.Site.StateScriptID == "" {
		errs = append(errs, errors.New("state script id is required"))
	}

	if c.Scroll.WindowSize <= 0 {
		errs = append(errs, errors.New("scroll window size must be positive"))
	}
	if c.Scroll.StepPixels <= 0 {
		errs = append(errs, errors.New("scroll step must be positive"))
	}
	validLoadStates := map[string]bool{
		LoadStateDOMContentLoaded: true, LoadStateLoad: true, LoadStateIdle: true,
	}
	if !validLoadStates[strings.ToLower(c.Scroll.LoadState)] {
		errs = append(errs, fmt.Errorf("invalid load state %q", c.Scroll.LoadState))
	}

	if c.Download.Directory == "" {
		errs = append(errs, errors.New("download directory is required"))
	}
	if c.Download.MaxConcurrent < 0 {
		errs = append(errs, errors.New("max concurrent downloads cannot be negative"))
	}
	if c.Download.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Download.Timeout < 0 {
		errs = append(errs, errors.New("download timeout cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Download.Directory = output
	}
	if concurrent, ok := flags["max-concurrent"].(int); ok && concurrent >= 0 {
		c.Download.MaxConcurrent = concurrent
	}
	if loadState, ok := flags["load-state"].(string); ok && loadState != "" {
		c.Scroll.LoadState = loadState
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ttscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
