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

// Collection modes
const (
	// ModeModal opens the repost list as a dialog from the post page (requires the list-opening control)
	ModeModal = "modal"
	// ModeDirect loads the repost list page directly and scrolls the whole document
	ModeDirect = "direct"
)

// Config holds all configuration options for the repost collector
type Config struct {
	// Target site and credentials
	X XConfig `yaml:"x" json:"x"`

	// Browser runtime settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Collection loop settings
	Collect CollectConfig `yaml:"collect" json:"collect"`

	// HTTP surface settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// XConfig holds the target site settings. An empty credential pair means anonymous mode.
type XConfig struct {
	BaseURL  string `yaml:"base_url" json:"base_url"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// BrowserConfig holds the browser runtime configuration
type BrowserConfig struct {
	Headless     bool     `yaml:"headless" json:"headless"`
	ChromePath   string   `yaml:"chrome_path" json:"chrome_path"`
	WindowWidth  int      `yaml:"window_width" json:"window_width"`
	WindowHeight int      `yaml:"window_height" json:"window_height"`
	Languages    []string `yaml:"languages" json:"languages"`
	UserAgent    string   `yaml:"user_agent" json:"user_agent"`
	Stealth      bool     `yaml:"stealth" json:"stealth"`
	MaxSessions  int      `yaml:"max_sessions" json:"max_sessions"`
}

// CollectConfig holds the collection loop configuration
type CollectConfig struct {
	Mode            string        `yaml:"mode" json:"mode"`
	MaxIterations   int           `yaml:"max_iterations" json:"max_iterations"`
	Pause           time.Duration `yaml:"pause" json:"pause"`
	StabilityWindow int           `yaml:"stability_window" json:"stability_window"`
	WaitTimeout     time.Duration `yaml:"wait_timeout" json:"wait_timeout"`
	ListWaitTimeout time.Duration `yaml:"list_wait_timeout" json:"list_wait_timeout"`
	SettlePause     time.Duration `yaml:"settle_pause" json:"settle_pause"`
}

// ServerConfig holds the HTTP surface configuration
type ServerConfig struct {
	Addr           string        `yaml:"addr" json:"addr"`
	CrawlTimeout   time.Duration `yaml:"crawl_timeout" json:"crawl_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins" json:"allowed_origins"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		X: XConfig{
			BaseURL: "https://x.com",
		},
		Browser: BrowserConfig{
			Headless:     true,
			WindowWidth:  1280,
			WindowHeight: 1000,
			Languages:    []string{"ko-KR", "ko", "en-US", "en"},
			Stealth:      true,
			MaxSessions:  2,
		},
		Collect: CollectConfig{
			Mode:            ModeModal,
			MaxIterations:   50,
			Pause:           700 * time.Millisecond,
			StabilityWindow: 3,
			WaitTimeout:     25 * time.Second,
			ListWaitTimeout: 20 * time.Second,
			SettlePause:     2 * time.Second,
		},
		Server: ServerConfig{
			Addr:           ":8000",
			CrawlTimeout:   170 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Output: OutputConfig{
			Path: "data/retweeters.json",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Credentials
	if username := os.Getenv("X_USERNAME"); username != "" {
		c.X.Username = username
	}
	if password := os.Getenv("X_PASSWORD"); password != "" {
		c.X.Password = password
	}
	if baseURL := os.Getenv("XREPOSTERS_BASE_URL"); baseURL != "" {
		c.X.BaseURL = baseURL
	}

	// Browser
	for _, key := range []string{"CHROME_BIN", "GOOGLE_CHROME_BIN"} {
		if path := os.Getenv(key); path != "" && c.Browser.ChromePath == "" {
			c.Browser.ChromePath = path
		}
	}
	if headless := os.Getenv("XREPOSTERS_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}
	if lang := os.Getenv("XREPOSTERS_LANG"); lang != "" {
		c.Browser.Languages = splitList(lang)
	}
	if userAgent := os.Getenv("XREPOSTERS_USER_AGENT"); userAgent != "" {
		c.Browser.UserAgent = userAgent
	}
	if sessions := os.Getenv("XREPOSTERS_MAX_SESSIONS"); sessions != "" {
		val, err := strconv.Atoi(sessions)
		if err != nil {
			errs = append(errs, fmt.Errorf("XREPOSTERS_MAX_SESSIONS: %w", err))
		} else if val > 0 {
			c.Browser.MaxSessions = val
		}
	}

	// Collection
	if mode := os.Getenv("XREPOSTERS_MODE"); mode != "" {
		c.Collect.Mode = strings.ToLower(mode)
	}
	if maxScroll := os.Getenv("XREPOSTERS_MAX_SCROLL"); maxScroll != "" {
		val, err := strconv.Atoi(maxScroll)
		if err != nil {
			errs = append(errs, fmt.Errorf("XREPOSTERS_MAX_SCROLL: %w", err))
		} else if val > 0 {
			c.Collect.MaxIterations = val
		}
	}
	if pause := os.Getenv("XREPOSTERS_PAUSE"); pause != "" {
		d, err := parseSeconds(pause)
		if err != nil {
			errs = append(errs, fmt.Errorf("XREPOSTERS_PAUSE: %w", err))
		} else {
			c.Collect.Pause = d
		}
	}

	// Server
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if timeout := os.Getenv("XREPOSTERS_CRAWL_TIMEOUT"); timeout != "" {
		d, err := parseSeconds(timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("XREPOSTERS_CRAWL_TIMEOUT: %w", err))
		} else {
			c.Server.CrawlTimeout = d
		}
	}

	// Output
	if output := os.Getenv("XREPOSTERS_OUTPUT"); output != "" {
		c.Output.Path = output
	}

	// Logging level
	if logLevel := os.Getenv("XREPOSTERS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// parseSeconds accepts either a Go duration ("750ms") or a plain number of seconds ("0.7")
func parseSeconds(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
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

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".xreposters.yaml",
		".xreposters.yml",
		filepath.Join(home, ".config", "xreposters", "config.yaml"),
		filepath.Join(home, ".config", "xreposters", "config.yml"),
		filepath.Join(home, ".xreposters.yaml"),
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

	if c.X.BaseURL == "" {
		errs = append(errs, errors.New("x base URL is required"))
	}
	if (c.X.Username == "") != (c.X.Password == "") {
		errs = append(errs, errors.New("x username and password must be set together"))
	}

	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		errs = append(errs, errors.New("window size must be positive"))
	}
	if c.Browser.MaxSessions <= 0 {
		errs = append(errs, errors.New("max sessions must be positive"))
	}

	switch c.Collect.Mode {
	case ModeModal, ModeDirect:
	default:
		errs = append(errs, fmt.Errorf("invalid collection mode %q (want %s or %s)", c.Collect.Mode, ModeModal, ModeDirect))
	}
	if c.Collect.MaxIterations <= 0 {
		errs = append(errs, errors.New("max iterations must be positive"))
	}
	if c.Collect.Pause < 0 {
		errs = append(errs, errors.New("pause cannot be negative"))
	}
	if c.Collect.StabilityWindow <= 0 {
		errs = append(errs, errors.New("stability window must be positive"))
	}
	if c.Collect.WaitTimeout <= 0 || c.Collect.ListWaitTimeout <= 0 {
		errs = append(errs, errors.New("wait timeouts must be positive"))
	}

	if c.Server.CrawlTimeout <= 0 {
		errs = append(errs, errors.New("crawl timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if maxScroll, ok := flags["max-scroll"].(int); ok && maxScroll > 0 {
		c.Collect.MaxIterations = maxScroll
	}
	if pause, ok := flags["pause"].(time.Duration); ok && pause >= 0 {
		c.Collect.Pause = pause
	}
	if mode, ok := flags["mode"].(string); ok && mode != "" {
		c.Collect.Mode = strings.ToLower(mode)
	}
	if out, ok := flags["out"].(string); ok && out != "" {
		c.Output.Path = out
	}
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
	if timeout, ok := flags["timeout"].(time.Duration); ok && timeout > 0 {
		c.Server.CrawlTimeout = timeout
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files never override variables already present in the environment
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".xreposters.env"))
	}

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
