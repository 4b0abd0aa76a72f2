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

// Config holds all configuration options for tweetkit
type Config struct {
	// Cookie session used against the web API
	Account AccountConfig `yaml:"account" json:"account"`

	// OAuth1 user context, replaces the cookie session when complete
	OAuth1 OAuth1Config `yaml:"oauth1" json:"oauth1"`

	Transport TransportConfig `yaml:"transport" json:"transport"`
	Upload    UploadConfig    `yaml:"upload" json:"upload"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Archive   ArchiveConfig   `yaml:"archive" json:"archive"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// AccountConfig holds the web session credentials
type AccountConfig struct {
	// Name selects a stored account from the credential store
	Name        string `yaml:"name" json:"name"`
	AuthToken   string `yaml:"auth_token" json:"auth_token"`
	CSRFToken   string `yaml:"csrf_token" json:"csrf_token"`
	BearerToken string `yaml:"bearer_token" json:"bearer_token"`
	UserAgent   string `yaml:"user_agent" json:"user_agent"`
}

// HasSession reports whether both cookie values are present
func (a AccountConfig) HasSession() bool {
	return a.AuthToken != "" && a.CSRFToken != ""
}

// OAuth1Config holds OAuth1 user-context keys
type OAuth1Config struct {
	ConsumerKey    string `yaml:"consumer_key" json:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret" json:"consumer_secret"`
	AccessToken    string `yaml:"access_token" json:"access_token"`
	AccessSecret   string `yaml:"access_secret" json:"access_secret"`
}

// Enabled reports whether all four keys are set
func (o OAuth1Config) Enabled() bool {
	return o.ConsumerKey != "" && o.ConsumerSecret != "" && o.AccessToken != "" && o.AccessSecret != ""
}

func (o OAuth1Config) partial() bool {
	set := 0
	for _, v := range []string{o.ConsumerKey, o.ConsumerSecret, o.AccessToken, o.AccessSecret} {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < 4
}

// TransportConfig holds HTTP client settings
type TransportConfig struct {
	APIBase           string        `yaml:"api_base" json:"api_base"`
	WebBase           string        `yaml:"web_base" json:"web_base"`
	Language          string        `yaml:"language" json:"language"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int           `yaml:"burst_size" json:"burst_size"`
	Tracing           bool          `yaml:"tracing" json:"tracing"`
}

// UploadConfig holds media upload settings
type UploadConfig struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	ChunkSize       int64  `yaml:"chunk_size" json:"chunk_size"`
	DefaultCategory string `yaml:"default_category" json:"default_category"`
	// PollDeadline bounds STATUS polling; zero polls until the server decides.
	PollDeadline time.Duration `yaml:"poll_deadline" json:"poll_deadline"`
	Concurrent   int           `yaml:"concurrent" json:"concurrent"`
}

// RetryConfig controls retries of read-only requests
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// ArchiveConfig holds the local SQLite archive location
type ArchiveConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
	// Console also writes to stderr when File is set
	Console bool `yaml:"console" json:"console"`
}

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultChunkSize = 4 * 1024 * 1024
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			UserAgent: DefaultUserAgent,
		},
		Transport: TransportConfig{
			APIBase:           "https://x.com/i/api",
			WebBase:           "https://x.com",
			Language:          "en",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 60,
			BurstSize:         5,
		},
		Upload: UploadConfig{
			Endpoint:   "https://upload.twitter.com/i/media/upload.json",
			ChunkSize:  DefaultChunkSize,
			Concurrent: 2,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    2 * time.Minute,
		},
		Archive: ArchiveConfig{
			Path: filepath.Join(dataHome(), "tweetkit", "archive.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share")
}

// LoadFromEnv loads configuration from TWEETKIT_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("TWEETKIT_ACCOUNT", &c.Account.Name)
	str("TWEETKIT_AUTH_TOKEN", &c.Account.AuthToken)
	str("TWEETKIT_CSRF_TOKEN", &c.Account.CSRFToken)
	str("TWEETKIT_BEARER_TOKEN", &c.Account.BearerToken)
	str("TWEETKIT_USER_AGENT", &c.Account.UserAgent)

	str("TWEETKIT_CONSUMER_KEY", &c.OAuth1.ConsumerKey)
	str("TWEETKIT_CONSUMER_SECRET", &c.OAuth1.ConsumerSecret)
	str("TWEETKIT_ACCESS_TOKEN", &c.OAuth1.AccessToken)
	str("TWEETKIT_ACCESS_SECRET", &c.OAuth1.AccessSecret)

	str("TWEETKIT_API_BASE", &c.Transport.APIBase)
	integer("TWEETKIT_REQUESTS_PER_MINUTE", &c.Transport.RequestsPerMinute)
	duration("TWEETKIT_TIMEOUT", &c.Transport.Timeout)
	if v := os.Getenv("TWEETKIT_TRACING"); v != "" {
		c.Transport.Tracing = strings.EqualFold(v, "true")
	}

	str("TWEETKIT_UPLOAD_ENDPOINT", &c.Upload.Endpoint)
	duration("TWEETKIT_POLL_DEADLINE", &c.Upload.PollDeadline)

	str("TWEETKIT_ARCHIVE", &c.Archive.Path)
	str("TWEETKIT_LOG_LEVEL", &c.Logging.Level)
	str("TWEETKIT_LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
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

// DefaultPath is where `config init` writes the config file.
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "tweetkit", "config.yaml")
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".tweetkit.yaml",
		".tweetkit.yml",
		DefaultPath(),
		filepath.Join(os.Getenv("HOME"), ".tweetkit.yaml"),
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

	if c.OAuth1.partial() {
		errs = append(errs, errors.New("oauth1 needs consumer key, consumer secret, access token and access secret"))
	}

	if c.Transport.APIBase == "" {
		errs = append(errs, errors.New("api base URL is required"))
	}
	if c.Transport.Timeout <= 0 {
		errs = append(errs, errors.New("transport timeout must be positive"))
	}
	if c.Transport.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.Transport.RequestsPerMinute > 0 && c.Transport.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	if c.Upload.Endpoint == "" {
		errs = append(errs, errors.New("upload endpoint is required"))
	}
	if c.Upload.ChunkSize <= 0 {
		errs = append(errs, errors.New("upload chunk size must be positive"))
	}
	if c.Upload.PollDeadline < 0 {
		errs = append(errs, errors.New("poll deadline cannot be negative"))
	}
	if c.Upload.Concurrent <= 0 || c.Upload.Concurrent > 10 {
		errs = append(errs, errors.New("concurrent uploads must be between 1 and 10"))
	}

	if c.Retry.Enabled && c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may carry session cookies.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Redacted returns a copy with secrets masked, for display
func (c *Config) Redacted() *Config {
	cp := *c
	mask := func(s string) string {
		if len(s) <= 4 {
			if s == "" {
				return ""
			}
			return "****"
		}
		return s[:4] + strings.Repeat("*", 8)
	}
	cp.Account.AuthToken = mask(c.Account.AuthToken)
	cp.Account.CSRFToken = mask(c.Account.CSRFToken)
	cp.Account.BearerToken = mask(c.Account.BearerToken)
	cp.OAuth1.ConsumerSecret = mask(c.OAuth1.ConsumerSecret)
	cp.OAuth1.AccessSecret = mask(c.OAuth1.AccessSecret)
	return &cp
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Account.Name = v
	}
	if v, ok := flags["auth-token"].(string); ok && v != "" {
		c.Account.AuthToken = v
	}
	if v, ok := flags["csrf-token"].(string); ok && v != "" {
		c.Account.CSRFToken = v
	}
	if v, ok := flags["archive"].(string); ok && v != "" {
		c.Archive.Path = v
	}
	if v, ok := flags["concurrent"].(int); ok && v > 0 {
		c.Upload.Concurrent = v
	}
	if v, ok := flags["poll-deadline"].(time.Duration); ok && v > 0 {
		c.Upload.PollDeadline = v
	}
	if v, ok := flags["category"].(string); ok && v != "" {
		c.Upload.DefaultCategory = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["no-retry"].(bool); ok && v {
		c.Retry.Enabled = false
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tweetkit.env"))

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
