package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata" // reference zone must resolve on hosts without zoneinfo

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const (
	DefaultModel            = "gpt-4o-mini"
	DefaultReferenceZone    = "America/Los_Angeles"
	DefaultClientSecretFile = "credentials.json"
	DefaultCalendarID       = "primary"
	DefaultTimeout          = 60 * time.Second
)

// DefaultTokenPath returns the XDG location of the persisted token.
func DefaultTokenPath() string {
	return filepath.Join(xdg.DataHome, "nlcal", "token.json")
}

// Config holds the runtime settings. Values come from an optional TOML file,
// then environment variables, then command-line flags, later sources winning.
type Config struct {
	OpenAIAPIKey      string        `toml:"openai_api_key"`
	OpenAIBaseURL     string        `toml:"openai_base_url"`
	Model             string        `toml:"model"`
	ReferenceTimeZone string        `toml:"reference_timezone"`
	GoogleClientID    string        `toml:"google_client_id"`
	GoogleSecret      string        `toml:"google_client_secret"`
	ClientSecretFile  string        `toml:"client_secret_file"`
	TokenFile         string        `toml:"token_file"`
	CalendarID        string        `toml:"calendar_id"`
	Timeout           time.Duration `toml:"timeout"`
	LogLevel          string        `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Model:             DefaultModel,
		ReferenceTimeZone: DefaultReferenceZone,
		ClientSecretFile:  DefaultClientSecretFile,
		TokenFile:         DefaultTokenPath(),
		CalendarID:        DefaultCalendarID,
		Timeout:           DefaultTimeout,
		LogLevel:          "info",
	}
}

// Load builds the configuration from path (optional, may not exist) and the
// environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"OPENAI_API_KEY":            &c.OpenAIAPIKey,
		"OPENAI_BASE_URL":           &c.OpenAIBaseURL,
		"OPENAI_MODEL":              &c.Model,
		"REFERENCE_TIMEZONE":        &c.ReferenceTimeZone,
		"GOOGLE_CLIENT_ID":          &c.GoogleClientID,
		"GOOGLE_CLIENT_SECRET":      &c.GoogleSecret,
		"GOOGLE_CLIENT_SECRET_FILE": &c.ClientSecretFile,
		"GOOGLE_TOKEN_FILE":         &c.TokenFile,
		"GOOGLE_CALENDAR_ID":        &c.CalendarID,
		"LOG_LEVEL":                 &c.LogLevel,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	if v := getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", v, err)
		}
		c.Timeout = d
	}
	return nil
}

// Location resolves ReferenceTimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReferenceTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.ReferenceTimeZone, err)
	}
	return loc, nil
}

// Validate checks the settings needed to schedule a meeting.
func (c *Config) Validate() error {
	var errs []error
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model cannot be empty"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.TokenFile == "" {
		errs = append(errs, errors.New("token file cannot be empty"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout cannot be negative"))
	}
	return errors.Join(errs...)
}
