package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/danieljhkim/wsforge/internal/planner"
)

// Settings are the user-tunable knobs read from config.yaml and WSFORGE_*
// environment variables.
type Settings struct {
	Git      GitSettings      `mapstructure:"git"`
	Apply    ApplySettings    `mapstructure:"apply"`
	Validate ValidateSettings `mapstructure:"validate"`
	Log      LogSettings      `mapstructure:"log"`
}

// GitSettings configure the git child process.
type GitSettings struct {
	Binary  string        `mapstructure:"binary"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplySettings configure conflict handling during apply.
type ApplySettings struct {
	// DefaultResolution is used for conflict classes the caller left open
	DefaultResolution string `mapstructure:"default_resolution"`

	// StrictConflicts aborts an apply when any detected conflict has no
	// explicit resolution
	StrictConflicts bool `mapstructure:"strict_conflicts"`
}

// ValidateSettings configure repository validation.
type ValidateSettings struct {
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
}

// LogSettings configure the zap logger.
type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() *Settings {
	return &Settings{
		Git:      GitSettings{Binary: "git", Timeout: 30 * time.Second},
		Apply:    ApplySettings{DefaultResolution: string(planner.ResolutionMerge)},
		Validate: ValidateSettings{Interval: 5 * time.Minute, Concurrency: 4},
		Log:      LogSettings{Level: "info"},
	}
}

// LoadSettings reads <root>/config.yaml if present, then applies WSFORGE_*
// environment overrides (e.g. WSFORGE_GIT_TIMEOUT=10s).
func LoadSettings(p *Paths) (*Settings, error) {
	v := viper.New()

	d := DefaultSettings()
	v.SetDefault("git.binary", d.Git.Binary)
	v.SetDefault("git.timeout", d.Git.Timeout)
	v.SetDefault("apply.default_resolution", d.Apply.DefaultResolution)
	v.SetDefault("apply.strict_conflicts", d.Apply.StrictConflicts)
	v.SetDefault("validate.interval", d.Validate.Interval)
	v.SetDefault("validate.concurrency", d.Validate.Concurrency)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)

	v.SetConfigFile(p.Config)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("WSFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := s.check(); err != nil {
		return nil, err
	}
	return &s, nil
}

// check rejects settings the engine cannot act on.
func (s *Settings) check() error {
	if _, err := planner.ParseResolution(s.Apply.DefaultResolution); err != nil {
		return fmt.Errorf("apply.default_resolution: %w", err)
	}
	if s.Git.Timeout <= 0 {
		return fmt.Errorf("git.timeout must be positive, got %s", s.Git.Timeout)
	}
	if s.Validate.Concurrency < 1 {
		return fmt.Errorf("validate.concurrency must be at least 1, got %d", s.Validate.Concurrency)
	}
	if s.Validate.Interval <= 0 {
		return fmt.Errorf("validate.interval must be positive, got %s", s.Validate.Interval)
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// DefaultResolution returns the parsed apply.default_resolution.
func (s *Settings) DefaultResolution() planner.Resolution {
	r, err := planner.ParseResolution(s.Apply.DefaultResolution)
	if err != nil {
		return planner.ResolutionMerge
	}
	return r
}
