package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Messengers lists the sinks records are dispatched to, in order.
	Messengers     []string `mapstructure:"messengers" yaml:"messengers"`
	SpoolDirectory string   `mapstructure:"spool_directory" yaml:"spool_directory"`
	// LockPath is where lock files live. Empty means SpoolDirectory.
	LockPath string `mapstructure:"lock_path" yaml:"lock_path"`
	DryRun   bool   `mapstructure:"dry_run" yaml:"dry_run"`
	SiteName string `mapstructure:"site_name" yaml:"site_name"`

	Extractors []string        `mapstructure:"extractors" yaml:"extractors"`
	Extractor  ExtractorConfig `mapstructure:"extractor" yaml:"extractor"`
	Messenger  MessengerConfig `mapstructure:"messenger" yaml:"messenger"`
	Run        RunConfig       `mapstructure:"run" yaml:"run"`
	Log        LogConfig       `mapstructure:"log" yaml:"log"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// RunConfig configures a single orchestration.
type RunConfig struct {
	// Timeout bounds the time the run lock is held. "0" disables it.
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// ExtractorConfig configures record extraction.
type ExtractorConfig struct {
	// Projects restricts extraction to these group IDs when non-empty.
	Projects []string             `mapstructure:"projects" yaml:"projects"`
	SQLite   SQLiteExtractorConfig `mapstructure:"sqlite" yaml:"sqlite"`
}

// SQLiteExtractorConfig configures the accounting database extractor.
type SQLiteExtractorConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// MessengerConfig configures the dispatch messengers.
type MessengerConfig struct {
	// Retries is the number of extra attempts per messenger push.
	Retries      int    `mapstructure:"retries" yaml:"retries"`
	InitialDelay string `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay     string `mapstructure:"max_delay" yaml:"max_delay"`

	SSM      SSMConfig      `mapstructure:"ssm" yaml:"ssm"`
	Logstash LogstashConfig `mapstructure:"logstash" yaml:"logstash"`
	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
}

// SSMConfig configures the APEL SSM outgoing queue messenger.
type SSMConfig struct {
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
}

// LogstashConfig configures the logstash TCP messenger.
type LogstashConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// HTTPConfig configures the HTTP messenger.
type HTTPConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	Timeout string `mapstructure:"timeout" yaml:"timeout"`
}

// RunConfiguration is the subset of options that shapes one run. It is built
// once at startup and handed to the orchestrator.
type RunConfiguration struct {
	DryRun   bool
	SpoolDir string
	LockPath string
	Timeout  time.Duration
}

// RunConfiguration derives the run options, resolving the lock path default.
func (c *Config) RunConfiguration() (RunConfiguration, error) {
	timeout, err := parseOptionalDuration(c.Run.Timeout)
	if err != nil {
		return RunConfiguration{}, fmt.Errorf("run.timeout: %w", err)
	}

	lockPath := strings.TrimSpace(c.LockPath)
	if lockPath == "" {
		lockPath = c.SpoolDirectory
	}

	return RunConfiguration{
		DryRun:   c.DryRun,
		SpoolDir: c.SpoolDirectory,
		LockPath: lockPath,
		Timeout:  timeout,
	}, nil
}

// RetryDelays returns the parsed messenger backoff bounds.
func (m *MessengerConfig) RetryDelays() (initial, maxDelay time.Duration, err error) {
	if initial, err = parseOptionalDuration(m.InitialDelay); err != nil {
		return 0, 0, fmt.Errorf("messenger.initial_delay: %w", err)
	}
	if maxDelay, err = parseOptionalDuration(m.MaxDelay); err != nil {
		return 0, 0, fmt.Errorf("messenger.max_delay: %w", err)
	}
	return initial, maxDelay, nil
}

// parseOptionalDuration treats "" and "0" as zero.
func parseOptionalDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
