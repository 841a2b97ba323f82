package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validator validates configuration.
type Validator struct {
	errors     ValidationErrors
	messengers []string
	extractors []string
}

// NewValidator creates a new validator. Names are only checked against the
// registries passed with WithMessengers and WithExtractors.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// WithMessengers sets the messenger names accepted in "messengers".
func (v *Validator) WithMessengers(names ...string) *Validator {
	v.messengers = names
	return v
}

// WithExtractors sets the extractor names accepted in "extractors".
func (v *Validator) WithExtractors(names ...string) *Validator {
	v.extractors = names
	return v
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validatePaths(cfg)
	v.validateNames("messengers", cfg.Messengers, v.messengers)
	v.validateNames("extractors", cfg.Extractors, v.extractors)
	v.validateRun(&cfg.Run)
	v.validateLog(&cfg.Log)
	v.validateMessenger(cfg)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validatePaths(cfg *Config) {
	if strings.TrimSpace(cfg.SpoolDirectory) == "" {
		v.addError("spool_directory", cfg.SpoolDirectory, "directory required")
	} else if !filepath.IsAbs(cfg.SpoolDirectory) && !strings.HasPrefix(cfg.SpoolDirectory, ".") {
		v.addError("spool_directory", cfg.SpoolDirectory, "must be absolute or explicitly relative (./)")
	}
	if cfg.LockPath != "" && !filepath.IsAbs(cfg.LockPath) && !strings.HasPrefix(cfg.LockPath, ".") {
		v.addError("lock_path", cfg.LockPath, "must be absolute or explicitly relative (./)")
	}
}

func (v *Validator) validateNames(field string, got, known []string) {
	if len(got) == 0 {
		v.addError(field, got, "at least one entry required")
		return
	}
	seen := make(map[string]bool, len(got))
	for _, name := range got {
		if seen[name] {
			v.addError(field, name, "listed more than once")
		}
		seen[name] = true
		if len(known) == 0 || contains(known, name) {
			continue
		}
		msg := "unknown name"
		if s := suggest(name, known); len(s) > 0 {
			msg += fmt.Sprintf(", did you mean %s?", strings.Join(s, " or "))
		} else {
			msg += fmt.Sprintf(", valid values are %s", strings.Join(known, ", "))
		}
		v.addError(field, name, msg)
	}
}

func (v *Validator) validateRun(cfg *RunConfig) {
	if _, err := parseOptionalDuration(cfg.Timeout); err != nil {
		v.addError("run.timeout", cfg.Timeout, "invalid duration format")
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateMessenger(cfg *Config) {
	m := &cfg.Messenger
	if m.Retries < 0 || m.Retries > 10 {
		v.addError("messenger.retries", m.Retries, "must be between 0 and 10")
	}
	initial, maxDelay, err := m.RetryDelays()
	if err != nil {
		v.addError("messenger.retry_delays", m.InitialDelay+"/"+m.MaxDelay, err.Error())
	} else if maxDelay > 0 && initial > maxDelay {
		v.addError("messenger.initial_delay", m.InitialDelay, "must not exceed messenger.max_delay")
	}

	// Sink specific settings only matter for the sinks in use.
	for _, name := range cfg.Messengers {
		switch name {
		case "ssm":
			if strings.TrimSpace(m.SSM.OutputPath) == "" {
				v.addError("messenger.ssm.output_path", m.SSM.OutputPath, "required when ssm is enabled")
			}
		case "logstash":
			if m.Logstash.Host == "" {
				v.addError("messenger.logstash.host", m.Logstash.Host, "required when logstash is enabled")
			}
			if m.Logstash.Port <= 0 || m.Logstash.Port > 65535 {
				v.addError("messenger.logstash.port", m.Logstash.Port, "must be between 1 and 65535")
			}
		case "http":
			u, err := url.Parse(m.HTTP.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				v.addError("messenger.http.url", m.HTTP.URL, "must be an http(s) URL when http is enabled")
			}
			if _, err := parseOptionalDuration(m.HTTP.Timeout); err != nil {
				v.addError("messenger.http.timeout", m.HTTP.Timeout, "invalid duration format")
			}
		}
	}
}

// suggest returns the known names closest to name.
func suggest(name string, known []string) []string {
	matches := fuzzy.Find(strings.ToLower(name), known)
	if len(matches) == 0 {
		// Try the other way round for typos longer than the target.
		for _, k := range known {
			if len(fuzzy.Find(k, []string{strings.ToLower(name)})) > 0 {
				matches = append(matches, fuzzy.Match{Str: k})
			}
		}
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
