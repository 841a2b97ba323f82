package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Messengers:     []string{"noop"},
		SpoolDirectory: "/var/spool/caso",
		Extractors:     []string{"sqlite"},
		Messenger: MessengerConfig{
			InitialDelay: "1s",
			MaxDelay:     "30s",
			SSM:          SSMConfig{OutputPath: "/var/spool/apel/outgoing"},
			Logstash:     LogstashConfig{Host: "localhost", Port: 5000},
			HTTP:         HTTPConfig{Timeout: "30s"},
		},
		Run: RunConfig{Timeout: "0"},
		Log: LogConfig{Level: "info", Format: "auto"},
	}
}

func newTestValidator() *Validator {
	return NewValidator().
		WithMessengers("http", "logstash", "noop", "ssm").
		WithExtractors("sqlite")
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T", err)
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		out[e.Field] = e.Message
	}
	return out
}

func TestValidator_ValidConfig(t *testing.T) {
	assert.NoError(t, newTestValidator().Validate(validConfig()))
}

func TestValidator_UnknownMessengerSuggests(t *testing.T) {
	cfg := validConfig()
	cfg.Messengers = []string{"logstsh"}

	err := newTestValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, fieldErrors(t, err)["messengers"], "did you mean logstash?")
}

func TestValidator_UnknownMessengerListsValid(t *testing.T) {
	cfg := validConfig()
	cfg.Messengers = []string{"kafka"}

	err := newTestValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, fieldErrors(t, err)["messengers"], "valid values are http, logstash, noop, ssm")
}

func TestValidator_DuplicateAndEmptyNames(t *testing.T) {
	cfg := validConfig()
	cfg.Messengers = []string{"noop", "noop"}
	cfg.Extractors = nil

	errs := fieldErrors(t, newTestValidator().Validate(cfg))
	assert.Contains(t, errs["messengers"], "more than once")
	assert.Contains(t, errs["extractors"], "at least one")
}

func TestValidator_WithoutRegistriesAcceptsAnyName(t *testing.T) {
	cfg := validConfig()
	cfg.Messengers = []string{"custom"}
	assert.NoError(t, NewValidator().Validate(cfg))
}

func TestValidator_Paths(t *testing.T) {
	cfg := validConfig()
	cfg.SpoolDirectory = ""
	cfg.LockPath = "relative/dir"

	errs := fieldErrors(t, newTestValidator().Validate(cfg))
	assert.Contains(t, errs, "spool_directory")
	assert.Contains(t, errs, "lock_path")

	cfg = validConfig()
	cfg.SpoolDirectory = "./spool"
	cfg.LockPath = "/run/lock/caso"
	assert.NoError(t, newTestValidator().Validate(cfg))
}

func TestValidator_SinkSettings(t *testing.T) {
	cfg := validConfig()
	cfg.Messengers = []string{"ssm", "logstash", "http"}
	cfg.Messenger.SSM.OutputPath = ""
	cfg.Messenger.Logstash.Port = 0
	cfg.Messenger.HTTP.URL = "ftp://example.org"

	errs := fieldErrors(t, newTestValidator().Validate(cfg))
	assert.Contains(t, errs, "messenger.ssm.output_path")
	assert.Contains(t, errs, "messenger.logstash.port")
	assert.Contains(t, errs, "messenger.http.url")
}

func TestValidator_SinkSettingsIgnoredWhenUnused(t *testing.T) {
	cfg := validConfig()
	cfg.Messenger.HTTP.URL = ""
	cfg.Messenger.Logstash.Port = 0
	assert.NoError(t, newTestValidator().Validate(cfg))
}

func TestValidator_RetriesAndDelays(t *testing.T) {
	cfg := validConfig()
	cfg.Messenger.Retries = 11
	cfg.Messenger.InitialDelay = "1m"
	cfg.Messenger.MaxDelay = "10s"

	errs := fieldErrors(t, newTestValidator().Validate(cfg))
	assert.Contains(t, errs, "messenger.retries")
	assert.Contains(t, errs, "messenger.initial_delay")
}

func TestValidator_LogAndRun(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	cfg.Log.Format = "xml"
	cfg.Run.Timeout = "forever"

	errs := fieldErrors(t, newTestValidator().Validate(cfg))
	assert.Contains(t, errs, "log.level")
	assert.Contains(t, errs, "log.format")
	assert.Contains(t, errs, "run.timeout")
}

func TestValidator_ReuseResetsErrors(t *testing.T) {
	v := newTestValidator()
	bad := validConfig()
	bad.Log.Level = "nope"
	require.Error(t, v.Validate(bad))
	require.NoError(t, v.Validate(validConfig()))
	assert.Empty(t, v.errors)
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: "x", Message: "worse"},
	}
	msg := errs.Error()
	assert.True(t, strings.Contains(msg, "a: bad") && strings.Contains(msg, "b: worse"), msg)
}

func TestDefaultConfigYAMLLoads(t *testing.T) {
	isolate(t)
	path := t.TempDir() + "/caso.yaml"
	require.NoError(t, writeFile(path, DefaultConfigYAML))

	cfg, err := NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)
	assert.NoError(t, newTestValidator().Validate(cfg))
}
