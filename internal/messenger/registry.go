package messenger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/caso/internal/config"
	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/logging"
)

type factory func(cfg *config.Config, logger *logging.Logger) (core.Messenger, error)

var factories = map[string]factory{
	"noop": func(_ *config.Config, logger *logging.Logger) (core.Messenger, error) {
		return NewNoop(logger), nil
	},
	"ssm": func(cfg *config.Config, _ *logging.Logger) (core.Messenger, error) {
		return NewSSM(cfg.Messenger.SSM.OutputPath), nil
	},
	"logstash": func(cfg *config.Config, _ *logging.Logger) (core.Messenger, error) {
		return NewLogstash(cfg.Messenger.Logstash.Host, cfg.Messenger.Logstash.Port), nil
	},
	"http": func(cfg *config.Config, _ *logging.Logger) (core.Messenger, error) {
		timeout, err := time.ParseDuration(orDefault(cfg.Messenger.HTTP.Timeout, "0s"))
		if err != nil {
			return nil, core.ErrValidation(core.CodeInvalidConfig, "messenger.http.timeout: "+err.Error())
		}
		return NewHTTP(cfg.Messenger.HTTP.URL, timeout), nil
	},
}

// legacyNames maps the fully qualified names older configs used.
var legacyNames = map[string]string{
	"caso.messenger.noop.NoopMessenger":         "noop",
	"caso.messenger.ssm.SsmMessager":            "ssm",
	"caso.messenger.ssm.SSMMessengerV02":        "ssm",
	"caso.messenger.ssm.SSMMessengerV04":        "ssm",
	"caso.messenger.logstash.LogstashMessenger": "logstash",
}

// Names lists the available messengers.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Canonical maps legacy and mixed-case names to registry names.
// Unknown names are returned lower-cased for validation to report.
func Canonical(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if short, ok := legacyNames[n]; ok {
			out = append(out, short)
			continue
		}
		out = append(out, strings.ToLower(strings.TrimSpace(n)))
	}
	return out
}

// New builds the named messenger.
func New(name string, cfg *config.Config, logger *logging.Logger) (core.Messenger, error) {
	f, ok := factories[name]
	if !ok {
		return nil, core.ErrValidation(core.CodeUnknownMessenger, fmt.Sprintf("unknown messenger %q", name))
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return f(cfg, logger.WithMessenger(name))
}

// FromConfig builds every messenger listed in cfg.Messengers, each wrapped
// with the configured retry policy.
func FromConfig(cfg *config.Config, logger *logging.Logger) ([]core.Messenger, error) {
	initial, maxDelay, err := cfg.Messenger.RetryDelays()
	if err != nil {
		return nil, core.ErrValidation(core.CodeInvalidConfig, err.Error())
	}
	policy := RetryPolicy{Retries: cfg.Messenger.Retries, InitialDelay: initial, MaxDelay: maxDelay}

	out := make([]core.Messenger, 0, len(cfg.Messengers))
	for _, name := range Canonical(cfg.Messengers) {
		m, err := New(name, cfg, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, WithRetry(m, policy, logger))
	}
	return out, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
