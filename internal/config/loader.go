package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CASO_LOCK_PATH.
const EnvPrefix = "CASO"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return NewLoaderWithViper(viper.New())
}

// NewLoaderWithViper creates a loader using an existing viper instance.
// This allows integration with CLI flag bindings.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: EnvPrefix,
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (set via BindPFlag)
// 2. Environment variables (CASO_*)
// 3. Config file (--config, else caso.yaml in ., ~/.config/caso, /etc/caso)
// 4. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName("caso")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "caso"))
		}
		l.v.AddConfigPath("/etc/caso")
	}

	// Read config file (ignore not found unless explicitly requested)
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Messengers = splitList(cfg.Messengers)
	cfg.Extractors = splitList(cfg.Extractors)
	cfg.Extractor.Projects = splitList(cfg.Extractor.Projects)

	return &cfg, nil
}

// setDefaults configures default values.
func (l *Loader) setDefaults() {
	l.v.SetDefault("messengers", []string{"noop"})
	l.v.SetDefault("spool_directory", "/var/spool/caso")
	// Empty falls back to spool_directory; CASO_LOCK_PATH overrides it.
	l.v.SetDefault("lock_path", "")
	l.v.SetDefault("dry_run", false)
	l.v.SetDefault("site_name", "")

	l.v.SetDefault("extractors", []string{"sqlite"})
	l.v.SetDefault("extractor.projects", []string{})
	l.v.SetDefault("extractor.sqlite.path", "/var/lib/caso/accounting.db")

	l.v.SetDefault("messenger.retries", 0)
	l.v.SetDefault("messenger.initial_delay", "1s")
	l.v.SetDefault("messenger.max_delay", "30s")
	l.v.SetDefault("messenger.ssm.output_path", "/var/spool/apel/outgoing")
	l.v.SetDefault("messenger.logstash.host", "localhost")
	l.v.SetDefault("messenger.logstash.port", 5000)
	l.v.SetDefault("messenger.http.url", "")
	l.v.SetDefault("messenger.http.timeout", "30s")

	l.v.SetDefault("run.timeout", "0")

	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")
}

// ConfigFile returns the config file path if one was used.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// splitList flattens comma separated entries, as env vars and flags
// deliver lists as a single "a,b" string.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
