package extract

import (
	"fmt"
	"sort"

	"github.com/hugo-lorenzo-mato/caso/internal/config"
	"github.com/hugo-lorenzo-mato/caso/internal/core"
)

type factory func(cfg *config.Config) (core.Extractor, error)

var factories = map[string]factory{
	"sqlite": func(cfg *config.Config) (core.Extractor, error) {
		if cfg.Extractor.SQLite.Path == "" {
			return nil, core.ErrValidation(core.CodeInvalidConfig, "extractor.sqlite.path is required")
		}
		return NewSQLiteExtractor(cfg.Extractor.SQLite.Path, WithProjects(cfg.Extractor.Projects...)), nil
	},
}

// Names lists the available extractors.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named extractor.
func New(name string, cfg *config.Config) (core.Extractor, error) {
	f, ok := factories[name]
	if !ok {
		return nil, core.ErrValidation(core.CodeUnknownExtractor, fmt.Sprintf("unknown extractor %q", name))
	}
	return f(cfg)
}

// FromConfig builds every extractor listed in cfg.Extractors.
func FromConfig(cfg *config.Config) ([]core.Extractor, error) {
	out := make([]core.Extractor, 0, len(cfg.Extractors))
	for _, name := range cfg.Extractors {
		ex, err := New(name, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}
