package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/caso/internal/config"
	"github.com/hugo-lorenzo-mato/caso/internal/extract"
	"github.com/hugo-lorenzo-mato/caso/internal/logging"
	"github.com/hugo-lorenzo-mato/caso/internal/messenger"
)

// Version info - set via SetVersion()
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersion injects build information.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// Execute runs the caso-extract command line.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd builds the command tree. Each call gets its own viper instance,
// so flag values never leak between invocations.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "caso-extract",
		Short: "Extract cloud accounting records and push them to the configured messengers",
		Long: `caso-extract reads accounting records produced since the last successful
run, pushes them to every configured messenger and then records the time of
this run. Only one run may be active per lock directory; an overlapping
invocation exits without doing anything.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          a.runExtract,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default: caso.yaml in ., ~/.config/caso or /etc/caso)")
	pf.String("spool-directory", "", "directory holding the last run marker")
	pf.String("lock-path", "", "directory for lock files (default: spool directory, env CASO_LOCK_PATH)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (auto, text, json)")

	f := root.Flags()
	f.Bool("dry-run", false, "extract records but do not push them nor update the last run marker")
	f.Bool("dry_run", false, "alias of --dry-run")
	_ = f.MarkDeprecated("dry_run", "use --dry-run instead")
	f.StringSlice("messengers", nil, "messengers to push records to ("+strings.Join(messenger.Names(), ", ")+")")

	// Bind flags to viper (errors are nil when flag exists)
	_ = a.v.BindPFlag("spool_directory", pf.Lookup("spool-directory"))
	_ = a.v.BindPFlag("lock_path", pf.Lookup("lock-path"))
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("dry_run", f.Lookup("dry-run"))
	_ = a.v.BindPFlag("messengers", f.Lookup("messengers"))

	root.AddCommand(
		a.newVersionCmd(),
		a.newLastRunCmd(),
		a.newStatusCmd(),
		a.newMessengersCmd(),
		a.newConfigCmd(),
	)
	return root
}

// loadConfig loads, normalizes and validates the effective configuration.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoaderWithViper(a.v).WithConfigFile(a.cfgFile).Load()
	if err != nil {
		return nil, err
	}
	cfg.Messengers = messenger.Canonical(cfg.Messengers)

	v := config.NewValidator().
		WithMessengers(messenger.Names()...).
		WithExtractors(extract.Names()...)
	if err := v.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (a *app) newLogger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
}
