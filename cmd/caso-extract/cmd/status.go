package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/caso/internal/lastrun"
	"github.com/hugo-lorenzo-mato/caso/internal/lock"
)

func (a *app) newLastRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lastrun",
		Short: "Print the last run marker",
		Long: `Print the time of the last committed run. Records updated at or after it
are extracted by the next run. Without a marker the epoch is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			t, err := lastrun.NewFileStore(cfg.SpoolDirectory).Read(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), lastrun.Format(t))
			return nil
		},
	}
}

// statusReport is the machine readable form of `caso-extract status`.
type statusReport struct {
	SpoolDirectory string           `json:"spool_directory"`
	LastRun        time.Time        `json:"lastrun"`
	HasMarker      bool             `json:"has_marker"`
	LockFile       string           `json:"lock_file"`
	Locked         bool             `json:"locked"`
	Holder         *lock.HolderInfo `json:"holder,omitempty"`
	HolderAlive    bool             `json:"holder_alive"`
}

func (a *app) newStatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last run marker and whether a run is in progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			rc, err := cfg.RunConfiguration()
			if err != nil {
				return err
			}

			store := lastrun.NewFileStore(rc.SpoolDir)
			t, err := store.Read(cmd.Context())
			if err != nil {
				return err
			}
			st, err := lock.NewFileLocker(rc.LockPath).Inspect(cmd.Context(), lock.RunLockName)
			if err != nil {
				return err
			}

			report := statusReport{
				SpoolDirectory: rc.SpoolDir,
				LastRun:        t,
				HasMarker:      store.Exists(),
				LockFile:       st.Path,
				Locked:         st.Held,
				Holder:         st.Holder,
				HolderAlive:    st.HolderAlive,
			}
			if asJSON {
				return outputJSON(cmd.OutOrStdout(), report)
			}
			return printStatus(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printStatus(out io.Writer, r statusReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Spool directory:\t%s\n", r.SpoolDirectory)
	if r.HasMarker {
		fmt.Fprintf(w, "Last run:\t%s\n", lastrun.Format(r.LastRun))
	} else {
		fmt.Fprintf(w, "Last run:\tnever (next run starts at %s)\n", lastrun.Format(r.LastRun))
	}
	fmt.Fprintf(w, "Lock file:\t%s\n", r.LockFile)
	switch {
	case r.Locked && r.Holder != nil:
		fmt.Fprintf(w, "Run in progress:\tyes (pid %d on %s since %s)\n",
			r.Holder.PID, r.Holder.Hostname, r.Holder.AcquiredAt.Format(time.RFC3339))
	case r.Locked:
		fmt.Fprintf(w, "Run in progress:\tyes\n")
	default:
		fmt.Fprintf(w, "Run in progress:\tno\n")
	}
	return w.Flush()
}

func outputJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
