package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/caso/internal/messenger"
)

func (a *app) newMessengersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messengers",
		Short: "List available messengers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			enabled := make(map[string]bool, len(cfg.Messengers))
			for _, name := range cfg.Messengers {
				enabled[name] = true
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MESSENGER\tENABLED")
			for _, name := range messenger.Names() {
				fmt.Fprintf(w, "%s\t%t\n", name, enabled[name])
			}
			return w.Flush()
		},
	}
}
