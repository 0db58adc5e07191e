package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ihiteshgupta/daemonlink/internal/store"
)

func historyCommand(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the most recent state transitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			setupLogging(cfg, cmd.ErrOrStderr())

			st, err := store.NewSQLiteStore(cfg.StorePath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			transitions, err := st.Transitions.GetTransitionHistory(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tMACHINE\tFROM\tTO\tSTATUS\tUNEXPECTED")
			for _, t := range transitions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\n",
					t.Timestamp.Format(time.RFC3339), t.Kind, t.FromPhase, t.ToPhase, t.Label, t.Unexpected)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of transitions to show")
	return cmd
}
