package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"x2raindrop/internal/ui"
)

func newStateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the local sync state",
	}

	var limit int
	show := &cobra.Command{
		Use:   "show",
		Short: "Show synced posts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			defer a.closeLedger(ledger)

			ledger.Load()
			ui.RenderLedger(cmd.OutOrStdout(), a.cfg.Sync.StatePath, ledger.Records(), limit)
			return nil
		},
	}
	show.Flags().IntVar(&limit, "limit", 20, "how many records to list (0 = all)")

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every synced post so the next sync processes them again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear sync state without --yes")
			}
			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			defer a.closeLedger(ledger)

			ledger.Load()
			n := ledger.Count()
			ledger.Clear()
			if err := ledger.Save(); err != nil {
				return err
			}
			a.log.WithField("records", n).Info("Sync state cleared")
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d records from %s\n", n, a.cfg.Sync.StatePath)
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing")

	cmd.AddCommand(show, clearCmd)
	return cmd
}
