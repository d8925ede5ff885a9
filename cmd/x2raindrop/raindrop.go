package main

import (
	"github.com/spf13/cobra"

	"x2raindrop/internal/config"
	"x2raindrop/internal/ui"
)

func newRaindropCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "raindrop",
		Short: "Inspect the Raindrop.io account",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "collections",
		Short: "List Raindrop.io collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Raindrop.Token == "" {
				return config.ErrMissingRaindropToken
			}
			cols, err := a.newRaindropClient().ListCollections(cmd.Context())
			if err != nil {
				return err
			}
			ui.RenderCollections(cmd.OutOrStdout(), cols)
			return nil
		},
	})
	return cmd
}
