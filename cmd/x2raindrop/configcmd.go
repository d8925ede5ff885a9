package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"x2raindrop/internal/config"
	"x2raindrop/internal/ui"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:               "init [path]",
		Short:             "Write a default configuration file",
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: skipConfigLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			switch {
			case len(args) == 1:
				path = args[0]
			case a.cfgFile != "":
				path = a.cfgFile
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nEdit it to add your X client id and Raindrop token.\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(
		initCmd,
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration with secrets masked",
			RunE: func(cmd *cobra.Command, args []string) error {
				ui.RenderConfig(cmd.OutOrStdout(), a.cfg)
				return a.cfg.Validate()
			},
		},
		&cobra.Command{
			Use:               "path",
			Short:             "Print the configuration file path",
			PersistentPreRunE: skipConfigLoad,
			Run: func(cmd *cobra.Command, args []string) {
				path := config.DefaultPath()
				if a.cfgFile != "" {
					path = a.cfgFile
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			},
		},
	)
	return cmd
}
