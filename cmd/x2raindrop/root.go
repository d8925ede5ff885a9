package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"x2raindrop/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds state shared by every command.
type app struct {
	cfgFile string
	debug   bool

	cfg *config.Config
	log *logrus.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "x2raindrop",
		Short:         "Sync X bookmarks to Raindrop.io",
		Long:          `Sync X (Twitter) bookmarks into a Raindrop.io collection, once per post, optionally removing them from X afterwards.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newSyncCommand(a),
		newXCommand(a),
		newRaindropCommand(a),
		newConfigCommand(a),
		newStateCommand(a),
		&cobra.Command{
			Use:               "version",
			Short:             "Print the version number",
			PersistentPreRunE: skipConfigLoad,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "x2raindrop version %s\n", version)
			},
		},
	)
	return root
}

// skipConfigLoad replaces the root hook for commands that must work before a
// config file exists.
func skipConfigLoad(*cobra.Command, []string) error { return nil }

// init loads configuration and sets up the logger.
func (a *app) init() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = newLogger(cfg.Log, a.debug)

	a.log.WithFields(logrus.Fields{
		"config_file": cfg.File,
		"state_path":  cfg.Sync.StatePath,
	}).Debug("Configuration loaded successfully")
	return nil
}

// newLogger writes to stderr so stdout stays free for tables.
func newLogger(cfg config.LogConfig, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.Format) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}
