// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for synclitedb, a client for
// the SyncLite DB gateway. Every subcommand maps onto one or more gateway
// operations; transaction handles returned by begin are kept in the session
// store so that later invocations can commit or roll them back.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"synclite/cli/internal/config"
	"synclite/cli/internal/dbpath"
	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/gateway"
	"synclite/cli/internal/logging"
	"synclite/cli/internal/session"

	"github.com/spf13/cobra"
)

// Exit statuses.
const (
	exitError          = 1
	exitLogicalFailure = 2
)

var (
	flagGateway        string
	flagTimeout        time.Duration
	flagConfigPath     string
	flagVerbose        bool
	flagSessionBackend string
)

// app is the state shared by commands after the root pre-run.
type app struct {
	cfg      config.Config
	client   *gateway.Client
	resolver dbpath.Resolver
	store    session.Store
}

var env app

// skipSetup marks commands that must work without a valid configuration.
const skipSetup = "skip-setup"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "synclitedb",
	Short: "Client for the SyncLite DB gateway",
	Long: `synclitedb drives a SyncLite DB gateway over its JSON/HTTP protocol: initialize
embedded databases, run SQL inside or outside transactions, and close them.

Open transaction handles are remembered between invocations, so
"synclitedb begin", "synclitedb execute" and "synclitedb commit" can be run
as separate commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipSetup] == "true" {
			return nil
		}
		return setup(cmd)
	},
}

func setup(cmd *cobra.Command) error {
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}
	if flagGateway != "" {
		cfg.Gateway.Address = flagGateway
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Gateway.Timeout = config.Duration(flagTimeout)
	}
	if flagSessionBackend != "" {
		cfg.SessionBackend = flagSessionBackend
	}
	if flagVerbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logging.SetLevelFromString(cfg.LogLevel)

	client, err := gateway.New(gateway.Config{
		Address: cfg.Gateway.Address,
		Timeout: time.Duration(cfg.Gateway.Timeout),
		Logger:  logging.Op(),
	})
	if err != nil {
		return clierrors.Wrap(clierrors.ConfigInvalid, "gateway", err)
	}

	env = app{
		cfg:      cfg,
		client:   client,
		resolver: dbpath.DirResolver{Dir: cfg.DBDir},
	}
	return nil
}

// sessions opens the session store on first use.
func (a *app) sessions() (session.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := session.Open(a.cfg.SessionBackend)
	if err != nil {
		return nil, err
	}
	logging.Op().Debug("session store opened", "backend", s.Backend())
	a.store = s
	return s, nil
}

// resolve maps a command-line database name to its db-path.
func (a *app) resolve(name string) (string, error) {
	return a.resolver.Resolve(name)
}

// Execute runs the CLI application. A gateway logical failure exits with
// status 2; every other error exits with status 1.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}
	if !alreadyShown(err) {
		fmt.Fprintln(os.Stderr, logging.PresentError("", err))
	}
	if gateway.IsLogicalFailure(err) || clierrors.Is(err, clierrors.LogicalFailure) {
		os.Exit(exitLogicalFailure)
	}
	os.Exit(exitError)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagGateway, "gateway", "", "gateway URL (default from config, http://localhost:5555)")
	pf.DurationVar(&flagTimeout, "timeout", config.DefaultTimeout, "per-request timeout")
	pf.StringVar(&flagConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/synclitedb/config.json)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "log gateway requests and responses")
	pf.StringVar(&flagSessionBackend, "session-backend", "", "where open handles are kept: auto, file or keychain")
}
