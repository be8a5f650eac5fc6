// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"strings"

	"synclite/cli/internal/gateway"
	"synclite/cli/internal/logging"
	"synclite/cli/internal/session"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	initType         string
	initName         string
	initLoggerConfig string
)

// initializeCmd creates or opens a database on the gateway.
var initializeCmd = &cobra.Command{
	Use:     "initialize <db>",
	Aliases: []string{"init"},
	Short:   "Create or open a database on the gateway",
	Long: `Initialize asks the gateway to create or open the database at <db> with the given
engine. A relative <db> is placed under the configured db dir; an absolute path is
sent as is.

Types: ` + strings.Join(typeNames(), ", "),
	Example: `  synclitedb initialize test.db --type SQLITE --name test
  synclitedb initialize /data/events.db --type DUCKDB_APPENDER --logger-config /etc/synclite_logger.conf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbType, err := gateway.ParseDatabaseType(initType)
		if err != nil {
			return err
		}
		dbPath, err := env.resolve(args[0])
		if err != nil {
			return err
		}
		loggerConfig := initLoggerConfig
		if loggerConfig == "" {
			loggerConfig = env.cfg.Gateway.LoggerConfig
		}

		res, err := call(cmd.Context(), "Initializing "+dbPath, func(ctx context.Context) (gateway.Result, error) {
			return env.client.Initialize(ctx, dbPath, dbType, initName, gateway.WithLoggerConfig(loggerConfig))
		})
		if err != nil {
			return err
		}
		if err := report(res, gateway.OpInitialize, dbPath); err != nil {
			return err
		}

		store, err := env.sessions()
		if err != nil {
			return err
		}
		if err := session.MarkInitialized(store, dbPath, string(dbType), initName); err != nil {
			logging.Op().Warn("could not record initialized database", "db_path", dbPath, "error", err)
		}
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Database: ") + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(dbPath))
		return nil
	},
}

func typeNames() []string {
	out := make([]string, len(gateway.DatabaseTypes))
	for i, t := range gateway.DatabaseTypes {
		out[i] = string(t)
	}
	return out
}

func init() {
	initializeCmd.Flags().StringVarP(&initType, "type", "t", string(gateway.SQLite), "database engine")
	initializeCmd.Flags().StringVarP(&initName, "name", "n", "", "database name reported to the gateway")
	initializeCmd.Flags().StringVar(&initLoggerConfig, "logger-config", "", "SyncLite logger config file on the gateway host")
	rootCmd.AddCommand(initializeCmd)
}
