// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"synclite/cli/internal/gateway"
	"synclite/cli/internal/logging"
	"synclite/cli/internal/session"

	"github.com/spf13/cobra"
)

// closeCmd closes a database on the gateway.
var closeCmd = &cobra.Command{
	Use:   "close <db>",
	Short: "Close a database on the gateway",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := env.resolve(args[0])
		if err != nil {
			return err
		}
		res, err := call(cmd.Context(), "Closing "+dbPath, func(ctx context.Context) (gateway.Result, error) {
			return env.client.Close(ctx, dbPath)
		})
		if err != nil {
			return err
		}
		if err := report(res, gateway.OpClose, dbPath); err != nil {
			return err
		}
		store, err := env.sessions()
		if err != nil {
			return err
		}
		if err := session.MarkClosed(store, dbPath); err != nil {
			logging.Op().Warn("could not forget closed database", "db_path", dbPath, "error", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
}
