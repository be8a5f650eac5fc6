// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"synclite/cli/internal/gateway"
	"synclite/cli/internal/logging"
	"synclite/cli/internal/session"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var beginForce bool

// beginCmd opens a transaction and stores its handle for later commands.
var beginCmd = &cobra.Command{
	Use:   "begin <db>",
	Short: "Begin a transaction and remember its handle",
	Long: `Begin opens a transaction on <db>. The handle returned by the gateway is stored
in the session store so that execute, commit and rollback pick it up.

A stored handle is never replaced silently: use --force to begin anyway, for
example after the gateway was restarted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := env.resolve(args[0])
		if err != nil {
			return err
		}
		store, err := env.sessions()
		if err != nil {
			return err
		}
		entry, err := session.Lookup(store, dbPath)
		if err != nil {
			return err
		}
		if entry.InTxn() && !beginForce {
			return fmt.Errorf("a transaction is already open on %s (handle %s); commit or roll it back, or use --force",
				dbPath, logging.MaskHandle(entry.TxnHandle))
		}

		var txn *gateway.Txn
		res, err := call(cmd.Context(), "Beginning transaction", func(ctx context.Context) (gateway.Result, error) {
			t, res, err := env.client.BeginTxn(ctx, dbPath)
			txn = t
			return res, err
		})
		if err != nil {
			return err
		}
		if err := report(res, gateway.OpBegin, dbPath); err != nil {
			return err
		}
		if err := session.OpenTxn(store, dbPath, txn.Handle()); err != nil {
			pterm.Warning.Printf("Transaction handle could not be stored: %s\n", txn.Handle())
			return err
		}
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Handle: ") + txn.Handle())
		return nil
	},
}

func init() {
	beginCmd.Flags().BoolVar(&beginForce, "force", false, "replace a stored handle")
	rootCmd.AddCommand(beginCmd)
}
