// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"synclite/cli/internal/gateway"
	"synclite/cli/internal/logging"
	"synclite/cli/internal/session"

	"github.com/spf13/cobra"
)

var txnHandle string

var commitCmd = &cobra.Command{
	Use:   "commit <db>",
	Short: "Commit the open transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return finishTxn(cmd.Context(), args[0], gateway.OpCommit)
	},
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <db>",
	Short: "Roll back the open transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return finishTxn(cmd.Context(), args[0], gateway.OpRollback)
	},
}

// finishTxn commits or rolls back. The stored handle is cleared only when the
// gateway reports success; on any failure it stays so the user can retry or
// inspect the data.
func finishTxn(ctx context.Context, name string, op gateway.Op) error {
	dbPath, err := env.resolve(name)
	if err != nil {
		return err
	}
	store, err := env.sessions()
	if err != nil {
		return err
	}
	handle := txnHandle
	if handle == "" {
		entry, err := session.Lookup(store, dbPath)
		if err != nil {
			return err
		}
		if !entry.InTxn() {
			return fmt.Errorf("no open transaction for %s; pass --handle or run: synclitedb begin %s", dbPath, name)
		}
		handle = entry.TxnHandle
	}

	txn := gateway.ResumeTxn(env.client, dbPath, handle)
	finish, verb := txn.Commit, "Committing"
	if op == gateway.OpRollback {
		finish, verb = txn.Rollback, "Rolling back"
	}
	res, err := call(ctx, verb+" "+logging.MaskHandle(handle), finish)
	if err != nil {
		return err
	}
	if err := report(res, op, dbPath); err != nil {
		return err
	}
	if entry, err := session.Lookup(store, dbPath); err == nil && entry.TxnHandle == handle {
		if err := session.CloseTxn(store, dbPath); err != nil {
			logging.Op().Warn("could not clear transaction handle", "db_path", dbPath, "error", err)
		}
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{commitCmd, rollbackCmd} {
		c.Flags().StringVar(&txnHandle, "handle", "", "transaction handle to use instead of the stored one")
		rootCmd.AddCommand(c)
	}
}
