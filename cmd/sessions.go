// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"synclite/cli/internal/logging"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// sessionsCmd lists the databases and transaction handles this CLI remembers.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List remembered databases and open transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := env.sessions()
		if err != nil {
			return err
		}
		entries, err := store.List()
		if err != nil {
			return err
		}
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Store: ") + store.Backend())
		if len(entries) == 0 {
			pterm.Println("No sessions.")
			return nil
		}
		data := pterm.TableData{{"DB PATH", "TYPE", "NAME", "INITIALIZED", "TXN", "UPDATED"}}
		for _, e := range entries {
			txn := "-"
			if e.InTxn() {
				txn = logging.MaskHandle(e.TxnHandle)
			}
			data = append(data, []string{
				e.DBPath, e.DBType, e.DBName,
				fmt.Sprint(e.Initialized), txn,
				e.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}

// sessionsClearCmd forgets one database, or all of them. It never talks to
// the gateway: transactions left open there are not rolled back.
var sessionsClearCmd = &cobra.Command{
	Use:   "clear [db]",
	Short: "Forget a remembered database, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := env.sessions()
		if err != nil {
			return err
		}
		var paths []string
		if len(args) == 1 {
			p, err := env.resolve(args[0])
			if err != nil {
				return err
			}
			paths = []string{p}
		} else {
			entries, err := store.List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				paths = append(paths, e.DBPath)
			}
		}
		for _, p := range paths {
			if err := store.Delete(p); err != nil {
				return err
			}
		}
		pterm.Success.Printf("Cleared %d session(s)\n", len(paths))
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsClearCmd)
	rootCmd.AddCommand(sessionsCmd)
}
