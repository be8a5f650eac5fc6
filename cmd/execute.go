// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"synclite/cli/internal/gateway"
	"synclite/cli/internal/session"

	"github.com/spf13/cobra"
)

var (
	execArgs   string
	execTxn    bool
	execNoTxn  bool
	execHandle string
	execOutput string
)

// executeCmd runs one SQL statement, optionally with a batch of bind values.
var executeCmd = &cobra.Command{
	Use:     "execute <db> <sql>",
	Aliases: []string{"exec"},
	Short:   "Run a SQL statement",
	Long: `Execute sends <sql> to the gateway. When a transaction handle is stored for <db>
the statement runs inside that transaction; --no-txn runs it outside, --txn
fails if no handle is stored.

--args takes a JSON array. An array of arrays is a batch, one row of bind values
per record; a flat array is a single record. Use "-" to read it from stdin.`,
	Example: `  synclitedb execute test.db "create table if not exists t1(a int, b text)"
  synclitedb execute test.db "insert into t1(a,b) values(?,?)" --args '[[1,"one"],[2,"two"]]'
  synclitedb execute test.db "select a, b from t1" --output json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if execTxn && execNoTxn {
			return errors.New("--txn and --no-txn are mutually exclusive")
		}
		sql := args[1]
		if isControlStatement(sql) {
			return fmt.Errorf("%q is a control operation; use the %s command", sql, strings.ToLower(strings.TrimSpace(sql)))
		}
		batch, err := readArguments(execArgs, cmd.InOrStdin())
		if err != nil {
			return err
		}
		dbPath, err := env.resolve(args[0])
		if err != nil {
			return err
		}
		handle, err := chooseHandle(dbPath, execHandle, execTxn, execNoTxn)
		if err != nil {
			return err
		}

		res, err := call(cmd.Context(), "Executing", func(ctx context.Context) (gateway.Result, error) {
			return env.client.Execute(ctx, dbPath, sql, gateway.WithTxnHandle(handle), gateway.WithArguments(batch))
		})
		if err != nil {
			return err
		}
		if err := report(res, gateway.OpExecute, dbPath); err != nil {
			return err
		}
		if res.Rows != nil {
			return renderResultSet(cmd.OutOrStdout(), res.Rows, execOutput)
		}
		return nil
	},
}

// chooseHandle decides which transaction, if any, a statement runs in.
func chooseHandle(dbPath, explicit string, requireTxn, noTxn bool) (string, error) {
	if noTxn {
		return "", nil
	}
	if explicit != "" {
		return explicit, nil
	}
	store, err := env.sessions()
	if err != nil {
		return "", err
	}
	entry, err := session.Lookup(store, dbPath)
	if err != nil {
		return "", err
	}
	if requireTxn && !entry.InTxn() {
		return "", fmt.Errorf("no open transaction for %s; run: synclitedb begin %s", dbPath, dbPath)
	}
	return entry.TxnHandle, nil
}

// isControlStatement reports whether sql would be read by the gateway as a
// control keyword instead of a statement.
func isControlStatement(sql string) bool {
	return gateway.LooksLikeControl(sql)
}

// readArguments reads --args from the flag value, or from r when it is "-".
func readArguments(value string, r io.Reader) (gateway.ArgumentBatch, error) {
	if value == "-" {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		value = string(b)
	} else if strings.HasPrefix(value, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(value, "@"))
		if err != nil {
			return nil, err
		}
		value = string(b)
	}
	return parseArguments(value)
}

// parseArguments decodes a JSON argument batch. Numbers keep their literal
// form so large integers reach the gateway unchanged.
func parseArguments(s string) (gateway.ArgumentBatch, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("--args must be a JSON array: %w", err)
	}
	if dec.More() {
		return nil, errors.New("--args must hold a single JSON array")
	}
	if len(raw) == 0 {
		return nil, nil
	}

	nested := 0
	for _, v := range raw {
		if _, ok := v.([]any); ok {
			nested++
		}
	}
	switch nested {
	case 0:
		return gateway.ArgumentBatch{raw}, nil
	case len(raw):
		batch := make(gateway.ArgumentBatch, len(raw))
		for i, v := range raw {
			batch[i] = v.([]any)
		}
		return batch, nil
	default:
		return nil, errors.New("--args mixes records and single values")
	}
}

func init() {
	f := executeCmd.Flags()
	f.StringVarP(&execArgs, "args", "a", "", `bind values as JSON, "-" for stdin or @file`)
	f.BoolVar(&execTxn, "txn", false, "require the stored transaction")
	f.BoolVar(&execNoTxn, "no-txn", false, "run outside any stored transaction")
	f.StringVar(&execHandle, "handle", "", "transaction handle to use instead of the stored one")
	f.StringVarP(&execOutput, "output", "o", outputTable, "result format: table or json")
	rootCmd.AddCommand(executeCmd)
}
