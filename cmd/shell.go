// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"synclite/cli/internal/gateway"
	"synclite/cli/internal/logging"
	"synclite/cli/internal/session"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var shellOutput string

// shellCmd is a line-oriented SQL prompt for one database.
var shellCmd = &cobra.Command{
	Use:   "shell <db>",
	Short: "Interactive SQL prompt",
	Long: `Shell reads statements terminated by ";" and sends each to the gateway.
begin, commit and rollback drive a transaction whose handle is kept in the
session store, so it survives leaving the shell. close closes the database and
exits.

Meta commands: \q quits, \txn shows the open handle.`,
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
		sh := &shell{
			api:    env.client,
			store:  store,
			dbPath: dbPath,
			out:    cmd.OutOrStdout(),
		}
		entry, err := session.Lookup(store, dbPath)
		if err != nil {
			return err
		}
		if entry.InTxn() {
			sh.txn = gateway.ResumeTxn(env.client, dbPath, entry.TxnHandle)
			pterm.Info.Printf("Resuming transaction %s\n", logging.MaskHandle(entry.TxnHandle))
		}
		return sh.loop(cmd.Context(), cmd.InOrStdin())
	},
}

type shell struct {
	api    gateway.API
	store  session.Store
	dbPath string
	out    io.Writer
	txn    *gateway.Txn
}

func (s *shell) prompt(pending bool) {
	switch {
	case pending:
		fmt.Fprint(s.out, "      -> ")
	case s.txn != nil:
		fmt.Fprint(s.out, "synclite*> ")
	default:
		fmt.Fprint(s.out, "synclite> ")
	}
}

func (s *shell) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var buf statementBuffer

	s.prompt(false)
	for scanner.Scan() {
		line := scanner.Text()
		if !buf.Pending() {
			switch strings.TrimSpace(line) {
			case `\q`, "exit", "quit":
				return nil
			case `\txn`:
				if s.txn == nil {
					fmt.Fprintln(s.out, "no open transaction")
				} else {
					fmt.Fprintln(s.out, s.txn.Handle())
				}
				s.prompt(false)
				continue
			}
		}
		for _, stmt := range buf.Feed(line) {
			quit, err := s.run(ctx, stmt)
			if err != nil && !alreadyShown(err) {
				pterm.Error.Println(logging.PresentError("", err))
			}
			if quit {
				return nil
			}
		}
		s.prompt(buf.Pending())
	}
	return scanner.Err()
}

// run executes one statement. It reports whether the shell should exit.
func (s *shell) run(ctx context.Context, stmt string) (bool, error) {
	switch strings.ToLower(stmt) {
	case gateway.KeywordInitialize:
		return false, fmt.Errorf("use: synclitedb initialize %s", s.dbPath)
	case gateway.KeywordBegin:
		return false, s.begin(ctx)
	case gateway.KeywordCommit:
		return false, s.finish(ctx, gateway.OpCommit)
	case gateway.KeywordRollback:
		return false, s.finish(ctx, gateway.OpRollback)
	case gateway.KeywordClose:
		res, err := call(ctx, "Closing", func(ctx context.Context) (gateway.Result, error) {
			return s.api.Close(ctx, s.dbPath)
		})
		if err != nil {
			return false, err
		}
		if err := report(res, gateway.OpClose, s.dbPath); err != nil {
			return false, err
		}
		if err := session.MarkClosed(s.store, s.dbPath); err != nil {
			logging.Op().Warn("could not forget closed database", "db_path", s.dbPath, "error", err)
		}
		return true, nil
	}

	var res gateway.Result
	var err error
	if s.txn != nil {
		res, err = call(ctx, "Executing", func(ctx context.Context) (gateway.Result, error) {
			return s.txn.Execute(ctx, stmt, nil)
		})
	} else {
		res, err = call(ctx, "Executing", func(ctx context.Context) (gateway.Result, error) {
			return s.api.Execute(ctx, s.dbPath, stmt)
		})
	}
	if err != nil {
		return false, err
	}
	if err := report(res, gateway.OpExecute, s.dbPath); err != nil {
		return false, err
	}
	if res.Rows != nil {
		return false, renderResultSet(s.out, res.Rows, shellOutput)
	}
	return false, nil
}

func (s *shell) begin(ctx context.Context) error {
	if s.txn != nil {
		return fmt.Errorf("transaction %s is already open", logging.MaskHandle(s.txn.Handle()))
	}
	var txn *gateway.Txn
	res, err := call(ctx, "Beginning transaction", func(ctx context.Context) (gateway.Result, error) {
		t, res, err := gateway.BeginTxn(ctx, s.api, s.dbPath)
		txn = t
		return res, err
	})
	if err != nil {
		return err
	}
	if err := report(res, gateway.OpBegin, s.dbPath); err != nil {
		return err
	}
	s.txn = txn
	return session.OpenTxn(s.store, s.dbPath, txn.Handle())
}

func (s *shell) finish(ctx context.Context, op gateway.Op) error {
	if s.txn == nil {
		return fmt.Errorf("no open transaction")
	}
	fn := s.txn.Commit
	if op == gateway.OpRollback {
		fn = s.txn.Rollback
	}
	res, err := call(ctx, op.String(), fn)
	if err != nil {
		return err
	}
	if err := report(res, op, s.dbPath); err != nil {
		return err
	}
	s.txn = nil
	return session.CloseTxn(s.store, s.dbPath)
}

// statementBuffer collects input lines and splits them into statements on
// ";" outside quoted text. The terminator is not part of the statement.
type statementBuffer struct {
	buf   strings.Builder
	quote rune
}

// Pending reports whether part of a statement is waiting for its ";".
func (b *statementBuffer) Pending() bool {
	return strings.TrimSpace(b.buf.String()) != ""
}

// Feed adds one input line and returns the statements it completed.
func (b *statementBuffer) Feed(line string) []string {
	var out []string
	if b.buf.Len() > 0 {
		b.buf.WriteByte('\n')
	}
	for _, r := range line {
		switch {
		case b.quote != 0:
			if r == b.quote {
				b.quote = 0
			}
		case r == '\'' || r == '"':
			b.quote = r
		case r == ';':
			if stmt := strings.TrimSpace(b.buf.String()); stmt != "" {
				out = append(out, stmt)
			}
			b.buf.Reset()
			continue
		}
		b.buf.WriteRune(r)
	}
	return out
}

func init() {
	shellCmd.Flags().StringVarP(&shellOutput, "output", "o", outputTable, "result format: table or json")
	rootCmd.AddCommand(shellCmd)
}
