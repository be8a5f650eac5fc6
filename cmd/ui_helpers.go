package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"synclite/cli/internal/gateway"
	"synclite/cli/internal/httperrors"
	"synclite/cli/internal/terminal"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// startInlineSpinner starts a simple inline spinner animation on a single line.
// It displays rotating animation frames followed by the provided text, updating
// the same line in the terminal, and hides the cursor while it runs.
//
// Returns a function that stops the spinner and cleans up when called.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	cursor.Hide()
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			line := terminal.Truncate(fmt.Sprintf("%s %s", frames[i%len(frames)], text), terminal.Width()-1)
			select {
			case <-stop:
				// Clear the spinner line completely, then return
				fmt.Fprintf(w, "\r%*s\r", len([]rune(line)), "")
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s", line)
				i++
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
		cursor.Show()
	}
}

// call runs one gateway exchange behind a spinner. Transport failures are
// explained to the user before being returned.
func call(ctx context.Context, what string, fn func(context.Context) (gateway.Result, error)) (gateway.Result, error) {
	stop := func() {}
	if terminal.IsInteractive() {
		stop = startInlineSpinner(os.Stderr, what, spinnerFrames, 80*time.Millisecond)
	}
	res, err := fn(ctx)
	stop()
	if err != nil && gateway.IsTransportError(err) {
		return res, shown(httperrors.FormatNetworkError(err, what))
	}
	return res, err
}

// report prints the gateway message and turns result=false into an error.
func report(res gateway.Result, op gateway.Op, dbPath string) error {
	if !res.OK {
		pterm.Error.Println(res.Message)
		return shown(res.Err(op, dbPath))
	}
	pterm.Success.Println(res.Message)
	return nil
}

// shownError marks an error whose message was already printed to the user.
// It keeps the cause reachable for exit status decisions.
type shownError struct {
	err error
}

func (e *shownError) Error() string { return e.err.Error() }

func (e *shownError) Unwrap() error { return e.err }

func shown(err error) error {
	if err == nil {
		return nil
	}
	return &shownError{err: err}
}

// alreadyShown reports whether err was printed where it happened.
func alreadyShown(err error) bool {
	var s *shownError
	return errors.As(err, &s)
}

// Output formats for result sets.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// renderResultSet prints rs as a pterm table or as a JSON array.
func renderResultSet(w io.Writer, rs *gateway.ResultSet, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if rs == nil {
			_, err := fmt.Fprintln(w, "[]")
			return err
		}
		return enc.Encode(rs)
	case outputTable, "":
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", format)
	}

	if rs.Len() == 0 {
		fmt.Fprintln(w, pterm.Gray("(0 rows)"))
		return nil
	}
	cols := rs.Columns()
	data := pterm.TableData{cols}
	for _, row := range rs.All() {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = formatCell(row, c)
		}
		data = append(data, line)
	}
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithWriter(w).WithData(data).Render(); err != nil {
		return err
	}
	suffix := "s"
	if rs.Len() == 1 {
		suffix = ""
	}
	fmt.Fprintln(w, pterm.Gray(fmt.Sprintf("(%d row%s)", rs.Len(), suffix)))
	return nil
}

func formatCell(row gateway.Row, col string) string {
	v, ok := row.Get(col)
	if !ok || v == nil {
		return "NULL"
	}
	s := fmt.Sprint(v)
	return terminal.Truncate(strings.ReplaceAll(s, "\n", " "), 60)
}
