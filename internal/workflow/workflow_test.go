// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingAPI answers every call with success unless failOn names the
// statement or keyword, and records what it was asked to do.
type recordingAPI struct {
	calls     []string
	failOn    string
	transport string
	rows      int
}

func (a *recordingAPI) reply(call string) (gateway.Result, error) {
	a.calls = append(a.calls, call)
	if a.transport != "" && strings.Contains(call, a.transport) {
		return gateway.Result{}, &gateway.TransportError{Op: gateway.OpExecute, Cause: errors.New("connection reset")}
	}
	if a.failOn != "" && strings.Contains(call, a.failOn) {
		return gateway.Result{OK: false, Message: "refused " + a.failOn}, nil
	}
	return gateway.Result{OK: true, Message: "ok"}, nil
}

func (a *recordingAPI) Initialize(_ context.Context, path string, t gateway.DatabaseType, name string, opts ...gateway.RequestOption) (gateway.Result, error) {
	return a.reply(fmt.Sprintf("initialize %s %s %s", path, t, name))
}

func (a *recordingAPI) Begin(_ context.Context, path string) (gateway.Result, error) {
	res, err := a.reply("begin " + path)
	if res.OK {
		res.TxnHandle = "h-1"
	}
	return res, err
}

func (a *recordingAPI) Execute(_ context.Context, path, sql string, opts ...gateway.RequestOption) (gateway.Result, error) {
	req := gateway.NewExecute(path, sql, opts...)
	call := fmt.Sprintf("execute[%s] %s args=%d", req.TxnHandle(), sql, len(req.Arguments()))
	res, err := a.reply(call)
	if err == nil && res.OK && strings.HasPrefix(sql, "select") {
		res, err = gateway.Decode(gateway.OpExecute, selectReply(a.rows))
	}
	return res, err
}

func (a *recordingAPI) Commit(_ context.Context, path, h string) (gateway.Result, error) {
	return a.reply("commit " + h)
}

func (a *recordingAPI) Rollback(_ context.Context, path, h string) (gateway.Result, error) {
	return a.reply("rollback " + h)
}

func (a *recordingAPI) Close(_ context.Context, path string) (gateway.Result, error) {
	return a.reply("close " + path)
}

func selectReply(n int) gateway.Envelope {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf(`{"a":%d}`, i+1)
	}
	return gateway.Envelope{
		"result":    []byte(`true`),
		"message":   []byte(`"ok"`),
		"resultset": []byte("[" + strings.Join(rows, ",") + "]"),
	}
}

func TestDemoRunsTheSampleFlow(t *testing.T) {
	wf, err := Demo()
	require.NoError(t, err)
	wf.DBPath = "/tmp/t.db"

	api := &recordingAPI{rows: 2}
	var seen []int
	r := &Runner{API: api, OnStep: func(rep StepReport) { seen = append(seen, rep.Index) }}

	sum, err := r.Run(context.Background(), wf)
	require.NoError(t, err)
	assert.Equal(t, 8, sum.Succeeded)
	assert.Zero(t, sum.Failed)
	assert.Empty(t, sum.TxnHandle)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, seen)

	assert.Equal(t, []string{
		"initialize /tmp/t.db SQLITE test",
		"begin /tmp/t.db",
		"execute[h-1] create table if not exists t1(a int, b text) args=0",
		"execute[h-1] insert into t1 (a,b) values (?,?) args=2",
		"commit h-1",
		"execute[] select a, b from t1 args=0",
		"execute[] drop table t1 args=0",
		"close /tmp/t.db",
	}, api.calls)
}

func TestRunStopsOnLogicalFailure(t *testing.T) {
	wf, err := Demo()
	require.NoError(t, err)

	api := &recordingAPI{failOn: "insert"}
	sum, err := (&Runner{API: api}).Run(context.Background(), wf)
	require.Error(t, err)
	assert.True(t, clierrors.Is(err, clierrors.WorkflowFailed))
	assert.True(t, clierrors.Is(err, clierrors.LogicalFailure))
	assert.True(t, gateway.IsLogicalFailure(err))
	assert.Equal(t, 1, sum.Failed)
	assert.Len(t, sum.Reports, 4)
	assert.Equal(t, "h-1", sum.TxnHandle, "the open handle is reported back to the caller")
}

func TestRunContinuesWhenAsked(t *testing.T) {
	wf, err := Demo()
	require.NoError(t, err)
	keepGoing := false
	wf.StopOnFailure = &keepGoing

	api := &recordingAPI{failOn: "drop", rows: 2}
	sum, err := (&Runner{API: api}).Run(context.Background(), wf)
	require.Error(t, err, "the first failure is still reported")
	assert.Len(t, sum.Reports, 8)
	assert.Equal(t, 7, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
}

func TestRunAlwaysStopsOnTransportError(t *testing.T) {
	wf, err := Demo()
	require.NoError(t, err)
	keepGoing := false
	wf.StopOnFailure = &keepGoing

	api := &recordingAPI{transport: "insert"}
	sum, err := (&Runner{API: api}).Run(context.Background(), wf)
	require.Error(t, err)
	assert.True(t, gateway.IsTransportError(err))
	assert.Len(t, sum.Reports, 4)
	assert.Equal(t, "h-1", sum.TxnHandle)
}

func TestRunChecksExpectedRows(t *testing.T) {
	wf, err := Demo()
	require.NoError(t, err)

	api := &recordingAPI{rows: 3}
	sum, err := (&Runner{API: api}).Run(context.Background(), wf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 rows, got 3")
	assert.Len(t, sum.Reports, 6)
}

func TestRunRefusesControlKeywordsAsSQL(t *testing.T) {
	wf := &Workflow{
		DBPath: "/tmp/t.db",
		Steps: []Step{
			{Op: "begin"},
			{SQL: "commit", Txn: true},
			{SQL: "begin"},
		},
	}

	api := &recordingAPI{}
	sum, err := (&Runner{API: api}).Run(context.Background(), wf)
	require.Error(t, err)
	assert.True(t, clierrors.Is(err, clierrors.WorkflowFailed))
	assert.Contains(t, err.Error(), "control operation")
	assert.Empty(t, api.calls, "nothing is sent for an invalid workflow")
	assert.Empty(t, sum.TxnHandle)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "empty"},
		{"no path", "steps:\n  - op: close\n", "db-path"},
		{"no steps", "db-path: a.db\n", "no steps"},
		{"unknown op", "db-path: a.db\nsteps:\n  - op: vacuum\n", "unknown op"},
		{"initialize without type", "db-path: a.db\nsteps:\n  - op: initialize\n", "db-type"},
		{"begin with sql", "db-path: a.db\nsteps:\n  - op: begin\n    sql: begin\n", "no sql"},
		{"txn on commit", "db-path: a.db\nsteps:\n  - op: commit\n    txn: true\n", "txn applies"},
		{"commit as sql", "db-path: a.db\nsteps:\n  - op: begin\n  - sql: commit\n    txn: true\n", "control operation"},
		{"begin as sql", "db-path: a.db\nsteps:\n  - sql: \" Begin; \"\n", "control operation"},
		{"unknown field", "db-path: a.db\nsteps:\n  - op: close\n    retries: 3\n", "retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseDefaults(t *testing.T) {
	doc := `
db-path: a.db
db-type: h2
steps:
  - op: initialize
  - sql: select 1
`
	wf, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.True(t, wf.StopsOnFailure())
	assert.Equal(t, gateway.OpExecute, wf.Steps[1].op())
	assert.Equal(t, "select 1", wf.Steps[1].Label())
	assert.Equal(t, "initialize", wf.Steps[0].Label())
}
