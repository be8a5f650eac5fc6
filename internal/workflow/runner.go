// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"context"
	"fmt"
	"time"

	clierrors "synclite/cli/internal/errors"
	"synclite/cli/internal/gateway"
)

// StepReport describes one executed step.
type StepReport struct {
	Index   int
	Step    Step
	Op      gateway.Op
	Result  gateway.Result
	Err     error
	Elapsed time.Duration
}

// Failed reports whether the step errored or the gateway returned result=false.
func (r StepReport) Failed() bool { return r.Err != nil || !r.Result.OK }

// Summary is the outcome of a run.
type Summary struct {
	Reports   []StepReport
	Succeeded int
	Failed    int
	// TxnHandle is the handle still open when the run ended, if any.
	TxnHandle string
}

// Runner executes workflows against a gateway.
type Runner struct {
	API gateway.API
	// OnStep, when set, is called after each step.
	OnStep func(StepReport)
}

// Run validates wf, then executes its steps in order. A transport or protocol error always
// ends the run. A logical failure ends it when wf stops on failure; either
// way the returned error wraps a workflow_failed kind.
func (r *Runner) Run(ctx context.Context, wf *Workflow) (Summary, error) {
	var (
		sum Summary
		txn *gateway.Txn
		bad error
	)
	if err := wf.Validate(); err != nil {
		return sum, clierrors.Wrap(clierrors.WorkflowFailed, "invalid workflow", err)
	}
	dbType, _ := gateway.ParseDatabaseType(wf.DBType)

	for i, step := range wf.Steps {
		if err := ctx.Err(); err != nil {
			return r.finish(sum, txn), clierrors.Wrap(clierrors.WorkflowFailed, "cancelled", err)
		}

		rep := StepReport{Index: i + 1, Step: step, Op: step.op()}
		start := time.Now()
		rep.Result, rep.Err = r.runStep(ctx, wf, step, dbType, &txn)
		rep.Elapsed = time.Since(start)
		if rep.Err == nil && rep.Result.OK && step.ExpectRows != nil {
			if got := rep.Result.Rows.Len(); got != *step.ExpectRows {
				rep.Err = fmt.Errorf("expected %d rows, got %d", *step.ExpectRows, got)
			}
		}

		sum.Reports = append(sum.Reports, rep)
		if r.OnStep != nil {
			r.OnStep(rep)
		}
		if !rep.Failed() {
			sum.Succeeded++
			continue
		}
		sum.Failed++

		if rep.Err != nil && (gateway.IsTransportError(rep.Err) || gateway.IsProtocolError(rep.Err)) {
			return r.finish(sum, txn), clierrors.Wrap(clierrors.WorkflowFailed, fmt.Sprintf("step %d (%s)", rep.Index, step.Label()), rep.Err)
		}
		failure := rep.Err
		if failure == nil {
			failure = clierrors.Wrap(clierrors.LogicalFailure, rep.Result.Message, rep.Result.Err(rep.Op, wf.DBPath))
		}
		if wf.StopsOnFailure() {
			return r.finish(sum, txn), clierrors.Wrap(clierrors.WorkflowFailed, fmt.Sprintf("step %d (%s)", rep.Index, step.Label()), failure)
		}
		if bad == nil {
			bad = clierrors.Wrap(clierrors.WorkflowFailed, fmt.Sprintf("step %d (%s)", rep.Index, step.Label()), failure)
		}
	}
	return r.finish(sum, txn), bad
}

func (r *Runner) finish(sum Summary, txn *gateway.Txn) Summary {
	if txn != nil && txn.State() == gateway.TxnOpen {
		sum.TxnHandle = txn.Handle()
	}
	return sum
}

func (r *Runner) runStep(ctx context.Context, wf *Workflow, step Step, dbType gateway.DatabaseType, txn **gateway.Txn) (gateway.Result, error) {
	switch step.op() {
	case gateway.OpInitialize:
		return r.API.Initialize(ctx, wf.DBPath, dbType, wf.DBName, gateway.WithLoggerConfig(wf.LoggerConfig))
	case gateway.OpBegin:
		if *txn != nil && (*txn).State() == gateway.TxnOpen {
			return gateway.Result{}, fmt.Errorf("transaction %s is still open", (*txn).Handle())
		}
		t, res, err := gateway.BeginTxn(ctx, r.API, wf.DBPath)
		if t != nil {
			*txn = t
		}
		return res, err
	case gateway.OpExecute:
		args := gateway.ArgumentBatch(step.Arguments)
		if step.Txn {
			if *txn == nil || (*txn).State() != gateway.TxnOpen {
				return gateway.Result{}, fmt.Errorf("no open transaction")
			}
			return (*txn).Execute(ctx, step.SQL, args)
		}
		return r.API.Execute(ctx, wf.DBPath, step.SQL, gateway.WithArguments(args))
	case gateway.OpCommit:
		if *txn == nil {
			return gateway.Result{}, fmt.Errorf("no open transaction")
		}
		return (*txn).Commit(ctx)
	case gateway.OpRollback:
		if *txn == nil {
			return gateway.Result{}, fmt.Errorf("no open transaction")
		}
		return (*txn).Rollback(ctx)
	case gateway.OpClose:
		return r.API.Close(ctx, wf.DBPath)
	}
	return gateway.Result{}, fmt.Errorf("unknown op %q", step.Op)
}
