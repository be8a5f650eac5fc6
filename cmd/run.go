// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"synclite/cli/internal/gateway"
	"synclite/cli/internal/httperrors"
	"synclite/cli/internal/logging"
	"synclite/cli/internal/session"
	"synclite/cli/internal/workflow"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	runKeepGoing bool
	runOutput    string
	demoDB       string
	demoType     string
)

// runCmd executes a YAML workflow file.
var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Run a scripted sequence of gateway operations",
	Long: `Run executes the steps of a workflow file in order. A transaction handle
returned by a begin step is used by later steps marked txn: true and by commit
or rollback steps.

By default the run stops at the first failed step; set stop-on-failure: false
in the file, or pass --keep-going, to run every step.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := workflow.ParseFile(args[0])
		if err != nil {
			return err
		}
		return runWorkflow(cmd.Context(), wf)
	},
}

// demoCmd runs the bundled sample workflow.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the bundled sample: create a table, insert, select, clean up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := workflow.Demo()
		if err != nil {
			return err
		}
		if demoDB != "" {
			wf.DBPath = demoDB
		}
		if demoType != "" {
			wf.DBType = demoType
		}
		return runWorkflow(cmd.Context(), wf)
	},
}

func runWorkflow(ctx context.Context, wf *workflow.Workflow) error {
	dbPath, err := env.resolve(wf.DBPath)
	if err != nil {
		return err
	}
	wf.DBPath = dbPath
	if wf.LoggerConfig == "" {
		wf.LoggerConfig = env.cfg.Gateway.LoggerConfig
	}
	if runKeepGoing {
		stop := false
		wf.StopOnFailure = &stop
	}
	if err := wf.Validate(); err != nil {
		return err
	}
	store, err := env.sessions()
	if err != nil {
		return err
	}

	title := wf.Name
	if title == "" {
		title = "workflow"
	}
	pterm.Println()
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Workflow: ") + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(title))
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Database: ") + dbPath + " (" + wf.DBType + ")")
	pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Gateway:  ") + env.client.Address())
	pterm.Println()

	runner := &workflow.Runner{
		API: env.client,
		OnStep: func(rep workflow.StepReport) {
			printStep(rep)
			recordStep(store, wf, rep)
		},
	}
	start := time.Now()
	sum, err := runner.Run(ctx, wf)

	pterm.Println()
	line := fmt.Sprintf("%d succeeded, %d failed in %s", sum.Succeeded, sum.Failed, time.Since(start).Round(time.Millisecond))
	if sum.Failed == 0 && err == nil {
		pterm.Success.Println(line)
	} else {
		pterm.Error.Println(line)
	}
	if sum.TxnHandle != "" {
		pterm.Warning.Printf("Transaction %s is still open on %s. Run: synclitedb commit %s\n",
			logging.MaskHandle(sum.TxnHandle), dbPath, dbPath)
	}
	if err != nil && gateway.IsTransportError(err) {
		return shown(httperrors.FormatNetworkError(err, "running the workflow"))
	}
	if err != nil && sum.Failed > 0 {
		// printStep already reported the failing step.
		return shown(err)
	}
	return err
}

func printStep(rep workflow.StepReport) {
	label := fmt.Sprintf("[%d] %s", rep.Index, rep.Step.Label())
	took := pterm.Gray(fmt.Sprintf("(%s)", rep.Elapsed.Round(time.Millisecond)))
	switch {
	case rep.Err != nil:
		pterm.Error.Println(label + " " + took + "\n" + logging.PresentError("", rep.Err))
	case !rep.Result.OK:
		pterm.Error.Println(label + " " + took + "\n" + rep.Result.Message)
	default:
		pterm.Success.Println(label + " " + took)
		if rep.Result.Rows != nil {
			_ = renderResultSet(os.Stdout, rep.Result.Rows, runOutput)
		}
	}
}

// recordStep mirrors successful steps into the session store so a run that
// stops halfway leaves the same state as the equivalent single commands.
func recordStep(store session.Store, wf *workflow.Workflow, rep workflow.StepReport) {
	if rep.Failed() {
		return
	}
	var err error
	switch rep.Op {
	case gateway.OpInitialize:
		err = session.MarkInitialized(store, wf.DBPath, wf.DBType, wf.DBName)
	case gateway.OpBegin:
		err = session.OpenTxn(store, wf.DBPath, rep.Result.TxnHandle)
	case gateway.OpCommit, gateway.OpRollback:
		err = session.CloseTxn(store, wf.DBPath)
	case gateway.OpClose:
		err = session.MarkClosed(store, wf.DBPath)
	}
	if err != nil {
		logging.Op().Warn("could not record workflow step", "step", rep.Index, "error", err)
	}
}

func init() {
	runCmd.Flags().BoolVar(&runKeepGoing, "keep-going", false, "run every step even after a failure")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", outputTable, "result format: table or json")
	demoCmd.Flags().StringVar(&demoDB, "db", "", "database to use instead of test.db")
	demoCmd.Flags().StringVarP(&demoType, "type", "t", "", "database engine instead of SQLITE")
	demoCmd.Flags().StringVarP(&runOutput, "output", "o", outputTable, "result format: table or json")
	rootCmd.AddCommand(runCmd, demoCmd)
}
