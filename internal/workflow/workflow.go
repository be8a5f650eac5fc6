// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package workflow runs scripted sequences of gateway operations described
// in YAML. A workflow names one database and a list of steps; the runner
// threads the transaction handle from a begin step into the steps that
// follow it.
package workflow

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"synclite/cli/internal/gateway"

	"gopkg.in/yaml.v3"
)

// Workflow is one YAML document.
type Workflow struct {
	Name          string `yaml:"name,omitempty"`
	DBPath        string `yaml:"db-path"`
	DBType        string `yaml:"db-type,omitempty"`
	DBName        string `yaml:"db-name,omitempty"`
	LoggerConfig  string `yaml:"logger-config,omitempty"`
	StopOnFailure *bool  `yaml:"stop-on-failure,omitempty"`
	Steps         []Step `yaml:"steps"`
}

// Step is one gateway operation. Op defaults to execute when SQL is set.
type Step struct {
	Name      string  `yaml:"name,omitempty"`
	Op        string  `yaml:"op,omitempty"`
	SQL       string  `yaml:"sql,omitempty"`
	Arguments [][]any `yaml:"arguments,omitempty"`
	// Txn runs an execute step inside the transaction opened by the last
	// begin step.
	Txn bool `yaml:"txn,omitempty"`
	// ExpectRows, when set, fails the step unless the execute returned
	// exactly that many rows.
	ExpectRows *int `yaml:"expect-rows,omitempty"`
}

// Label is the step's display name.
func (s Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	if s.op() == gateway.OpExecute {
		return s.SQL
	}
	return s.Op
}

var ops = map[string]gateway.Op{
	gateway.KeywordInitialize: gateway.OpInitialize,
	gateway.KeywordBegin:      gateway.OpBegin,
	"execute":                 gateway.OpExecute,
	gateway.KeywordCommit:     gateway.OpCommit,
	gateway.KeywordRollback:   gateway.OpRollback,
	gateway.KeywordClose:      gateway.OpClose,
}

func (s Step) op() gateway.Op {
	if s.Op == "" && s.SQL != "" {
		return gateway.OpExecute
	}
	return ops[strings.ToLower(s.Op)]
}

//go:embed demo.yaml
var demo []byte

// Demo returns the bundled sample workflow: initialize, a transaction that
// creates t1 and inserts two rows, a select, then cleanup.
func Demo() (*Workflow, error) {
	return Parse(strings.NewReader(string(demo)))
}

// ParseFile reads and validates a workflow file.
func ParseFile(path string) (*Workflow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workflow: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates one workflow document.
func Parse(r io.Reader) (*Workflow, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var wf Workflow
	if err := dec.Decode(&wf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("workflow is empty")
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := wf.Validate(); err != nil {
		return nil, err
	}
	return &wf, nil
}

// StopsOnFailure reports whether a logical failure ends the run. It defaults
// to true.
func (wf *Workflow) StopsOnFailure() bool {
	return wf.StopOnFailure == nil || *wf.StopOnFailure
}

// Validate checks the document without contacting the gateway.
func (wf *Workflow) Validate() error {
	if strings.TrimSpace(wf.DBPath) == "" {
		return fmt.Errorf("db-path is required")
	}
	if len(wf.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	for i, s := range wf.Steps {
		n := i + 1
		op := s.op()
		if op == 0 {
			return fmt.Errorf("step %d: unknown op %q", n, s.Op)
		}
		switch op {
		case gateway.OpInitialize:
			if _, err := gateway.ParseDatabaseType(wf.DBType); err != nil {
				return fmt.Errorf("step %d: initialize needs a valid db-type: %w", n, err)
			}
		case gateway.OpExecute:
			if strings.TrimSpace(s.SQL) == "" {
				return fmt.Errorf("step %d: execute needs sql", n)
			}
			if gateway.LooksLikeControl(s.SQL) {
				return fmt.Errorf("step %d: %q is a control operation; use op: %s", n, strings.TrimSpace(s.SQL), strings.ToLower(strings.Trim(strings.TrimSpace(s.SQL), "; ")))
			}
		default:
			if s.SQL != "" || len(s.Arguments) > 0 {
				return fmt.Errorf("step %d: %s takes no sql or arguments", n, op)
			}
		}
		if s.Txn && op != gateway.OpExecute {
			return fmt.Errorf("step %d: txn applies to execute steps only", n)
		}
		if s.ExpectRows != nil && op != gateway.OpExecute {
			return fmt.Errorf("step %d: expect-rows applies to execute steps only", n)
		}
	}
	return nil
}
