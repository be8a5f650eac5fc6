// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so the CLI can decide how to present a failure and
// which exit status to use without string matching.
//
// The package supports wrapping underlying errors while maintaining error kind information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConfigInvalid indicates a config file or override that cannot be used.
	ConfigInvalid Kind = "config_invalid"
	// SessionStore indicates the caller-side session store could not be read or written.
	SessionStore Kind = "session_store"
	// LogicalFailure indicates the gateway answered with result=false.
	LogicalFailure Kind = "logical_failure"
	// WorkflowFailed indicates a workflow file could not be loaded or a step failed.
	WorkflowFailed Kind = "workflow_failed"
	// ExportFailed indicates copying a result set to PostgreSQL failed.
	ExportFailed Kind = "export_failed"
	// PathInvalid indicates a database name that cannot be resolved to a path.
	PathInvalid Kind = "path_invalid"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of the outermost *E in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
