// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrInvalidRequest is returned before any network call when a request
	// cannot be encoded into a valid envelope.
	ErrInvalidRequest = errors.New("invalid gateway request")

	// ErrNotSent marks a Poster failure that happened before any bytes left
	// the client, such as a malformed gateway address.
	ErrNotSent = errors.New("request not sent")

	// ErrMalformedReply marks a 200 reply whose body is not a JSON object.
	ErrMalformedReply = errors.New("malformed gateway response")

	// ErrTxnClosed is returned when a committed or rolled back Txn is reused.
	ErrTxnClosed = errors.New("transaction handle already committed or rolled back")
)

// TransportError reports a failed HTTP exchange: the connection could not be
// made, the timeout elapsed, the status was not 200, or the body was not a
// JSON object. It never reflects a gateway-reported logical failure.
type TransportError struct {
	Op         Op
	Address    string
	StatusCode int // non-zero only for non-200 replies
	Body       string
	Cause      error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("gateway %s: %s returned status %d", e.Op, e.Address, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("gateway %s: %s: %v", e.Op, e.Address, e.Cause)
	default:
		return fmt.Sprintf("gateway %s: %s: transport failure", e.Op, e.Address)
	}
}

func (e *TransportError) Unwrap() error { return e.Cause }

// Timeout reports whether the exchange failed because the deadline elapsed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Cause, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Cause, &netErr) && netErr.Timeout()
}

// OutcomeUnknown reports whether the gateway may have applied the operation
// even though the client saw a failure. Failures to reach the gateway at all
// (dial or DNS errors) and 4xx replies, which reject the request before it
// runs, are known not to have been applied. A 5xx reply may follow a partial
// or complete execution.
func (e *TransportError) OutcomeUnknown() bool {
	if e.StatusCode != 0 {
		return e.StatusCode >= 500
	}
	var dnsErr *net.DNSError
	if errors.As(e.Cause, &dnsErr) {
		return false
	}
	var opErr *net.OpError
	if errors.As(e.Cause, &opErr) && opErr.Op == "dial" {
		return false
	}
	return !errors.Is(e.Cause, ErrNotSent)
}

// ProtocolError reports a reply that parsed as JSON but broke the envelope
// contract for the operation, such as a missing result field or a begin that
// succeeded without a transaction handle.
type ProtocolError struct {
	Op     Op
	Field  string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("gateway %s: protocol violation on %q: %s", e.Op, e.Field, e.Reason)
}

// LogicalFailure is a gateway reply with result=false. Client methods return
// it only through Result.Err, when the caller asks for error flow.
type LogicalFailure struct {
	Op      Op
	DBPath  string
	Message string
}

func (e *LogicalFailure) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway %s on %s failed", e.Op, e.DBPath)
	}
	return fmt.Sprintf("gateway %s on %s failed: %s", e.Op, e.DBPath, e.Message)
}

// IsTransportError reports whether err wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocolError reports whether err wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsLogicalFailure reports whether err wraps a *LogicalFailure.
func IsLogicalFailure(err error) bool {
	var lf *LogicalFailure
	return errors.As(err, &lf)
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Timeout()
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
