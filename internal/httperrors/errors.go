// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors turns gateway transport failures into user-friendly guidance.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	"synclite/cli/internal/gateway"

	"github.com/pterm/pterm"
)

// Category is the coarse class of a network failure.
type Category int

const (
	Generic Category = iota
	Timeout
	DNS
	Refused
	TLS
	Status
	Malformed
)

// Classify inspects err and returns its Category.
func Classify(err error) Category {
	var te *gateway.TransportError
	if errors.As(err, &te) {
		if te.StatusCode != 0 {
			return Status
		}
		if errors.Is(te.Cause, gateway.ErrMalformedReply) {
			return Malformed
		}
	}
	switch {
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return Refused
	case isSSLError(err):
		return TLS
	}
	return Generic
}

// FormatNetworkError converts a gateway transport error into a user-friendly message.
// It prints troubleshooting hints for the detected category and, when the gateway
// may already have applied the operation, a warning not to blindly retry.
func FormatNetworkError(err error, context string) error {
	if err == nil {
		return nil
	}

	displayErrorMessage(err, context)

	var te *gateway.TransportError
	if errors.As(err, &te) && te.OutcomeUnknown() {
		showOutcomeUnknown(te.Op)
	}

	return fmt.Errorf("network error: %w", err)
}

// displayErrorMessage shows a formatted error message to the user based on error type.
func displayErrorMessage(err error, context string) {
	host := "the gateway"
	var te *gateway.TransportError
	if errors.As(err, &te) {
		host = ExtractHostFromURL(te.Address)
	}

	switch Classify(err) {
	case Timeout:
		showTimeoutError(context)
	case DNS:
		showDNSError(context, host)
	case Refused:
		showConnectionRefusedError(context, host)
	case TLS:
		showSSLError(context)
	case Status:
		showStatusError(context, te.StatusCode, te.Body)
	case Malformed:
		showMalformedError(context, host)
	default:
		showGenericError(context, err.Error())
	}
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	if gateway.IsTimeout(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

func showTimeoutError(context string) {
	pterm.Printf("⏱️  Gateway timeout while %s\n", context)
	pterm.Println()
	pterm.Println("The gateway did not answer within the configured timeout. This could mean:")
	pterm.Println("  • The statement is long running (raise --timeout)")
	pterm.Println("  • The gateway is overloaded or paused")
	pterm.Println("  • A proxy between you and the gateway is holding the request")
	pterm.Println()
}

func showDNSError(context, host string) {
	pterm.Printf("🌐 Cannot resolve %s while %s\n", host, context)
	pterm.Println()
	pterm.Println("Check the host name in --gateway or SYNCLITE_GATEWAY.")
	pterm.Println()
}

func showConnectionRefusedError(context, host string) {
	pterm.Printf("🚫 Connection refused by %s while %s\n", host, context)
	pterm.Println()
	pterm.Println("Nothing is listening on that address. Check that:")
	pterm.Println("  • The SyncLite DB gateway is running")
	pterm.Println("  • --gateway points at the right host and port (default http://localhost:5555)")
	pterm.Println()
}

func showSSLError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("Cannot establish an HTTPS connection to the gateway. Check the")
	pterm.Println("certificate, any intercepting proxy, and the system clock.")
	pterm.Println()
}

func showStatusError(context string, status int, body string) {
	pterm.Printf("⚠️  Gateway returned HTTP %d while %s\n", status, context)
	pterm.Println()
	if body != "" {
		pterm.Debug.Printf("Response body: %s\n", abbreviate(body))
	}
	pterm.Println("The gateway rejected the request before running it.")
	pterm.Println()
}

func showMalformedError(context, host string) {
	pterm.Printf("❓ Unreadable reply from %s while %s\n", host, context)
	pterm.Println()
	pterm.Println("The reply was not a JSON object. Is --gateway pointing at a SyncLite DB gateway?")
	pterm.Println()
}

func showGenericError(context string, errDetails string) {
	pterm.Printf("❌ Cannot reach the gateway while %s\n", context)
	pterm.Println()
	if errDetails != "" {
		pterm.Debug.Printf("Technical details: %s\n", abbreviate(errDetails))
		pterm.Println()
	}
}

func showOutcomeUnknown(op gateway.Op) {
	pterm.Warning.Printf("The gateway may have applied the %s before the failure.\n", op)
	pterm.Println("Re-query the database before retrying; any stored transaction handle is kept.")
	pterm.Println()
}

func abbreviate(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "the gateway"
	}
	return u.Host
}
