// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"synclite/cli/internal/logging"

	"github.com/google/uuid"
)

const (
	// DefaultAddress is where a locally started gateway listens.
	DefaultAddress = "http://localhost:5555"
	// DefaultTimeout bounds one request/response exchange.
	DefaultTimeout = 10 * time.Second

	maxBodyPreview = 512
)

// Poster performs one HTTP POST of a JSON body and returns the status code and
// raw response body. Implementations wrap failures that happen before the
// request is written with ErrNotSent.
type Poster interface {
	Post(ctx context.Context, url string, body []byte, timeout time.Duration) (status int, respBody []byte, err error)
}

// HTTPPoster is the net/http implementation of Poster.
type HTTPPoster struct {
	// Client is the underlying HTTP client; nil uses a client without its own
	// timeout, the per-call timeout is applied through the context.
	Client *http.Client
}

// Post sends body with Content-Type application/json.
func (p *HTTPPoster) Post(ctx context.Context, url string, body []byte, timeout time.Duration) (int, []byte, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrNotSent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// Envelope is a decoded gateway reply: the top-level JSON object with its
// values left raw for the Decoder.
type Envelope map[string]json.RawMessage

// Transport sends one envelope per call to a single gateway address.
type Transport struct {
	address string
	timeout time.Duration
	poster  Poster
	logger  *slog.Logger
}

// NewTransport builds a Transport. A nil poster uses HTTPPoster, a zero
// timeout uses DefaultTimeout and a nil logger uses the operational logger.
func NewTransport(address string, timeout time.Duration, poster Poster, logger *slog.Logger) *Transport {
	if poster == nil {
		poster = &HTTPPoster{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.Op()
	}
	return &Transport{
		address: strings.TrimRight(address, "/"),
		timeout: timeout,
		poster:  poster,
		logger:  logger,
	}
}

// Address returns the gateway URL requests are posted to.
func (t *Transport) Address() string { return t.address }

// Timeout returns the per-exchange timeout.
func (t *Transport) Timeout() time.Duration { return t.timeout }

// Send encodes req, posts it and returns the reply object. Any failure of the
// exchange itself is a *TransportError; invalid requests fail with
// ErrInvalidRequest before anything is sent.
func (t *Transport) Send(ctx context.Context, req *Request) (Envelope, error) {
	// json.Marshal writes null for a nil pointer without calling MarshalJSON.
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	reqID := uuid.NewString()
	log := t.logger.With(
		slog.String("request_id", reqID),
		slog.String("op", req.Op().String()),
		slog.String("db_path", req.DBPath()),
	)
	log.Debug("gateway request", slog.String("body", logging.Mask(string(body))))

	start := time.Now()
	status, respBody, err := t.poster.Post(ctx, t.address, body, t.timeout)
	elapsed := time.Since(start)
	if err != nil {
		log.Debug("gateway exchange failed", slog.Duration("elapsed", elapsed), slog.Any("error", err))
		return nil, &TransportError{Op: req.Op(), Address: t.address, StatusCode: 0, Cause: err}
	}
	log.Debug("gateway response",
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
		slog.String("body", logging.Mask(preview(respBody))),
	)

	if status != http.StatusOK {
		return nil, &TransportError{
			Op:         req.Op(),
			Address:    t.address,
			StatusCode: status,
			Body:       preview(respBody),
		}
	}

	var env Envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, &TransportError{
			Op:      req.Op(),
			Address: t.address,
			Body:    preview(respBody),
			Cause:   fmt.Errorf("%w: %w", ErrMalformedReply, err),
		}
	}
	if env == nil {
		return nil, &TransportError{
			Op:      req.Op(),
			Address: t.address,
			Body:    preview(respBody),
			Cause:   fmt.Errorf("%w: not a JSON object", ErrMalformedReply),
		}
	}
	return env, nil
}

func preview(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxBodyPreview {
		return s[:maxBodyPreview] + "..."
	}
	return s
}
