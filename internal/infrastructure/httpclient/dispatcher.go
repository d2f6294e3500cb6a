// Package httpclient sends requests to the library backend.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ntuclms/lms-client/internal/core/domain"
	"github.com/ntuclms/lms-client/internal/core/ports"
	"github.com/ntuclms/lms-client/internal/infrastructure/metrics"
)

const (
	headerRequestID = "X-Request-ID"
	mimeJSON        = "application/json"
)

// Dispatcher executes one HTTP call per Dispatch with uniform headers and
// error mapping. It keeps no state between calls beyond what it reads from
// the session.
//
// No timeout or retry is applied here; both are caller policy.
type Dispatcher struct {
	baseURL  string
	client   *http.Client
	session  ports.TokenSource
	observer ports.SessionObserver
	log      zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient replaces the default client. The default has no timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithObserver registers who is told when a 401 drops the session.
func WithObserver(o ports.SessionObserver) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// NewDispatcher creates a dispatcher for the API rooted at baseURL.
func NewDispatcher(baseURL string, session ports.TokenSource, log zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		session: session,
		log:     log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch sends req and maps the response to a payload or a typed error.
func (d *Dispatcher) Dispatch(ctx context.Context, req ports.Request) (*ports.Response, error) {
	start := time.Now()
	reqID := uuid.NewString()

	httpReq, err := d.newRequest(ctx, req, reqID)
	if err != nil {
		return nil, err
	}

	log := d.log.With().
		Str("method", req.Method).
		Str("path", req.Path).
		Str("request_id", reqID).
		Logger()

	resp, err := d.client.Do(httpReq)
	if err != nil {
		d.finish(log, req.Method, metrics.OutcomeNetworkError, start).Err(err).Msg("request failed")
		return nil, &domain.NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		d.finish(log, req.Method, metrics.OutcomeNetworkError, start).Err(err).Msg("reading response body failed")
		return nil, &domain.NetworkError{Method: req.Method, Path: req.Path, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		d.finish(log, req.Method, metrics.OutcomeAuthFailure, start).Msg("authentication failed, clearing session")
		d.invalidate(ctx)
		return nil, &domain.AuthenticationError{Body: string(body)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		d.finish(log, req.Method, metrics.OutcomeHTTPError, start).Int("status", resp.StatusCode).Msg("request rejected")
		return nil, &domain.HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	out := &ports.Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}

	if out.Structured() {
		var probe any
		if err := json.Unmarshal(body, &probe); err != nil {
			d.finish(log, req.Method, metrics.OutcomeDecodeError, start).Err(err).Msg("invalid JSON response")
			return nil, &domain.DecodeError{ContentType: out.ContentType, Err: err}
		}
	}

	metrics.ObserveRequest(req.Method, metrics.OutcomeSuccess, time.Since(start))
	log.Debug().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")
	return out, nil
}

func (d *Dispatcher) newRequest(ctx context.Context, req ports.Request, reqID string) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, d.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", mimeJSON)
	httpReq.Header.Set("Accept", mimeJSON+", text/plain")
	httpReq.Header.Set(headerRequestID, reqID)
	if token := d.session.Get(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

// invalidate drops the session after a 401 and signals the observer once.
func (d *Dispatcher) invalidate(ctx context.Context) {
	if err := d.session.Clear(ctx); err != nil {
		d.log.Error().Err(err).Msg("failed to clear session after authentication failure")
	}
	if d.observer != nil {
		d.observer.SessionInvalidated(ports.ReasonAuthenticationFailed)
	}
}

// finish records metrics for a failed dispatch and returns a warn-level
// event for the caller to complete.
func (d *Dispatcher) finish(log zerolog.Logger, method, outcome string, start time.Time) *zerolog.Event {
	elapsed := time.Since(start)
	metrics.ObserveRequest(method, outcome, elapsed)
	return log.Warn().Str("outcome", outcome).Dur("duration", elapsed)
}
