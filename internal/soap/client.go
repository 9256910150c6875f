package soap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds one remote call.
const DefaultTimeout = 90 * time.Second

// StatusTransportFailure is the synthetic status reported when the call
// never produced an HTTP response.
const StatusTransportFailure = http.StatusInternalServerError

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// Response is the outcome of one remote call.
type Response struct {
	Body       string
	StatusCode int
	// TransportErr is set when the call failed before a response arrived.
	// Body then carries a readable message and StatusCode is
	// StatusTransportFailure.
	TransportErr error
	Duration     time.Duration
}

// OK reports whether the outer call was accepted. It says nothing about the
// business result inside the payload.
func (r Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// doer is satisfied by *http.Client.
type doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client posts envelopes to the claim service.
type Client struct {
	http    doer
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient returns a client whose calls are bounded by timeout.
// A zero timeout uses DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  slog.Default(),
	}
}

// Invoke posts envelope to op.URL. Transport failures, including timeouts,
// come back as a Response with StatusTransportFailure rather than an error,
// so callers treat every non-200 status the same way.
func (c *Client) Invoke(ctx context.Context, op Operation, envelope string) Response {
	start := time.Now()
	logger := c.logger.With("operation", op.Name, "method", op.Method)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, op.URL, bytes.NewBufferString(envelope))
	if err != nil {
		return c.failure(logger, start, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", op.Action)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.failure(logger, start, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.failure(logger, start, fmt.Errorf("read response: %w", err))
	}

	out := Response{
		Body:       string(body),
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
	}
	logger.Info("soap call completed",
		"status", out.StatusCode,
		"bytes", len(body),
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out
}

func (c *Client) failure(logger *slog.Logger, start time.Time, err error) Response {
	logger.Error("soap call failed", "error", err)
	return Response{
		Body:         fmt.Sprintf("SOAP request failed: %v", err),
		StatusCode:   StatusTransportFailure,
		TransportErr: err,
		Duration:     time.Since(start),
	}
}
