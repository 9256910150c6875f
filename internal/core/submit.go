package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitpa/claimupload/internal/history"
	"github.com/hitpa/claimupload/internal/logging"
	"github.com/hitpa/claimupload/internal/soap"
)

// ErrTransport marks a submission that never received an HTTP response.
var ErrTransport = errors.New("claim service unreachable")

// Submission is the outcome of one remote call.
type Submission struct {
	Operation soap.Operation
	Response  soap.Response

	// StatusCode is the HTTP status, or soap.StatusTransportFailure when
	// the call never completed.
	StatusCode int

	// Accepted is true only for status 200. It describes the transport
	// exchange, not the business outcome carried in the payload.
	Accepted bool
}

// Err returns ErrTransport wrapping the transport failure, or nil when the
// service answered with any status.
func (s Submission) Err() error {
	if s.Response.TransportErr == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrTransport, s.Response.TransportErr)
}

// Parsed is an unwrapped service response.
type Parsed struct {
	Pretty string
	Table  soap.Table
}

// Submit wraps xml in an envelope for the named operation and posts it.
// Only an unknown operation or a busy/cancelled wait is returned as an
// error; every answered or failed call comes back as a Submission.
func (s *Service) Submit(ctx context.Context, operation, xml string) (Submission, error) {
	op, err := s.operations.Lookup(operation)
	if err != nil {
		return Submission{}, err
	}

	if err := s.gate.Acquire(ctx, string(op.Name)); err != nil {
		return Submission{}, fmt.Errorf("submit %s: %w", op.Name, err)
	}
	defer s.gate.Release()

	envelope := soap.BuildEnvelope(xml, op, s.creds)
	resp := s.client.Invoke(ctx, op, envelope)

	sub := Submission{
		Operation:  op,
		Response:   resp,
		StatusCode: resp.StatusCode,
		Accepted:   resp.OK(),
	}

	logger := logging.FromContext(ctx).With(
		"operation", op.Name,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
		"duration_ms", resp.Duration.Milliseconds(),
	)
	switch {
	case resp.TransportErr != nil:
		logger.Error("submission failed", "error", resp.TransportErr)
	case !sub.Accepted:
		logger.Warn("submission rejected")
	default:
		logger.Info("submission accepted")
	}
	return sub, nil
}

// ParseResponse unwraps the escaped result payload of raw, pretty prints it
// and flattens its records. A payload without records yields an empty table
// and no error.
func (s *Service) ParseResponse(ctx context.Context, raw string) (Parsed, error) {
	logger := logging.FromContext(ctx)

	pretty, err := s.unwrapper.Unwrap(raw)
	if err != nil {
		logger.Warn("response unwrap failed", "error", err)
		return Parsed{}, fmt.Errorf("unwrap response: %w", err)
	}

	table, err := soap.Flatten(pretty)
	if err != nil {
		logger.Warn("response flatten failed", "error", err)
	}
	if table.Len() == 0 {
		logger.Warn("response has no records")
	} else {
		logger.Info("response parsed", "rows", table.Len(), "columns", len(table.Columns))
	}
	return Parsed{Pretty: pretty, Table: table}, nil
}

// PrettyXML indents a document for preview.
func (s *Service) PrettyXML(doc string) (string, error) {
	return soap.PrettyPrint(doc)
}

// SaveHistory appends table to the response history, tagged with operation.
func (s *Service) SaveHistory(ctx context.Context, operation soap.OperationName, table soap.Table) error {
	if table.Len() == 0 {
		return nil
	}
	ctx = history.ContextWithOperation(ctx, string(operation))
	if err := s.history.Append(ctx, table); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// History returns every saved response row.
func (s *Service) History(ctx context.Context) (soap.Table, error) {
	return s.history.Snapshot(ctx)
}
