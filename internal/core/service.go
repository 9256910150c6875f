package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/hitpa/claimupload/internal/archive"
	"github.com/hitpa/claimupload/internal/claimxml"
	"github.com/hitpa/claimupload/internal/config"
	"github.com/hitpa/claimupload/internal/history"
	"github.com/hitpa/claimupload/internal/soap"
	"github.com/hitpa/claimupload/internal/uploadlog"
)

// Options holds the collaborators of a Service.
type Options struct {
	Converter   *claimxml.Converter
	Operations  soap.ServiceMap
	Credentials soap.Credentials
	Client      *soap.Client
	Unwrapper   *soap.Unwrapper
	Archive     *archive.Store
	UploadLog   *uploadlog.Sink
	History     history.Store
	Gate        *SubmissionGate
}

// Service provides the core business logic for the claim upload workflow.
type Service struct {
	converter  *claimxml.Converter
	operations soap.ServiceMap
	creds      soap.Credentials
	client     *soap.Client
	unwrapper  *soap.Unwrapper
	archive    *archive.Store
	uploadLog  *uploadlog.Sink
	history    history.Store
	gate       *SubmissionGate
}

// New creates a Service from explicit collaborators. Converter, Unwrapper
// and Gate fall back to their defaults when nil.
func New(opts Options) (*Service, error) {
	var missing []error
	if opts.Operations == nil {
		missing = append(missing, errors.New("operations"))
	}
	if opts.Client == nil {
		missing = append(missing, errors.New("client"))
	}
	if opts.Archive == nil {
		missing = append(missing, errors.New("archive"))
	}
	if opts.UploadLog == nil {
		missing = append(missing, errors.New("upload log"))
	}
	if opts.History == nil {
		missing = append(missing, errors.New("history"))
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("core: missing collaborators: %w", errors.Join(missing...))
	}

	if opts.Converter == nil {
		opts.Converter = claimxml.NewConverter()
	}
	if opts.Unwrapper == nil {
		opts.Unwrapper = soap.NewUnwrapper(opts.Operations.ResultElements())
	}
	if opts.Gate == nil {
		opts.Gate = NewSubmissionGate(DefaultMaxWaitTime)
	}

	return &Service{
		converter:  opts.Converter,
		operations: opts.Operations,
		creds:      opts.Credentials,
		client:     opts.Client,
		unwrapper:  opts.Unwrapper,
		archive:    opts.Archive,
		uploadLog:  opts.UploadLog,
		history:    opts.History,
		gate:       opts.Gate,
	}, nil
}

// NewService creates a Service wired from configuration. The history store
// is built by the caller since the postgres backend owns a connection pool.
func NewService(cfg *config.Config, store history.Store) (*Service, error) {
	ops := soap.DefaultServiceMap(cfg.Service.BaseURL)
	if cfg.Service.MapFile != "" {
		loaded, err := soap.LoadServiceMap(cfg.Service.MapFile, ops)
		if err != nil {
			return nil, fmt.Errorf("load service map: %w", err)
		}
		ops = loaded
	}

	sink, err := uploadlog.NewSink(cfg.Upload.LogFile)
	if err != nil {
		return nil, fmt.Errorf("create upload log: %w", err)
	}

	converter := claimxml.NewConverter()
	converter.StrictTags = cfg.Service.StrictTags

	return New(Options{
		Converter:  converter,
		Operations: ops,
		Credentials: soap.Credentials{
			UserID:   cfg.Service.UserID,
			Password: cfg.Service.Password,
		},
		Client:    soap.NewClient(cfg.Service.Timeout),
		Archive:   archive.NewStore(cfg.Upload.ArchiveDir, archive.NewKeyLoader(cfg.Encryption.KeyFile)),
		UploadLog: sink,
		History:   store,
		Gate:      NewSubmissionGate(cfg.Service.MaxWaitTime),
	})
}

// Operations returns the configured service operations in display order.
func (s *Service) Operations() []soap.Operation {
	names := s.operations.Names()
	ops := make([]soap.Operation, 0, len(names))
	for _, n := range names {
		ops = append(ops, s.operations[n])
	}
	return ops
}

// Operation resolves an operation by name.
func (s *Service) Operation(name string) (soap.Operation, error) {
	return s.operations.Lookup(name)
}

// SubmissionStatus reports the submission currently running, if any.
func (s *Service) SubmissionStatus() SubmissionStatus {
	return s.gate.Status()
}

// WaitForSubmissions blocks until in-flight submissions finish or ctx is done.
func (s *Service) WaitForSubmissions(ctx context.Context) error {
	return s.gate.WaitForDrain(ctx)
}
