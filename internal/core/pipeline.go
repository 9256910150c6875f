package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hitpa/claimupload/internal/claimxml"
	"github.com/hitpa/claimupload/internal/logging"
	"github.com/hitpa/claimupload/internal/spreadsheet"
	"github.com/hitpa/claimupload/internal/uploadlog"
)

// MinConvertedBytes is the shortest serialized document treated as a
// successful conversion.
const MinConvertedBytes = 50

var (
	// ErrConversion is returned when a sheet yields no usable document.
	ErrConversion = errors.New("conversion failed")

	// ErrEmptyFile is returned for a zero-byte upload.
	ErrEmptyFile = errors.New("empty file")
)

// Conversion is the result of converting one sheet.
type Conversion struct {
	XML      string
	Records  int
	Document claimxml.Document
}

// ReadSheet parses an uploaded .xlsx or .csv file.
func (s *Service) ReadSheet(ctx context.Context, fileName string, data []byte) (*spreadsheet.Sheet, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", fileName, ErrEmptyFile)
	}

	sheet, err := spreadsheet.Read(fileName, data)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}

	logging.FromContext(ctx).Info("sheet read",
		"file", fileName,
		"sheet", sheet.Name,
		"columns", len(sheet.Headers),
		"rows", len(sheet.Rows),
	)
	return sheet, nil
}

// Archive stores an encrypted copy of the original upload and returns the
// archive path.
func (s *Service) Archive(ctx context.Context, fileName string, data []byte) (string, error) {
	path, err := s.archive.Save(ctx, fileName, data)
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", fileName, err)
	}
	return path, nil
}

// LogUpload appends fileName to the upload log with the client IP taken
// from ctx.
func (s *Service) LogUpload(ctx context.Context, fileName string) (uploadlog.Entry, error) {
	entry, err := s.uploadLog.Append(fileName, GetIPAddressFromContext(ctx))
	if err != nil {
		return entry, fmt.Errorf("log upload: %w", err)
	}
	logging.FromContext(ctx).Info("upload logged",
		"file", entry.FileName,
		"client_ip", entry.ClientIP,
	)
	return entry, nil
}

// UploadLog returns every logged upload, newest first.
func (s *Service) UploadLog() ([]uploadlog.Entry, error) {
	return s.uploadLog.ReadAll()
}

// Convert turns the cached rows of a sheet into the INPUT document. Output
// shorter than MinConvertedBytes or without records is ErrConversion.
func (s *Service) Convert(ctx context.Context, headers []string, rows []claimxml.Row) (Conversion, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)

	doc, err := s.converter.Convert(headers, rows)
	if err != nil {
		return Conversion{}, fmt.Errorf("convert: %w", err)
	}

	out, err := claimxml.Serialize(doc)
	if err != nil {
		return Conversion{}, fmt.Errorf("%w: serialize: %v", ErrConversion, err)
	}

	if len(out) < MinConvertedBytes || doc.Len() == 0 {
		logger.Warn("conversion produced no usable document",
			"records", doc.Len(),
			"bytes", len(out),
		)
		return Conversion{}, fmt.Errorf("%w: %d records, %d bytes", ErrConversion, doc.Len(), len(out))
	}

	logger.Info("sheet converted",
		"records", doc.Len(),
		"bytes", len(out),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Conversion{XML: out, Records: doc.Len(), Document: doc}, nil
}

// CheckDocument verifies that doc is an INPUT document before it is sent
// as is, and returns its record count.
func (s *Service) CheckDocument(ctx context.Context, doc string) (int, error) {
	parsed, err := claimxml.Parse(strings.NewReader(doc))
	if err != nil {
		logging.FromContext(ctx).Warn("posted document rejected", "error", err)
		return 0, fmt.Errorf("check document: %w", err)
	}
	return parsed.Len(), nil
}
