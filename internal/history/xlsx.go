package history

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hitpa/claimupload/internal/logging"
	"github.com/hitpa/claimupload/internal/soap"
	"github.com/hitpa/claimupload/internal/spreadsheet"
)

// XLSXStore keeps history in one workbook that is rewritten on every
// append.
type XLSXStore struct {
	path string
	mu   sync.Mutex
}

// NewXLSXStore creates a store backed by the workbook at path.
func NewXLSXStore(path string) *XLSXStore {
	return &XLSXStore{path: path}
}

// Append implements Store.
func (s *XLSXStore) Append(ctx context.Context, table soap.Table) error {
	if table.Len() == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if err != nil {
		return err
	}

	columns := mergeColumns(current.Columns, table.Columns)
	rows := make([][]string, 0, current.Len()+table.Len())
	for _, t := range []soap.Table{current, table} {
		for _, r := range t.Rows {
			row := make([]string, len(columns))
			for i, c := range columns {
				row[i] = r[c]
			}
			rows = append(rows, row)
		}
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteXLSX(&buf, columns, rows); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create history dir: %w", err)
		}
	}
	// Written beside the target and renamed into place.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o640); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}

	logging.FromContext(ctx).Info("history appended",
		"backend", BackendXLSX,
		"rows", table.Len(),
		"total_rows", len(rows),
	)
	return nil
}

// Snapshot implements Store.
func (s *XLSXStore) Snapshot(ctx context.Context) (soap.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *XLSXStore) read() (soap.Table, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return soap.Table{}, nil
	}
	if err != nil {
		return soap.Table{}, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	columns, rows, err := spreadsheet.ReadTable(f)
	if err != nil {
		return soap.Table{}, fmt.Errorf("read history: %w", err)
	}

	table := soap.Table{Columns: columns}
	for _, rec := range rows {
		row := make(map[string]string, len(columns))
		for i, c := range columns {
			row[c] = rec[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
