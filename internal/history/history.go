// Package history keeps every parsed service response table across
// sessions, either in a single workbook or in Postgres.
package history

import (
	"context"
	"errors"

	"github.com/hitpa/claimupload/internal/soap"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown history backend")

// Backend names accepted in configuration.
const (
	BackendXLSX     = "xlsx"
	BackendPostgres = "postgres"
)

// Store appends response tables and returns the accumulated history.
type Store interface {
	// Append adds every row of table. Columns not seen before extend the
	// history; earlier rows read them as empty.
	Append(ctx context.Context, table soap.Table) error

	// Snapshot returns the whole history as one table.
	Snapshot(ctx context.Context) (soap.Table, error)
}

// mergeColumns returns existing followed by every column of extra not
// already present, preserving first-seen order.
func mergeColumns(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing)+len(extra))
	out := make([]string, 0, len(existing)+len(extra))
	for _, group := range [][]string{existing, extra} {
		for _, c := range group {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
