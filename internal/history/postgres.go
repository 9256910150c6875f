package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitpa/claimupload/internal/logging"
	"github.com/hitpa/claimupload/internal/soap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS response_history (
	id          BIGSERIAL PRIMARY KEY,
	batch_id    UUID        NOT NULL,
	operation   TEXT        NOT NULL DEFAULT '',
	received_at TIMESTAMPTZ NOT NULL,
	row_index   INTEGER     NOT NULL,
	columns     TEXT[]      NOT NULL,
	data        JSONB       NOT NULL
);
CREATE INDEX IF NOT EXISTS response_history_batch_idx ON response_history (batch_id);
`

const insertSQL = `
INSERT INTO response_history (batch_id, operation, received_at, row_index, columns, data)
VALUES ($1, $2, $3, $4, $5, $6)`

const selectSQL = `SELECT columns, data FROM response_history ORDER BY id`

// PostgresStore keeps history in the response_history table. Every Append
// is one batch sharing a batch_id.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a store on pool. Call EnsureSchema before use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// EnsureSchema creates the history table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, table soap.Table) error {
	if table.Len() == 0 {
		return nil
	}

	batchID := pgtype.UUID{Bytes: uuid.New(), Valid: true}
	receivedAt := s.now()
	operation := OperationFromContext(ctx)

	batch := &pgx.Batch{}
	for i, row := range table.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode history row %d: %w", i, err)
		}
		batch.Queue(insertSQL, batchID, operation, receivedAt, i, table.Columns, data)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert history rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}

	logging.FromContext(ctx).Info("history appended",
		"backend", BackendPostgres,
		"batch_id", uuid.UUID(batchID.Bytes).String(),
		"rows", table.Len(),
	)
	return nil
}

// Snapshot implements Store.
func (s *PostgresStore) Snapshot(ctx context.Context) (soap.Table, error) {
	rows, err := s.pool.Query(ctx, selectSQL)
	if err != nil {
		return soap.Table{}, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var table soap.Table
	for rows.Next() {
		var (
			columns []string
			data    []byte
		)
		if err := rows.Scan(&columns, &data); err != nil {
			return soap.Table{}, fmt.Errorf("scan history row: %w", err)
		}
		row := make(map[string]string, len(columns))
		if err := json.Unmarshal(data, &row); err != nil {
			return soap.Table{}, fmt.Errorf("decode history row: %w", err)
		}
		table.Columns = mergeColumns(table.Columns, columns)
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return soap.Table{}, fmt.Errorf("iterate history: %w", err)
	}
	return table, nil
}
