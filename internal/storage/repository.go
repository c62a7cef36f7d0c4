package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"hotelpro/internal/remote"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is a remote.Store backed by a single SQLite table of JSON
// payloads.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Upsert implements remote.Store
func (r *SQLiteRepository) Upsert(ctx context.Context, table, id string, payload []byte) error {
	return r.UpsertAt(ctx, table, id, payload, r.now())
}

// UpsertAt writes the record unless a newer version or a tombstone at least
// as new is already stored.
func (r *SQLiteRepository) UpsertAt(ctx context.Context, table, id string, payload []byte, at time.Time) error {
	if err := remote.CheckTable(table); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO remote_records (table_name, id, payload, updated_at, deleted)
		VALUES (?, ?, ?, ?, 0)
		ON CONFLICT (table_name, id) DO UPDATE
		SET payload = excluded.payload, updated_at = excluded.updated_at, deleted = 0
		WHERE excluded.updated_at > remote_records.updated_at
		   OR (excluded.updated_at = remote_records.updated_at AND remote_records.deleted = 0)`,
		table, id, string(payload), at.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", table, id, err)
	}

	slog.DebugContext(ctx, "Record upserted to SQLite", "table", table, "record_id", id)
	return nil
}

// Delete implements remote.Store. Deleting a missing row is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, table, id string) error {
	return r.DeleteAt(ctx, table, id, r.now())
}

// DeleteAt replaces the record with a tombstone stamped at, unless a newer
// version is already stored.
func (r *SQLiteRepository) DeleteAt(ctx context.Context, table, id string, at time.Time) error {
	if err := remote.CheckTable(table); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO remote_records (table_name, id, payload, updated_at, deleted)
		VALUES (?, ?, '', ?, 1)
		ON CONFLICT (table_name, id) DO UPDATE
		SET payload = '', updated_at = excluded.updated_at, deleted = 1
		WHERE excluded.updated_at >= remote_records.updated_at`,
		table, id, at.UnixNano()); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}

	slog.DebugContext(ctx, "Record deleted from SQLite", "table", table, "record_id", id)
	return nil
}

// Get implements remote.Reader
func (r *SQLiteRepository) Get(ctx context.Context, table, id string) ([]byte, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM remote_records WHERE table_name = ? AND id = ? AND deleted = 0`, table, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", table, id, remote.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table, id, err)
	}
	return []byte(payload), nil
}

// List implements remote.Reader
func (r *SQLiteRepository) List(ctx context.Context, table string) ([]remote.Row, error) {
	if err := remote.CheckTable(table); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payload FROM remote_records WHERE table_name = ? AND deleted = 0 ORDER BY id`, table)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []remote.Row
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		out = append(out, remote.Row{Table: table, ID: id, Payload: []byte(payload)})
	}
	return out, rows.Err()
}

// Count returns the number of rows per table.
func (r *SQLiteRepository) Count(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT table_name, COUNT(*) FROM remote_records WHERE deleted = 0 GROUP BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var table string
		var n int
		if err := rows.Scan(&table, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[table] = n
	}
	return out, rows.Err()
}

// PruneTombstones drops tombstones stamped before cutoff.
func (r *SQLiteRepository) PruneTombstones(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM remote_records WHERE deleted = 1 AND updated_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune tombstones: %w", err)
	}
	return res.RowsAffected()
}

// Applied reports whether a mutation id was already recorded.
func (r *SQLiteRepository) Applied(ctx context.Context, mutationID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applied_mutations WHERE mutation_id = ?`, mutationID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check mutation %s: %w", mutationID, err)
	}
	return n > 0, nil
}

// MarkApplied records a mutation id. It returns false when the id was
// already recorded, so redelivered messages can be skipped.
func (r *SQLiteRepository) MarkApplied(ctx context.Context, mutationID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO applied_mutations (mutation_id, applied_at) VALUES (?, ?)
		 ON CONFLICT (mutation_id) DO NOTHING`, mutationID, r.now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("mark mutation %s applied: %w", mutationID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// PruneApplied forgets mutation ids recorded before cutoff.
func (r *SQLiteRepository) PruneApplied(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM applied_mutations WHERE applied_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune applied mutations: %w", err)
	}
	return res.RowsAffected()
}
