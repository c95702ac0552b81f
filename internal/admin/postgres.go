package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

// PostgresRepository durably appends hash-chained activity entries so
// the audit trail survives a process restart — the in-memory Chain
// above is a correct implementation of the hashing rules but loses
// history on every redeploy, which is unacceptable for the one
// collection SPEC_FULL §6 calls out as compliance-sensitive.
//
// Grounded on the teacher's cmd/migrate.go / cmd/doctor.go
// database/sql + pgx/v5/stdlib (blank-imported for its driver
// registration) pattern; schema management itself is left to
// golang-migrate, run via `goclaw migrate up` against
// migrations/0001_admin_activity.up.sql before this repository is used.
type PostgresRepository struct {
	db *sql.DB
}

// OpenPostgres opens a pgx-backed *sql.DB against dsn. Callers should
// run migrations before constructing a PostgresRepository from the
// returned handle.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wraps an already-opened, already-migrated DB handle.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// AppendActivity inserts one hash-chained entry. The entry must already
// be fully populated (ID/PrevHash/EntryHash) by Chain.Append — this
// repository only durably persists, it never computes hashes itself, so
// there is exactly one place (Chain) that can mint a valid entry.
func (r *PostgresRepository) AppendActivity(ctx context.Context, e *commerce.AdminActivityLog) error {
	before, _ := json.Marshal(e.Before)
	after, _ := json.Marshal(e.After)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_activity_log
			(id, admin_id, admin_email, action, resource, resource_id,
			 before_state, after_state, ip_address, user_agent,
			 occurred_at, prev_hash, hash_version, entry_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		e.ID, e.AdminID, e.AdminEmail, e.Action, e.Resource, e.ResourceID,
		before, after, e.IPAddress, e.UserAgent,
		e.Timestamp, e.PrevHash, e.HashVersion, e.EntryHash,
	)
	if err != nil {
		return fmt.Errorf("insert admin_activity_log: %w", err)
	}
	return nil
}

// LatestActivity returns the most recently inserted entry, used to seed
// a process-restarted Chain's PrevHash continuity.
func (r *PostgresRepository) LatestActivity(ctx context.Context) (*commerce.AdminActivityLog, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, admin_id, admin_email, action, resource, resource_id,
		       before_state, after_state, ip_address, user_agent,
		       occurred_at, prev_hash, hash_version, entry_hash
		FROM admin_activity_log ORDER BY occurred_at DESC LIMIT 1`)
	return scanActivityRow(row)
}

// ListActivity returns up to limit of the most recent entries, newest-first.
func (r *PostgresRepository) ListActivity(ctx context.Context, limit int) ([]*commerce.AdminActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, admin_id, admin_email, action, resource, resource_id,
		       before_state, after_state, ip_address, user_agent,
		       occurred_at, prev_hash, hash_version, entry_hash
		FROM admin_activity_log ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query admin_activity_log: %w", err)
	}
	defer rows.Close()

	var out []*commerce.AdminActivityLog
	for rows.Next() {
		e, err := scanActivityRowCols(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanActivityRow(row *sql.Row) (*commerce.AdminActivityLog, error) {
	e, err := scanActivityRowCols(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func scanActivityRowCols(row rowScanner) (*commerce.AdminActivityLog, error) {
	var e commerce.AdminActivityLog
	var before, after []byte
	if err := row.Scan(
		&e.ID, &e.AdminID, &e.AdminEmail, &e.Action, &e.Resource, &e.ResourceID,
		&before, &after, &e.IPAddress, &e.UserAgent,
		&e.Timestamp, &e.PrevHash, &e.HashVersion, &e.EntryHash,
	); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(before, &e.Before)
	_ = json.Unmarshal(after, &e.After)
	return &e, nil
}
