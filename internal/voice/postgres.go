package voice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nextlevelbuilder/goclaw/internal/commerce"
)

// PostgresCallRepository is the durable counterpart to Store's in-memory
// call map — SPEC_FULL §6 names voice call records (alongside the admin
// activity log) as the one collection a production deployment must not
// lose across restarts. Grounded on internal/admin's PostgresRepository,
// which follows the same database/sql + pgx/v5/stdlib pattern taught by
// the teacher's cmd/migrate.go / cmd/doctor.go.
//
// Schema lives in migrations/0002_voice_calls.up.sql, run via
// `goclaw migrate up` before this repository is used.
type PostgresCallRepository struct {
	db *sql.DB
}

// NewPostgresCallRepository wraps an already-opened, already-migrated DB
// handle. Use admin.OpenPostgres to obtain one.
func NewPostgresCallRepository(db *sql.DB) *PostgresCallRepository {
	return &PostgresCallRepository{db: db}
}

func (r *PostgresCallRepository) SaveVoiceCall(ctx context.Context, c *commerce.VoiceCall) error {
	attempts, _ := json.Marshal(c.Attempts)
	eventKeys, _ := json.Marshal(c.ProviderEventKeys)
	events, _ := json.Marshal(c.ProviderEvents)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO voice_calls
			(id, recovery_key, user_id, session_id, cart_id, status, attempts,
			 provider_call_id, provider_event_keys, provider_events, outcome,
			 script_version, campaign, estimated_cost_usd, followup_applied,
			 next_retry_at, last_error, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		ON CONFLICT (recovery_key) DO UPDATE SET
			status = EXCLUDED.status, attempts = EXCLUDED.attempts,
			provider_call_id = EXCLUDED.provider_call_id,
			provider_event_keys = EXCLUDED.provider_event_keys,
			provider_events = EXCLUDED.provider_events, outcome = EXCLUDED.outcome,
			estimated_cost_usd = EXCLUDED.estimated_cost_usd,
			followup_applied = EXCLUDED.followup_applied,
			next_retry_at = EXCLUDED.next_retry_at, last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.RecoveryKey, c.UserID, c.SessionID, c.CartID, string(c.Status), attempts,
		c.ProviderCallID, eventKeys, events, c.Outcome,
		c.ScriptVersion, c.Campaign, c.EstimatedCostUSD, c.FollowupApplied,
		c.NextRetryAt, c.LastError, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert voice_calls: %w", err)
	}
	return nil
}

func (r *PostgresCallRepository) GetVoiceCall(ctx context.Context, recoveryKey string) (*commerce.VoiceCall, error) {
	row := r.db.QueryRowContext(ctx, voiceCallSelect+" WHERE recovery_key = $1", recoveryKey)
	return scanVoiceCallRow(row)
}

func (r *PostgresCallRepository) GetVoiceCallByProviderID(ctx context.Context, providerCallID string) (*commerce.VoiceCall, error) {
	row := r.db.QueryRowContext(ctx, voiceCallSelect+" WHERE provider_call_id = $1", providerCallID)
	return scanVoiceCallRow(row)
}

func (r *PostgresCallRepository) InFlightVoiceCalls(ctx context.Context) ([]*commerce.VoiceCall, error) {
	rows, err := r.db.QueryContext(ctx, voiceCallSelect+
		" WHERE status IN ('queued','initiated','ringing','in_progress')")
	if err != nil {
		return nil, fmt.Errorf("query voice_calls: %w", err)
	}
	defer rows.Close()
	return scanVoiceCallRows(rows)
}

const voiceCallSelect = `
	SELECT id, recovery_key, user_id, session_id, cart_id, status, attempts,
	       provider_call_id, provider_event_keys, provider_events, outcome,
	       script_version, campaign, estimated_cost_usd, followup_applied,
	       next_retry_at, last_error, created_at, updated_at
	FROM voice_calls`

type voiceRowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVoiceCallRow(row *sql.Row) (*commerce.VoiceCall, error) {
	c, err := scanVoiceCallRowCols(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func scanVoiceCallRowCols(row voiceRowScanner) (*commerce.VoiceCall, error) {
	var c commerce.VoiceCall
	var status string
	var attempts, eventKeys, events []byte
	if err := row.Scan(
		&c.ID, &c.RecoveryKey, &c.UserID, &c.SessionID, &c.CartID, &status, &attempts,
		&c.ProviderCallID, &eventKeys, &events, &c.Outcome,
		&c.ScriptVersion, &c.Campaign, &c.EstimatedCostUSD, &c.FollowupApplied,
		&c.NextRetryAt, &c.LastError, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Status = commerce.VoiceCallStatus(status)
	_ = json.Unmarshal(attempts, &c.Attempts)
	_ = json.Unmarshal(eventKeys, &c.ProviderEventKeys)
	_ = json.Unmarshal(events, &c.ProviderEvents)
	return &c, nil
}

func scanVoiceCallRows(rows *sql.Rows) ([]*commerce.VoiceCall, error) {
	var out []*commerce.VoiceCall
	for rows.Next() {
		c, err := scanVoiceCallRowCols(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
