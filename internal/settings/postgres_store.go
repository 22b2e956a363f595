package settings

import (
	"context"
	"database/sql"

	"github.com/aegispay/aegispay/internal/risk"
)

// PostgresStore persists settings in PostgreSQL. A single row (id = 1) holds
// the whole document; saves upsert it. Schema lives in migrations/.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed settings store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Load(ctx context.Context) (*Persisted, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT api_base_url, ws_url, mock_mode, hold_timer_seconds,
		       threshold_allow, threshold_challenge, threshold_hold, threshold_block,
		       theme
		FROM app_settings WHERE id = 1`)

	var out Persisted
	var t risk.Thresholds
	err := row.Scan(
		&out.Settings.APIBaseURL, &out.Settings.WSURL, &out.Settings.MockMode,
		&out.Settings.HoldTimerSeconds,
		&t.Allow, &t.Challenge, &t.Hold, &t.Block,
		&out.Theme,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	out.Settings.Thresholds = t
	return &out, nil
}

func (p *PostgresStore) Save(ctx context.Context, s *Persisted) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO app_settings (
			id, api_base_url, ws_url, mock_mode, hold_timer_seconds,
			threshold_allow, threshold_challenge, threshold_hold, threshold_block,
			theme, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			api_base_url = EXCLUDED.api_base_url,
			ws_url = EXCLUDED.ws_url,
			mock_mode = EXCLUDED.mock_mode,
			hold_timer_seconds = EXCLUDED.hold_timer_seconds,
			threshold_allow = EXCLUDED.threshold_allow,
			threshold_challenge = EXCLUDED.threshold_challenge,
			threshold_hold = EXCLUDED.threshold_hold,
			threshold_block = EXCLUDED.threshold_block,
			theme = EXCLUDED.theme,
			updated_at = NOW()`,
		s.Settings.APIBaseURL, s.Settings.WSURL, s.Settings.MockMode,
		s.Settings.HoldTimerSeconds,
		s.Settings.Thresholds.Allow, s.Settings.Thresholds.Challenge,
		s.Settings.Thresholds.Hold, s.Settings.Thresholds.Block,
		s.Theme,
	)
	return err
}
