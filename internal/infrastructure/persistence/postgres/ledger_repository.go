package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopsphere/payments-core/internal/application"
)

// LedgerRepository persists the processed-event ledger. The event_id primary
// key is what makes Record atomic under concurrent redelivery.
type LedgerRepository struct {
	db *DB
}

func NewLedgerRepository(db *DB) application.LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Seen(ctx context.Context, eventID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`

	var seen bool
	if err := r.db.Pool.QueryRow(ctx, query, eventID).Scan(&seen); err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return seen, nil
}

func (r *LedgerRepository) Record(ctx context.Context, eventID, effect string) (bool, error) {
	query := `
		INSERT INTO processed_events (event_id, effect, processed_at)
		VALUES ($1, $2, now())
	`

	_, err := r.db.Pool.Exec(ctx, query, eventID, effect)
	if err != nil {
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to record processed event: %w", err)
	}
	return true, nil
}

func (r *LedgerRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	query := `
		DELETE FROM processed_events
		WHERE event_id IN (
			SELECT event_id FROM processed_events
			WHERE processed_at < $1
			ORDER BY processed_at
			LIMIT $2
		)
	`

	tag, err := r.db.Pool.Exec(ctx, query, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to prune processed events: %w", err)
	}
	return tag.RowsAffected(), nil
}
