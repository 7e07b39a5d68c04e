package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/suykerbuyk/recap/internal/quota"
)

var _ quota.Store = (*Store)(nil)

// The WHERE clause on the conflict branch rejects the update when today's
// count already reached the allotment; RETURNING then yields no row.
const consumeSQL = `
INSERT INTO usage(user_id, daily_count, last_reset_date)
SELECT ?1, 1, ?2 WHERE ?3 > 0
ON CONFLICT(user_id) DO UPDATE SET
  daily_count = CASE WHEN usage.last_reset_date = excluded.last_reset_date
                     THEN usage.daily_count + 1 ELSE 1 END,
  last_reset_date = excluded.last_reset_date
WHERE usage.last_reset_date <> excluded.last_reset_date OR usage.daily_count < ?3
RETURNING daily_count`

// Consume implements quota.Store with a single conditional upsert.
func (s *Store) Consume(ctx context.Context, userID, today string, allotment int) (int, bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, consumeSQL, userID, today, allotment).Scan(&count)
	if err == nil {
		return count, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("consume usage: %w", err)
	}

	rec, found, err := s.Usage(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	_, used := quota.Resolve(rec, found, today)
	return used, false, nil
}

// Usage implements quota.Store.
func (s *Store) Usage(ctx context.Context, userID string) (quota.UsageRecord, bool, error) {
	rec := quota.UsageRecord{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT daily_count, last_reset_date FROM usage WHERE user_id = ?`, userID,
	).Scan(&rec.DailyCount, &rec.LastResetDate)
	if errors.Is(err, sql.ErrNoRows) {
		return quota.UsageRecord{}, false, nil
	}
	if err != nil {
		return quota.UsageRecord{}, false, fmt.Errorf("read usage: %w", err)
	}
	return rec, true, nil
}

// PutUsage overwrites the usage record for rec.UserID.
func (s *Store) PutUsage(ctx context.Context, rec quota.UsageRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO usage(user_id, daily_count, last_reset_date) VALUES(?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET daily_count = excluded.daily_count, last_reset_date = excluded.last_reset_date`,
		rec.UserID, rec.DailyCount, rec.LastResetDate)
	if err != nil {
		return fmt.Errorf("write usage: %w", err)
	}
	return nil
}
