package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/suykerbuyk/recap/internal/report"
)

// DefaultListLimit caps ListRecaps when the caller passes no limit.
const DefaultListLimit = 20

// MaxListLimit is the largest page ListRecaps returns.
const MaxListLimit = 100

// Recap is one stored generation.
type Recap struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	InputText string `json:"inputText"`
	report.StructuredReport
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

const recapColumns = `id, user_id, input_text, executive_summary, key_highlights, decisions_taken,
  risks_and_blockers, action_items, next_steps, model, created_at_unix_ms`

// SaveRecap inserts r. CreatedAt defaults to now.
func (s *Store) SaveRecap(ctx context.Context, r Recap) error {
	if r.ID == "" || r.UserID == "" {
		return errors.New("save recap: missing id or user")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	rep := r.StructuredReport.Normalize()

	cols := make([]interface{}, 0, 11)
	cols = append(cols, r.ID, r.UserID, r.InputText, rep.ExecutiveSummary)
	for _, list := range [][]string{rep.KeyHighlights, rep.DecisionsTaken, rep.RisksAndBlockers} {
		enc, err := encodeList(list)
		if err != nil {
			return fmt.Errorf("save recap: %w", err)
		}
		cols = append(cols, enc)
	}
	items, err := encodeActionItems(rep.ActionItems)
	if err != nil {
		return fmt.Errorf("save recap: %w", err)
	}
	next, err := encodeList(rep.NextSteps)
	if err != nil {
		return fmt.Errorf("save recap: %w", err)
	}
	cols = append(cols, items, next, r.Model, r.CreatedAt.UnixMilli())

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO recaps(`+recapColumns+`) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, cols...); err != nil {
		return fmt.Errorf("save recap: %w", err)
	}
	return nil
}

// ListRecaps returns userID's recaps, newest first.
func (s *Store) ListRecaps(ctx context.Context, userID string, limit int) ([]Recap, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+recapColumns+` FROM recaps
WHERE user_id = ?
ORDER BY created_at_unix_ms DESC, id DESC
LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recaps: %w", err)
	}
	defer rows.Close()

	out := make([]Recap, 0, limit)
	for rows.Next() {
		r, err := scanRecap(rows)
		if err != nil {
			return nil, fmt.Errorf("list recaps: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recaps: %w", err)
	}
	return out, nil
}

// GetRecap returns the recap id owned by userID, or ErrNotFound.
func (s *Store) GetRecap(ctx context.Context, userID, id string) (*Recap, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recapColumns+` FROM recaps WHERE user_id = ? AND id = ?`, userID, id)
	r, err := scanRecap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recap: %w", err)
	}
	return &r, nil
}

// DeleteRecap removes the recap id owned by userID, or returns ErrNotFound.
func (s *Store) DeleteRecap(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recaps WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete recap: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recap: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRecaps returns the number of stored recaps across all users.
func (s *Store) CountRecaps(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM recaps`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count recaps: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecap(sc scanner) (Recap, error) {
	var (
		r                                          Recap
		highlights, decisions, risks, items, steps string
		createdMs                                  int64
	)
	if err := sc.Scan(&r.ID, &r.UserID, &r.InputText, &r.ExecutiveSummary,
		&highlights, &decisions, &risks, &items, &steps, &r.Model, &createdMs); err != nil {
		return Recap{}, err
	}
	r.KeyHighlights = decodeList(highlights)
	r.DecisionsTaken = decodeList(decisions)
	r.RisksAndBlockers = decodeList(risks)
	r.ActionItems = decodeActionItems(items)
	r.NextSteps = decodeList(steps)
	r.CreatedAt = time.UnixMilli(createdMs)
	return r, nil
}
