package quota

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

var (
	// ErrQuotaExceeded is returned when a user has used today's allotment.
	// It is a policy outcome, not a fault.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	ErrNoUser = errors.New("missing user id")
)

// Store persists usage records. Consume must be atomic per user: two
// concurrent calls for the same user behave as if run one after the other.
type Store interface {
	// Consume applies Next for userID and returns the resulting daily count
	// and whether the attempt was admitted.
	Consume(ctx context.Context, userID, today string, allotment int) (count int, admitted bool, err error)

	// Usage returns the stored record; found is false when there is none.
	Usage(ctx context.Context, userID string) (rec UsageRecord, found bool, err error)
}

// Decision is the outcome of one admission check.
type Decision struct {
	Admitted  bool
	Used      int
	Remaining int
	Limit     int
}

// Usage is the read-only quota view for one user.
type Usage struct {
	Limit     int    `json:"limit"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	ResetsOn  string `json:"resetsOn"`
}

// Tracker gates generation attempts on a per-user daily allotment.
type Tracker struct {
	store     Store
	allotment atomic.Int64
	loc       *time.Location
	now       func() time.Time
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker returns a tracker whose days are calendar days in loc.
func NewTracker(store Store, allotment int, loc *time.Location, opts ...Option) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	t := &Tracker{store: store, loc: loc, now: time.Now}
	t.allotment.Store(int64(allotment))
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Allotment returns the number of attempts admitted per user per day.
func (t *Tracker) Allotment() int { return int(t.allotment.Load()) }

// SetAllotment changes the allotment for subsequent checks.
func (t *Tracker) SetAllotment(n int) { t.allotment.Store(int64(n)) }

// Today returns the current calendar day in the tracker's location.
func (t *Tracker) Today() string {
	return t.now().In(t.loc).Format(DateLayout)
}

func (t *Tracker) tomorrow() string {
	now := t.now().In(t.loc)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, t.loc).Format(DateLayout)
}

// TryConsume admits or denies one attempt for userID, counting it against
// today's allotment when admitted. Denial returns ErrQuotaExceeded together
// with the decision.
func (t *Tracker) TryConsume(ctx context.Context, userID string) (Decision, error) {
	if userID == "" {
		return Decision{}, ErrNoUser
	}
	limit := t.Allotment()

	count, admitted, err := t.store.Consume(ctx, userID, t.Today(), limit)
	if err != nil {
		return Decision{}, fmt.Errorf("consume quota: %w", err)
	}

	d := Decision{
		Admitted:  admitted,
		Used:      count,
		Remaining: remaining(limit, count),
		Limit:     limit,
	}
	if !admitted {
		return d, ErrQuotaExceeded
	}
	return d, nil
}

// Remaining reports today's usage for userID without changing it.
func (t *Tracker) Remaining(ctx context.Context, userID string) (Usage, error) {
	if userID == "" {
		return Usage{}, ErrNoUser
	}
	limit := t.Allotment()

	rec, found, err := t.store.Usage(ctx, userID)
	if err != nil {
		return Usage{}, fmt.Errorf("read usage: %w", err)
	}
	_, used := Resolve(rec, found, t.Today())

	return Usage{
		Limit:     limit,
		Used:      used,
		Remaining: remaining(limit, used),
		ResetsOn:  t.tomorrow(),
	}, nil
}
