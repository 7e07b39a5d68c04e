// Package quotatest checks quota.Store implementations against the
// admission rules every store must honour.
package quotatest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/suykerbuyk/recap/internal/quota"
)

const (
	today     = "2026-03-02"
	yesterday = "2026-03-01"
)

// Seeder writes a record verbatim so tests can start from a given state.
type Seeder func(t *testing.T, rec quota.UsageRecord)

// Run exercises store. seed must write records directly into the same store.
func Run(t *testing.T, newStore func(t *testing.T) (quota.Store, Seeder)) {
	t.Run("FreshUserAdmittedUpToAllotment", func(t *testing.T) {
		s, _ := newStore(t)
		ctx := context.Background()

		for i := 1; i <= 3; i++ {
			count, admitted, err := s.Consume(ctx, "u1", today, 3)
			if err != nil {
				t.Fatalf("attempt %d: %v", i, err)
			}
			if !admitted {
				t.Fatalf("attempt %d denied", i)
			}
			if count != i {
				t.Errorf("attempt %d: count = %d", i, count)
			}
		}

		count, admitted, err := s.Consume(ctx, "u1", today, 3)
		if err != nil {
			t.Fatalf("attempt 4: %v", err)
		}
		if admitted {
			t.Fatal("attempt 4 admitted")
		}
		if count != 3 {
			t.Errorf("denied count = %d, want 3", count)
		}

		rec, found, err := s.Usage(ctx, "u1")
		if err != nil || !found {
			t.Fatalf("Usage: found=%v err=%v", found, err)
		}
		if rec.DailyCount != 3 || rec.LastResetDate != today {
			t.Errorf("stored = %+v", rec)
		}
	})

	t.Run("UnknownUser", func(t *testing.T) {
		s, _ := newStore(t)
		_, found, err := s.Usage(context.Background(), "nobody")
		if err != nil {
			t.Fatalf("Usage: %v", err)
		}
		if found {
			t.Error("found record for unknown user")
		}
	})

	t.Run("StaleRecordResets", func(t *testing.T) {
		s, seed := newStore(t)
		seed(t, quota.UsageRecord{UserID: "u2", DailyCount: 3, LastResetDate: yesterday})

		count, admitted, err := s.Consume(context.Background(), "u2", today, 3)
		if err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if !admitted || count != 1 {
			t.Errorf("admitted=%v count=%d, want true 1", admitted, count)
		}
	})

	t.Run("UsersAreIndependent", func(t *testing.T) {
		s, seed := newStore(t)
		seed(t, quota.UsageRecord{UserID: "busy", DailyCount: 3, LastResetDate: today})

		if _, admitted, _ := s.Consume(context.Background(), "busy", today, 3); admitted {
			t.Error("busy user admitted past allotment")
		}
		if _, admitted, _ := s.Consume(context.Background(), "idle", today, 3); !admitted {
			t.Error("idle user denied")
		}
	})

	t.Run("ConcurrentAttemptsNeverOverrun", func(t *testing.T) {
		s, _ := newStore(t)
		const workers = 40

		var admittedCount atomic.Int32
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, admitted, err := s.Consume(context.Background(), "racer", today, 3)
				if err != nil {
					errs <- err
					return
				}
				if admitted {
					admittedCount.Add(1)
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("Consume: %v", err)
		}

		if got := admittedCount.Load(); got != 3 {
			t.Errorf("admitted %d attempts, want exactly 3", got)
		}
		rec, _, err := s.Usage(context.Background(), "racer")
		if err != nil {
			t.Fatalf("Usage: %v", err)
		}
		if rec.DailyCount != 3 {
			t.Errorf("stored count = %d, want 3", rec.DailyCount)
		}
	})

	t.Run("ManyUsersConcurrently", func(t *testing.T) {
		s, _ := newStore(t)
		var wg sync.WaitGroup
		for u := 0; u < 5; u++ {
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(user string) {
					defer wg.Done()
					s.Consume(context.Background(), user, today, 2)
				}(fmt.Sprintf("user-%d", u))
			}
		}
		wg.Wait()

		for u := 0; u < 5; u++ {
			rec, _, err := s.Usage(context.Background(), fmt.Sprintf("user-%d", u))
			if err != nil {
				t.Fatalf("Usage: %v", err)
			}
			if rec.DailyCount != 2 {
				t.Errorf("user-%d count = %d, want 2", u, rec.DailyCount)
			}
		}
	})
}
