package quota

import (
	"context"
	"sync"
)

// MemoryStore keeps usage records in process memory. Consume is serialized
// per user. It is the reference Store: quotatest runs against it, and it
// suits single-process tools that do not need counts to survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]UsageRecord
	locks   map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]UsageRecord),
		locks:   make(map[string]*sync.Mutex),
	}
}

func (m *MemoryStore) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

func (m *MemoryStore) Consume(ctx context.Context, userID, today string, allotment int) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	rec, found := m.records[userID]
	m.mu.Unlock()

	next, admitted := Next(rec, found, userID, today, allotment)
	m.mu.Lock()
	m.records[userID] = next
	m.mu.Unlock()
	return next.DailyCount, admitted, nil
}

func (m *MemoryStore) Usage(ctx context.Context, userID string) (UsageRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return UsageRecord{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	return rec, ok, nil
}

// Put stores rec as-is, replacing any existing record.
func (m *MemoryStore) Put(rec UsageRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.UserID] = rec
}
