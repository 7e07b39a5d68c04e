package recap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/suykerbuyk/recap/internal/archive"
	"github.com/suykerbuyk/recap/internal/llm"
	"github.com/suykerbuyk/recap/internal/quota"
	"github.com/suykerbuyk/recap/internal/report"
	"github.com/suykerbuyk/recap/internal/salvage"
	"github.com/suykerbuyk/recap/internal/store"
)

const fenceBody = `{"choices":[{"message":{"role":"assistant","content":"Sure! ` + "```json\\n" +
	`{\"executiveSummary\":\"...\",\"keyHighlights\":[],\"decisionsTaken\":[\"Ship v2 next sprint\"],\"risksAndBlockers\":[\"API rate limits\"],\"actionItems\":[],\"nextSteps\":[]}` +
	"\\n```" + `"}}]}`

type fakeModel struct {
	mu       sync.Mutex
	body     string
	err      error
	calls    int
	messages []llm.Message
}

func (f *fakeModel) Complete(_ context.Context, msgs []llm.Message) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = msgs
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func (f *fakeModel) Model() string { return "fake-model" }

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memRepo struct {
	mu      sync.Mutex
	recaps  []store.Recap
	saveErr error
}

func (m *memRepo) SaveRecap(_ context.Context, r store.Recap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.recaps = append(m.recaps, r)
	return nil
}

func (m *memRepo) ListRecaps(_ context.Context, userID string, limit int) ([]store.Recap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Recap
	for i := len(m.recaps) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.recaps[i].UserID == userID {
			out = append(out, m.recaps[i])
		}
	}
	return out, nil
}

func (m *memRepo) GetRecap(_ context.Context, userID, id string) (*store.Recap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.recaps {
		if m.recaps[i].UserID == userID && m.recaps[i].ID == id {
			r := m.recaps[i]
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memRepo) DeleteRecap(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.recaps {
		if m.recaps[i].UserID == userID && m.recaps[i].ID == id {
			m.recaps = append(m.recaps[:i], m.recaps[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

type fixture struct {
	svc   *Service
	model *fakeModel
	repo  *memRepo
	logs  *observer.ObservedLogs
	diag  string
}

func newFixture(t *testing.T, body string, opts Options) *fixture {
	t.Helper()
	model := &fakeModel{body: body}
	repo := &memRepo{}
	core, logs := observer.New(zap.DebugLevel)
	tracker := quota.NewTracker(quota.NewMemoryStore(), 3, time.UTC)

	if opts.MinChars == 0 {
		opts.MinChars = 5
	}
	diag := t.TempDir()
	if opts.DiagnosticsDir == "" {
		opts.DiagnosticsDir = diag
	}

	svc := NewService(tracker, model, salvage.Parser{}, repo, zap.New(core), opts)
	var n atomic.Int64
	svc.newID = func() string { return fmt.Sprintf("recap-%d", n.Add(1)) }
	return &fixture{svc: svc, model: model, repo: repo, logs: logs, diag: opts.DiagnosticsDir}
}

func TestGenerate_EndToEndFence(t *testing.T) {
	f := newFixture(t, fenceBody, Options{})
	text := "Team decided to ship v2 next sprint. Risk: API rate limits."

	res, err := f.svc.Generate(context.Background(), "u1", text)
	require.NoError(t, err)

	assert.Equal(t, report.StructuredReport{
		ExecutiveSummary: "...",
		KeyHighlights:    []string{},
		DecisionsTaken:   []string{"Ship v2 next sprint"},
		RisksAndBlockers: []string{"API rate limits"},
		ActionItems:      []report.ActionItem{},
		NextSteps:        []string{},
	}, res.Report)
	assert.Equal(t, 2, res.Remaining)
	assert.Equal(t, "recap-1", res.RecapID)
	assert.True(t, res.Saved)

	require.Len(t, f.model.messages, 2)
	assert.Equal(t, text, f.model.messages[1].Content)

	require.Len(t, f.repo.recaps, 1)
	saved := f.repo.recaps[0]
	assert.Equal(t, "u1", saved.UserID)
	assert.Equal(t, text, saved.InputText)
	assert.Equal(t, "fake-model", saved.Model)
	assert.Equal(t, res.Report, saved.StructuredReport)
}

func TestGenerate_InputTooShort(t *testing.T) {
	f := newFixture(t, fenceBody, Options{})

	for _, text := range []string{"", "hey", "   abcd   ", "\n\t"} {
		_, err := f.svc.Generate(context.Background(), "u1", text)
		assert.ErrorIs(t, err, ErrInputTooShort, "text %q", text)
	}
	assert.Equal(t, 0, f.model.callCount())

	u, err := f.svc.Usage(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, u.Remaining, "short input must not consume quota")

	// Five runes is enough, even when multi-byte.
	_, err = f.svc.Generate(context.Background(), "u1", "héllo")
	assert.NoError(t, err)
}

func TestGenerate_QuotaExhausted(t *testing.T) {
	f := newFixture(t, fenceBody, Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := f.svc.Generate(ctx, "u1", "weekly sync notes")
		require.NoError(t, err)
		assert.Equal(t, 2-i, res.Remaining)
	}

	_, err := f.svc.Generate(ctx, "u1", "weekly sync notes")
	assert.ErrorIs(t, err, quota.ErrQuotaExceeded)
	assert.Equal(t, 3, f.model.callCount(), "denied attempt must not call the model")

	_, err = f.svc.Generate(ctx, "u2", "weekly sync notes")
	assert.NoError(t, err, "other users keep their own allotment")
}

func TestGenerate_TransportFailureConsumesQuota(t *testing.T) {
	f := newFixture(t, "", Options{})
	f.model.err = &llm.TransportError{Op: "status", StatusCode: 503, Err: errors.New("unavailable")}

	_, err := f.svc.Generate(context.Background(), "u1", "weekly sync notes")
	var te *llm.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 503, te.StatusCode)

	u, _ := f.svc.Usage(context.Background(), "u1")
	assert.Equal(t, 2, u.Remaining)
	assert.Empty(t, f.repo.recaps)
}

func TestGenerate_ParseFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind error
	}{
		{"envelope", "<html>oops</html>", salvage.ErrEnvelope},
		{"empty", `{"choices":[]}`, salvage.ErrEmptyOutput},
		{"no json", `{"choices":[{"message":{"content":"I cannot do that."}}]}`, salvage.ErrNoJSON},
		{"malformed", `{"choices":[{"message":{"content":"{\"executiveSummary\": }"}}]}`, salvage.ErrMalformedJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.body, Options{})

			res, err := f.svc.Generate(context.Background(), "u1", "weekly sync notes")
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.kind)
			assert.Empty(t, f.repo.recaps)

			rejected := f.logs.FilterMessage("model output rejected").All()
			require.Len(t, rejected, 1)
			assert.Equal(t, "parse", rejected[0].ContextMap()["stage"])

			path, ok := archive.Find(f.diag, "recap-1")
			require.True(t, ok, "raw output not archived")
			raw, err := archive.Load(path)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(raw))
		})
	}
}

func TestGenerate_DiagnosticsRedacted(t *testing.T) {
	body := `{"choices":[{"message":{"content":"my key is gsk_abcdefghijklmnopqrstuvwxyz"}}]}`
	f := newFixture(t, body, Options{})

	_, err := f.svc.Generate(context.Background(), "u1", "weekly sync notes")
	require.ErrorIs(t, err, salvage.ErrNoJSON)

	for _, entry := range f.logs.All() {
		for _, v := range entry.ContextMap() {
			assert.NotContains(t, fmt.Sprint(v), "gsk_abcdefghijklmnopqrstuvwxyz")
		}
	}
	path, _ := archive.Find(f.diag, "recap-1")
	raw, err := archive.Load(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "gsk_abcdefghijklmnopqrstuvwxyz")
	assert.Contains(t, string(raw), "[REDACTED]")
}

func TestGenerate_PersistFailure(t *testing.T) {
	t.Run("best effort", func(t *testing.T) {
		f := newFixture(t, fenceBody, Options{})
		f.repo.saveErr = errors.New("disk full")

		res, err := f.svc.Generate(context.Background(), "u1", "weekly sync notes")
		require.NoError(t, err)
		assert.False(t, res.Saved)
		assert.Equal(t, []string{"Ship v2 next sprint"}, res.Report.DecisionsTaken)
		assert.Equal(t, 1, f.logs.FilterMessage("persist failed, returning unsaved report").Len())
	})

	t.Run("strict", func(t *testing.T) {
		f := newFixture(t, fenceBody, Options{StrictPersist: true})
		f.repo.saveErr = errors.New("disk full")

		_, err := f.svc.Generate(context.Background(), "u1", "weekly sync notes")
		assert.ErrorIs(t, err, ErrPersist)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestGenerate_Concurrent(t *testing.T) {
	f := newFixture(t, fenceBody, Options{})

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, denied int
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Generate(context.Background(), "u1", "weekly sync notes")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, quota.ErrQuotaExceeded):
				denied++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 9, denied)
	assert.Equal(t, 3, f.model.callCount())

	ids := map[string]bool{}
	for _, r := range f.repo.recaps {
		ids[r.ID] = true
	}
	assert.Len(t, ids, 3, "each admitted attempt gets its own recap id")
}

func TestHistoryGetDelete(t *testing.T) {
	f := newFixture(t, fenceBody, Options{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Generate(ctx, "u1", "weekly sync notes")
		require.NoError(t, err)
	}

	list, err := f.svc.History(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "recap-2", list[0].ID)

	got, err := f.svc.Get(ctx, "u1", "recap-1")
	require.NoError(t, err)
	assert.Equal(t, "weekly sync notes", got.InputText)

	_, err = f.svc.Get(ctx, "u2", "recap-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, f.svc.Delete(ctx, "u1", "recap-1"))
	assert.ErrorIs(t, f.svc.Delete(ctx, "u1", "recap-1"), store.ErrNotFound)

	_, err = f.svc.History(ctx, "", 10)
	assert.ErrorIs(t, err, quota.ErrNoUser)
}

func TestGenerate_WithSQLiteStore(t *testing.T) {
	db, err := store.Open(t.TempDir() + "/recap.db")
	require.NoError(t, err)
	defer db.Close()

	tracker := quota.NewTracker(db, 3, time.UTC)
	svc := NewService(tracker, &fakeModel{body: fenceBody}, salvage.Parser{}, db, nil, Options{MinChars: 5})

	res, err := svc.Generate(context.Background(), "u1", "weekly sync notes")
	require.NoError(t, err)
	assert.True(t, res.Saved)

	got, err := svc.Get(context.Background(), "u1", res.RecapID)
	require.NoError(t, err)
	assert.Equal(t, res.Report, got.StructuredReport)
	assert.True(t, strings.HasPrefix(got.Model, "fake"))
}
