// Package recap turns free-text notes into a StructuredReport: it gates the
// attempt on the caller's daily quota, calls the model, salvages the reply
// and stores the result.
package recap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suykerbuyk/recap/internal/archive"
	"github.com/suykerbuyk/recap/internal/llm"
	"github.com/suykerbuyk/recap/internal/quota"
	"github.com/suykerbuyk/recap/internal/report"
	"github.com/suykerbuyk/recap/internal/salvage"
	"github.com/suykerbuyk/recap/internal/sanitize"
	"github.com/suykerbuyk/recap/internal/store"
)

var (
	// ErrInputTooShort is returned before any quota or model cost is spent.
	ErrInputTooShort = errors.New("input text too short")

	// ErrPersist is returned only in strict persistence mode.
	ErrPersist = errors.New("persist recap")
)

const logExcerpt = 512

// Completer sends a chat-completion request and returns the raw body.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) ([]byte, error)
	Model() string
}

// ReportParser recovers a report from a raw response body.
type ReportParser interface {
	Parse(body []byte) (*report.StructuredReport, error)
}

// Repository stores generated recaps per user.
type Repository interface {
	SaveRecap(ctx context.Context, r store.Recap) error
	ListRecaps(ctx context.Context, userID string, limit int) ([]store.Recap, error)
	GetRecap(ctx context.Context, userID, id string) (*store.Recap, error)
	DeleteRecap(ctx context.Context, userID, id string) error
}

// Result is a successful generation.
type Result struct {
	Report    report.StructuredReport
	RecapID   string
	Saved     bool
	Remaining int
}

// Options holds the per-service settings.
type Options struct {
	MinChars      int
	StrictPersist bool

	// DiagnosticsDir receives the redacted raw output of failed parses.
	// Empty disables archiving.
	DiagnosticsDir      string
	CompressDiagnostics bool
}

// Service is safe for concurrent use; all per-attempt state lives on the
// stack of Generate.
type Service struct {
	quota  *quota.Tracker
	model  Completer
	parser ReportParser
	repo   Repository
	log    *zap.Logger
	opts   Options
	now    func() time.Time
	newID  func() string
}

// NewService wires the generation pipeline. A nil logger discards logs.
func NewService(tracker *quota.Tracker, model Completer, parser ReportParser, repo Repository, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		quota:  tracker,
		model:  model,
		parser: parser,
		repo:   repo,
		log:    log,
		opts:   opts,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Generate runs one attempt for userID. Errors keep their kind through
// wrapping: ErrInputTooShort, quota.ErrQuotaExceeded, *llm.TransportError,
// the salvage kinds and ErrPersist are all reachable with errors.Is/As.
// An admitted attempt counts against the quota even if it later fails.
func (s *Service) Generate(ctx context.Context, userID, text string) (*Result, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < s.opts.MinChars {
		return nil, ErrInputTooShort
	}

	decision, err := s.quota.TryConsume(ctx, userID)
	if err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			s.log.Info("generation denied", zap.String("user", userID), zap.Int("used", decision.Used), zap.Int("limit", decision.Limit))
			return nil, err
		}
		return nil, fmt.Errorf("check quota: %w", err)
	}

	id := s.newID()
	log := s.log.With(zap.String("user", userID), zap.String("recap_id", id))
	start := s.now()

	body, err := s.model.Complete(ctx, llm.BuildMessages(text))
	if err != nil {
		log.Warn("model call failed", zap.String("stage", "transport"), zap.Error(err))
		return nil, fmt.Errorf("call model: %w", err)
	}

	rep, err := s.parser.Parse(body)
	if err != nil {
		s.diagnose(log, id, body, err)
		return nil, fmt.Errorf("parse model output: %w", err)
	}
	normalized := rep.Normalize()

	result := &Result{Report: normalized, RecapID: id, Remaining: decision.Remaining}
	rec := store.Recap{
		ID:               id,
		UserID:           userID,
		InputText:        text,
		StructuredReport: normalized,
		Model:            s.model.Model(),
		CreatedAt:        s.now(),
	}
	if err := s.repo.SaveRecap(ctx, rec); err != nil {
		if s.opts.StrictPersist {
			log.Error("persist failed", zap.String("stage", "persist"), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		log.Warn("persist failed, returning unsaved report", zap.String("stage", "persist"), zap.Error(err))
	} else {
		result.Saved = true
	}

	log.Info("generation complete",
		zap.Duration("elapsed", s.now().Sub(start)),
		zap.Int("remaining", decision.Remaining),
		zap.Bool("saved", result.Saved))
	return result, nil
}

// diagnose records the raw output behind a parse failure. It never reaches
// the caller.
func (s *Service) diagnose(log *zap.Logger, id string, body []byte, err error) {
	raw := string(body)
	var se *salvage.Error
	if errors.As(err, &se) && se.Raw != "" {
		raw = se.Raw
	}
	log.Warn("model output rejected",
		zap.String("stage", "parse"),
		zap.Error(err),
		zap.String("raw", sanitize.Excerpt(raw, logExcerpt)))

	if s.opts.DiagnosticsDir == "" {
		return
	}
	path, aerr := archive.Save(s.opts.DiagnosticsDir, id, []byte(sanitize.Redact(string(body))), s.opts.CompressDiagnostics)
	if aerr != nil {
		log.Warn("archive raw output", zap.Error(aerr))
		return
	}
	log.Debug("raw output archived", zap.String("path", path))
}

// Usage reports userID's quota without consuming it.
func (s *Service) Usage(ctx context.Context, userID string) (quota.Usage, error) {
	return s.quota.Remaining(ctx, userID)
}

// History returns userID's recaps, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]store.Recap, error) {
	if userID == "" {
		return nil, quota.ErrNoUser
	}
	return s.repo.ListRecaps(ctx, userID, limit)
}

// Get returns one of userID's recaps or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, id string) (*store.Recap, error) {
	if userID == "" {
		return nil, quota.ErrNoUser
	}
	return s.repo.GetRecap(ctx, userID, id)
}

// Delete removes one of userID's recaps or returns store.ErrNotFound.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return quota.ErrNoUser
	}
	return s.repo.DeleteRecap(ctx, userID, id)
}

// Allotment returns the current daily allotment.
func (s *Service) Allotment() int { return s.quota.Allotment() }
