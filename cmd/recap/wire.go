package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/suykerbuyk/recap/internal/config"
	"github.com/suykerbuyk/recap/internal/llm"
	"github.com/suykerbuyk/recap/internal/quota"
	"github.com/suykerbuyk/recap/internal/recap"
	"github.com/suykerbuyk/recap/internal/salvage"
	"github.com/suykerbuyk/recap/internal/store"
)

// app holds the collaborators shared by every command that generates or
// reads recaps.
type app struct {
	cfg     config.Config
	db      *store.Store
	tracker *quota.Tracker
	svc     *recap.Service
}

func newApp(cfg config.Config, log *zap.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	tracker := quota.NewTracker(db, cfg.Quota.DailyAllotment, loc)
	client := llm.NewClient(cfg.Model, cfg.Model.APIKey())

	opts := recap.Options{
		MinChars:      cfg.Input.MinChars,
		StrictPersist: cfg.Persistence.Strict,
	}
	if cfg.Diagnostics.Enabled {
		opts.DiagnosticsDir = cfg.DiagnosticsDir()
		opts.CompressDiagnostics = cfg.Diagnostics.Compress
	}

	svc := recap.NewService(tracker, client, salvage.Parser{Repair: cfg.Salvage.Repair}, db, log, opts)
	return &app{cfg: cfg, db: db, tracker: tracker, svc: svc}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
