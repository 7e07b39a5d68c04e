package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	xdg := isolate(t)
	path := writeConfig(t, xdg, "[quota]\ndaily_allotment = 3\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c Config) { got <- c }, func(err error) { t.Logf("watch error: %v", err) })
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[quota]\ndaily_allotment = 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Quota.DailyAllotment != 8 {
			t.Errorf("DailyAllotment = %d, want 8", cfg.Quota.DailyAllotment)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatch_InvalidReloadKeepsGoing(t *testing.T) {
	xdg := isolate(t)
	path := writeConfig(t, xdg, "[quota]\ndaily_allotment = 3\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errs := make(chan error, 4)
	applied := make(chan Config, 4)
	go Watch(ctx, path, func(c Config) { applied <- c }, func(err error) { errs <- err })

	time.Sleep(100 * time.Millisecond)
	os.WriteFile(path, []byte("[quota]\ndaily_allotment = -1\n"), 0o644)

	select {
	case <-errs:
	case c := <-applied:
		t.Fatalf("invalid config applied: %+v", c.Quota)
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported for invalid reload")
	}
}
