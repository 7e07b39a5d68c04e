package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/suykerbuyk/recap/internal/archive"
	"github.com/suykerbuyk/recap/internal/config"
	"github.com/suykerbuyk/recap/internal/store"
)

// Status represents the outcome of a single check.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "FAIL"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report aggregates all check results.
type Report struct {
	Results []Result
}

// HasFailures returns true if any result has Fail status.
func (r Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status == Fail {
			return true
		}
	}
	return false
}

// Format returns the human-readable report string.
func (r Report) Format() string {
	if len(r.Results) == 0 {
		return "recap check\n\n  no checks ran\n"
	}

	maxName := 0
	for _, res := range r.Results {
		if len(res.Name) > maxName {
			maxName = len(res.Name)
		}
	}

	var b strings.Builder
	b.WriteString("recap check\n\n")

	var passed, warnings, failures int
	for _, res := range r.Results {
		switch res.Status {
		case Pass:
			passed++
		case Warn:
			warnings++
		case Fail:
			failures++
		}
		fmt.Fprintf(&b, "  %-4s  %-*s  %s\n", res.Status, maxName, res.Name, res.Detail)
	}

	fmt.Fprintf(&b, "\n%d passed, %d warning, %d failure\n", passed, warnings, failures)
	return b.String()
}

// CheckConfig reports the config file in use. A missing file is not an
// error since defaults apply.
func CheckConfig(path string) Result {
	if path == "" {
		return Result{Name: "config", Status: Warn, Detail: "no config file (defaults; run recap init)"}
	}
	return Result{Name: "config", Status: Pass, Detail: config.CompressHome(path)}
}

// CheckAPIKey checks that the model credential is present.
func CheckAPIKey(m config.ModelConfig) Result {
	if m.APIKey() != "" {
		return Result{Name: "api key", Status: Pass, Detail: m.APIKeyEnv + " set"}
	}
	return Result{Name: "api key", Status: Fail, Detail: m.APIKeyEnv + " not set"}
}

// CheckModel reports the configured endpoint and model.
func CheckModel(m config.ModelConfig) Result {
	return Result{
		Name:   "model",
		Status: Pass,
		Detail: fmt.Sprintf("%s @ %s (timeout %s, %d retries)", m.Model, m.BaseURL, m.Timeout(), m.MaxRetries),
	}
}

// CheckAuth checks that the configured auth mode can authenticate requests.
func CheckAuth(a config.AuthConfig) Result {
	switch a.Mode {
	case "header":
		return Result{Name: "auth", Status: Warn, Detail: "trusting " + a.UserHeader + " header (run behind a proxy)"}
	case "jwt":
		if a.JWTSecret() == "" {
			return Result{Name: "auth", Status: Fail, Detail: a.JWTSecretEnv + " not set"}
		}
		return Result{Name: "auth", Status: Pass, Detail: "jwt, " + a.JWTSecretEnv + " set"}
	default:
		return Result{Name: "auth", Status: Fail, Detail: "unknown mode " + a.Mode}
	}
}

// CheckTimezone checks that the quota day boundary resolves.
func CheckTimezone(cfg config.Config) Result {
	loc, err := cfg.Location()
	if err != nil {
		return Result{Name: "timezone", Status: Fail, Detail: err.Error()}
	}
	return Result{Name: "timezone", Status: Pass, Detail: fmt.Sprintf("%s (daily allotment %d)", loc, cfg.Quota.DailyAllotment)}
}

// CheckDataDir checks whether the data directory exists.
func CheckDataDir(path string) Result {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return Result{Name: "data dir", Status: Pass, Detail: config.CompressHome(path)}
	}
	return Result{Name: "data dir", Status: Warn, Detail: config.CompressHome(path) + " not found (created on first run)"}
}

// CheckDatabase opens the database and reports the stored recap count.
func CheckDatabase(path string) Result {
	if _, err := os.Stat(path); err != nil {
		return Result{Name: "database", Status: Warn, Detail: filepath.Base(path) + " not created yet"}
	}
	s, err := store.Open(path)
	if err != nil {
		return Result{Name: "database", Status: Fail, Detail: err.Error()}
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		return Result{Name: "database", Status: Fail, Detail: "ping: " + err.Error()}
	}
	n, err := s.CountRecaps(ctx)
	if err != nil {
		return Result{Name: "database", Status: Fail, Detail: err.Error()}
	}
	return Result{Name: "database", Status: Pass, Detail: fmt.Sprintf("%s (%d recaps)", filepath.Base(path), n)}
}

// CheckDiagnostics reports archived raw outputs of failed generations.
func CheckDiagnostics(d config.DiagnosticsConfig, dir string) Result {
	if !d.Enabled {
		return Result{Name: "diagnostics", Status: Pass, Detail: "disabled"}
	}
	ids, err := archive.List(dir)
	if err != nil {
		return Result{Name: "diagnostics", Status: Warn, Detail: err.Error()}
	}
	return Result{Name: "diagnostics", Status: Pass, Detail: fmt.Sprintf("%s (%d archived)", config.CompressHome(dir), len(ids))}
}

// Run executes all checks against the given config and returns a report.
func Run(cfg config.Config, cfgPath string) Report {
	var results []Result

	results = append(results, CheckConfig(cfgPath))
	results = append(results, CheckModel(cfg.Model))
	results = append(results, CheckAPIKey(cfg.Model))
	results = append(results, CheckAuth(cfg.Auth))
	results = append(results, CheckTimezone(cfg))
	results = append(results, CheckDataDir(cfg.DataDir))
	results = append(results, CheckDatabase(cfg.DBPath()))
	results = append(results, CheckDiagnostics(cfg.Diagnostics, cfg.DiagnosticsDir()))

	return Report{Results: results}
}
