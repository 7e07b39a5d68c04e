package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suykerbuyk/recap/internal/config"
	"github.com/suykerbuyk/recap/internal/logging"
	"github.com/suykerbuyk/recap/internal/quota"
	"github.com/suykerbuyk/recap/internal/recap"
	"github.com/suykerbuyk/recap/internal/render"
	"github.com/suykerbuyk/recap/internal/store"
)

var (
	generateJSON bool
	historyLimit int
)

var generateCmd = &cobra.Command{
	Use:  "generate [file]",
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var usageCmd = &cobra.Command{
	Use:  "usage",
	Args: cobra.NoArgs,
	RunE: runUsage,
}

var historyCmd = &cobra.Command{
	Use:  "history",
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:  "show <id>",
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:  "delete <id>",
	Args: cobra.ExactArgs(1),
	RunE: runHistoryDelete,
}

func init() {
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the report as JSON instead of Markdown")
	historyCmd.Flags().IntVar(&historyLimit, "limit", store.DefaultListLimit, "Maximum number of recaps to list")
	historyShowCmd.Flags().StringVar(&userFlag, "user", "", "User the recap belongs to")
	historyDeleteCmd.Flags().StringVar(&userFlag, "user", "", "User the recap belongs to")
}

// openCLI loads config and wires the service with a logger that only
// reports warnings, so command output stays readable.
func openCLI() (*app, *zap.Logger, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logCfg := cfg.Log
	if logCfg.File == "" {
		logCfg = config.LogConfig{Level: "warn"}
	}
	log, _, err := logging.New(logCfg)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	a, log, err := openCLI()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	res, err := a.svc.Generate(cmd.Context(), currentUser(), text)
	switch {
	case errors.Is(err, recap.ErrInputTooShort):
		return fmt.Errorf("text is too short (minimum %d characters)", a.cfg.Input.MinChars)
	case errors.Is(err, quota.ErrQuotaExceeded):
		u, uerr := a.svc.Usage(cmd.Context(), currentUser())
		if uerr != nil {
			return err
		}
		return fmt.Errorf("daily limit reached: %d of %d used, resets on %s", u.Used, u.Limit, u.ResetsOn)
	case err != nil:
		return fmt.Errorf("generate recap: %w", err)
	}

	out := cmd.OutOrStdout()
	if generateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Report)
	}
	fmt.Fprint(out, render.RecapNote(render.NoteData{
		ID:        res.RecapID,
		Model:     a.cfg.Model.Model,
		Remaining: res.Remaining,
		Report:    res.Report,
	}))
	return nil
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read notes: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func runUsage(cmd *cobra.Command, _ []string) error {
	a, log, err := openCLI()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	u, err := a.svc.Usage(cmd.Context(), currentUser())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d used today, %d remaining (resets %s)\n",
		currentUser(), u.Used, u.Limit, u.Remaining, u.ResetsOn)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, log, err := openCLI()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	list, err := a.svc.History(cmd.Context(), currentUser(), historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "no recaps yet")
		return nil
	}
	for _, r := range list {
		fmt.Fprintln(out, render.HistoryLine(r.ID, r.CreatedAt, r.ExecutiveSummary))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, log, err := openCLI()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	r, err := a.svc.Get(cmd.Context(), currentUser(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), render.RecapNote(render.NoteData{
		ID:        r.ID,
		Model:     r.Model,
		CreatedAt: r.CreatedAt,
		Remaining: -1,
		Report:    r.StructuredReport,
	}))
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	a, log, err := openCLI()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer a.Close()

	if err := a.svc.Delete(cmd.Context(), currentUser(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}
