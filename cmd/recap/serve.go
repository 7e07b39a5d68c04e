package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/suykerbuyk/recap/internal/config"
	"github.com/suykerbuyk/recap/internal/logging"
	"github.com/suykerbuyk/recap/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:  "serve",
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: listen_addr from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}

	log, level, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	auth, err := server.NewAuthenticator(cfg.Auth)
	if err != nil {
		return err
	}
	if cfg.Model.APIKey() == "" {
		log.Warn("model API key not set; generations will fail", zap.String("env", cfg.Model.APIKeyEnv))
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := cfg.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	srv := server.New(a.svc, auth, log)
	g.Go(func() error { return srv.Run(ctx, addr) })

	if path != "" {
		g.Go(func() error {
			return config.Watch(ctx, path, func(next config.Config) {
				applyReload(log, level, a, next)
			}, func(err error) {
				log.Warn("config reload rejected", zap.Error(err))
			})
		})
	}

	return g.Wait()
}

// applyReload applies the settings that can change while serving.
func applyReload(log *zap.Logger, level zap.AtomicLevel, a *app, next config.Config) {
	if n := next.Quota.DailyAllotment; n != a.tracker.Allotment() {
		a.tracker.SetAllotment(n)
		log.Info("daily allotment changed", zap.Int("allotment", n))
	}
	if err := logging.SetLevel(level, next.Log.Level); err != nil {
		log.Warn("log level unchanged", zap.Error(err))
	}
}
