package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/94faddy/line-oa-bot/internal/di"
	broadcastService "github.com/94faddy/line-oa-bot/internal/modules/broadcast/service"
	settingsService "github.com/94faddy/line-oa-bot/internal/modules/settings/service"
	"github.com/94faddy/line-oa-bot/internal/shared/config"
	httpServer "github.com/94faddy/line-oa-bot/internal/transport/http"
	telegramHandler "github.com/94faddy/line-oa-bot/internal/transport/telegram"
	"github.com/joho/godotenv"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "line-oa-bot",
	Short: "Multi-channel LINE Official Account webhook dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(hashPasswordCmd())
	rootCmd.AddCommand(signCmd())
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook, admin API and bulk scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger() {
	// Setup structured logging with multiple handlers using slog-multi
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	logger := slog.New(slogmulti.Fanout(textHandler, jsonHandler))
	slog.SetDefault(logger)
}

func runServer() error {
	setupLogger()

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		return err
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return err
	}
	settings, err := do.Invoke[*settingsService.Service](injector)
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		return err
	}
	scheduler := do.MustInvoke[*broadcastService.Scheduler](injector)
	server := do.MustInvoke[*httpServer.Server](injector)

	var alerts *telegramHandler.Handler
	if cfg.AlertsEnabled() {
		// Resolving the handler registers it as the scheduler's notifier
		if alerts, err = do.Invoke[*telegramHandler.Handler](injector); err != nil {
			slog.Error("Failed to setup telegram alerts", "error", err)
			return err
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.WatchSettings {
		settings.Start(ctx)
	}
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("Failed to restore scheduled sends", "error", err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	if alerts != nil {
		g.Go(func() error {
			alerts.Start(gctx)
			return nil
		})
	}

	slog.Info("Application started", "port", cfg.HTTPPort, "history", cfg.HistoryDriver, "alerts", alerts != nil)
	slog.Info("Press Ctrl+C to stop")

	<-gctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := di.Shutdown(shutdownCtx, injector); err != nil {
		slog.Error("Error during shutdown", "error", err)
	}

	cancel()
	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		return err
	}
	return nil
}
