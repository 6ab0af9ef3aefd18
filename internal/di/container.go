package di

import (
	"context"
	"errors"
	"log/slog"

	broadcastRepo "github.com/94faddy/line-oa-bot/internal/modules/broadcast/repository"
	broadcastService "github.com/94faddy/line-oa-bot/internal/modules/broadcast/service"
	"github.com/94faddy/line-oa-bot/internal/modules/channel/registry"
	channelService "github.com/94faddy/line-oa-bot/internal/modules/channel/service"
	"github.com/94faddy/line-oa-bot/internal/modules/cooldown/ledger"
	eventService "github.com/94faddy/line-oa-bot/internal/modules/event/service"
	healthService "github.com/94faddy/line-oa-bot/internal/modules/health/service"
	replyService "github.com/94faddy/line-oa-bot/internal/modules/reply/service"
	ruleService "github.com/94faddy/line-oa-bot/internal/modules/rule/service"
	settingsDomain "github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	settingsRepo "github.com/94faddy/line-oa-bot/internal/modules/settings/repository"
	settingsService "github.com/94faddy/line-oa-bot/internal/modules/settings/service"
	"github.com/94faddy/line-oa-bot/internal/shared/config"
	httpServer "github.com/94faddy/line-oa-bot/internal/transport/http"
	"github.com/94faddy/line-oa-bot/internal/transport/line"
	telegramHandler "github.com/94faddy/line-oa-bot/internal/transport/telegram"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Setup initializes the dependency injection container
func Setup() (do.Injector, error) {
	injector := do.New()

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		return cfg, nil
	})

	// Register Settings Storage
	do.Provide(injector, func(i do.Injector) (*settingsRepo.FileStorage, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo, err := settingsRepo.NewFileStorage(cfg.SettingsFile)
		if err != nil {
			return nil, oops.With("settings_file", cfg.SettingsFile, "context", "failed to initialize settings storage").Wrap(err)
		}
		return repo, nil
	})

	// Register Settings Service
	do.Provide(injector, func(i do.Injector) (*settingsService.Service, error) {
		repo := do.MustInvoke[*settingsRepo.FileStorage](i)
		svc, err := settingsService.New(repo)
		if err != nil {
			return nil, oops.With("context", "failed to load settings").Wrap(err)
		}
		return svc, nil
	})

	// Register Channel Registry, kept in step with every published document
	do.Provide(injector, func(i do.Injector) (*registry.Registry, error) {
		cfg := do.MustInvoke[*config.Config](i)
		settings := do.MustInvoke[*settingsService.Service](i)

		reg := registry.New(line.NewFactory(line.Options{
			BaseURL: cfg.LineAPIURL,
			Timeout: cfg.LineTimeout(),
			Rate:    cfg.LineAPIRate,
		}))
		settings.Subscribe(func(doc *settingsDomain.Document) {
			reg.Replace(doc.Channels)
			slog.Info("Channel registry refreshed", "channels", reg.Len())
		})
		return reg, nil
	})

	// Register Cooldown Ledger
	do.Provide(injector, func(i do.Injector) (*ledger.Ledger, error) {
		return ledger.New(), nil
	})

	// Register Reply Composer
	do.Provide(injector, func(i do.Injector) (*replyService.Composer, error) {
		return replyService.New(), nil
	})

	// Register Content Service
	do.Provide(injector, func(i do.Injector) (*replyService.ContentService, error) {
		settings := do.MustInvoke[*settingsService.Service](i)
		return replyService.NewContentService(settings), nil
	})

	// Register Channel Service
	do.Provide(injector, func(i do.Injector) (*channelService.Service, error) {
		settings := do.MustInvoke[*settingsService.Service](i)
		return channelService.New(settings), nil
	})

	// Register Rule Service
	do.Provide(injector, func(i do.Injector) (*ruleService.Service, error) {
		settings := do.MustInvoke[*settingsService.Service](i)
		cooldowns := do.MustInvoke[*ledger.Ledger](i)
		return ruleService.New(settings, cooldowns), nil
	})

	// Register Event Service
	do.Provide(injector, func(i do.Injector) (*eventService.Service, error) {
		settings := do.MustInvoke[*settingsService.Service](i)
		cooldowns := do.MustInvoke[*ledger.Ledger](i)
		composer := do.MustInvoke[*replyService.Composer](i)
		return eventService.New(settings, cooldowns, composer), nil
	})

	// Register Dispatch History
	do.Provide(injector, func(i do.Injector) (broadcastRepo.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.HistoryDriver != config.HistoryDriverSqlite {
			return broadcastRepo.NewMemory(), nil
		}
		repo, err := broadcastRepo.NewSQLite(cfg.HistoryDBPath)
		if err != nil {
			return nil, oops.With("history_db_path", cfg.HistoryDBPath, "context", "failed to initialize dispatch history").Wrap(err)
		}
		return repo, nil
	})

	// Register Bulk Scheduler
	do.Provide(injector, func(i do.Injector) (*broadcastService.Scheduler, error) {
		reg := do.MustInvoke[*registry.Registry](i)
		repo := do.MustInvoke[broadcastRepo.Repository](i)
		return broadcastService.New(reg, repo, nil), nil
	})

	// Register Health Service
	do.Provide(injector, func(i do.Injector) (*healthService.Service, error) {
		reg := do.MustInvoke[*registry.Registry](i)
		cooldowns := do.MustInvoke[*ledger.Ledger](i)
		scheduler := do.MustInvoke[*broadcastService.Scheduler](i)
		return healthService.New(reg, cooldowns, scheduler), nil
	})

	// Register Telegram Handler (also becomes the scheduler's failure notifier)
	do.Provide(injector, func(i do.Injector) (*telegramHandler.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		scheduler := do.MustInvoke[*broadcastService.Scheduler](i)
		health := do.MustInvoke[*healthService.Service](i)

		handler, err := telegramHandler.New(cfg, scheduler, health)
		if err != nil {
			return nil, err
		}
		scheduler.SetNotifier(handler)
		return handler, nil
	})

	// Register HTTP Server
	do.Provide(injector, func(i do.Injector) (*httpServer.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		server := httpServer.New(cfg, httpServer.Deps{
			Registry:   do.MustInvoke[*registry.Registry](i),
			Events:     do.MustInvoke[*eventService.Service](i),
			Channels:   do.MustInvoke[*channelService.Service](i),
			Rules:      do.MustInvoke[*ruleService.Service](i),
			Content:    do.MustInvoke[*replyService.ContentService](i),
			Cooldowns:  do.MustInvoke[*ledger.Ledger](i),
			Broadcasts: do.MustInvoke[*broadcastService.Scheduler](i),
			Health:     do.MustInvoke[*healthService.Service](i),
		})
		server.SetLogger(slog.Default())
		return server, nil
	})

	return injector, nil
}

// Shutdown gracefully shuts down all services
func Shutdown(ctx context.Context, injector do.Injector) error {
	var errs []error

	// Stop accepting requests before the services behind them go away
	if server, err := do.Invoke[*httpServer.Server](injector); err == nil && server != nil {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, oops.With("context", "http server shutdown").Wrap(err))
		}
	}

	if scheduler, err := do.Invoke[*broadcastService.Scheduler](injector); err == nil && scheduler != nil {
		scheduler.Stop()
	}

	if settings, err := do.Invoke[*settingsService.Service](injector); err == nil && settings != nil {
		settings.Stop()
	}

	if repo, err := do.Invoke[broadcastRepo.Repository](injector); err == nil && repo != nil {
		if err := repo.Close(); err != nil {
			errs = append(errs, oops.With("context", "dispatch history close").Wrap(err))
		}
	}

	return errors.Join(errs...)
}
