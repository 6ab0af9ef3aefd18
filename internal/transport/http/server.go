package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	broadcastService "github.com/94faddy/line-oa-bot/internal/modules/broadcast/service"
	"github.com/94faddy/line-oa-bot/internal/modules/channel/registry"
	channelService "github.com/94faddy/line-oa-bot/internal/modules/channel/service"
	"github.com/94faddy/line-oa-bot/internal/modules/cooldown/ledger"
	eventService "github.com/94faddy/line-oa-bot/internal/modules/event/service"
	healthService "github.com/94faddy/line-oa-bot/internal/modules/health/service"
	replyService "github.com/94faddy/line-oa-bot/internal/modules/reply/service"
	ruleService "github.com/94faddy/line-oa-bot/internal/modules/rule/service"
	"github.com/94faddy/line-oa-bot/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
)

// Deps are the services the HTTP layer exposes.
type Deps struct {
	Registry   *registry.Registry
	Events     *eventService.Service
	Channels   *channelService.Service
	Rules      *ruleService.Service
	Content    *replyService.ContentService
	Cooldowns  *ledger.Ledger
	Broadcasts *broadcastService.Scheduler
	Health     *healthService.Service
}

// Server serves the webhook, the admin API and the health endpoint.
type Server struct {
	cfg        *config.Config
	registry   *registry.Registry
	events     *eventService.Service
	channels   *channelService.Service
	rules      *ruleService.Service
	content    *replyService.ContentService
	cooldowns  *ledger.Ledger
	broadcasts *broadcastService.Scheduler
	health     *healthService.Service
	logger     *slog.Logger
	server     *http.Server
}

func New(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:        cfg,
		registry:   deps.Registry,
		events:     deps.Events,
		channels:   deps.Channels,
		rules:      deps.Rules,
		content:    deps.Content,
		cooldowns:  deps.Cooldowns,
		broadcasts: deps.Broadcasts,
		health:     deps.Health,
		logger:     slog.Default(),
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler builds the full route table wrapped in logging and recovery.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("GET /api/channels", s.handleListChannels)
	api.HandleFunc("POST /api/channels", s.handleAddChannel)
	api.HandleFunc("PUT /api/channels/{id}", s.handleUpdateChannel)
	api.HandleFunc("DELETE /api/channels/{id}", s.handleDeleteChannel)
	api.HandleFunc("POST /api/channels/{id}/toggle", s.handleToggleChannel)
	api.HandleFunc("PUT /api/channels/{id}/features/{feature}", s.handleSetFeature)
	api.HandleFunc("GET /api/channels/{id}/followers/count", s.handleFollowerCount)

	api.HandleFunc("GET /api/activities", s.handleListRules)
	api.HandleFunc("POST /api/activities", s.handleCreateRule)
	api.HandleFunc("PUT /api/activities/{id}", s.handleUpdateRule)
	api.HandleFunc("DELETE /api/activities/{id}", s.handleDeleteRule)
	api.HandleFunc("POST /api/activities/{id}/toggle", s.handleToggleRule)
	api.HandleFunc("POST /api/activities/{id}/clear-cooldowns", s.handleClearRuleCooldowns)

	api.HandleFunc("GET /api/cooldowns", s.handleListCooldowns)
	api.HandleFunc("DELETE /api/cooldowns", s.handleClearCooldowns)

	api.HandleFunc("GET /api/promotions", s.handleGetPromotions)
	api.HandleFunc("PUT /api/promotions", s.handlePutPromotions)
	api.HandleFunc("GET /api/rich-cards", s.handleGetRichCards)
	api.HandleFunc("PUT /api/rich-cards", s.handlePutRichCards)
	api.HandleFunc("GET /api/quick-reply", s.handleGetQuickReply)
	api.HandleFunc("PUT /api/quick-reply", s.handlePutQuickReply)
	api.HandleFunc("GET /api/welcome", s.handleGetWelcome)
	api.HandleFunc("PUT /api/welcome", s.handlePutWelcome)

	api.HandleFunc("POST /api/broadcasts", s.handleSubmitBroadcast)
	api.HandleFunc("GET /api/broadcasts", s.handleBroadcastHistory)
	api.HandleFunc("GET /api/broadcasts/feed", s.handleBroadcastFeed)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/api/", s.requireAdmin(api))

	handler := sloghttp.Recovery(mux)
	handler = sloghttp.New(s.logger)(handler)
	return handler
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.server.Addr)
	s.server.Handler = s.Handler()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.health.Snapshot(r.Context()))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
