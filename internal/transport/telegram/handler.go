package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	broadcastDomain "github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	healthService "github.com/94faddy/line-oa-bot/internal/modules/health/service"
	"github.com/94faddy/line-oa-bot/internal/shared/config"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/samber/oops"
)

const historyLimit = 5

type HistoryReader interface {
	History(ctx context.Context, limit int) ([]*broadcastDomain.Record, error)
}

type StatusReader interface {
	Snapshot(ctx context.Context) healthService.Snapshot
}

// Handler sends operator alerts to one Telegram chat and answers status
// commands from that chat only.
type Handler struct {
	bot     *bot.Bot
	chatID  int64
	history HistoryReader
	status  StatusReader
}

func New(cfg *config.Config, history HistoryReader, status StatusReader) (*Handler, error) {
	h := &Handler{
		chatID:  cfg.TelegramChatID,
		history: history,
		status:  status,
	}

	b, err := bot.New(cfg.TelegramBotToken,
		bot.WithSkipGetMe(),
		bot.WithServerURL(cfg.TelegramAPIURL),
		bot.WithDefaultHandler(func(context.Context, *bot.Bot, *models.Update) {}),
	)
	if err != nil {
		return nil, oops.With("context", "failed to create telegram bot").Wrap(err)
	}
	h.bot = b
	h.registerCommands()

	return h, nil
}

func (h *Handler) registerCommands() {
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, h.handleStatus)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypeExact, h.handleHistory)
}

// Start polls for commands until ctx is done.
func (h *Handler) Start(ctx context.Context) {
	slog.Info("Telegram operator bot started", "chat_id", h.chatID)
	h.bot.Start(ctx)
}

// DispatchFailed alerts the operator chat about a failed bulk send.
func (h *Handler) DispatchFailed(ctx context.Context, record *broadcastDomain.Record) {
	icon := "❌"
	if record.QuotaExceeded {
		icon = "📉"
	}
	text := fmt.Sprintf("%s %s to %s failed\n\n%s\nRecord: %s",
		icon, strings.ToUpper(record.TargetMode.String()), record.ChannelName, record.Error, record.ID)

	if _, err := h.bot.SendMessage(ctx, &bot.SendMessageParams{ChatID: h.chatID, Text: text}); err != nil {
		slog.Error("Failed to send telegram alert", "record_id", record.ID, "error", err)
	}
}

func (h *Handler) authorized(ctx context.Context, b *bot.Bot, update *models.Update) bool {
	if update.Message == nil {
		return false
	}
	if update.Message.Chat.ID != h.chatID {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ Unauthorized",
		})
		return false
	}
	return true
}

func (h *Handler) handleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.authorized(ctx, b, update) {
		return
	}

	snap := h.status.Snapshot(ctx)
	text := fmt.Sprintf(`📊 Bot Status: %s

Channels: %d (Enabled: %d)
Active cooldowns: %d
Scheduled sends: %d
Up since: %s`,
		snap.Status, snap.Channels, snap.EnabledChannels, snap.ActiveCooldowns, snap.ScheduledSends,
		snap.StartedAt.Format("2006-01-02 15:04:05"))

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text,
	})
}

func (h *Handler) handleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if !h.authorized(ctx, b, update) {
		return
	}

	records, err := h.history.History(ctx, historyLimit)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   fmt.Sprintf("❌ Failed to load history: %v", err),
		})
		return
	}
	if len(records) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "📭 No bulk sends yet.",
		})
		return
	}

	var text strings.Builder
	text.WriteString("📋 Recent bulk sends:\n\n")
	for i, r := range records {
		text.WriteString(fmt.Sprintf("%s %d. %s → %s (%d messages)\n   %s\n",
			statusIcon(r.Status), i+1, r.TargetMode, r.ChannelName, r.MessageCount, r.CreatedAt.Format("2006-01-02 15:04")))
		if r.Error != "" {
			text.WriteString("   " + r.Error + "\n")
		}
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   text.String(),
	})
}

func statusIcon(s broadcastDomain.Status) string {
	switch s {
	case broadcastDomain.StatusSuccess:
		return "✅"
	case broadcastDomain.StatusScheduled:
		return "⏰"
	default:
		return "❌"
	}
}
