package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/channel/registry"
	"github.com/94faddy/line-oa-bot/internal/modules/event/domain"
	replyService "github.com/94faddy/line-oa-bot/internal/modules/reply/service"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	"github.com/94faddy/line-oa-bot/internal/modules/rule/matcher"
	settingsDomain "github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	"github.com/94faddy/line-oa-bot/internal/transport/line"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentEvents = 16

const (
	eventTypeFollow  = "follow"
	eventTypeMessage = "message"
	messageTypeText  = "text"
)

// SettingsReader exposes the live settings document.
type SettingsReader interface {
	Current() *settingsDomain.Document
}

// Cooldowns gates repeated rule fires per user.
type Cooldowns interface {
	TryFire(userID string, rule ruleDomain.ActivityRule) (bool, time.Duration)
}

// Service resolves authenticated webhook events into replies.
type Service struct {
	settings  SettingsReader
	cooldowns Cooldowns
	composer  *replyService.Composer
}

func New(settings SettingsReader, cooldowns Cooldowns, composer *replyService.Composer) *Service {
	return &Service{
		settings:  settings,
		cooldowns: cooldowns,
		composer:  composer,
	}
}

// HandleWebhook processes every event concurrently and waits for all of
// them. A failing event never affects the others.
func (s *Service) HandleWebhook(ctx context.Context, entry *registry.Entry, events []line.Event) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(events))

	var g errgroup.Group
	g.SetLimit(maxConcurrentEvents)
	for i, event := range events {
		g.Go(func() error {
			outcomes[i] = s.HandleEvent(ctx, entry, event)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// HandleEvent resolves a single event.
func (s *Service) HandleEvent(ctx context.Context, entry *registry.Entry, event line.Event) (outcome domain.Outcome) {
	logger := slog.With("channel_id", entry.Channel.ID, "user_id", event.Source.UserID, "event_type", event.Type)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling event", "panic", fmt.Sprint(r))
			outcome = domain.OutcomeFailed
		}
	}()

	if event.ReplyToken == "" {
		return domain.OutcomeIgnored
	}

	switch event.Type {
	case eventTypeFollow:
		return s.handleFollow(ctx, logger, entry, event)
	case eventTypeMessage:
		if event.Message == nil || event.Message.Type != messageTypeText {
			return domain.OutcomeIgnored
		}
		return s.handleText(ctx, logger, entry, event)
	default:
		return domain.OutcomeIgnored
	}
}

func (s *Service) handleFollow(ctx context.Context, logger *slog.Logger, entry *registry.Entry, event line.Event) domain.Outcome {
	doc := s.settings.Current()
	if !doc.Welcome.Enabled || !doc.Welcome.ShowOnFollow || !entry.Channel.Features.Welcome {
		return domain.OutcomeIgnored
	}

	return s.respond(ctx, logger, entry, event.ReplyToken, domain.OutcomeWelcomed, func() []line.Message {
		msg := s.composer.Welcome(doc.Welcome, entry.Channel.ID)
		if msg == nil {
			logger.Info("No welcome box available")
			return nil
		}
		return []line.Message{*msg}
	})
}

// handleText walks the priority chain: promotion, activity rules, rich card,
// quick reply menu. The first branch that applies answers the event.
func (s *Service) handleText(ctx context.Context, logger *slog.Logger, entry *registry.Entry, event line.Event) domain.Outcome {
	doc := s.settings.Current()
	ch := entry.Channel
	text := event.Message.Text
	userID := event.Source.UserID

	if ch.Features.Promotions && doc.Promotions.Enabled && matcher.ContainsKeyword(text, doc.Promotions.Keywords) {
		return s.respond(ctx, logger, entry, event.ReplyToken, domain.OutcomePromotion, func() []line.Message {
			if msg := s.composer.Promotion(doc.Promotions); msg != nil {
				return []line.Message{*msg}
			}
			return []line.Message{line.NewTextMessage(replyService.NoPromotionText)}
		})
	}

	if ch.Features.Activities {
		if rules := matcher.Match(text, ch.ID, doc.Activities); len(rules) > 0 {
			return s.respond(ctx, logger, entry, event.ReplyToken, domain.OutcomeActivity, func() []line.Message {
				return s.activityMessages(logger, userID, rules)
			})
		}
	}

	if ch.Features.RichCards && doc.RichCards.Enabled && matcher.ContainsKeyword(text, doc.RichCards.Keywords) {
		return s.respond(ctx, logger, entry, event.ReplyToken, domain.OutcomeRichCard, func() []line.Message {
			msg := s.composer.RandomCard(doc.RichCards)
			if msg == nil {
				return []line.Message{line.NewTextMessage(replyService.NoRichCardText)}
			}
			messages := []line.Message{*msg}
			if doc.RichCards.SendWithQuickReply {
				if menu := s.composer.QuickReplyMenu(doc.QuickReply); menu != nil {
					messages = append(messages, *menu)
				}
			}
			return messages
		})
	}

	if ch.Features.RichCards && matcher.ContainsKeyword(text, doc.QuickReply.Keywords) {
		return s.respond(ctx, logger, entry, event.ReplyToken, domain.OutcomeQuickReply, func() []line.Message {
			if menu := s.composer.QuickReplyMenu(doc.QuickReply); menu != nil {
				return []line.Message{*menu}
			}
			return []line.Message{line.NewTextMessage(replyService.QuickReplyDisabledText)}
		})
	}

	return domain.OutcomeUnmatched
}

func (s *Service) activityMessages(logger *slog.Logger, userID string, rules []ruleDomain.ActivityRule) []line.Message {
	var messages []line.Message
	for _, rule := range rules {
		ok, left := s.cooldowns.TryFire(userID, rule)
		if !ok {
			logger.Info("Activity on cooldown", "rule_id", rule.ID, "remaining", left)
			messages = append(messages, line.NewTextMessage(s.composer.ComposeCooldownMessage(rule.CooldownMessage, left)))
			continue
		}
		logger.Info("Activity fired", "rule_id", rule.ID, "rule_name", rule.Name)
		messages = append(messages, s.composer.Compose(rule)...)
	}

	if len(messages) > replyService.MaxMessagesPerReply {
		logger.Warn("Reply truncated", "messages", len(messages), "limit", replyService.MaxMessagesPerReply)
		messages = messages[:replyService.MaxMessagesPerReply]
	}
	return messages
}

// respond builds and sends one reply. A panic while building or a failed
// send is answered with an apology when the reply token may still be valid.
func (s *Service) respond(ctx context.Context, logger *slog.Logger, entry *registry.Entry, replyToken string, outcome domain.Outcome, build func() []line.Message) domain.Outcome {
	messages, err := safeBuild(build)
	if err != nil {
		logger.Error("Failed to compose reply", "outcome", outcome, "error", err)
		s.apologize(ctx, logger, entry, replyToken)
		return domain.OutcomeFailed
	}
	if len(messages) == 0 {
		return domain.OutcomeIgnored
	}

	if err := entry.API.Reply(ctx, replyToken, messages); err != nil {
		logger.Error("Failed to send reply", "outcome", outcome, "messages", len(messages), "error", err)
		s.apologize(ctx, logger, entry, replyToken)
		return domain.OutcomeFailed
	}
	return outcome
}

func (s *Service) apologize(ctx context.Context, logger *slog.Logger, entry *registry.Entry, replyToken string) {
	if ctx.Err() != nil {
		return
	}
	if err := entry.API.Reply(ctx, replyToken, []line.Message{line.NewTextMessage(replyService.ErrorText)}); err != nil {
		logger.Warn("Failed to send apology", "error", err)
	}
}

func safeBuild(build func() []line.Message) (messages []line.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.Errorf("compose panic: %v", r)
		}
	}()
	return build(), nil
}
