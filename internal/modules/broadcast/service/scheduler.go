package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	"github.com/94faddy/line-oa-bot/internal/modules/broadcast/repository"
	"github.com/94faddy/line-oa-bot/internal/modules/channel/registry"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	apperrors "github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/94faddy/line-oa-bot/internal/transport/line"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const (
	reasonCancelled = "ยกเลิกการส่งแล้ว"
	persistTimeout  = 5 * time.Second
)

var quotaVocabulary = []string{"quota", "monthly limit", "limit exceeded", "too many requests"}

// ChannelLookup resolves a channel id to its entry and API client.
type ChannelLookup interface {
	Lookup(channelID string) (*registry.Entry, bool)
}

// Notifier is told about every record that resolves to failed.
type Notifier interface {
	DispatchFailed(ctx context.Context, record *domain.Record)
}

type timer interface {
	Stop() bool
}

// Scheduler sends bulk messages now or arms a one-shot timer per record.
type Scheduler struct {
	channels ChannelLookup
	repo     repository.Repository
	notifier Notifier

	now       func() time.Time
	afterFunc func(d time.Duration, f func()) timer

	mu     sync.Mutex
	timers map[string]timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. notifier may be nil.
func New(channels ChannelLookup, repo repository.Repository, notifier Notifier) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		channels: channels,
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		timers: make(map[string]timer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetNotifier replaces the failure notifier.
func (s *Scheduler) SetNotifier(notifier Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = notifier
}

// Submit validates req and either sends it now or schedules it. Validation
// errors are returned before any network call. A send that fails is still
// recorded and returned with status failed.
func (s *Scheduler) Submit(ctx context.Context, req domain.Request) (*domain.Record, error) {
	entry, ok := s.channels.Lookup(req.ChannelID)
	if !ok {
		return nil, oops.With("channel_id", req.ChannelID).Wrap(apperrors.ErrChannelNotFound)
	}
	if !entry.Channel.Enabled {
		return nil, oops.With("channel_id", req.ChannelID).Wrap(apperrors.ErrChannelDisabled)
	}

	mode := req.TargetMode
	if mode == "" {
		mode = domain.TargetModeBroadcast
	}
	if !mode.IsValid() {
		return nil, oops.With("target_mode", req.TargetMode).Wrap(apperrors.ErrInvalidContent)
	}

	messages, err := BuildMessages(req.Blocks)
	if err != nil {
		return nil, err
	}

	if req.EstimatedRecipients < 0 {
		return nil, oops.With("estimated_recipients", req.EstimatedRecipients).Wrap(apperrors.ErrInvalidContent)
	}
	if mode == domain.TargetModeMulticast && req.EstimatedRecipients > domain.MaxMulticastRecipients {
		return nil, oops.
			With("estimated_recipients", req.EstimatedRecipients, "limit", domain.MaxMulticastRecipients).
			Wrap(apperrors.ErrMulticastCapacity)
	}

	now := s.now()
	record := &domain.Record{
		ID:           uuid.NewString(),
		ChannelID:    entry.Channel.ID,
		ChannelName:  entry.Channel.Name,
		TargetMode:   mode,
		TargetCount:  req.EstimatedRecipients,
		MessageCount: len(messages),
		Blocks:       req.Blocks,
		CreatedAt:    now,
	}

	if req.ScheduledFor != nil && req.ScheduledFor.After(now) {
		at := *req.ScheduledFor
		record.ScheduledFor = &at
		record.Status = domain.StatusScheduled
		if err := s.repo.Create(ctx, record); err != nil {
			return nil, err
		}
		s.arm(record.ID, at.Sub(now))
		slog.Info("Bulk send scheduled", "record_id", record.ID, "channel_id", record.ChannelID, "scheduled_for", at)
		return record, nil
	}

	s.send(ctx, entry, record, messages)
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	if record.Status == domain.StatusFailed {
		s.notifyFailed(ctx, record)
	}
	return record, nil
}

// History returns records newest first. A limit of zero returns all.
func (s *Scheduler) History(ctx context.Context, limit int) ([]*domain.Record, error) {
	return s.repo.List(ctx, limit)
}

// PendingCount is the number of records waiting for their timer.
func (s *Scheduler) PendingCount(ctx context.Context) (int, error) {
	pending, err := s.repo.Pending(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// FollowerCount pages through the channel's followers. supported is false
// when the channel's plan does not expose the follower list.
func (s *Scheduler) FollowerCount(ctx context.Context, channelID string) (count int, supported bool, err error) {
	entry, ok := s.channels.Lookup(channelID)
	if !ok {
		return 0, false, oops.With("channel_id", channelID).Wrap(apperrors.ErrChannelNotFound)
	}
	if !entry.Channel.Enabled {
		return 0, false, oops.With("channel_id", channelID).Wrap(apperrors.ErrChannelDisabled)
	}

	ids, err := resolveRecipients(ctx, entry.API, 0)
	switch {
	case errors.Is(err, apperrors.ErrFollowersUnsupported):
		return 0, false, nil
	case errors.Is(err, apperrors.ErrNoRecipients):
		return 0, true, nil
	case err != nil:
		return 0, false, err
	}
	return len(ids), true, nil
}

// Start re-arms every record still waiting for its timer. Records already
// due fire immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	pending, err := s.repo.Pending(ctx)
	if err != nil {
		return oops.With("context", "failed to load pending dispatches").Wrap(err)
	}

	now := s.now()
	for _, record := range pending {
		delay := time.Duration(0)
		if record.ScheduledFor != nil {
			delay = max(record.ScheduledFor.Sub(now), 0)
		}
		s.arm(record.ID, delay)
	}
	if len(pending) > 0 {
		slog.Info("Re-armed scheduled bulk sends", "count", len(pending))
	}
	return nil
}

// Stop cancels pending timers and waits for sends already running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// Cancel disarms a scheduled record and resolves it as failed. It returns
// false when the timer already fired or the record is unknown.
func (s *Scheduler) Cancel(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	t, ok := s.timers[id]
	if !ok || !t.Stop() {
		s.mu.Unlock()
		return false, nil
	}
	delete(s.timers, id)
	s.mu.Unlock()

	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	record.Status = domain.StatusFailed
	record.Error = reasonCancelled
	return true, s.repo.Update(ctx, record)
}

func (s *Scheduler) arm(id string, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[id] = s.afterFunc(delay, func() { s.fire(id) })
}

// fire resolves a scheduled record. Removing the timer entry under the lock
// makes a second call a no-op.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	if _, ok := s.timers[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	logger := slog.With("record_id", id)

	// A record not yet read when Stop cancels stays scheduled and is re-armed
	// on the next Start.
	record, err := s.repo.Get(s.ctx, id)
	if err != nil {
		logger.Error("Scheduled record vanished", "error", err)
		return
	}
	if !record.Pending() {
		return
	}

	// Once the send has begun it runs to completion and its result is stored,
	// even if Stop is called meanwhile.
	ctx := context.WithoutCancel(s.ctx)
	s.execute(ctx, record)

	storeCtx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	if err := s.repo.Update(storeCtx, record); err != nil {
		logger.Error("Failed to store scheduled result", "error", err)
	}
	logger.Info("Scheduled bulk send resolved", "status", record.Status, "error", record.Error)
	if record.Status == domain.StatusFailed {
		s.notifyFailed(ctx, record)
	}
}

// execute runs a scheduled send. Whatever happens, record leaves the
// scheduled state.
func (s *Scheduler) execute(ctx context.Context, record *domain.Record) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(record, oops.Errorf("scheduled send panic: %v", r))
		}
	}()

	entry, ok := s.channels.Lookup(record.ChannelID)
	if !ok {
		s.fail(record, oops.With("channel_id", record.ChannelID).Wrap(apperrors.ErrChannelNotFound))
		return
	}
	if !entry.Channel.Enabled {
		s.fail(record, oops.With("channel_id", record.ChannelID).Wrap(apperrors.ErrChannelDisabled))
		return
	}

	messages, err := BuildMessages(record.Blocks)
	if err != nil {
		s.fail(record, err)
		return
	}
	s.send(ctx, entry, record, messages)
}

func (s *Scheduler) send(ctx context.Context, entry *registry.Entry, record *domain.Record, messages []line.Message) {
	logger := slog.With("record_id", record.ID, "channel_id", record.ChannelID, "target_mode", record.TargetMode)

	var err error
	switch record.TargetMode {
	case domain.TargetModeMulticast:
		limit := lo.Ternary(record.TargetCount > 0, record.TargetCount, domain.MaxMulticastRecipients)
		var ids []string
		ids, err = resolveRecipients(ctx, entry.API, limit)
		if err == nil {
			record.TargetCount = len(ids)
			err = entry.API.Multicast(ctx, ids, messages)
		}
	default:
		err = entry.API.Broadcast(ctx, messages)
	}

	if err != nil {
		logger.Warn("Bulk send failed", "error", err)
		s.fail(record, err)
		return
	}

	sent := s.now()
	record.Status = domain.StatusSuccess
	record.SentAt = &sent
	record.Error = ""
	logger.Info("Bulk send delivered", "recipients", record.TargetCount, "messages", record.MessageCount)
}

func (s *Scheduler) fail(record *domain.Record, err error) {
	sent := s.now()
	record.Status = domain.StatusFailed
	record.SentAt = &sent
	record.Error, record.QuotaExceeded = ClassifyFailure(err)
}

func (s *Scheduler) notifyFailed(ctx context.Context, record *domain.Record) {
	s.mu.Lock()
	notifier := s.notifier
	s.mu.Unlock()
	if notifier == nil {
		return
	}
	notifier.DispatchFailed(ctx, record)
}

// ClassifyFailure turns a send error into the reason stored on a record.
// Quota and limit errors share one operator-facing reason.
func ClassifyFailure(err error) (reason string, quota bool) {
	if err == nil {
		return "", false
	}

	text := strings.ToLower(err.Error())
	if lo.SomeBy(quotaVocabulary, func(word string) bool { return strings.Contains(text, word) }) {
		return domain.ReasonQuotaExceeded, true
	}

	switch {
	case errors.Is(err, apperrors.ErrFollowersUnsupported):
		return domain.ReasonFollowersUnsupported, false
	case errors.Is(err, apperrors.ErrNoRecipients):
		return domain.ReasonNoFollowers, false
	}

	var apiErr *line.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, false
	}
	return err.Error(), false
}

// BuildMessages decodes bulk content strictly: every block must be valid and
// at most one request's worth of messages is accepted.
func BuildMessages(blocks []ruleDomain.ContentBlock) ([]line.Message, error) {
	if len(blocks) == 0 {
		return nil, oops.With("context", "no content blocks").Wrap(apperrors.ErrInvalidContent)
	}
	if len(blocks) > line.MaxMessagesPerRequest {
		return nil, oops.
			With("blocks", len(blocks), "limit", line.MaxMessagesPerRequest).
			Wrap(apperrors.ErrInvalidContent)
	}

	messages := make([]line.Message, 0, len(blocks))
	for i, block := range blocks {
		decoded, err := block.Decode()
		if err != nil {
			return nil, oops.With("index", i).Wrap(err)
		}
		switch b := decoded.(type) {
		case ruleDomain.TextBlock:
			messages = append(messages, line.NewTextMessage(b.Text))
		case ruleDomain.ImageBlock:
			messages = append(messages, line.NewImageMessage(b.URL))
		case ruleDomain.RichCardBlock:
			messages = append(messages, line.NewFlexMessage(lo.CoalesceOrEmpty(b.AltText, "Flex Message"), b.Card))
		default:
			return nil, oops.With("index", i, "block_type", fmt.Sprintf("%T", decoded)).Wrap(apperrors.ErrInvalidContent)
		}
	}
	return messages, nil
}

// resolveRecipients pages through followers until the list ends or limit
// ids are collected. A limit of zero collects everything.
func resolveRecipients(ctx context.Context, api line.API, limit int) ([]string, error) {
	var ids []string
	start := ""
	for {
		page, err := api.FollowerIDs(ctx, start, line.FollowerPageSize)
		if err != nil {
			if followersUnsupported(err) {
				return nil, oops.Wrap(errors.Join(apperrors.ErrFollowersUnsupported, err))
			}
			return nil, oops.With("context", "failed to list followers").Wrap(err)
		}

		ids = append(ids, page.UserIDs...)
		if limit > 0 && len(ids) >= limit {
			return ids[:limit], nil
		}
		if page.Next == "" {
			break
		}
		start = page.Next
	}

	if len(ids) == 0 {
		return nil, oops.Wrap(apperrors.ErrNoRecipients)
	}
	return ids, nil
}

func followersUnsupported(err error) bool {
	var apiErr *line.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 403 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "not available")
}
