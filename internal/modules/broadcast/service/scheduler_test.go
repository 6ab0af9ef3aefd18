package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	"github.com/94faddy/line-oa-bot/internal/modules/broadcast/repository"
	channelDomain "github.com/94faddy/line-oa-bot/internal/modules/channel/domain"
	"github.com/94faddy/line-oa-bot/internal/modules/channel/registry"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	apperrors "github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/94faddy/line-oa-bot/internal/transport/line"
)

type fakeAPI struct {
	mu           sync.Mutex
	followers    []string
	followersErr error
	sendErr      error
	followerCall int
	multicasts   [][]string
	broadcasts   int
}

func (f *fakeAPI) Reply(context.Context, string, []line.Message) error { return nil }

func (f *fakeAPI) Multicast(_ context.Context, to []string, _ []line.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.multicasts = append(f.multicasts, to)
	return f.sendErr
}

func (f *fakeAPI) Broadcast(context.Context, []line.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts++
	return f.sendErr
}

// FollowerIDs serves followers in pages, using the offset as the cursor.
func (f *fakeAPI) FollowerIDs(_ context.Context, start string, limit int) (*line.FollowerPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followerCall++
	if f.followersErr != nil {
		return nil, f.followersErr
	}

	offset := 0
	if start != "" {
		fmt.Sscanf(start, "%d", &offset)
	}
	end := min(offset+limit, len(f.followers))
	page := &line.FollowerPage{UserIDs: f.followers[offset:end]}
	if end < len(f.followers) {
		page.Next = fmt.Sprintf("%d", end)
	}
	return page, nil
}

func (f *fakeAPI) calls() (followers, multicasts, broadcasts int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.followerCall, len(f.multicasts), f.broadcasts
}

type channels map[string]*registry.Entry

func (c channels) Lookup(id string) (*registry.Entry, bool) {
	e, ok := c[id]
	return e, ok
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type recordingNotifier struct {
	mu     sync.Mutex
	failed []string
}

func (n *recordingNotifier) DispatchFailed(_ context.Context, r *domain.Record) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, r.ID)
}

type fixture struct {
	s        *Scheduler
	api      *fakeAPI
	repo     *repository.Memory
	notifier *recordingNotifier
	timers   []*fakeTimer
	now      time.Time
}

func newFixture(followers int) *fixture {
	api := &fakeAPI{}
	for i := 0; i < followers; i++ {
		api.followers = append(api.followers, fmt.Sprintf("U%04d", i))
	}
	f := &fixture{
		api:      api,
		repo:     repository.NewMemory(),
		notifier: &recordingNotifier{},
		now:      time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	lookup := channels{
		"ch":  {Channel: channelDomain.Channel{ID: "ch", Name: "Main", Enabled: true}, API: api},
		"off": {Channel: channelDomain.Channel{ID: "off", Name: "Off"}, API: api},
	}
	f.s = New(lookup, f.repo, f.notifier)
	f.s.now = func() time.Time { return f.now }
	f.s.afterFunc = func(_ time.Duration, fn func()) timer {
		t := &fakeTimer{fn: fn}
		f.timers = append(f.timers, t)
		return t
	}
	return f
}

func textBlocks(n int) []ruleDomain.ContentBlock {
	blocks := make([]ruleDomain.ContentBlock, n)
	for i := range blocks {
		blocks[i] = ruleDomain.ContentBlock{Type: ruleDomain.BlockTypeText, Content: "hello"}
	}
	return blocks
}

func TestMulticastCapacity(t *testing.T) {
	f := newFixture(800)
	ctx := context.Background()

	_, err := f.s.Submit(ctx, domain.Request{
		ChannelID:           "ch",
		TargetMode:          domain.TargetModeMulticast,
		Blocks:              textBlocks(1),
		EstimatedRecipients: 501,
	})
	if !errors.Is(err, apperrors.ErrMulticastCapacity) {
		t.Fatalf("Submit(501) error = %v, want ErrMulticastCapacity", err)
	}
	if followers, multicasts, _ := f.api.calls(); followers != 0 || multicasts != 0 {
		t.Fatalf("network used before rejection: followers=%d multicasts=%d", followers, multicasts)
	}

	record, err := f.s.Submit(ctx, domain.Request{
		ChannelID:           "ch",
		TargetMode:          domain.TargetModeMulticast,
		Blocks:              textBlocks(1),
		EstimatedRecipients: 500,
	})
	if err != nil {
		t.Fatalf("Submit(500) error = %v", err)
	}
	if record.Status != domain.StatusSuccess || record.TargetCount != 500 {
		t.Errorf("record = %+v", record)
	}
	if len(f.api.multicasts) != 1 || len(f.api.multicasts[0]) != 500 {
		t.Errorf("multicast recipients = %d", len(f.api.multicasts[0]))
	}
	if followers, _, _ := f.api.calls(); followers != 2 {
		t.Errorf("follower pages fetched = %d, want 2", followers)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(1)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.Request
		want error
	}{
		{"unknown channel", domain.Request{ChannelID: "nope", Blocks: textBlocks(1)}, apperrors.ErrChannelNotFound},
		{"disabled channel", domain.Request{ChannelID: "off", Blocks: textBlocks(1)}, apperrors.ErrChannelDisabled},
		{"no blocks", domain.Request{ChannelID: "ch"}, apperrors.ErrInvalidContent},
		{"too many blocks", domain.Request{ChannelID: "ch", Blocks: textBlocks(6)}, apperrors.ErrInvalidContent},
		{"empty text", domain.Request{ChannelID: "ch", Blocks: []ruleDomain.ContentBlock{{Type: ruleDomain.BlockTypeText}}}, apperrors.ErrInvalidContent},
		{"bad image", domain.Request{ChannelID: "ch", Blocks: []ruleDomain.ContentBlock{{Type: ruleDomain.BlockTypeImage, Content: "x"}}}, apperrors.ErrInvalidContent},
		{"bad mode", domain.Request{ChannelID: "ch", TargetMode: "everyone", Blocks: textBlocks(1)}, apperrors.ErrInvalidContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.s.Submit(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Submit() error = %v, want %v", err, tt.want)
			}
		})
	}

	if history, _ := f.s.History(ctx, 0); len(history) != 0 {
		t.Errorf("rejected requests were recorded: %v", history)
	}
}

func TestScheduledSendResolvesOnce(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	at := f.now.Add(time.Hour)

	record, err := f.s.Submit(ctx, domain.Request{ChannelID: "ch", Blocks: textBlocks(2), ScheduledFor: &at})
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != domain.StatusScheduled || len(f.timers) != 1 {
		t.Fatalf("record = %+v, timers = %d", record, len(f.timers))
	}
	if _, _, broadcasts := f.api.calls(); broadcasts != 0 {
		t.Fatal("scheduled send went out early")
	}

	f.now = at
	f.timers[0].fn()
	f.timers[0].fn()

	if _, _, broadcasts := f.api.calls(); broadcasts != 1 {
		t.Errorf("broadcasts = %d, want 1", broadcasts)
	}
	got, _ := f.repo.Get(ctx, record.ID)
	if got.Status != domain.StatusSuccess || got.SentAt == nil || !got.SentAt.Equal(at) {
		t.Errorf("resolved record = %+v", got)
	}

	if ok, _ := f.s.Cancel(ctx, record.ID); ok {
		t.Error("Cancel() after firing should be a no-op")
	}
}

// blockingAPI holds Broadcast open until release is closed.
type blockingAPI struct {
	fakeAPI
	started chan struct{}
	release chan struct{}
}

func (b *blockingAPI) Broadcast(ctx context.Context, messages []line.Message) error {
	close(b.started)
	<-b.release
	return b.fakeAPI.Broadcast(ctx, messages)
}

func TestStopDuringScheduledSendStoresResult(t *testing.T) {
	repo, err := repository.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { repo.Close() })

	api := &blockingAPI{started: make(chan struct{}), release: make(chan struct{})}
	lookup := channels{"ch": {Channel: channelDomain.Channel{ID: "ch", Name: "Main", Enabled: true}, API: api}}
	s := New(lookup, repo, nil)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	var armed func()
	s.afterFunc = func(_ time.Duration, fn func()) timer {
		armed = fn
		return &fakeTimer{fn: fn}
	}

	ctx := context.Background()
	at := now.Add(time.Minute)
	record, err := s.Submit(ctx, domain.Request{ChannelID: "ch", Blocks: textBlocks(1), ScheduledFor: &at})
	if err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{})
	go func() {
		defer close(fired)
		armed()
	}()
	<-api.started

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.Stop()
	}()
	for s.ctx.Err() == nil {
		time.Sleep(time.Millisecond)
	}
	close(api.release)
	<-fired
	<-stopped

	got, err := repo.Get(ctx, record.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusSuccess {
		t.Errorf("stored status = %s, want success", got.Status)
	}
	pending, err := repo.Pending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after restart = %d, want 0", len(pending))
	}
}

func TestScheduledFailureIsRecorded(t *testing.T) {
	f := newFixture(0)
	f.api.sendErr = &line.APIError{StatusCode: 429, Message: "You have reached your monthly limit."}
	ctx := context.Background()
	at := f.now.Add(time.Minute)

	record, err := f.s.Submit(ctx, domain.Request{ChannelID: "ch", Blocks: textBlocks(1), ScheduledFor: &at})
	if err != nil {
		t.Fatal(err)
	}
	f.timers[0].fn()

	got, _ := f.repo.Get(ctx, record.ID)
	if got.Status != domain.StatusFailed || !got.QuotaExceeded || got.Error != domain.ReasonQuotaExceeded {
		t.Errorf("resolved record = %+v", got)
	}
	if len(f.notifier.failed) != 1 || f.notifier.failed[0] != record.ID {
		t.Errorf("notified = %v", f.notifier.failed)
	}
}

func TestScheduledPanicResolvesFailed(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	at := f.now.Add(time.Minute)

	record, err := f.s.Submit(ctx, domain.Request{ChannelID: "ch", Blocks: textBlocks(1), ScheduledFor: &at})
	if err != nil {
		t.Fatal(err)
	}
	f.s.channels = channels{"ch": {Channel: channelDomain.Channel{ID: "ch", Enabled: true}}}
	f.timers[0].fn()

	got, _ := f.repo.Get(ctx, record.ID)
	if got.Status != domain.StatusFailed || !strings.Contains(got.Error, "panic") {
		t.Errorf("resolved record = %+v", got)
	}
}

func TestCancelScheduled(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	at := f.now.Add(time.Hour)

	record, _ := f.s.Submit(ctx, domain.Request{ChannelID: "ch", Blocks: textBlocks(1), ScheduledFor: &at})
	ok, err := f.s.Cancel(ctx, record.ID)
	if err != nil || !ok {
		t.Fatalf("Cancel() = %v, %v", ok, err)
	}
	f.timers[0].fn()

	if _, _, broadcasts := f.api.calls(); broadcasts != 0 {
		t.Error("cancelled send went out")
	}
	got, _ := f.repo.Get(ctx, record.ID)
	if got.Status != domain.StatusFailed {
		t.Errorf("cancelled record status = %s", got.Status)
	}
}

func TestStartRearmsPending(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	past := f.now.Add(-time.Minute)
	pending := &domain.Record{
		ID: "p", ChannelID: "ch", TargetMode: domain.TargetModeBroadcast, Status: domain.StatusScheduled,
		Blocks: textBlocks(1), CreatedAt: past, ScheduledFor: &past,
	}
	if err := f.repo.Create(ctx, pending); err != nil {
		t.Fatal(err)
	}

	if err := f.s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if len(f.timers) != 1 {
		t.Fatalf("armed %d timers, want 1", len(f.timers))
	}
	f.timers[0].fn()

	got, _ := f.repo.Get(ctx, "p")
	if got.Status != domain.StatusSuccess {
		t.Errorf("re-armed record status = %s", got.Status)
	}
}

func TestImmediateFailureRecorded(t *testing.T) {
	f := newFixture(0)
	f.api.followersErr = &line.APIError{StatusCode: 403, Message: "Access to this API is not available for your account"}
	ctx := context.Background()

	record, err := f.s.Submit(ctx, domain.Request{ChannelID: "ch", TargetMode: domain.TargetModeMulticast, Blocks: textBlocks(1)})
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != domain.StatusFailed || record.Error != domain.ReasonFollowersUnsupported {
		t.Errorf("record = %+v", record)
	}
	if _, multicasts, _ := f.api.calls(); multicasts != 0 {
		t.Error("multicast sent without recipients")
	}

	history, _ := f.s.History(ctx, 0)
	if len(history) != 1 || history[0].ID != record.ID {
		t.Errorf("history = %v", history)
	}
}

func TestFollowerCount(t *testing.T) {
	f := newFixture(650)
	ctx := context.Background()

	count, supported, err := f.s.FollowerCount(ctx, "ch")
	if err != nil || !supported || count != 650 {
		t.Errorf("FollowerCount() = %d, %v, %v", count, supported, err)
	}

	f.api.followersErr = &line.APIError{StatusCode: 403, Message: "Access to this API is not available for your account"}
	count, supported, err = f.s.FollowerCount(ctx, "ch")
	if err != nil || supported || count != 0 {
		t.Errorf("unsupported FollowerCount() = %d, %v, %v", count, supported, err)
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		err       error
		want      string
		wantQuota bool
	}{
		{&line.APIError{StatusCode: 429, Message: "You have reached your monthly limit."}, domain.ReasonQuotaExceeded, true},
		{errors.New("Quota exhausted"), domain.ReasonQuotaExceeded, true},
		{errors.New("rate LIMIT EXCEEDED"), domain.ReasonQuotaExceeded, true},
		{errors.New("429 Too Many Requests"), domain.ReasonQuotaExceeded, true},
		{&line.APIError{StatusCode: 400, Message: "The request body has 1 error(s)"}, "The request body has 1 error(s)", false},
		{apperrors.ErrNoRecipients, domain.ReasonNoFollowers, false},
		{errors.New("connection reset"), "connection reset", false},
	}

	for _, tt := range tests {
		reason, quota := ClassifyFailure(tt.err)
		if reason != tt.want || quota != tt.wantQuota {
			t.Errorf("ClassifyFailure(%v) = %q, %v; want %q, %v", tt.err, reason, quota, tt.want, tt.wantQuota)
		}
	}
}

func TestFeed(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	if _, err := f.s.Submit(ctx, domain.Request{ChannelID: "ch", Blocks: textBlocks(1)}); err != nil {
		t.Fatal(err)
	}

	feed, err := f.s.Feed(ctx, "https://bot.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Items) != 1 || !strings.HasPrefix(feed.Items[0].Title, "[SUCCESS] broadcast") {
		t.Fatalf("feed items = %+v", feed.Items)
	}
	rss, err := feed.ToRss()
	if err != nil || !strings.Contains(rss, "<rss") {
		t.Errorf("ToRss() = %q, %v", rss, err)
	}
}
