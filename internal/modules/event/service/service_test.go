package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	channelDomain "github.com/94faddy/line-oa-bot/internal/modules/channel/domain"
	"github.com/94faddy/line-oa-bot/internal/modules/channel/registry"
	"github.com/94faddy/line-oa-bot/internal/modules/cooldown/ledger"
	"github.com/94faddy/line-oa-bot/internal/modules/event/domain"
	replyDomain "github.com/94faddy/line-oa-bot/internal/modules/reply/domain"
	replyService "github.com/94faddy/line-oa-bot/internal/modules/reply/service"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	settingsDomain "github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	"github.com/94faddy/line-oa-bot/internal/transport/line"
)

type sentReply struct {
	token    string
	messages []line.Message
}

type fakeAPI struct {
	mu       sync.Mutex
	replies  []sentReply
	failNext int
}

func (f *fakeAPI) Reply(_ context.Context, token string, messages []line.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return errors.New("reply failed")
	}
	f.replies = append(f.replies, sentReply{token: token, messages: messages})
	return nil
}

func (f *fakeAPI) Multicast(context.Context, []string, []line.Message) error { return nil }
func (f *fakeAPI) Broadcast(context.Context, []line.Message) error           { return nil }
func (f *fakeAPI) FollowerIDs(context.Context, string, int) (*line.FollowerPage, error) {
	return &line.FollowerPage{}, nil
}

func (f *fakeAPI) byToken(token string) (sentReply, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.replies {
		if r.token == token {
			return r, true
		}
	}
	return sentReply{}, false
}

type staticSettings struct {
	doc *settingsDomain.Document
}

func (s staticSettings) Current() *settingsDomain.Document { return s.doc }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *Service
	api   *fakeAPI
	entry *registry.Entry
	clock *clock
	doc   *settingsDomain.Document
}

func newFixture() *fixture {
	doc := settingsDomain.Default()
	api := &fakeAPI{}
	c := &clock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	entry := &registry.Entry{
		Channel: channelDomain.Channel{ID: "ch", Name: "Main", Enabled: true, Features: channelDomain.DefaultFeatures()},
		API:     api,
	}
	return &fixture{
		svc:   New(staticSettings{doc: doc}, ledger.NewWithClock(c.Now), replyService.NewWithRand(func(int) int { return 0 })),
		api:   api,
		entry: entry,
		clock: c,
		doc:   doc,
	}
}

func textEvent(token, user, text string) line.Event {
	return line.Event{
		Type:       "message",
		ReplyToken: token,
		Source:     line.Source{Type: "user", UserID: user},
		Message:    &line.EventMessage{Type: "text", Text: text},
	}
}

func textRule(id, keyword, reply string, overlap bool, created time.Time) ruleDomain.ActivityRule {
	return ruleDomain.ActivityRule{
		ID:              id,
		Name:            id,
		Enabled:         true,
		Keywords:        []string{keyword},
		Channels:        []string{"ch"},
		CooldownEnabled: true,
		CooldownHours:   2,
		AllowOverlap:    overlap,
		ContentBlocks:   []ruleDomain.ContentBlock{{Type: ruleDomain.BlockTypeText, Content: reply}},
		CreatedAt:       created,
	}
}

func TestCooldownScenario(t *testing.T) {
	f := newFixture()
	f.doc.Activities = []ruleDomain.ActivityRule{textRule("gift", "gift", "Here is your gift", false, f.clock.Now())}
	ctx := context.Background()

	if got := f.svc.HandleEvent(ctx, f.entry, textEvent("t1", "u1", "gift please")); got != domain.OutcomeActivity {
		t.Fatalf("first outcome = %s", got)
	}
	first, _ := f.api.byToken("t1")
	if len(first.messages) != 1 || first.messages[0].Text != "Here is your gift" {
		t.Fatalf("first reply = %+v", first.messages)
	}

	f.clock.Advance(time.Hour)
	f.svc.HandleEvent(ctx, f.entry, textEvent("t2", "u1", "gift again"))
	second, _ := f.api.byToken("t2")
	if len(second.messages) != 1 || !strings.Contains(second.messages[0].Text, "1 ชั่วโมง 0 นาที") {
		t.Fatalf("cooldown reply = %+v", second.messages)
	}

	f.clock.Advance(time.Hour)
	f.svc.HandleEvent(ctx, f.entry, textEvent("t3", "u1", "gift"))
	third, _ := f.api.byToken("t3")
	if len(third.messages) != 1 || third.messages[0].Text != "Here is your gift" {
		t.Fatalf("reply after window = %+v", third.messages)
	}
}

func TestOverlapScenario(t *testing.T) {
	f := newFixture()
	now := f.clock.Now()
	f.doc.Activities = []ruleDomain.ActivityRule{
		textRule("late", "bonus", "from late", true, now.Add(time.Minute)),
		textRule("exclusive", "bonus", "from exclusive", false, now),
		textRule("early", "bonus", "from early", true, now.Add(-time.Minute)),
	}

	f.svc.HandleEvent(context.Background(), f.entry, textEvent("t1", "u1", "BONUS"))
	got, _ := f.api.byToken("t1")

	texts := make([]string, 0, len(got.messages))
	for _, m := range got.messages {
		texts = append(texts, m.Text)
	}
	if strings.Join(texts, "|") != "from early|from late" {
		t.Errorf("texts = %v", texts)
	}
}

func TestReplyCappedAtFiveMessages(t *testing.T) {
	f := newFixture()
	rule := textRule("many", "many", "x", false, f.clock.Now())
	for i := 0; i < 6; i++ {
		rule.ContentBlocks = append(rule.ContentBlocks, ruleDomain.ContentBlock{Type: ruleDomain.BlockTypeText, Content: "more"})
	}
	f.doc.Activities = []ruleDomain.ActivityRule{rule}

	f.svc.HandleEvent(context.Background(), f.entry, textEvent("t1", "u1", "many"))
	got, _ := f.api.byToken("t1")
	if len(got.messages) != replyService.MaxMessagesPerReply {
		t.Errorf("sent %d messages, want %d", len(got.messages), replyService.MaxMessagesPerReply)
	}
}

func TestPriorityChain(t *testing.T) {
	f := newFixture()
	f.doc.Activities = []ruleDomain.ActivityRule{textRule("r", "promo", "activity", false, f.clock.Now())}
	f.doc.QuickReply.Enabled = false
	ctx := context.Background()

	tests := []struct {
		text     string
		want     domain.Outcome
		wantText string
	}{
		{"promo", domain.OutcomePromotion, replyService.NoPromotionText},
		{"bonustime", domain.OutcomeRichCard, replyService.NoRichCardText},
		{"menu", domain.OutcomeQuickReply, replyService.QuickReplyDisabledText},
		{"hello there", domain.OutcomeUnmatched, ""},
	}

	for i, tt := range tests {
		token := string(rune('a' + i))
		got := f.svc.HandleEvent(ctx, f.entry, textEvent(token, "u1", tt.text))
		if got != tt.want {
			t.Errorf("%q: outcome = %s, want %s", tt.text, got, tt.want)
			continue
		}
		reply, ok := f.api.byToken(token)
		if tt.wantText == "" {
			if ok {
				t.Errorf("%q: unexpected reply %+v", tt.text, reply)
			}
			continue
		}
		if !ok || reply.messages[0].Text != tt.wantText {
			t.Errorf("%q: reply = %+v", tt.text, reply.messages)
		}
	}
}

func TestChannelFeatureToggles(t *testing.T) {
	f := newFixture()
	f.doc.Activities = []ruleDomain.ActivityRule{textRule("r", "promo", "activity", false, f.clock.Now())}
	f.entry.Channel.Features.Promotions = false

	got := f.svc.HandleEvent(context.Background(), f.entry, textEvent("t1", "u1", "promo"))
	if got != domain.OutcomeActivity {
		t.Fatalf("outcome = %s, want activity when promotions are off", got)
	}

	f.entry.Channel.Features.Activities = false
	got = f.svc.HandleEvent(context.Background(), f.entry, textEvent("t2", "u1", "promo"))
	if got != domain.OutcomeUnmatched {
		t.Fatalf("outcome = %s, want unmatched", got)
	}
}

func TestRichCardWithQuickReply(t *testing.T) {
	f := newFixture()
	f.doc.RichCards.Cards = []json.RawMessage{json.RawMessage(`{"type":"bubble","body":{"type":"box"}}`)}
	f.doc.QuickReply.Buttons = []replyDomain.QuickReplyButton{
		{ID: "b", Type: replyDomain.ButtonTypeMessage, Label: "Stats", Text: "bonustime", Enabled: true},
	}

	f.svc.HandleEvent(context.Background(), f.entry, textEvent("t1", "u1", "bonustime"))
	got, _ := f.api.byToken("t1")
	if len(got.messages) != 2 || got.messages[0].Type != "flex" || got.messages[1].QuickReply == nil {
		t.Fatalf("reply = %+v", got.messages)
	}
}

func TestFollowWelcome(t *testing.T) {
	f := newFixture()
	follow := line.Event{Type: "follow", ReplyToken: "t1", Source: line.Source{UserID: "u1"}}

	if got := f.svc.HandleEvent(context.Background(), f.entry, follow); got != domain.OutcomeIgnored {
		t.Fatalf("without boxes outcome = %s", got)
	}

	f.doc.Welcome.Boxes = []replyDomain.WelcomeBox{{ID: "w", Name: "Hello", Enabled: true, EditorMode: replyDomain.EditorModeTemplate}}
	follow.ReplyToken = "t2"
	if got := f.svc.HandleEvent(context.Background(), f.entry, follow); got != domain.OutcomeWelcomed {
		t.Fatalf("outcome = %s", got)
	}
	if _, ok := f.api.byToken("t2"); !ok {
		t.Error("welcome reply not sent")
	}
}

func TestReplyFailureSendsApology(t *testing.T) {
	f := newFixture()
	f.api.failNext = 1

	got := f.svc.HandleEvent(context.Background(), f.entry, textEvent("t1", "u1", "promo"))
	if got != domain.OutcomeFailed {
		t.Fatalf("outcome = %s", got)
	}
	reply, ok := f.api.byToken("t1")
	if !ok || reply.messages[0].Text != replyService.ErrorText {
		t.Errorf("apology = %+v", reply)
	}
}

func TestHandleWebhookIsolatesEvents(t *testing.T) {
	f := newFixture()
	events := []line.Event{
		textEvent("t1", "u1", "promo"),
		{Type: "message", ReplyToken: "t2", Message: &line.EventMessage{Type: "sticker"}},
		{Type: "unfollow", ReplyToken: "t3"},
		textEvent("", "u2", "promo"),
	}

	got := f.svc.HandleWebhook(context.Background(), f.entry, events)
	want := []domain.Outcome{domain.OutcomePromotion, domain.OutcomeIgnored, domain.OutcomeIgnored, domain.OutcomeIgnored}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d outcome = %s, want %s", i, got[i], want[i])
		}
	}
}
