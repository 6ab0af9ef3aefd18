package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	broadcastDomain "github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	healthService "github.com/94faddy/line-oa-bot/internal/modules/health/service"
	"github.com/94faddy/line-oa-bot/internal/shared/config"
)

type noHistory struct{}

func (noHistory) History(context.Context, int) ([]*broadcastDomain.Record, error) { return nil, nil }

type noStatus struct{}

func (noStatus) Snapshot(context.Context) healthService.Snapshot { return healthService.Snapshot{} }

func TestDispatchFailedSendsAlert(t *testing.T) {
	var (
		mu     sync.Mutex
		paths  []string
		bodies []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		paths = append(paths, r.URL.Path)
		bodies = append(bodies, string(body))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`)
	}))
	defer srv.Close()

	cfg := &config.Config{TelegramBotToken: "123:token", TelegramAPIURL: srv.URL, TelegramChatID: 42}
	h, err := New(cfg, noHistory{}, noStatus{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	h.DispatchFailed(context.Background(), &broadcastDomain.Record{
		ID:          "rec-1",
		ChannelName: "Main",
		TargetMode:  broadcastDomain.TargetModeMulticast,
		Status:      broadcastDomain.StatusFailed,
		Error:       "connection reset",
	})

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 1 || !strings.HasSuffix(paths[0], "/sendMessage") {
		t.Fatalf("requests = %v", paths)
	}
	for _, want := range []string{"42", "MULTICAST to Main failed", "connection reset", "rec-1"} {
		if !strings.Contains(bodies[0], want) {
			t.Errorf("alert body missing %q: %s", want, bodies[0])
		}
	}
}

func TestStatusIcon(t *testing.T) {
	tests := map[broadcastDomain.Status]string{
		broadcastDomain.StatusSuccess:   "✅",
		broadcastDomain.StatusScheduled: "⏰",
		broadcastDomain.StatusFailed:    "❌",
	}
	for status, want := range tests {
		if got := statusIcon(status); got != want {
			t.Errorf("statusIcon(%s) = %q, want %q", status, got, want)
		}
	}
}
