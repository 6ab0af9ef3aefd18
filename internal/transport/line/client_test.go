package line

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestClientReply(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody replyRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("token-a", Options{BaseURL: srv.URL, Timeout: time.Second})
	msgs := []Message{NewTextMessage("hi"), NewImageMessage("https://example.com/a.png")}
	if err := c.Reply(context.Background(), "rt-1", msgs); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	if gotAuth != "Bearer token-a" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/v2/bot/message/reply" {
		t.Errorf("path = %q", gotPath)
	}
	want := replyRequest{ReplyToken: "rt-1", Messages: msgs}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestClientAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"You have reached your monthly limit."}`))
	}))
	defer srv.Close()

	c := NewClient("t", Options{BaseURL: srv.URL})
	err := c.Broadcast(context.Background(), []Message{NewTextMessage("x")})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "You have reached your monthly limit." {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestClientFollowerIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("limit"); got != "300" {
			t.Errorf("limit = %q", got)
		}
		if r.URL.Query().Get("start") == "" {
			w.Write([]byte(`{"userIds":["U1","U2"],"next":"cursor-2"}`))
			return
		}
		w.Write([]byte(`{"userIds":["U3"]}`))
	}))
	defer srv.Close()

	c := NewClient("t", Options{BaseURL: srv.URL})

	page, err := c.FollowerIDs(context.Background(), "", 1000)
	if err != nil {
		t.Fatalf("FollowerIDs() error = %v", err)
	}
	if diff := cmp.Diff(&FollowerPage{UserIDs: []string{"U1", "U2"}, Next: "cursor-2"}, page); diff != "" {
		t.Errorf("first page (-want +got):\n%s", diff)
	}

	page, err = c.FollowerIDs(context.Background(), page.Next, 0)
	if err != nil {
		t.Fatalf("FollowerIDs() error = %v", err)
	}
	if page.Next != "" || len(page.UserIDs) != 1 {
		t.Errorf("second page = %+v", page)
	}
}
