package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.line.me"
	FollowerPageSize = 300
)

// API is the subset of the messaging API the bot uses.
type API interface {
	Reply(ctx context.Context, replyToken string, messages []Message) error
	Multicast(ctx context.Context, to []string, messages []Message) error
	Broadcast(ctx context.Context, messages []Message) error
	FollowerIDs(ctx context.Context, start string, limit int) (*FollowerPage, error)
}

// Factory builds an API client bound to one channel access token.
type Factory func(accessToken string) API

// APIError is a non-2xx response from the messaging API.
type APIError struct {
	StatusCode int
	Message    string
	Details    []APIErrorDetail
}

type APIErrorDetail struct {
	Message  string `json:"message"`
	Property string `json:"property"`
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("line api: status %d: %s", e.StatusCode, e.Message)
	}
	details := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		details = append(details, d.Property+": "+d.Message)
	}
	return fmt.Sprintf("line api: status %d: %s (%s)", e.StatusCode, e.Message, strings.Join(details, "; "))
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Rate is the sustained requests per second allowed for one channel.
	Rate float64
}

// Client talks to the messaging API on behalf of a single channel.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

func NewClient(accessToken string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
		burst = max(1, int(opts.Rate))
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		limiter:     rate.NewLimiter(limit, burst),
	}
}

// NewFactory returns a Factory that shares the given options.
func NewFactory(opts Options) Factory {
	return func(accessToken string) API {
		return NewClient(accessToken, opts)
	}
}

func (c *Client) Reply(ctx context.Context, replyToken string, messages []Message) error {
	return c.call(ctx, http.MethodPost, "/v2/bot/message/reply", replyRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	}, nil)
}

func (c *Client) Multicast(ctx context.Context, to []string, messages []Message) error {
	return c.call(ctx, http.MethodPost, "/v2/bot/message/multicast", multicastRequest{
		To:       to,
		Messages: messages,
	}, nil)
}

func (c *Client) Broadcast(ctx context.Context, messages []Message) error {
	return c.call(ctx, http.MethodPost, "/v2/bot/message/broadcast", broadcastRequest{
		Messages: messages,
	}, nil)
}

func (c *Client) FollowerIDs(ctx context.Context, start string, limit int) (*FollowerPage, error) {
	if limit <= 0 || limit > FollowerPageSize {
		limit = FollowerPageSize
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if start != "" {
		query.Set("start", start)
	}

	var page FollowerPage
	if err := c.call(ctx, http.MethodGet, "/v2/bot/followers/ids?"+query.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return oops.With("path", path).Wrap(err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return oops.With("path", path, "context", "failed to marshal request").Wrap(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return oops.With("path", path, "context", "request failed").Wrap(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return oops.With("path", path, "context", "failed to read response").Wrap(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string           `json:"message"`
			Details []APIErrorDetail `json:"details"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
			apiErr.Details = payload.Details
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return oops.With("path", path, "context", "failed to decode response").Wrap(err)
		}
	}
	return nil
}
