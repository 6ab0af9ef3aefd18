package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/94faddy/line-oa-bot/internal/modules/broadcast/domain"
	"github.com/gorilla/feeds"
	"github.com/samber/oops"
)

const feedSize = 50

// Feed renders recent dispatch history as an RSS audit trail.
func (s *Scheduler) Feed(ctx context.Context, baseURL string) (*feeds.Feed, error) {
	records, err := s.repo.List(ctx, feedSize)
	if err != nil {
		return nil, oops.With("context", "failed to list dispatch history").Wrap(err)
	}

	feed := &feeds.Feed{
		Title:       "LINE OA bulk dispatch history",
		Link:        &feeds.Link{Href: baseURL + "/api/broadcasts"},
		Description: "Broadcast and multicast sends across all channels",
		Created:     s.now(),
	}
	if len(records) > 0 {
		feed.Updated = records[0].CreatedAt
	}

	for _, r := range records {
		feed.Items = append(feed.Items, recordToFeedItem(r, baseURL))
	}
	return feed, nil
}

func recordToFeedItem(r *domain.Record, baseURL string) *feeds.Item {
	recipients := "ทั้งหมด"
	if r.TargetCount > 0 {
		recipients = fmt.Sprintf("%d", r.TargetCount)
	}

	lines := []string{
		fmt.Sprintf("Channel: %s", r.ChannelName),
		fmt.Sprintf("Mode: %s", r.TargetMode),
		fmt.Sprintf("Recipients: %s", recipients),
		fmt.Sprintf("Messages: %d", r.MessageCount),
	}
	if r.ScheduledFor != nil {
		lines = append(lines, "Scheduled for: "+r.ScheduledFor.Format("2006-01-02 15:04 MST"))
	}
	if r.Error != "" {
		lines = append(lines, "Error: "+r.Error)
	}

	content := "<ul>"
	for _, l := range lines {
		content += "<li>" + html.EscapeString(l) + "</li>"
	}
	content += "</ul>"

	item := &feeds.Item{
		Title:       fmt.Sprintf("[%s] %s to %s", strings.ToUpper(r.Status.String()), r.TargetMode, r.ChannelName),
		Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/broadcasts#%s", baseURL, r.ID)},
		Description: strings.Join(lines, "\n"),
		Content:     content,
		Created:     r.CreatedAt,
		Id:          r.ID,
	}
	if r.SentAt != nil {
		item.Updated = *r.SentAt
	}
	return item
}
