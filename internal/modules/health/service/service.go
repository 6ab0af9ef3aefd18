package service

import (
	"context"
	"time"

	channelDomain "github.com/94faddy/line-oa-bot/internal/modules/channel/domain"
	"github.com/samber/lo"
)

type ChannelSource interface {
	Channels() []channelDomain.Channel
}

type CooldownSource interface {
	Len() int
}

// PendingSource counts bulk sends still waiting for their timer.
type PendingSource interface {
	PendingCount(ctx context.Context) (int, error)
}

// Snapshot is the process status shown on /health and to operators.
type Snapshot struct {
	Status          string    `json:"status"`
	Channels        int       `json:"configuredChannels"`
	EnabledChannels int       `json:"enabledChannels"`
	ActiveCooldowns int       `json:"activeUsers"`
	ScheduledSends  int       `json:"scheduledBroadcasts"`
	StartedAt       time.Time `json:"startedAt"`
	Timestamp       time.Time `json:"timestamp"`
}

type Service struct {
	channels  ChannelSource
	cooldowns CooldownSource
	pending   PendingSource
	startedAt time.Time
	now       func() time.Time
}

func New(channels ChannelSource, cooldowns CooldownSource, pending PendingSource) *Service {
	return &Service{
		channels:  channels,
		cooldowns: cooldowns,
		pending:   pending,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Snapshot reports "degraded" when the dispatch history cannot be read.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	channels := s.channels.Channels()
	enabled := lo.CountBy(channels, func(ch channelDomain.Channel) bool {
		return ch.Enabled
	})

	snap := Snapshot{
		Status:          "OK",
		Channels:        len(channels),
		EnabledChannels: enabled,
		ActiveCooldowns: s.cooldowns.Len(),
		StartedAt:       s.startedAt,
		Timestamp:       s.now(),
	}

	pending, err := s.pending.PendingCount(ctx)
	if err != nil {
		snap.Status = "degraded"
	}
	snap.ScheduledSends = pending
	return snap
}
