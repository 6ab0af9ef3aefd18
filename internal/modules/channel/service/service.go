package service

import (
	"strings"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/channel/domain"
	settingsDomain "github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	settingsService "github.com/94faddy/line-oa-bot/internal/modules/settings/service"
	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Service manages registered channels inside the settings document.
type Service struct {
	settings *settingsService.Service
	now      func() time.Time
}

func New(settings *settingsService.Service) *Service {
	return &Service{settings: settings, now: time.Now}
}

func (s *Service) GetAllChannels() []domain.Channel {
	return s.settings.Current().Channels
}

func (s *Service) GetChannel(channelID string) (*domain.Channel, error) {
	ch, ok := lo.Find(s.settings.Current().Channels, func(c domain.Channel) bool {
		return c.ID == channelID
	})
	if !ok {
		return nil, oops.With("channel_id", channelID).Wrap(errors.ErrChannelNotFound)
	}
	return &ch, nil
}

// AddChannel stores a new enabled channel with a generated id. A channel
// without explicit features gets all of them.
func (s *Service) AddChannel(ch domain.Channel) (*domain.Channel, error) {
	ch.Name = strings.TrimSpace(ch.Name)
	ch.ChannelSecret = strings.TrimSpace(ch.ChannelSecret)
	ch.ChannelAccessToken = strings.TrimSpace(ch.ChannelAccessToken)
	if err := validate(ch); err != nil {
		return nil, err
	}

	ch.ID = uuid.NewString()
	ch.CreatedAt = s.now()
	ch.Enabled = true
	if ch.Features == (domain.Features{}) {
		ch.Features = domain.DefaultFeatures()
	}

	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		doc.Channels = append(doc.Channels, ch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// UpdateChannel replaces the editable fields of an existing channel. Empty
// credentials keep their stored values.
func (s *Service) UpdateChannel(channelID string, update domain.Channel) (*domain.Channel, error) {
	var result domain.Channel
	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		_, idx, ok := lo.FindIndexOf(doc.Channels, func(c domain.Channel) bool {
			return c.ID == channelID
		})
		if !ok {
			return oops.With("channel_id", channelID).Wrap(errors.ErrChannelNotFound)
		}

		ch := doc.Channels[idx]
		if name := strings.TrimSpace(update.Name); name != "" {
			ch.Name = name
		}
		if secret := strings.TrimSpace(update.ChannelSecret); secret != "" {
			ch.ChannelSecret = secret
		}
		if token := strings.TrimSpace(update.ChannelAccessToken); token != "" {
			ch.ChannelAccessToken = token
		}
		ch.Enabled = update.Enabled
		ch.Features = update.Features

		doc.Channels[idx] = ch
		result = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ToggleChannel flips the enabled flag and returns the new state.
func (s *Service) ToggleChannel(channelID string) (bool, error) {
	var enabled bool
	err := s.mutate(channelID, func(ch *domain.Channel) {
		ch.Enabled = !ch.Enabled
		enabled = ch.Enabled
	})
	return enabled, err
}

// SetFeature switches one per-channel feature.
func (s *Service) SetFeature(channelID string, feature domain.Feature, enabled bool) error {
	return s.mutate(channelID, func(ch *domain.Channel) {
		ch.Features.Set(feature, enabled)
	})
}

// DeleteChannel removes the channel. Rules keep referencing its id; such
// references never match again.
func (s *Service) DeleteChannel(channelID string) error {
	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		before := len(doc.Channels)
		doc.Channels = lo.Reject(doc.Channels, func(c domain.Channel, _ int) bool {
			return c.ID == channelID
		})
		if len(doc.Channels) == before {
			return oops.With("channel_id", channelID).Wrap(errors.ErrChannelNotFound)
		}
		return nil
	})
	return err
}

func (s *Service) mutate(channelID string, fn func(ch *domain.Channel)) error {
	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		for i := range doc.Channels {
			if doc.Channels[i].ID == channelID {
				fn(&doc.Channels[i])
				return nil
			}
		}
		return oops.With("channel_id", channelID).Wrap(errors.ErrChannelNotFound)
	})
	return err
}

func validate(ch domain.Channel) error {
	switch {
	case ch.Name == "":
		return oops.With("field", "name").Wrap(errors.ErrInvalidContent)
	case ch.ChannelSecret == "":
		return oops.With("field", "channelSecret").Wrap(errors.ErrInvalidContent)
	case ch.ChannelAccessToken == "":
		return oops.With("field", "channelAccessToken").Wrap(errors.ErrInvalidContent)
	}
	return nil
}
