package service

import (
	"strings"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/reply/domain"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	settingsDomain "github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	settingsService "github.com/94faddy/line-oa-bot/internal/modules/settings/service"
	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// ContentService edits the feature content sections of the settings
// document. Every update is validated whole before it is saved.
type ContentService struct {
	settings *settingsService.Service
	now      func() time.Time
}

func NewContentService(settings *settingsService.Service) *ContentService {
	return &ContentService{settings: settings, now: time.Now}
}

func (s *ContentService) Promotions() domain.PromotionConfig {
	return s.settings.Current().Promotions
}

func (s *ContentService) UpdatePromotions(cfg domain.PromotionConfig) (*domain.PromotionConfig, error) {
	cfg.Keywords = normalizeKeywords(cfg.Keywords)
	for i := range cfg.Items {
		item := &cfg.Items[i]
		item.Title = strings.TrimSpace(item.Title)
		item.ImageURL = strings.TrimSpace(item.ImageURL)
		item.LinkURL = strings.TrimSpace(item.LinkURL)
		if item.Title == "" {
			return nil, oops.With("field", "items", "index", i).Wrap(errors.ErrInvalidContent)
		}
		if item.LinkURL != "" && !ruleDomain.IsHTTPURL(item.LinkURL) {
			return nil, oops.With("field", "linkUrl", "index", i).Wrap(errors.ErrInvalidContent)
		}
		s.stamp(&item.ID, &item.CreatedAt)
	}

	err := s.update(func(doc *settingsDomain.Document) { doc.Promotions = cfg })
	return &cfg, err
}

func (s *ContentService) RichCards() domain.RichCardConfig {
	return s.settings.Current().RichCards
}

func (s *ContentService) UpdateRichCards(cfg domain.RichCardConfig) (*domain.RichCardConfig, error) {
	cfg.Keywords = normalizeKeywords(cfg.Keywords)
	cfg.AltText = strings.TrimSpace(cfg.AltText)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	err := s.update(func(doc *settingsDomain.Document) { doc.RichCards = cfg })
	return &cfg, err
}

func (s *ContentService) QuickReply() domain.QuickReplyConfig {
	return s.settings.Current().QuickReply
}

func (s *ContentService) UpdateQuickReply(cfg domain.QuickReplyConfig) (*domain.QuickReplyConfig, error) {
	cfg.Keywords = normalizeKeywords(cfg.Keywords)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i := range cfg.Buttons {
		if cfg.Buttons[i].ID == "" {
			cfg.Buttons[i].ID = uuid.NewString()
		}
	}

	err := s.update(func(doc *settingsDomain.Document) { doc.QuickReply = cfg })
	return &cfg, err
}

func (s *ContentService) Welcome() domain.WelcomeConfig {
	return s.settings.Current().Welcome
}

func (s *ContentService) UpdateWelcome(cfg domain.WelcomeConfig) (*domain.WelcomeConfig, error) {
	for i := range cfg.Boxes {
		box := &cfg.Boxes[i]
		if box.EditorMode == "" {
			box.EditorMode = domain.EditorModeTemplate
		}
		if err := box.Validate(); err != nil {
			return nil, oops.With("box", i).Wrap(err)
		}
		s.stamp(&box.ID, &box.CreatedAt)
	}

	err := s.update(func(doc *settingsDomain.Document) { doc.Welcome = cfg })
	return &cfg, err
}

func (s *ContentService) update(apply func(doc *settingsDomain.Document)) error {
	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		apply(doc)
		return nil
	})
	return err
}

func (s *ContentService) stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if createdAt.IsZero() {
		*createdAt = s.now()
	}
}

func normalizeKeywords(keywords []string) []string {
	trimmed := lo.Map(keywords, func(k string, _ int) string {
		return strings.TrimSpace(k)
	})
	return lo.Uniq(lo.Compact(trimmed))
}
