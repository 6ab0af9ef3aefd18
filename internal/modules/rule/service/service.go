package service

import (
	"log/slog"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	settingsDomain "github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	settingsService "github.com/94faddy/line-oa-bot/internal/modules/settings/service"
	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// CooldownStore is the part of the cooldown ledger rule management touches.
type CooldownStore interface {
	ClearRule(ruleID string) int
}

// Service manages activity rules inside the settings document.
type Service struct {
	settings  *settingsService.Service
	cooldowns CooldownStore
	now       func() time.Time
}

func New(settings *settingsService.Service, cooldowns CooldownStore) *Service {
	return &Service{settings: settings, cooldowns: cooldowns, now: time.Now}
}

func (s *Service) GetAllRules() []domain.ActivityRule {
	return s.settings.Current().Activities
}

func (s *Service) GetRule(ruleID string) (*domain.ActivityRule, error) {
	rule, ok := lo.Find(s.settings.Current().Activities, func(r domain.ActivityRule) bool {
		return r.ID == ruleID
	})
	if !ok {
		return nil, oops.With("rule_id", ruleID).Wrap(errors.ErrRuleNotFound)
	}
	return &rule, nil
}

func (s *Service) CreateRule(rule domain.ActivityRule) (*domain.ActivityRule, error) {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	rule.ID = uuid.NewString()
	rule.CreatedAt = s.now()
	rule.UpdatedAt = rule.CreatedAt

	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		doc.Activities = append(doc.Activities, rule)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateRule replaces a rule, keeping its id and creation time.
func (s *Service) UpdateRule(ruleID string, rule domain.ActivityRule) (*domain.ActivityRule, error) {
	rule.Normalize()
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		_, idx, ok := lo.FindIndexOf(doc.Activities, func(r domain.ActivityRule) bool {
			return r.ID == ruleID
		})
		if !ok {
			return oops.With("rule_id", ruleID).Wrap(errors.ErrRuleNotFound)
		}
		rule.ID = ruleID
		rule.CreatedAt = doc.Activities[idx].CreatedAt
		rule.UpdatedAt = s.now()
		doc.Activities[idx] = rule
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *Service) ToggleRule(ruleID string) (bool, error) {
	var enabled bool
	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		for i := range doc.Activities {
			if doc.Activities[i].ID == ruleID {
				doc.Activities[i].Enabled = !doc.Activities[i].Enabled
				doc.Activities[i].UpdatedAt = s.now()
				enabled = doc.Activities[i].Enabled
				return nil
			}
		}
		return oops.With("rule_id", ruleID).Wrap(errors.ErrRuleNotFound)
	})
	return enabled, err
}

// DeleteRule removes the rule and every cooldown entry it owns.
func (s *Service) DeleteRule(ruleID string) error {
	_, err := s.settings.Update(func(doc *settingsDomain.Document) error {
		before := len(doc.Activities)
		doc.Activities = lo.Reject(doc.Activities, func(r domain.ActivityRule, _ int) bool {
			return r.ID == ruleID
		})
		if len(doc.Activities) == before {
			return oops.With("rule_id", ruleID).Wrap(errors.ErrRuleNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cleared := s.cooldowns.ClearRule(ruleID)
	slog.Info("Activity rule deleted", "rule_id", ruleID, "cooldowns_cleared", cleared)
	return nil
}

// ClearCooldowns resets every user's window on one rule.
func (s *Service) ClearCooldowns(ruleID string) (int, error) {
	if _, err := s.GetRule(ruleID); err != nil {
		return 0, err
	}
	return s.cooldowns.ClearRule(ruleID), nil
}
