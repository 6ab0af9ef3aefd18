package service

import (
	"errors"
	"testing"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/cooldown/ledger"
	"github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	settingsDomain "github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	settingsService "github.com/94faddy/line-oa-bot/internal/modules/settings/service"
	apperrors "github.com/94faddy/line-oa-bot/internal/shared/errors"
)

type memoryRepo struct {
	doc *settingsDomain.Document
}

func (m *memoryRepo) Load() (*settingsDomain.Document, error) { return m.doc.Clone() }
func (m *memoryRepo) Save(doc *settingsDomain.Document) error { m.doc = doc; return nil }

func newService(t *testing.T) (*Service, *ledger.Ledger) {
	t.Helper()
	settings, err := settingsService.New(&memoryRepo{doc: settingsDomain.Default()})
	if err != nil {
		t.Fatal(err)
	}
	l := ledger.New()
	return New(settings, l), l
}

func validRule() domain.ActivityRule {
	return domain.ActivityRule{
		Name:            "Daily gift",
		Enabled:         true,
		Keywords:        []string{"gift"},
		Channels:        []string{"ch"},
		CooldownEnabled: true,
		CooldownHours:   2,
		ContentBlocks:   []domain.ContentBlock{{Type: domain.BlockTypeText, Content: "here you go"}},
	}
}

func TestRuleCRUD(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.CreateRule(validRule())
	if err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("CreateRule() = %+v", created)
	}

	update := validRule()
	update.Name = "Renamed"
	update.CreatedAt = time.Time{}
	updated, err := svc.UpdateRule(created.ID, update)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Renamed" || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("UpdateRule() = %+v", updated)
	}

	enabled, err := svc.ToggleRule(created.ID)
	if err != nil || enabled {
		t.Errorf("ToggleRule() = %v, %v", enabled, err)
	}

	if _, err := svc.UpdateRule("missing", validRule()); !errors.Is(err, apperrors.ErrRuleNotFound) {
		t.Errorf("UpdateRule(missing) error = %v", err)
	}
}

func TestCreateRuleRejectsInvalidBlocks(t *testing.T) {
	svc, _ := newService(t)

	rule := validRule()
	rule.ContentBlocks = []domain.ContentBlock{{Type: domain.BlockTypeImage, Content: "not a url"}}
	if _, err := svc.CreateRule(rule); !errors.Is(err, apperrors.ErrInvalidContent) {
		t.Errorf("CreateRule() error = %v, want ErrInvalidContent", err)
	}
	if len(svc.GetAllRules()) != 0 {
		t.Error("invalid rule was stored")
	}
}

func TestDeleteRuleClearsCooldowns(t *testing.T) {
	svc, l := newService(t)

	keep, _ := svc.CreateRule(validRule())
	drop, _ := svc.CreateRule(validRule())

	l.RecordFire("u1", keep.ID, time.Now())
	l.RecordFire("u1", drop.ID, time.Now())
	l.RecordFire("u2", drop.ID, time.Now())

	if err := svc.DeleteRule(drop.ID); err != nil {
		t.Fatal(err)
	}
	if l.Len() != 1 {
		t.Errorf("ledger has %d entries, want 1", l.Len())
	}
	if _, err := svc.GetRule(drop.ID); !errors.Is(err, apperrors.ErrRuleNotFound) {
		t.Errorf("GetRule() after delete error = %v", err)
	}

	n, err := svc.ClearCooldowns(keep.ID)
	if err != nil || n != 1 {
		t.Errorf("ClearCooldowns() = %d, %v", n, err)
	}
}
