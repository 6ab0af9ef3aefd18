package service

import (
	"errors"
	"testing"

	"github.com/94faddy/line-oa-bot/internal/modules/channel/domain"
	settingsDomain "github.com/94faddy/line-oa-bot/internal/modules/settings/domain"
	settingsService "github.com/94faddy/line-oa-bot/internal/modules/settings/service"
	apperrors "github.com/94faddy/line-oa-bot/internal/shared/errors"
)

type memoryRepo struct {
	doc *settingsDomain.Document
}

func (m *memoryRepo) Load() (*settingsDomain.Document, error) { return m.doc.Clone() }
func (m *memoryRepo) Save(doc *settingsDomain.Document) error { m.doc = doc; return nil }

func newService(t *testing.T) *Service {
	t.Helper()
	settings, err := settingsService.New(&memoryRepo{doc: settingsDomain.Default()})
	if err != nil {
		t.Fatal(err)
	}
	return New(settings)
}

func TestChannelLifecycle(t *testing.T) {
	svc := newService(t)

	ch, err := svc.AddChannel(domain.Channel{Name: " Shop ", ChannelSecret: "s", ChannelAccessToken: "t"})
	if err != nil {
		t.Fatalf("AddChannel() error = %v", err)
	}
	if ch.ID == "" || ch.Name != "Shop" || !ch.Enabled {
		t.Errorf("AddChannel() = %+v", ch)
	}
	if ch.Features != domain.DefaultFeatures() {
		t.Errorf("Features = %+v", ch.Features)
	}

	enabled, err := svc.ToggleChannel(ch.ID)
	if err != nil || enabled {
		t.Errorf("ToggleChannel() = %v, %v", enabled, err)
	}

	if err := svc.SetFeature(ch.ID, domain.FeaturePromotions, false); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.GetChannel(ch.ID)
	if got.Features.Promotions || !got.Features.Activities {
		t.Errorf("Features after SetFeature = %+v", got.Features)
	}

	updated, err := svc.UpdateChannel(ch.ID, domain.Channel{Name: "Shop 2", Enabled: true, Features: got.Features})
	if err != nil {
		t.Fatal(err)
	}
	if updated.ChannelSecret != "s" || updated.Name != "Shop 2" || !updated.Enabled {
		t.Errorf("UpdateChannel() = %+v", updated)
	}

	if err := svc.DeleteChannel(ch.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetChannel(ch.ID); !errors.Is(err, apperrors.ErrChannelNotFound) {
		t.Errorf("GetChannel() after delete error = %v", err)
	}
	if err := svc.DeleteChannel(ch.ID); !errors.Is(err, apperrors.ErrChannelNotFound) {
		t.Errorf("second DeleteChannel() error = %v", err)
	}
}

func TestAddChannelValidation(t *testing.T) {
	svc := newService(t)
	_, err := svc.AddChannel(domain.Channel{Name: "x", ChannelSecret: " "})
	if !errors.Is(err, apperrors.ErrInvalidContent) {
		t.Errorf("AddChannel() error = %v, want ErrInvalidContent", err)
	}
	if len(svc.GetAllChannels()) != 0 {
		t.Error("invalid channel was stored")
	}
}
