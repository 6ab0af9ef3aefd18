package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// DefaultCooldownHours applies when a rule is created without a window.
const DefaultCooldownHours = 2

// MaxCooldownHours bounds the window so it fits in a time.Duration.
const MaxCooldownHours = 24 * 366

// DefaultCooldownMessage is used when a rule has no cooldown template of its own.
const DefaultCooldownMessage = "คุณได้รับกิจกรรมไปแล้วค่ะ กรุณารอ {timeLeft} ก่อนขอรับกิจกรรมอีกครั้งนะคะ 😊"

// TimeLeftPlaceholder is substituted with the formatted remaining cooldown.
const TimeLeftPlaceholder = "{timeLeft}"

// ActivityRule is a keyword-triggered reply with an optional per-user cooldown.
type ActivityRule struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Enabled         bool           `json:"enabled"`
	Keywords        []string       `json:"keywords"`
	Channels        []string       `json:"channels"`
	CooldownEnabled bool           `json:"cooldownEnabled"`
	CooldownHours   float64        `json:"cooldownHours"`
	AllowOverlap    bool           `json:"allowOverlap"`
	ContentBlocks   []ContentBlock `json:"messageBoxes"`
	CooldownMessage string         `json:"cooldownMessage"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// UnmarshalJSON also reads the older useCooldown and allowSharedKeywords
// names. The current names win when both are present.
func (r *ActivityRule) UnmarshalJSON(data []byte) error {
	type plain ActivityRule
	aux := struct {
		*plain
		CooldownEnabled     *bool `json:"cooldownEnabled"`
		AllowOverlap        *bool `json:"allowOverlap"`
		UseCooldown         *bool `json:"useCooldown"`
		AllowSharedKeywords *bool `json:"allowSharedKeywords"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.CooldownEnabled = lo.FromPtr(lo.CoalesceOrEmpty(aux.CooldownEnabled, aux.UseCooldown))
	r.AllowOverlap = lo.FromPtr(lo.CoalesceOrEmpty(aux.AllowOverlap, aux.AllowSharedKeywords))
	return nil
}

// CooldownWindow is zero when the cooldown is disabled.
func (r ActivityRule) CooldownWindow() time.Duration {
	if !r.CooldownEnabled || r.CooldownHours <= 0 {
		return 0
	}
	hours := min(r.CooldownHours, MaxCooldownHours)
	return time.Duration(hours * float64(time.Hour))
}

func (r ActivityRule) AppliesTo(channelID string) bool {
	return lo.Contains(r.Channels, channelID)
}

// Normalize trims keywords and channel ids and drops empty ones.
func (r *ActivityRule) Normalize() {
	clean := func(items []string) []string {
		return lo.Uniq(lo.FilterMap(items, func(s string, _ int) (string, bool) {
			s = strings.TrimSpace(s)
			return s, s != ""
		}))
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Keywords = clean(r.Keywords)
	r.Channels = clean(r.Channels)
	if r.CooldownEnabled && r.CooldownHours <= 0 {
		r.CooldownHours = DefaultCooldownHours
	}
}

// Validate checks the rule is fit to be stored. Every content block must
// decode into a valid variant.
func (r ActivityRule) Validate() error {
	if r.Name == "" {
		return oops.With("field", "name").Wrap(errors.ErrInvalidContent)
	}
	if len(r.Keywords) == 0 {
		return oops.With("field", "keywords").Wrap(errors.ErrInvalidContent)
	}
	if r.CooldownHours < 0 || r.CooldownHours > MaxCooldownHours {
		return oops.With("field", "cooldownHours", "max", MaxCooldownHours).Wrap(errors.ErrInvalidContent)
	}
	if len(r.ContentBlocks) == 0 {
		return oops.With("field", "messageBoxes").Wrap(errors.ErrInvalidContent)
	}
	for i, block := range r.ContentBlocks {
		if _, err := block.Decode(); err != nil {
			return oops.With("field", "messageBoxes", "index", i).Wrap(err)
		}
	}
	return nil
}
