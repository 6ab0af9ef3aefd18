package domain

import (
	"encoding/json"
	"strings"
	"time"

	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/samber/oops"
)

// PromotionConfig drives the promotion carousel reply.
type PromotionConfig struct {
	Enabled  bool        `json:"enabled"`
	Keywords []string    `json:"keywords"`
	Items    []Promotion `json:"items"`
}

type Promotion struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	LinkURL   string    `json:"linkUrl"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

// RichCardConfig holds the pool of pre-authored cards sent on keyword.
type RichCardConfig struct {
	Enabled            bool              `json:"enabled"`
	Keywords           []string          `json:"keywords"`
	SendWithQuickReply bool              `json:"sendWithQuickReply"`
	AltText            string            `json:"altText"`
	Cards              []json.RawMessage `json:"cards"`
}

// QuickReplyConfig is the floating button menu.
type QuickReplyConfig struct {
	Enabled  bool               `json:"enabled"`
	Text     string             `json:"text"`
	Keywords []string           `json:"keywords"`
	Buttons  []QuickReplyButton `json:"buttons"`
}

type QuickReplyButton struct {
	ID       string     `json:"id"`
	Type     ButtonType `json:"type"`
	Label    string     `json:"label"`
	ImageURL string     `json:"imageUrl,omitempty"`
	URI      string     `json:"uri,omitempty"`
	Text     string     `json:"text,omitempty"`
	Order    int        `json:"order"`
	Enabled  bool       `json:"enabled"`
}

// WelcomeConfig controls the greeting sent when a user follows a channel.
type WelcomeConfig struct {
	Enabled      bool         `json:"enabled"`
	ShowOnFollow bool         `json:"showOnFollow"`
	Boxes        []WelcomeBox `json:"boxes"`
}

type WelcomeBox struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Enabled         bool            `json:"enabled"`
	EditorMode      EditorMode      `json:"editorMode"`
	EnabledChannels []string        `json:"enabledChannels"`
	Template        WelcomeTemplate `json:"templateSettings"`
	CustomJSON      string          `json:"customFlexJson,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type WelcomeTemplate struct {
	Title               string          `json:"title"`
	Description         string          `json:"description"`
	BackgroundImageURL  string          `json:"backgroundImageUrl,omitempty"`
	BackgroundColor     string          `json:"backgroundColor,omitempty"`
	TextColor           string          `json:"textColor,omitempty"`
	BodyBackgroundColor string          `json:"bodyBackgroundColor,omitempty"`
	Buttons             []WelcomeButton `json:"buttons"`
}

type WelcomeButton struct {
	ID      string     `json:"id"`
	Type    ButtonType `json:"type"`
	Label   string     `json:"label"`
	URI     string     `json:"uri,omitempty"`
	Text    string     `json:"text,omitempty"`
	Color   string     `json:"color,omitempty"`
	Order   int        `json:"order"`
	Enabled bool       `json:"enabled"`
}

// AvailableFor reports whether the box may be shown on channelID. An empty
// allow-list means every channel.
func (b WelcomeBox) AvailableFor(channelID string) bool {
	if len(b.EnabledChannels) == 0 {
		return true
	}
	for _, id := range b.EnabledChannels {
		if id == channelID {
			return true
		}
	}
	return false
}

// Validate checks the buttons and, in json mode, the custom card.
func (b WelcomeBox) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return oops.With("field", "name").Wrap(errors.ErrInvalidContent)
	}
	if b.EditorMode == EditorModeJson {
		if _, err := ruleDomain.ParseCard([]byte(b.CustomJSON)); err != nil {
			return oops.With("field", "customFlexJson").Wrap(err)
		}
	}
	for i, btn := range b.Template.Buttons {
		if err := validateButton(btn.Type, btn.Label, btn.URI, btn.Text); err != nil {
			return oops.With("field", "buttons", "index", i).Wrap(err)
		}
	}
	return nil
}

// Validate checks every button of the menu.
func (c QuickReplyConfig) Validate() error {
	for i, btn := range c.Buttons {
		if err := validateButton(btn.Type, btn.Label, btn.URI, btn.Text); err != nil {
			return oops.With("field", "buttons", "index", i).Wrap(err)
		}
	}
	return nil
}

// Validate checks every card in the pool.
func (c RichCardConfig) Validate() error {
	for i, card := range c.Cards {
		if _, err := ruleDomain.ParseCard(card); err != nil {
			return oops.With("field", "cards", "index", i).Wrap(err)
		}
	}
	return nil
}

func validateButton(kind ButtonType, label, uri, text string) error {
	if strings.TrimSpace(label) == "" {
		return oops.With("context", "button label is empty").Wrap(errors.ErrInvalidContent)
	}
	switch kind {
	case ButtonTypeUri:
		if !ruleDomain.IsHTTPURL(strings.TrimSpace(uri)) {
			return oops.With("uri", uri).Wrap(errors.ErrInvalidContent)
		}
	case ButtonTypeMessage:
		if strings.TrimSpace(text) == "" {
			return oops.With("context", "message button has no text").Wrap(errors.ErrInvalidContent)
		}
	default:
		return oops.With("button_type", kind).Wrap(errors.ErrInvalidContent)
	}
	return nil
}
