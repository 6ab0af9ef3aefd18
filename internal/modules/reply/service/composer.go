package service

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/cooldown/ledger"
	"github.com/94faddy/line-oa-bot/internal/modules/reply/domain"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	"github.com/94faddy/line-oa-bot/internal/transport/line"
	"github.com/samber/lo"
)

// MaxMessagesPerReply caps one reply call.
const MaxMessagesPerReply = line.MaxMessagesPerRequest

// User-facing fallback texts.
const (
	PlaceholderText        = "ขออภัยค่ะ ข้อความนี้ไม่สามารถแสดงได้"
	ImageUnavailableText   = "ขออภัยค่ะ ไม่สามารถแสดงรูปภาพได้"
	ErrorText              = "ขออภัยค่ะ เกิดข้อผิดพลาดในการส่งข้อมูล"
	NoPromotionText        = "ขออภัยค่ะ ขณะนี้ยังไม่มีโปรโมชั่นพิเศษ 😊"
	NoRichCardText         = "ขออภัยค่ะ ขณะนี้ยังไม่มี Flex Message"
	QuickReplyDisabledText = "ขออภัยค่ะ Quick Reply Menu ถูกปิดการใช้งาน"
)

const (
	promotionAltText       = "โปรโมชั่นพิเศษ"
	defaultRichCardAltText = "📊 เกมอัตราชนะสูง"
	defaultWelcomeTitle    = "ยินดีต้อนรับ!"
	defaultWelcomeText     = "ยินดีต้อนรับสู่บริการของเรา"
	promotionImageFallback = "https://via.placeholder.com/1040x1040/667eea/ffffff?text=Promotion"
	promotionLinkFallback  = "https://line.me"
	promotionButtonLabel   = "ดูรายละเอียด"
	brandColor             = "#667eea"
	mutedTextColor         = "#666666"
	defaultHeaderTextColor = "#ffffff"
	defaultBodyBackground  = "#ffffff"
	quickReplyItemType     = "action"
	welcomeFallbackAltText = "Welcome Message"
)

// Composer turns stored content into outbound messages. It never fails:
// invalid content degrades to a fallback text.
type Composer struct {
	intn func(n int) int
}

func New() *Composer {
	return &Composer{intn: rand.IntN}
}

// NewWithRand lets tests pin the card chosen by RandomCard.
func NewWithRand(intn func(n int) int) *Composer {
	return &Composer{intn: intn}
}

// Compose returns one message per content block of rule, in order.
func (c *Composer) Compose(rule ruleDomain.ActivityRule) []line.Message {
	messages := make([]line.Message, 0, len(rule.ContentBlocks))
	for i, block := range rule.ContentBlocks {
		messages = append(messages, c.composeBlock(rule, i, block))
	}
	return messages
}

func (c *Composer) composeBlock(rule ruleDomain.ActivityRule, index int, block ruleDomain.ContentBlock) line.Message {
	decoded, err := block.Decode()
	if err != nil {
		slog.Warn("Invalid content block", "rule_id", rule.ID, "index", index, "error", err)
		switch block.Type {
		case ruleDomain.BlockTypeImage:
			return line.NewTextMessage(ImageUnavailableText)
		case ruleDomain.BlockTypeFlex:
			return line.NewTextMessage(ErrorText)
		default:
			return line.NewTextMessage(PlaceholderText)
		}
	}

	switch b := decoded.(type) {
	case ruleDomain.TextBlock:
		return line.NewTextMessage(b.Text)
	case ruleDomain.ImageBlock:
		return line.NewImageMessage(b.URL)
	case ruleDomain.RichCardBlock:
		alt := b.AltText
		if alt == "" {
			alt = lo.Ternary(rule.Name != "", rule.Name, defaultRichCardAltText)
		}
		return line.NewFlexMessage(alt, b.Card)
	default:
		return line.NewTextMessage(PlaceholderText)
	}
}

// ComposeCooldownMessage fills {timeLeft} in template, falling back to the
// default template when it is empty.
func (c *Composer) ComposeCooldownMessage(template string, remaining time.Duration) string {
	if strings.TrimSpace(template) == "" {
		template = ruleDomain.DefaultCooldownMessage
	}
	return strings.ReplaceAll(template, ruleDomain.TimeLeftPlaceholder, ledger.FormatRemaining(remaining))
}

// Promotion builds a carousel with one bubble per enabled item, or nil when
// there is nothing to show.
func (c *Composer) Promotion(cfg domain.PromotionConfig) *line.Message {
	items := lo.Filter(cfg.Items, func(p domain.Promotion, _ int) bool {
		return p.Enabled
	})
	if len(items) == 0 {
		return nil
	}

	bubbles := lo.Map(items, func(p domain.Promotion, _ int) line.Bubble {
		image := lo.Ternary(ruleDomain.IsHTTPURL(p.ImageURL), p.ImageURL, promotionImageFallback)
		link := lo.Ternary(ruleDomain.IsHTTPURL(p.LinkURL), p.LinkURL, promotionLinkFallback)

		bubble := line.NewBubble()
		bubble.Hero = &line.Component{
			Type:        "image",
			URL:         image,
			Size:        "full",
			AspectRatio: "1:1",
			AspectMode:  "cover",
			Action:      &line.Action{Type: "uri", URI: link},
		}
		bubble.Body = &line.Component{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.Component{{
				Type:   "text",
				Text:   lo.Ternary(strings.TrimSpace(p.Title) != "", p.Title, promotionAltText),
				Weight: "bold",
				Size:   "xl",
				Color:  brandColor,
				Wrap:   true,
			}},
		}
		bubble.Footer = &line.Component{
			Type:   "box",
			Layout: "vertical",
			Contents: []line.Component{{
				Type:   "button",
				Action: &line.Action{Type: "uri", Label: promotionButtonLabel, URI: link},
				Style:  "primary",
				Color:  brandColor,
			}},
		}
		return bubble
	})

	return flexMessage(promotionAltText, line.NewCarousel(bubbles))
}

// RandomCard picks one valid card from the pool, or nil when none is usable.
func (c *Composer) RandomCard(cfg domain.RichCardConfig) *line.Message {
	cards := lo.FilterMap(cfg.Cards, func(raw json.RawMessage, i int) (json.RawMessage, bool) {
		card, err := ruleDomain.ParseCard(raw)
		if err != nil {
			slog.Warn("Skipping invalid rich card", "index", i, "error", err)
			return nil, false
		}
		return card, true
	})
	if len(cards) == 0 {
		return nil
	}

	alt := lo.Ternary(strings.TrimSpace(cfg.AltText) != "", cfg.AltText, defaultRichCardAltText)
	msg := line.NewFlexMessage(alt, cards[c.intn(len(cards))])
	return &msg
}

// QuickReplyMenu builds the text message carrying the quick reply buttons,
// or nil when the menu is disabled or has no usable buttons.
func (c *Composer) QuickReplyMenu(cfg domain.QuickReplyConfig) *line.Message {
	if !cfg.Enabled {
		return nil
	}

	buttons := lo.Filter(cfg.Buttons, func(b domain.QuickReplyButton, _ int) bool {
		return b.Enabled
	})
	slices.SortStableFunc(buttons, func(a, b domain.QuickReplyButton) int {
		return a.Order - b.Order
	})

	items := lo.FilterMap(buttons, func(b domain.QuickReplyButton, _ int) (line.QuickReplyItem, bool) {
		action, ok := buttonAction(b.Type, b.Label, b.URI, b.Text)
		if !ok {
			return line.QuickReplyItem{}, false
		}
		return line.QuickReplyItem{
			Type:     quickReplyItemType,
			ImageURL: lo.Ternary(ruleDomain.IsHTTPURL(b.ImageURL), b.ImageURL, ""),
			Action:   action,
		}, true
	})
	if len(items) == 0 {
		return nil
	}

	msg := line.NewTextMessage(cfg.Text)
	if strings.TrimSpace(msg.Text) == "" {
		msg.Text = "เลือกรายการที่ต้องการได้เลยค่ะ"
	}
	msg.QuickReply = &line.QuickReply{Items: items}
	return &msg
}

// Welcome renders the first enabled box available on channelID. A json mode
// box with a broken card falls back to its template settings.
func (c *Composer) Welcome(cfg domain.WelcomeConfig, channelID string) *line.Message {
	box, ok := lo.Find(cfg.Boxes, func(b domain.WelcomeBox) bool {
		return b.Enabled && b.AvailableFor(channelID)
	})
	if !ok {
		return nil
	}

	if box.EditorMode == domain.EditorModeJson && strings.TrimSpace(box.CustomJSON) != "" {
		card, err := ruleDomain.ParseCard([]byte(box.CustomJSON))
		if err == nil {
			alt := lo.Ternary(box.Name != "", box.Name, welcomeFallbackAltText)
			msg := line.NewFlexMessage(alt, card)
			return &msg
		}
		slog.Warn("Invalid welcome card, using template", "box_id", box.ID, "error", err)
	}

	return c.welcomeTemplate(box.Template)
}

func (c *Composer) welcomeTemplate(t domain.WelcomeTemplate) *line.Message {
	buttons := lo.Filter(t.Buttons, func(b domain.WelcomeButton, _ int) bool {
		return b.Enabled
	})
	slices.SortStableFunc(buttons, func(a, b domain.WelcomeButton) int {
		return a.Order - b.Order
	})

	buttonComponents := lo.FilterMap(buttons, func(b domain.WelcomeButton, _ int) (line.Component, bool) {
		action, ok := buttonAction(b.Type, b.Label, b.URI, b.Text)
		if !ok {
			return line.Component{}, false
		}
		return line.Component{
			Type:   "button",
			Action: &action,
			Style:  "primary",
			Color:  lo.Ternary(b.Color != "", b.Color, brandColor),
			Height: "sm",
		}, true
	})

	title := lo.Ternary(strings.TrimSpace(t.Title) != "", t.Title, defaultWelcomeTitle)

	body := []line.Component{{
		Type:   "text",
		Text:   lo.Ternary(strings.TrimSpace(t.Description) != "", t.Description, defaultWelcomeText),
		Color:  mutedTextColor,
		Size:   "sm",
		Wrap:   true,
		Align:  "center",
		Margin: "md",
	}}
	if len(buttonComponents) > 0 {
		body = append(body,
			line.Component{Type: "separator", Margin: "lg"},
			line.Component{Type: "box", Layout: "vertical", Contents: buttonComponents, Spacing: "sm", Margin: "lg"},
		)
	}

	bubble := line.NewBubble()
	bubble.Size = "mega"
	if ruleDomain.IsHTTPURL(strings.TrimSpace(t.BackgroundImageURL)) {
		bubble.Hero = &line.Component{
			Type:        "image",
			URL:         strings.TrimSpace(t.BackgroundImageURL),
			Size:        "full",
			AspectRatio: "20:13",
			AspectMode:  "cover",
		}
	}
	bubble.Header = &line.Component{
		Type:   "box",
		Layout: "vertical",
		Contents: []line.Component{{
			Type:   "text",
			Text:   title,
			Color:  lo.Ternary(t.TextColor != "", t.TextColor, defaultHeaderTextColor),
			Size:   "xl",
			Weight: "bold",
			Align:  "center",
		}},
		BackgroundColor: lo.Ternary(t.BackgroundColor != "", t.BackgroundColor, brandColor),
		PaddingAll:      "20px",
	}
	bubble.Body = &line.Component{
		Type:            "box",
		Layout:          "vertical",
		Contents:        body,
		PaddingAll:      "20px",
		BackgroundColor: lo.Ternary(t.BodyBackgroundColor != "", t.BodyBackgroundColor, defaultBodyBackground),
	}

	return flexMessage(title, bubble)
}

func buttonAction(kind domain.ButtonType, label, uri, text string) (line.Action, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return line.Action{}, false
	}
	switch kind {
	case domain.ButtonTypeUri:
		uri = strings.TrimSpace(uri)
		if !ruleDomain.IsHTTPURL(uri) {
			return line.Action{}, false
		}
		return line.Action{Type: "uri", Label: label, URI: uri}, true
	case domain.ButtonTypeMessage:
		text = strings.TrimSpace(text)
		if text == "" {
			return line.Action{}, false
		}
		return line.Action{Type: "message", Label: label, Text: text}, true
	default:
		return line.Action{}, false
	}
}

func flexMessage(altText string, contents any) *line.Message {
	data, err := json.Marshal(contents)
	if err != nil {
		slog.Error("Failed to marshal flex contents", "error", err)
		msg := line.NewTextMessage(ErrorText)
		return &msg
	}
	msg := line.NewFlexMessage(altText, data)
	return &msg
}
