package domain

import (
	"encoding/json"

	channelDomain "github.com/94faddy/line-oa-bot/internal/modules/channel/domain"
	replyDomain "github.com/94faddy/line-oa-bot/internal/modules/reply/domain"
	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	"github.com/samber/oops"
)

// Document is the whole persisted bot configuration. It is loaded and saved
// as one unit.
type Document struct {
	Channels   []channelDomain.Channel      `json:"channels"`
	Activities []ruleDomain.ActivityRule    `json:"activities"`
	Promotions replyDomain.PromotionConfig  `json:"promotions"`
	RichCards  replyDomain.RichCardConfig   `json:"richCards"`
	QuickReply replyDomain.QuickReplyConfig `json:"quickReply"`
	Welcome    replyDomain.WelcomeConfig    `json:"welcome"`
}

// Clone returns a deep copy so a mutation never touches a published snapshot.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, oops.With("context", "failed to marshal settings").Wrap(err)
	}
	var out Document
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, oops.With("context", "failed to unmarshal settings").Wrap(err)
	}
	return &out, nil
}

// Default is written on first start.
func Default() *Document {
	return &Document{
		Channels:   []channelDomain.Channel{},
		Activities: []ruleDomain.ActivityRule{},
		Promotions: replyDomain.PromotionConfig{
			Enabled:  true,
			Keywords: []string{"โปร", "โปรโมชั่น", "promo", "promotion"},
			Items:    []replyDomain.Promotion{},
		},
		RichCards: replyDomain.RichCardConfig{
			Enabled:            true,
			Keywords:           []string{"bonustime", "อัตราชนะ", "สถิติเกม"},
			SendWithQuickReply: true,
			Cards:              []json.RawMessage{},
		},
		QuickReply: replyDomain.QuickReplyConfig{
			Enabled:  true,
			Text:     "เลือกรายการที่ต้องการได้เลยค่ะ",
			Keywords: []string{"เมนู", "menu", "ปุ่มลอย"},
			Buttons:  []replyDomain.QuickReplyButton{},
		},
		Welcome: replyDomain.WelcomeConfig{
			Enabled:      true,
			ShowOnFollow: true,
			Boxes:        []replyDomain.WelcomeBox{},
		},
	}
}
