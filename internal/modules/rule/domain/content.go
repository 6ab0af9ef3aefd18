package domain

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/samber/oops"
)

// ContentBlock is the stored form of one message in a rule or bulk send.
// Use Decode to get a validated variant.
type ContentBlock struct {
	Type    BlockType `json:"type"`
	Content string    `json:"content"`
	AltText string    `json:"altText,omitempty"`
}

// Block is one of TextBlock, ImageBlock or RichCardBlock.
type Block interface {
	block()
}

type TextBlock struct {
	Text string
}

type ImageBlock struct {
	URL string
}

type RichCardBlock struct {
	Card    json.RawMessage
	AltText string
}

func (TextBlock) block()     {}
func (ImageBlock) block()    {}
func (RichCardBlock) block() {}

func (b ContentBlock) Decode() (Block, error) {
	switch b.Type {
	case BlockTypeText:
		text := strings.TrimSpace(b.Content)
		if text == "" {
			return nil, oops.With("block_type", b.Type).Wrap(errors.ErrInvalidContent)
		}
		return TextBlock{Text: text}, nil

	case BlockTypeImage:
		raw := strings.TrimSpace(b.Content)
		if !IsHTTPURL(raw) {
			return nil, oops.With("block_type", b.Type, "url", raw).Wrap(errors.ErrInvalidContent)
		}
		return ImageBlock{URL: raw}, nil

	case BlockTypeFlex:
		card, err := ParseCard([]byte(b.Content))
		if err != nil {
			return nil, oops.With("block_type", b.Type).Wrap(err)
		}
		return RichCardBlock{Card: card, AltText: strings.TrimSpace(b.AltText)}, nil

	default:
		return nil, oops.With("block_type", b.Type).Wrap(errors.ErrInvalidContent)
	}
}

func IsHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ParseCard validates a rich card document and returns it compacted.
// A bubble needs a body; a carousel needs at least one bubble in contents.
func ParseCard(data []byte) (json.RawMessage, error) {
	var card struct {
		Type     string            `json:"type"`
		Body     json.RawMessage   `json:"body"`
		Contents []json.RawMessage `json:"contents"`
	}
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, oops.With("context", "card is not valid JSON").Wrap(errors.ErrInvalidContent)
	}

	switch card.Type {
	case "bubble":
		if len(card.Body) == 0 || string(card.Body) == "null" {
			return nil, oops.With("card_type", card.Type, "context", "bubble has no body").Wrap(errors.ErrInvalidContent)
		}
	case "carousel":
		if len(card.Contents) == 0 {
			return nil, oops.With("card_type", card.Type, "context", "carousel has no contents").Wrap(errors.ErrInvalidContent)
		}
	default:
		return nil, oops.With("card_type", card.Type).Wrap(errors.ErrInvalidContent)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, oops.Wrap(err)
	}
	return buf.Bytes(), nil
}
