package line

import "encoding/json"

// MaxMessagesPerRequest is the number of message objects the messaging API
// accepts in one reply, push, multicast or broadcast call.
const MaxMessagesPerRequest = 5

// Message is an outbound message object. Only the fields relevant to the
// message type are serialized.
type Message struct {
	Type               string          `json:"type"`
	Text               string          `json:"text,omitempty"`
	OriginalContentURL string          `json:"originalContentUrl,omitempty"`
	PreviewImageURL    string          `json:"previewImageUrl,omitempty"`
	AltText            string          `json:"altText,omitempty"`
	Contents           json.RawMessage `json:"contents,omitempty"`
	QuickReply         *QuickReply     `json:"quickReply,omitempty"`
}

func NewTextMessage(text string) Message {
	return Message{Type: "text", Text: text}
}

func NewImageMessage(url string) Message {
	return Message{Type: "image", OriginalContentURL: url, PreviewImageURL: url}
}

func NewFlexMessage(altText string, contents json.RawMessage) Message {
	return Message{Type: "flex", AltText: altText, Contents: contents}
}

type QuickReply struct {
	Items []QuickReplyItem `json:"items"`
}

type QuickReplyItem struct {
	Type     string `json:"type"`
	ImageURL string `json:"imageUrl,omitempty"`
	Action   Action `json:"action"`
}

type Action struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	URI   string `json:"uri,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Webhook is the inbound request body.
type Webhook struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type       string        `json:"type"`
	ReplyToken string        `json:"replyToken"`
	Timestamp  int64         `json:"timestamp"`
	Source     Source        `json:"source"`
	Message    *EventMessage `json:"message,omitempty"`
}

type Source struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId,omitempty"`
	RoomID  string `json:"roomId,omitempty"`
}

type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// FollowerPage is one page of the follower id listing.
type FollowerPage struct {
	UserIDs []string `json:"userIds"`
	Next    string   `json:"next"`
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type multicastRequest struct {
	To       []string  `json:"to"`
	Messages []Message `json:"messages"`
}

type broadcastRequest struct {
	Messages []Message `json:"messages"`
}
