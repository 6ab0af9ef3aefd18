package domain

import (
	"time"

	ruleDomain "github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
)

// MaxMulticastRecipients is the largest recipient list one multicast accepts.
const MaxMulticastRecipients = 500

// Failure reasons stored on records and shown to operators.
const (
	ReasonQuotaExceeded        = "เกินโควต้าการส่งข้อความประจำเดือน (300 ข้อความ/เดือน)"
	ReasonMulticastCapacity    = "Multicast สามารถส่งได้สูงสุด 500 คนต่อครั้ง กรุณาใช้ Broadcast สำหรับจำนวนมาก"
	ReasonFollowersUnsupported = "ไม่สามารถดึงรายชื่อ Followers ได้ (Free Plan ไม่รองรับ)"
	ReasonNoFollowers          = "ไม่พบ Followers ในบัญชีนี้"
)

// Record is one bulk send, immediate or scheduled. A scheduled record is
// resolved exactly once to success or failed.
type Record struct {
	ID            string                    `json:"id"`
	ChannelID     string                    `json:"channelId"`
	ChannelName   string                    `json:"channelName"`
	TargetMode    TargetMode                `json:"targetType"`
	TargetCount   int                       `json:"targetCount"`
	MessageCount  int                       `json:"messageCount"`
	Blocks        []ruleDomain.ContentBlock `json:"messageBoxes,omitempty"`
	Status        Status                    `json:"status"`
	CreatedAt     time.Time                 `json:"createdAt"`
	SentAt        *time.Time                `json:"sentAt,omitempty"`
	ScheduledFor  *time.Time                `json:"scheduledFor,omitempty"`
	Error         string                    `json:"error,omitempty"`
	QuotaExceeded bool                      `json:"quotaExceeded,omitempty"`
}

// Pending reports whether the record still waits for its timer.
func (r *Record) Pending() bool {
	return r.Status == StatusScheduled
}

// Request is a bulk send submitted by an operator. EstimatedRecipients caps
// a multicast; zero means the multicast limit. ScheduledFor in the past or
// nil sends immediately.
type Request struct {
	ChannelID           string                    `json:"channelId"`
	TargetMode          TargetMode                `json:"sendType"`
	Blocks              []ruleDomain.ContentBlock `json:"messageBoxes"`
	EstimatedRecipients int                       `json:"estimatedFollowers,omitempty"`
	ScheduledFor        *time.Time                `json:"scheduledTime,omitempty"`
}
