package ledger

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
)

// Key identifies one cooldown window: a user on a rule.
type Key struct {
	UserID string
	RuleID string
}

// Entry is a snapshot of one ledger row.
type Entry struct {
	UserID  string    `json:"userId"`
	RuleID  string    `json:"ruleId"`
	FiredAt time.Time `json:"firedAt"`
}

// Ledger records when each user last received each rule. It is process
// local and never evicts entries on its own.
type Ledger struct {
	mu      sync.Mutex
	entries map[Key]time.Time
	now     func() time.Time
}

func New() *Ledger {
	return NewWithClock(time.Now)
}

func NewWithClock(now func() time.Time) *Ledger {
	return &Ledger{
		entries: make(map[Key]time.Time),
		now:     now,
	}
}

// CanFire reports whether userID is outside rule's cooldown window.
func (l *Ledger) CanFire(userID string, rule domain.ActivityRule) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remainingLocked(userID, rule) == 0
}

// RecordFire stores at as the last fire time, replacing any earlier value.
func (l *Ledger) RecordFire(userID, ruleID string, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[Key{UserID: userID, RuleID: ruleID}] = at.Truncate(time.Millisecond)
}

// Remaining is zero when the user may fire the rule now.
func (l *Ledger) Remaining(userID string, rule domain.ActivityRule) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remainingLocked(userID, rule)
}

// TryFire checks eligibility and records the fire in one step. When the user
// is still cooling down it returns false and the time left.
func (l *Ledger) TryFire(userID string, rule domain.ActivityRule) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if left := l.remainingLocked(userID, rule); left > 0 {
		return false, left
	}
	// Fires are recorded even without a window so enabling one later
	// accounts for them.
	l.entries[Key{UserID: userID, RuleID: rule.ID}] = l.now().Truncate(time.Millisecond)
	return true, 0
}

func (l *Ledger) remainingLocked(userID string, rule domain.ActivityRule) time.Duration {
	window := rule.CooldownWindow()
	if window == 0 {
		return 0
	}
	last, ok := l.entries[Key{UserID: userID, RuleID: rule.ID}]
	if !ok {
		return 0
	}
	elapsed := l.now().Sub(last)
	if elapsed >= window {
		return 0
	}
	return window - elapsed
}

// ClearAll drops every entry and returns how many were removed.
func (l *Ledger) ClearAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.entries)
	clear(l.entries)
	return n
}

// ClearRule drops every entry of ruleID.
func (l *Ledger) ClearRule(ruleID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key := range l.entries {
		if key.RuleID == ruleID {
			delete(l.entries, key)
			n++
		}
	}
	return n
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns all rows, most recent fire first.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	out := make([]Entry, 0, len(l.entries))
	for key, at := range l.entries {
		out = append(out, Entry{UserID: key.UserID, RuleID: key.RuleID, FiredAt: at})
	}
	l.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int {
		if c := b.FiredAt.Compare(a.FiredAt); c != 0 {
			return c
		}
		return strings.Compare(a.UserID+a.RuleID, b.UserID+b.RuleID)
	})
	return out
}

// FormatRemaining renders d as whole hours and minutes, rounding down.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d ชั่วโมง %d นาที", hours, minutes)
}
