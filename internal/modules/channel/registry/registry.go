package registry

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"sync/atomic"

	"github.com/94faddy/line-oa-bot/internal/modules/channel/domain"
	"github.com/94faddy/line-oa-bot/internal/shared/errors"
	"github.com/94faddy/line-oa-bot/internal/transport/line"
	"github.com/samber/lo"
)

// Entry is a channel together with the API client bound to its access token.
type Entry struct {
	Channel domain.Channel
	API     line.API
}

type snapshot struct {
	entries []*Entry
	byID    map[string]*Entry
}

// Registry holds an immutable snapshot of the configured channels. Readers
// never block; Replace swaps the whole snapshot.
type Registry struct {
	current atomic.Pointer[snapshot]
	factory line.Factory
}

func New(factory line.Factory) *Registry {
	r := &Registry{factory: factory}
	r.current.Store(&snapshot{byID: map[string]*Entry{}})
	return r
}

// Replace rebuilds the snapshot from channels. Clients are reused for
// channels whose access token did not change so their rate limiters carry over.
func (r *Registry) Replace(channels []domain.Channel) {
	prev := r.current.Load()
	next := &snapshot{
		entries: make([]*Entry, 0, len(channels)),
		byID:    make(map[string]*Entry, len(channels)),
	}

	for _, ch := range channels {
		var api line.API
		if old, ok := prev.byID[ch.ID]; ok && old.Channel.ChannelAccessToken == ch.ChannelAccessToken {
			api = old.API
		} else {
			api = r.factory(ch.ChannelAccessToken)
		}
		entry := &Entry{Channel: ch, API: api}
		next.entries = append(next.entries, entry)
		next.byID[ch.ID] = entry
	}

	r.current.Store(next)
}

func (r *Registry) Lookup(channelID string) (*Entry, bool) {
	entry, ok := r.current.Load().byID[channelID]
	return entry, ok
}

// Len is the number of configured channels, enabled or not.
func (r *Registry) Len() int {
	return len(r.current.Load().entries)
}

func (r *Registry) Channels() []domain.Channel {
	return lo.Map(r.current.Load().entries, func(e *Entry, _ int) domain.Channel {
		return e.Channel
	})
}

// Authenticate finds the enabled channel whose secret produced signature
// over body. The scan is linear in the number of channels.
func (r *Registry) Authenticate(body []byte, signature string) (*Entry, error) {
	snap := r.current.Load()
	if len(snap.entries) == 0 {
		return nil, errors.ErrNoChannelsConfigured
	}
	if signature == "" {
		return nil, errors.ErrMissingSignature
	}

	// The header must equal the canonical encoding exactly.
	given := []byte(signature)
	for _, entry := range snap.entries {
		if !entry.Channel.Enabled || entry.Channel.ChannelSecret == "" {
			continue
		}
		if hmac.Equal(given, []byte(Sign(entry.Channel.ChannelSecret, body))) {
			return entry, nil
		}
	}
	return nil, errors.ErrNoMatchingChannel
}

// Sign returns the base64 HMAC-SHA256 of body under secret, as sent in the
// webhook signature header.
func Sign(secret string, body []byte) string {
	return base64.StdEncoding.EncodeToString(mac(secret, body))
}

func mac(secret string, body []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return h.Sum(nil)
}
