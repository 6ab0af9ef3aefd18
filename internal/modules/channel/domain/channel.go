package domain

import "time"

// Channel is one registered bot account. The secret authenticates inbound
// webhooks; the access token authorizes outbound sends.
type Channel struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	ChannelSecret      string    `json:"channelSecret"`
	ChannelAccessToken string    `json:"channelAccessToken"`
	Enabled            bool      `json:"enabled"`
	Features           Features  `json:"features"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Features are per-channel toggles layered on top of the global feature configs.
type Features struct {
	Welcome    bool `json:"welcome"`
	Activities bool `json:"activities"`
	Promotions bool `json:"promotions"`
	RichCards  bool `json:"richCards"`
}

// DefaultFeatures enables everything, which is what a newly added channel gets.
func DefaultFeatures() Features {
	return Features{Welcome: true, Activities: true, Promotions: true, RichCards: true}
}

func (f Features) Enabled(feature Feature) bool {
	switch feature {
	case FeatureWelcome:
		return f.Welcome
	case FeatureActivities:
		return f.Activities
	case FeaturePromotions:
		return f.Promotions
	case FeatureRichCards:
		return f.RichCards
	default:
		return false
	}
}

func (f *Features) Set(feature Feature, enabled bool) {
	switch feature {
	case FeatureWelcome:
		f.Welcome = enabled
	case FeatureActivities:
		f.Activities = enabled
	case FeaturePromotions:
		f.Promotions = enabled
	case FeatureRichCards:
		f.RichCards = enabled
	}
}
