package matcher

import (
	"slices"
	"strings"

	"github.com/94faddy/line-oa-bot/internal/modules/rule/domain"
	"github.com/samber/lo"
)

// Match returns the rules that fire for text on channelID, oldest first.
//
// A rule is a candidate when it is enabled, lists channelID and one of its
// keywords is a case-insensitive substring of text. When more than one
// candidate remains, rules that disallow overlap are dropped; a lone
// candidate always fires.
func Match(text, channelID string, rules []domain.ActivityRule) []domain.ActivityRule {
	lowered := strings.ToLower(text)

	matched := lo.Filter(rules, func(r domain.ActivityRule, _ int) bool {
		return r.Enabled && r.AppliesTo(channelID) && containsLowered(lowered, r.Keywords)
	})

	if len(matched) > 1 {
		matched = lo.Filter(matched, func(r domain.ActivityRule, _ int) bool {
			return r.AllowOverlap
		})
	}

	slices.SortStableFunc(matched, func(a, b domain.ActivityRule) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return matched
}

// ContainsKeyword reports whether any non-empty keyword occurs in text,
// ignoring case.
func ContainsKeyword(text string, keywords []string) bool {
	return containsLowered(strings.ToLower(text), keywords)
}

func containsLowered(lowered string, keywords []string) bool {
	return lo.SomeBy(keywords, func(k string) bool {
		k = strings.ToLower(strings.TrimSpace(k))
		return k != "" && strings.Contains(lowered, k)
	})
}
