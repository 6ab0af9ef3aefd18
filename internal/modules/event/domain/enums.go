//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Outcome is how one inbound event was resolved
// ENUM(ignored,welcomed,promotion,activity,rich_card,quick_reply,unmatched,failed)
type Outcome string
