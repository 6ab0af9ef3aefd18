//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Feature names a per-channel capability toggle
// ENUM(welcome,activities,promotions,rich_cards)
type Feature string
