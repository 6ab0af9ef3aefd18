//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// BlockType is the wire tag of a content block
// ENUM(text,image,flex)
type BlockType string
