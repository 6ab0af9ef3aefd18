//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// ButtonType is the action a quick reply or welcome button performs
// ENUM(uri,message)
type ButtonType string

// EditorMode selects how a welcome box is authored
// ENUM(template,json)
type EditorMode string
