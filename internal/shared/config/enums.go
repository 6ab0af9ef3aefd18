//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package config

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// HistoryDriver selects where bulk dispatch records are kept
// ENUM(memory,sqlite)
type HistoryDriver string
