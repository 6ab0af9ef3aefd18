//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// TargetMode selects who receives a bulk send
// ENUM(broadcast,multicast)
type TargetMode string

// Status of a dispatch record
// ENUM(success,failed,scheduled)
type Status string
