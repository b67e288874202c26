package util

import (
	"github.com/oklog/ulid/v2"
)

// NewID generates a new monotonic ULID string; safe for concurrent use.
func NewID() string {
	return ulid.Make().String()
}
