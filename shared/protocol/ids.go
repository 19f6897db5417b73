package protocol

import "github.com/google/uuid"

// NewID returns a random session id.
func NewID() string {
	return uuid.NewString()
}
