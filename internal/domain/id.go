package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string for application-owned entities.
// UUIDv7 is time-ordered, so IDs sort roughly by creation time.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
