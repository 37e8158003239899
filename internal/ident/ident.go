// Package ident provides record ids and timestamps for the services.
package ident

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a UUIDv7 string. Its time prefix sorts with creation order.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Now returns the current UTC time at the millisecond precision records
// are rendered with.
func Now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }
