package utils

import "github.com/google/uuid"

// GenerateID returns a random UUID for definition, instance and token ids.
// Rows key on these, so generation must never fail; uuid.NewString panics
// only if the OS entropy source is unusable.
func GenerateID() string {
	return uuid.NewString()
}

// IsValidUUID reports whether s parses as a UUID.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
