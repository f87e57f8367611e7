package utils

import "github.com/google/uuid"

// GenerateID returns a random UUID v4 string used for every entity key.
func GenerateID() string {
	return uuid.NewString()
}

// IsValidID reports whether id looks like an ID produced by GenerateID.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
