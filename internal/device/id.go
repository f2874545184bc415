package device

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const idSize = 32 // 256 bits

// GenerateID generates a cryptographically secure device ID.
func GenerateID() (string, error) {
	b := make([]byte, idSize)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("device: failed to generate id: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidID reports whether s has the shape GenerateID produces. Device IDs
// become Redis key segments, so anything else is ignored.
func ValidID(s string) bool {
	b, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(b) == idSize
}
