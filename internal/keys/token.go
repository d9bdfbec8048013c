package keys

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 24

// GenerateKeyValue produces a new URL-safe license token with 24 bytes of
// entropy. Collisions are handled by the issuance retry loop, not here.
func GenerateKeyValue() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
