package cryptox

import (
	"crypto/sha256"
	"encoding/base64"
)

// FingerprintLen is the number of base64url characters kept by Fingerprint.
const FingerprintLen = 12

// Fingerprint returns a short, deterministic SHA-256 fingerprint of a token so
// logs can tell tokens apart without ever containing one. Empty input yields
// an empty fingerprint.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:FingerprintLen]
}
