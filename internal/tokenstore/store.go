package tokenstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dimbox/dimbox/pkg/financesdk"
)

// Canonical keys of the persisted client state. All three are cleared
// together.
const (
	KeyAccess  = "access_token"
	KeyRefresh = "refresh_token"
	KeyProfile = "user_profile"
)

// Keys lists every key Clear removes.
var Keys = []string{KeyAccess, KeyRefresh, KeyProfile}

var ErrClosed = errors.New("tokenstore: closed")

// Store persists the credentials and cached profile of the single local
// session. Tokens are opaque strings and are never validated. Concrete
// drivers (memory, sqlite) implement this.
type Store interface {
	financesdk.TokenSource

	// SaveProfile caches p. A nil profile removes the cached value.
	SaveProfile(p *financesdk.UserProfile) error

	// Profile returns the cached profile, if any.
	Profile() (*financesdk.UserProfile, bool)

	// Close releases any underlying resources.
	Close() error
}

// EncodeProfile is the stored form of a profile.
func EncodeProfile(p *financesdk.UserProfile) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(data), nil
}

// DecodeProfile parses a value written by EncodeProfile.
func DecodeProfile(raw string) (*financesdk.UserProfile, error) {
	var p financesdk.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}
