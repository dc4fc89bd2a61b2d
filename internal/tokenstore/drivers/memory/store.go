// Package memory is a process-local token store. Nothing survives a restart.
package memory

import (
	"log/slog"
	"sync"

	"github.com/dimbox/dimbox/internal/tokenstore"
	"github.com/dimbox/dimbox/pkg/cryptox"
	"github.com/dimbox/dimbox/pkg/financesdk"
)

type Store struct {
	log *slog.Logger

	mu     sync.RWMutex
	values map[string]string
}

var _ tokenstore.Store = (*Store)(nil)

func NewStore(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{log: log, values: make(map[string]string)}
}

func (s *Store) Access() string  { return s.get(tokenstore.KeyAccess) }
func (s *Store) Refresh() string { return s.get(tokenstore.KeyRefresh) }

func (s *Store) SaveTokens(p financesdk.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Access != "" {
		s.values[tokenstore.KeyAccess] = p.Access
	}
	if p.Refresh != "" {
		s.values[tokenstore.KeyRefresh] = p.Refresh
	}

	s.log.Debug("tokens saved",
		"access", cryptox.Fingerprint(p.Access),
		"refresh", cryptox.Fingerprint(p.Refresh),
	)
	return nil
}

func (s *Store) SaveProfile(p *financesdk.UserProfile) error {
	if p == nil {
		s.mu.Lock()
		delete(s.values, tokenstore.KeyProfile)
		s.mu.Unlock()
		return nil
	}

	raw, err := tokenstore.EncodeProfile(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values[tokenstore.KeyProfile] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) Profile() (*financesdk.UserProfile, bool) {
	raw := s.get(tokenstore.KeyProfile)
	if raw == "" {
		return nil, false
	}
	p, err := tokenstore.DecodeProfile(raw)
	if err != nil {
		s.log.Warn("discarding unreadable cached profile", "error", err)
		return nil, false
	}
	return p, true
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range tokenstore.Keys {
		delete(s.values, key)
	}
	s.log.Debug("credentials cleared")
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}
