package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dimbox/dimbox/internal/tokenstore"
	"github.com/dimbox/dimbox/pkg/cryptox"
	"github.com/dimbox/dimbox/pkg/financesdk"
	_ "modernc.org/sqlite"
)

// Store keeps the client state in a single key/value table. Every write is
// one transaction, so a reader never sees half of a SaveTokens or Clear.
type Store struct {
	db  *sql.DB
	dsn string
	log *slog.Logger
}

var _ tokenstore.Store = (*Store)(nil)

// NewStore opens the state database at dsn. A bare file path is accepted.
// Call ApplyMigrations before use.
func NewStore(dsn string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite", normalizeDSN(dsn))
	if err != nil {
		return nil, err
	}

	// One connection: the state is tiny and this avoids SQLITE_BUSY between
	// our own writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open state file: %w", err)
	}

	return &Store{db: db, dsn: dsn, log: log}, nil
}

func normalizeDSN(dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	return "file:" + dsn + "?_pragma=busy_timeout(5000)"
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Access() string  { return s.get(tokenstore.KeyAccess) }
func (s *Store) Refresh() string { return s.get(tokenstore.KeyRefresh) }

func (s *Store) SaveTokens(p financesdk.TokenPair) error {
	err := s.withTx(context.Background(), func(tx *sql.Tx) error {
		if p.Access != "" {
			if err := put(tx, tokenstore.KeyAccess, p.Access); err != nil {
				return err
			}
		}
		if p.Refresh != "" {
			if err := put(tx, tokenstore.KeyRefresh, p.Refresh); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}

	s.log.Debug("tokens saved",
		"access", cryptox.Fingerprint(p.Access),
		"refresh", cryptox.Fingerprint(p.Refresh),
	)
	return nil
}

func (s *Store) SaveProfile(p *financesdk.UserProfile) error {
	if p == nil {
		return s.withTx(context.Background(), func(tx *sql.Tx) error {
			_, err := tx.Exec(`DELETE FROM client_state WHERE key = ?`, tokenstore.KeyProfile)
			return err
		})
	}

	raw, err := tokenstore.EncodeProfile(p)
	if err != nil {
		return err
	}
	err = s.withTx(context.Background(), func(tx *sql.Tx) error {
		return put(tx, tokenstore.KeyProfile, raw)
	})
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
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

// Clear removes every session key in one transaction.
func (s *Store) Clear() error {
	err := s.withTx(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`DELETE FROM client_state WHERE key IN (?, ?, ?)`,
			tokenstore.KeyAccess, tokenstore.KeyRefresh, tokenstore.KeyProfile,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	s.log.Debug("credentials cleared")
	return nil
}

func (s *Store) get(key string) string {
	var value string
	err := s.db.QueryRow(`SELECT value FROM client_state WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Error("failed to read client state", "key", key, "error", err)
		}
		return ""
	}
	return value
}

func put(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(`
		INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	return err
}

// withTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
