// Package session issues and tracks the signed session tokens carried in the
// user API's cookie.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidSession covers malformed, expired, revoked and foreign tokens.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSecretRequired is returned by NewStore when no signing secret is given.
	ErrSecretRequired = errors.New("session secret is required")
)

type claims struct {
	jwt.RegisteredClaims
}

// Store signs HS256 tokens and keeps the set of live token IDs so that
// logout and account deletion can revoke them before they expire.
type Store struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu   sync.Mutex
	live map[string]entry
}

type entry struct {
	username  string
	expiresAt time.Time
}

func NewStore(secret string, ttl time.Duration) (*Store, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		live:   make(map[string]entry),
	}, nil
}

// TTL reports how long issued tokens stay valid.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Issue creates a new token for username.
func (s *Store) Issue(username string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	id := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	s.mu.Lock()
	s.live[id] = entry{username: username, expiresAt: expiresAt}
	s.mu.Unlock()

	return signed, expiresAt, nil
}

// Resolve returns the username bound to a live token.
func (s *Store) Resolve(raw string) (string, error) {
	c, err := s.parse(raw)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live[c.ID]
	if !ok || e.username != c.Subject {
		return "", ErrInvalidSession
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.live, c.ID)
		return "", ErrInvalidSession
	}
	return e.username, nil
}

// Revoke drops a single token. Unknown or malformed tokens are ignored.
func (s *Store) Revoke(raw string) {
	c, err := s.parse(raw)
	if err != nil {
		return
	}
	s.mu.Lock()
	delete(s.live, c.ID)
	s.mu.Unlock()
}

// RevokeUser drops every token issued to username and reports how many were live.
func (s *Store) RevokeUser(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.live {
		if e.username == username {
			delete(s.live, id)
			n++
		}
	}
	return n
}

func (s *Store) parse(raw string) (*claims, error) {
	if raw == "" {
		return nil, ErrInvalidSession
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if c.ID == "" || c.Subject == "" {
		return nil, ErrInvalidSession
	}
	return &c, nil
}
