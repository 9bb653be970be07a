package auth // package auth holds the client-side session state: the token pair and its claims

import (
	"sync" // sync guards the in-memory token mirror against concurrent requests
	"time" // time compares the decoded expiry against the clock

	"github.com/golang-jwt/jwt/v5" // JWT library used to decode (not verify) access-token claims

	"github.com/locatrova/locatrova-admin/internal/storage"
)

// Fixed keys under which the token pair is persisted.  They never change so
// a new process picks up the previous session.
const (
	accessTokenKey  = "locatrova.accessToken"
	refreshTokenKey = "locatrova.refreshToken"
)

// TokenPair carries the access/refresh credential pair returned by login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the identity encoded in the access token's claims.
type User struct {
	ID       string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// TokenStore owns the current token pair.  The persisted values are loaded
// once at construction; afterwards reads are served from the in-memory
// mirror and writes go to both.  The store never validates tokens at write
// time — a malformed token is simply treated as expired on read.
type TokenStore struct {
	mu      sync.RWMutex
	store   *storage.Store
	access  string
	refresh string
}

// NewTokenStore builds a TokenStore backed by the given storage, loading any
// previously persisted pair.
func NewTokenStore(store *storage.Store) *TokenStore {
	s := &TokenStore{store: store}
	s.access, _ = store.Get(accessTokenKey)
	s.refresh, _ = store.Get(refreshTokenKey)
	return s
}

// SetTokens overwrites both tokens unconditionally, in memory and on disk.
func (s *TokenStore) SetTokens(pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = pair.AccessToken
	s.refresh = pair.RefreshToken
	if err := s.store.Set(accessTokenKey, pair.AccessToken); err != nil {
		return err
	}
	return s.store.Set(refreshTokenKey, pair.RefreshToken)
}

// SetAccessToken replaces only the access token, preserving the refresh
// token.  Used after a refresh: this backend does not rotate refresh tokens.
func (s *TokenStore) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = token
	return s.store.Set(accessTokenKey, token)
}

// AccessToken returns the current access token, empty when absent.
func (s *TokenStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken returns the current refresh token, empty when absent.
func (s *TokenStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// ClearTokens removes both tokens from memory and disk.
func (s *TokenStore) ClearTokens() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	if err := s.store.Delete(accessTokenKey); err != nil {
		return err
	}
	return s.store.Delete(refreshTokenKey)
}

// IsAuthenticated reports whether an access token exists and its decoded
// expiry lies strictly in the future.  Any decode failure counts as expired.
func (s *TokenStore) IsAuthenticated() bool {
	s.mu.RLock()
	raw := s.access
	s.mu.RUnlock()
	if raw == "" {
		return false
	}
	claims, err := decodeClaims(raw)
	if err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().Before(exp.Time)
}

// CurrentUser decodes the identity claims of the access token.  It returns
// nil on any decode failure (absent or malformed token) and never errors:
// callers treat nil as "not logged in".
func (s *TokenStore) CurrentUser() *User {
	s.mu.RLock()
	raw := s.access
	s.mu.RUnlock()
	if raw == "" {
		return nil
	}
	claims, err := decodeClaims(raw)
	if err != nil {
		return nil
	}
	u := &User{}
	if v, ok := claims["userId"].(string); ok {
		u.ID = v
	}
	if v, ok := claims["email"].(string); ok {
		u.Email = v
	}
	if v, ok := claims["username"].(string); ok {
		u.Username = v
	}
	if u.ID == "" && u.Email == "" && u.Username == "" {
		return nil
	}
	return u
}

// decodeClaims extracts the claim map of a JWT without verifying its
// signature.  The client is not the party that trusts the token — the
// backend verifies it on every call — so an unverified parse is enough to
// read the expiry and identity.
func decodeClaims(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
