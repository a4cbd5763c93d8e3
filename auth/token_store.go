package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore keeps the user's token as JSON in a file only the owner can read
type TokenStore struct {
	path string
	mu   sync.Mutex
}

// NewTokenStore creates a store backed by path
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Path returns the token file location
func (s *TokenStore) Path() string {
	return s.path
}

// Load reads the saved token. A missing file is ErrNotAuthorized.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file %s: %w", s.path, err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(b, tok); err != nil {
		return nil, fmt.Errorf("failed to decode token from file %s: %w", s.path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNotAuthorized
	}
	return tok, nil
}

// Save writes tok, replacing any previous token
func (s *TokenStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	b, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	// Write then rename so a crash never leaves a half-written token
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing token file: %w", err)
	}
	return nil
}
