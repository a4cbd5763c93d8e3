package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"evernote-drive/retry"

	"golang.org/x/oauth2"
)

// NewHTTPClient builds an authorized client from the stored token. The token
// is checked (and refreshed if needed) once here, so a revoked grant fails
// before any note is touched. Later refreshes are written back to store.
func NewHTTPClient(ctx context.Context, cfg *oauth2.Config, store *TokenStore, logger *slog.Logger) (*http.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tok, err := store.Load()
	if err != nil {
		return nil, err
	}

	src := &persistingTokenSource{
		base:   cfg.TokenSource(ctx, tok),
		store:  store,
		last:   tok,
		logger: logger,
	}
	ts := oauth2.ReuseTokenSource(tok, src)

	if _, err := ts.Token(); err != nil {
		if retry.IsTokenExpired(err) {
			return nil, fmt.Errorf("%w (%v)", ErrNotAuthorized, err)
		}
		return nil, fmt.Errorf("initializing credentials: %w", err)
	}

	return oauth2.NewClient(ctx, ts), nil
}

// persistingTokenSource saves every token that differs from the last one it saw
type persistingTokenSource struct {
	base   oauth2.TokenSource
	store  *TokenStore
	logger *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Only update if the token actually changed
	if s.last == nil || tok.AccessToken != s.last.AccessToken || !tok.Expiry.Equal(s.last.Expiry) {
		s.logger.Info("token was refreshed, saving", "path", s.store.Path())
		if err := s.store.Save(tok); err != nil {
			s.logger.Warn("failed to save refreshed token", "error", err)
		}
		s.last = tok
	}
	return tok, nil
}
