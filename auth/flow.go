package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// AuthorizeTimeout bounds how long the user has to approve access
var AuthorizeTimeout = 5 * time.Minute

// Authorize runs the installed-app flow: it serves the redirect on the
// loopback address from cfg.RedirectURL, prints the consent URL to out,
// exchanges the returned code and saves the token. Port 0 picks a free port.
func Authorize(ctx context.Context, cfg *oauth2.Config, store *TokenStore, out io.Writer, logger *slog.Logger) (*oauth2.Token, error) {
	if logger == nil {
		logger = slog.Default()
	}

	redirect, err := url.Parse(cfg.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL %q: %w", cfg.RedirectURL, err)
	}

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to start listener on %s: %w", redirect.Host, err)
	}
	defer listener.Close()

	// The redirect must name the port actually bound
	flowCfg := *cfg
	redirect.Host = listener.Addr().String()
	flowCfg.RedirectURL = redirect.String()

	state := uuid.NewString()
	results := make(chan callbackResult, 1)
	app := newCallbackApp(redirect.Path, state, results, logger)

	go func() {
		if err := app.Listener(listener); err != nil {
			logger.Debug("callback server stopped", "error", err)
		}
	}()
	defer func() {
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			logger.Warn("callback server shutdown failed", "error", err)
		}
	}()

	// AccessTypeOffline together with consent guarantees a refresh token
	authURL := flowCfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Fprintf(out, "Open the following URL in your browser to authorize evernote-drive:\n\n%s\n\n", authURL)
	logger.Info("waiting for authorization", "redirect", flowCfg.RedirectURL)

	ctx, cancel := context.WithTimeout(ctx, AuthorizeTimeout)
	defer cancel()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := flowCfg.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("unable to retrieve token from Google: %w", err)
		}
		if err := store.Save(tok); err != nil {
			return nil, err
		}
		logger.Info("authorization saved", "path", store.Path())
		return tok, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization timed out or was cancelled: %w", ctx.Err())
	}
}
