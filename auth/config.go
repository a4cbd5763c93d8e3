// Package auth obtains and maintains the OAuth credentials used to talk to Drive.
package auth

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

const (
	// CallbackPath is where the loopback server receives the authorization code
	CallbackPath = "/oauth2callback"

	// DefaultPort is the loopback port registered with the OAuth client
	DefaultPort = 6789
)

// ErrNotAuthorized means no usable token exists and `evernote-drive auth` must be run
var ErrNotAuthorized = errors.New("not authorized: run `evernote-drive auth` first")

// Scopes limits access to files this tool creates
var Scopes = []string{drive.DriveFileScope}

// LoadConfig reads an installed-app client secret and points its redirect at
// the local callback server on port.
func LoadConfig(credentialsFile string, port int) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", credentialsFile, err)
	}

	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	cfg.RedirectURL = RedirectURL(port)
	return cfg, nil
}

// RedirectURL is the loopback redirect for port
func RedirectURL(port int) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", port, CallbackPath)
}
