package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/desertthunder/nowplaying/internal/shared"
)

var googleScopes = []string{"openid", "email", "profile"}

// GoogleConfig builds the OAuth2 client config for Google sign-in.
func GoogleConfig(cfg shared.GoogleConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: auth.google client_id and client_secret must be set", shared.ErrMissingCredentials)
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       googleScopes,
		Endpoint:     google.Endpoint,
	}, nil
}

// AuthURL returns the consent URL for state, asking for a refresh token.
func AuthURL(config *oauth2.Config, state string) string {
	return config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// LoadToken reads a token saved by [SaveToken].
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no token at %s, run `auth login`", shared.ErrNotAuthenticated, path)
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("%w: corrupt token file: %v", shared.ErrInvalidInput, err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token file has no credentials", shared.ErrNotAuthenticated)
	}
	return &token, nil
}

// SaveToken writes token to path with owner-only permissions, creating parent directories.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// persistingSource saves refreshed tokens back to disk.
type persistingSource struct {
	base    oauth2.TokenSource
	path    string
	current string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != p.current {
		p.current = token.AccessToken
		_ = SaveToken(p.path, token)
	}
	return token, nil
}

// TokenSource returns a refreshing source seeded with the token saved at path.
// Refreshed tokens are written back to the same file.
func TokenSource(ctx context.Context, config *oauth2.Config, path string) (oauth2.TokenSource, error) {
	token, err := LoadToken(path)
	if err != nil {
		return nil, err
	}
	base := config.TokenSource(ctx, token)
	return oauth2.ReuseTokenSource(token, &persistingSource{base: base, path: path, current: token.AccessToken}), nil
}
