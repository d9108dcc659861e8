package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const authTimeout = 2 * time.Minute

// openBrowser is swapped out in tests.
var openBrowser = shared.OpenBrowser

// AuthLogin runs the Google sign-in flow and saves the token to auth.google.token_path.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	oauthConfig, err := server.GoogleConfig(r.config.Auth.Google)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, oauthConfig)
	if err != nil {
		return err
	}

	tokenPath := r.config.Auth.Google.TokenPath
	if err := server.SaveToken(tokenPath, token); err != nil {
		return err
	}

	r.logger.Info("sign-in complete", "token", tokenPath)
	r.writePlainln("✓ Signed in")
	r.writePlain("✓ Token saved to %s\n\n", tokenPath)
	r.writePlain("You can now use: nowplaying play\n")
	return nil
}

// AuthStatus reports whether a saved token exists.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	token, err := server.LoadToken(r.config.Auth.Google.TokenPath)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return r.writePlain("✗ Not signed in\n")
		}
		return err
	}

	r.writePlain("✓ Signed in\n")
	switch {
	case token.Expiry.IsZero():
		r.writePlain("Access token: no expiry\n")
	case token.Valid():
		r.writePlain("Access token: expires %s\n", token.Expiry.Local().Format(time.RFC1123))
	default:
		r.writePlain("Access token: expired, will refresh on next request\n")
	}
	if token.RefreshToken == "" {
		r.writePlain("⚠ No refresh token saved; run 'nowplaying auth login' when the access token expires\n")
	}
	return nil
}

// AuthLogout deletes the saved token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	tokenPath := r.config.Auth.Google.TokenPath
	if err := os.Remove(tokenPath); err != nil {
		if os.IsNotExist(err) {
			return r.writePlain("Already signed out\n")
		}
		return fmt.Errorf("failed to remove token: %w", err)
	}
	r.logger.Info("removed token", "path", tokenPath)
	return r.writePlain("✓ Signed out\n")
}

// doOAuth serves the callback, opens the consent page and waits for the code exchange.
func (r *Runner) doOAuth(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	state := shared.GenerateID()
	authURL := server.AuthURL(oauthConfig, state)

	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewCallbackRouter(server.RequestLogger(r.logger))
	router.Mount(oauthHandler)

	serverAddr := r.config.Server.Addr()
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Google sign-in...\n")
	if err := openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}
