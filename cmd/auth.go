package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/faintpulse/earmark/internal/server"
	"github.com/faintpulse/earmark/internal/services"
	"github.com/faintpulse/earmark/internal/shared"
	"github.com/faintpulse/earmark/internal/tokens"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin acquires a Spotify token and caches it, running the browser OAuth
// flow only when the cache has nothing usable.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	force := cmd.Bool("force")

	cache, err := tokens.Open(r.config.Tokens.Path)
	if err != nil {
		return fmt.Errorf("failed to open token cache: %w", err)
	}
	defer cache.Close()

	clientID := r.config.Credentials.Spotify.ClientID
	if !force {
		if token, err := cache.Load(clientID); err == nil && usable(token) {
			r.writePlain("✓ Already authenticated (cached token)\n")
			return nil
		}
	}

	if _, err := r.doOAuth(ctx, cache); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token cached in %s\n", r.config.Tokens.Path)

	return nil
}

// AuthStatus reports whether a cached token exists and whether it is still valid.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	cache, err := tokens.Open(r.config.Tokens.Path)
	if err != nil {
		return fmt.Errorf("failed to open token cache: %w", err)
	}
	defer cache.Close()

	token, err := cache.Load(r.config.Credentials.Spotify.ClientID)
	if errors.Is(err, shared.ErrNoCachedToken) {
		r.writePlain("✗ Not authenticated. Run 'earmark auth login'.\n")
		return nil
	}
	if err != nil {
		return err
	}

	if token.Valid() {
		r.writePlain("✓ Authenticated (token valid until %s)\n", token.Expiry.Format(time.RFC1123))
	} else if token.RefreshToken != "" {
		r.writePlain("✓ Authenticated (access token expired, refresh token cached)\n")
	} else {
		r.writePlain("✗ Cached token expired with no refresh token. Run 'earmark auth login'.\n")
	}
	return nil
}

// AuthLogout discards the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	cache, err := tokens.Open(r.config.Tokens.Path)
	if err != nil {
		return fmt.Errorf("failed to open token cache: %w", err)
	}
	defer cache.Close()

	if err := cache.Delete(r.config.Credentials.Spotify.ClientID); err != nil {
		return fmt.Errorf("failed to delete cached token: %w", err)
	}

	r.writePlain("✓ Logged out\n")
	return nil
}

// ensureAuthenticated installs a token on the service, pulling it from the
// cache or running the OAuth flow when the cache has nothing usable.
func (r *Runner) ensureAuthenticated(ctx context.Context) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	cache, err := tokens.Open(r.config.Tokens.Path)
	if err != nil {
		return fmt.Errorf("failed to open token cache: %w", err)
	}
	defer cache.Close()

	token, err := cache.Load(r.config.Credentials.Spotify.ClientID)
	if err != nil && !errors.Is(err, shared.ErrNoCachedToken) {
		return err
	}

	if err != nil || !usable(token) {
		if token, err = r.doOAuth(ctx, cache); err != nil {
			return err
		}
		// doOAuth already authenticated the service.
		return nil
	}

	return r.spotify.Authenticate(ctx, token)
}

// usable reports whether a cached token can still produce API access, either
// directly or through its refresh token.
func usable(token *oauth2.Token) bool {
	return token != nil && (token.Valid() || token.RefreshToken != "")
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server.
// The exchanged token is persisted to the cache by the callback handler
// before the flow completes.
func (r *Runner) doOAuth(ctx context.Context, cache *tokens.Cache) (*oauth2.Token, error) {
	oauthSrv, ok := r.spotify.(services.OAuthService)
	if !ok {
		return nil, fmt.Errorf("%w: service does not support browser authorization", shared.ErrServiceUnavailable)
	}

	state := shared.GenerateState()
	clientID := r.config.Credentials.Spotify.ClientID

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state, func(token *oauth2.Token) error {
		return cache.Save(clientID, token)
	})
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := r.config.Server.Addr()
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	if err := r.spotify.Authenticate(ctx, result.Token); err != nil {
		return nil, fmt.Errorf("failed to install token: %w", err)
	}

	return result.Token, nil
}
