// package services defines interface Service for the remote music API
package services

import (
	"context"

	"github.com/faintpulse/earmark/internal/models"
	"golang.org/x/oauth2"
)

// Service is the narrow fetch contract the catalog populator and the
// labeling service consume. Everything else about the remote API is out of
// scope for the core.
type Service interface {
	// Authenticate installs a token, enabling the remaining calls.
	// Implementations refresh expired tokens transparently when a refresh
	// token is present.
	Authenticate(ctx context.Context, token *oauth2.Token) error

	// PlaylistTracks fetches every track of a playlist, following
	// pagination.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// SavedAlbumTracks fetches the tracks of every album saved in the
	// user's library, following pagination.
	SavedAlbumTracks(ctx context.Context) ([]models.Track, error)

	// AudioFeatures fetches feature vectors for up to 100 track ids. The
	// result maps every requested id; a nil entry means the service has no
	// vector for that track.
	AudioFeatures(ctx context.Context, trackIDs []string) (map[string]*models.AudioFeatures, error)

	// Token returns the current access token, refreshing it first when
	// necessary.
	Token() (*oauth2.Token, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Service for providers authenticated through a
// browser-based authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the OAuth2 config for the callback handler's
	// code exchange.
	GetOAuthConfig() *oauth2.Config
}
