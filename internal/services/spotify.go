// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/faintpulse/earmark/internal/models"
	"github.com/faintpulse/earmark/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// audioFeatureBatchSize is the documented maximum for /audio-features.
	audioFeatureBatchSize = 100
)

// spotifyArtist represents an artist reference on a track.
type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// spotifyTrack represents a full or simplified track object.
type spotifyTrack struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Artists          []spotifyArtist `json:"artists"`
	AvailableMarkets []string        `json:"available_markets"`
	URI              string          `json:"uri"`
	Album            struct {
		ID string `json:"id"`
	} `json:"album"`
}

// spotifyPlaylistItems represents one page of playlist items.
type spotifyPlaylistItems struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

// spotifySavedAlbums represents one page of the user's saved albums.
type spotifySavedAlbums struct {
	Items []struct {
		Album struct {
			ID               string   `json:"id"`
			AvailableMarkets []string `json:"available_markets"`
			Tracks           struct {
				Items []spotifyTrack `json:"items"`
				Next  *string        `json:"next"`
			} `json:"tracks"`
		} `json:"album"`
	} `json:"items"`
	Next *string `json:"next"`
}

// spotifyAudioFeatures mirrors the wire shape of one audio-features object.
type spotifyAudioFeatures struct {
	ID               string  `json:"id"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Key              int     `json:"key"`
	Liveness         float64 `json:"liveness"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	TimeSignature    int     `json:"time_signature"`
	Valence          float64 `json:"valence"`
}

// SpotifyService implements [Service] and [OAuthService] for the Spotify
// Web API. Uses [oauth2] for authentication with automatic token refresh
// and a [rate.Limiter] to stay under the API's request budget.
type SpotifyService struct {
	config      *oauth2.Config
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
}

var (
	_ Service      = (*SpotifyService)(nil)
	_ OAuthService = (*SpotifyService)(nil)
)

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/api/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-library-read",
			"playlist-read-private",
			"streaming",
			"user-read-email",
			"user-read-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// Authenticate installs a token. The derived client refreshes it
// transparently as long as a refresh token is present.
func (s *SpotifyService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}

	s.tokenSource = s.config.TokenSource(ctx, token)
	s.httpClient = oauth2.NewClient(ctx, s.tokenSource)
	return nil
}

// Token returns the current access token, refreshed if necessary.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.tokenSource == nil {
		return nil, shared.ErrNotAuthenticated
	}
	tok, err := s.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	return tok, nil
}

// doRequest performs an authenticated, rate-limited GET against the
// Spotify API. endpoint may be an absolute pagination URL or a path
// relative to the API base.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.tokenSource == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	apiURL := endpoint
	if strings.HasPrefix(endpoint, "/") {
		apiURL = s.baseURL + endpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status 401", shared.ErrTokenExpired)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// normalizeTrack converts a wire track into the catalog record shape.
// Simplified album tracks carry no market list of their own and inherit
// the album's.
func normalizeTrack(t spotifyTrack, albumID string, albumMarkets []string) models.Track {
	markets := t.AvailableMarkets
	if len(markets) == 0 {
		markets = albumMarkets
	}
	artists := make([]models.Artist, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, models.Artist{ID: a.ID, Name: a.Name})
	}
	if albumID == "" {
		albumID = t.Album.ID
	}
	return models.Track{
		ID:               t.ID,
		Name:             t.Name,
		Artists:          artists,
		AlbumID:          albumID,
		URI:              t.URI,
		AvailableMarkets: markets,
	}
}

// PlaylistTracks fetches every track of a playlist, following pagination.
// Non-track items (episodes, removed tracks) are skipped.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var tracks []models.Track
	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=100", url.PathEscape(playlistID))

	for {
		var page spotifyPlaylistItems
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil {
				continue
			}
			tracks = append(tracks, normalizeTrack(*item.Track, "", nil))
		}

		if page.Next == nil {
			break
		}
		endpoint = *page.Next
	}

	return tracks, nil
}

// SavedAlbumTracks fetches the tracks of every saved album, following
// pagination at both the album and album-track level.
func (s *SpotifyService) SavedAlbumTracks(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	endpoint := "/me/albums?limit=50"

	for {
		var page spotifySavedAlbums
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			album := item.Album
			for _, t := range album.Tracks.Items {
				tracks = append(tracks, normalizeTrack(t, album.ID, album.AvailableMarkets))
			}

			next := album.Tracks.Next
			for next != nil {
				var trackPage struct {
					Items []spotifyTrack `json:"items"`
					Next  *string        `json:"next"`
				}
				if err := s.doRequest(ctx, *next, &trackPage); err != nil {
					return nil, err
				}
				for _, t := range trackPage.Items {
					tracks = append(tracks, normalizeTrack(t, album.ID, album.AvailableMarkets))
				}
				next = trackPage.Next
			}
		}

		if page.Next == nil {
			break
		}
		endpoint = *page.Next
	}

	return tracks, nil
}

// AudioFeatures fetches feature vectors for up to 100 track ids. The
// response array aligns with the requested ids; null entries map to nil.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]*models.AudioFeatures, error) {
	if len(trackIDs) == 0 {
		return map[string]*models.AudioFeatures{}, nil
	}
	if len(trackIDs) > audioFeatureBatchSize {
		return nil, fmt.Errorf("%w: at most %d ids per audio-features request", shared.ErrInvalidArgument, audioFeatureBatchSize)
	}

	endpoint := fmt.Sprintf("/audio-features?ids=%s", url.QueryEscape(strings.Join(trackIDs, ",")))

	var response struct {
		AudioFeatures []*spotifyAudioFeatures `json:"audio_features"`
	}
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	if len(response.AudioFeatures) != len(trackIDs) {
		return nil, fmt.Errorf("%w: expected %d audio-features entries, got %d",
			shared.ErrAPIRequest, len(trackIDs), len(response.AudioFeatures))
	}

	result := make(map[string]*models.AudioFeatures, len(trackIDs))
	for i, f := range response.AudioFeatures {
		if f == nil {
			result[trackIDs[i]] = nil
			continue
		}
		result[trackIDs[i]] = &models.AudioFeatures{
			Acousticness:     f.Acousticness,
			Danceability:     f.Danceability,
			Energy:           f.Energy,
			Instrumentalness: f.Instrumentalness,
			Key:              f.Key,
			Liveness:         f.Liveness,
			Loudness:         f.Loudness,
			Speechiness:      f.Speechiness,
			Tempo:            f.Tempo,
			TimeSignature:    f.TimeSignature,
			Valence:          f.Valence,
		}
	}

	return result, nil
}
