// Package services defines the [Service] interface for the remote music
// API and implements it for Spotify.
//
// # Service Interface
//
// The catalog populator and the labeling web service consume the remote
// API only through [Service]: playlist tracks, saved-album tracks, batched
// audio features, and the current access token. Keeping the contract this
// narrow is what lets the rest of the core be tested against a mock.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token
// refresh; the derived [oauth2] client refreshes expired access tokens
// using the refresh token. Requests are throttled with [rate.Limiter].
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrAPIRequest] : HTTP request failed
package services
