// Package server provides HTTP routing, middleware, OAuth handling, and the
// labeling web service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, persists them, and delivers the result
// through a single-use [Completion] slot. A callback arriving after the slot
// is consumed panics; the flow must complete exactly once.
//
// When the user runs the auth command, a temporary HTTP server starts on the
// configured address, handles the callback, and shuts down after receiving
// the OAuth token.
//
// # Labeling Service
//
// [LabelingServer] serves the labeling API consumed by the embedded web
// front-end: declared features, the next untrained track per feature, rating
// submission, the current access token for in-browser playback, and a
// shutdown endpoint. All endpoints are stateless over the catalog; the
// shutdown endpoint consumes its own [Completion] slot and a second request
// is treated as a programming error.
package server
