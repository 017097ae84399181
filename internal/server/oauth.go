package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/faintpulse/earmark/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles OAuth2 callback requests for authorization code flow.
// Implements the Handler interface for registration with a Router.
//
// The flow completes at most once: the handler owns a [Completion] slot that
// the first callback consumes. A second callback hitting the endpoint after
// the slot is consumed is a programming error and panics.
type OAuthHandler struct {
	config *oauth2.Config
	state  string
	done   *Completion[OAuthResult]
	result <-chan OAuthResult
	save   func(*oauth2.Token) error
}

// NewOAuthHandler creates a new OAuth handler with the given OAuth2 config and state token.
// The state token should be cryptographically random for CSRF protection.
// If save is non-nil it is invoked with the exchanged token before the result
// is delivered; a save failure fails the flow.
func NewOAuthHandler(config *oauth2.Config, state string, save func(*oauth2.Token) error) *OAuthHandler {
	done := NewCompletion[OAuthResult]()
	return &OAuthHandler{
		config: config,
		state:  state,
		done:   done,
		result: done.Arm(),
		save:   save,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET /api/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates the state parameter, exchanges the authorization code for tokens,
// persists them, and delivers the result through the completion slot.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)
		h.done.Fire(OAuthResult{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, errParam, errDesc)
		h.done.Fire(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.done.Fire(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	if h.save != nil {
		if err := h.save(token); err != nil {
			h.done.Fire(OAuthResult{err: fmt.Errorf("failed to persist token: %w", err)})
			http.Error(w, "Failed to persist token", http.StatusInternalServerError)
			return
		}
	}

	h.done.Fire(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Result returns the channel receiving the flow's single completion.
//
// The channel delivers exactly one result and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}
