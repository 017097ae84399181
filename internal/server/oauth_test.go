package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// newExchangeServer returns an OAuth2 config whose token endpoint is a local
// stub exchanging any code for the given access token.
func newExchangeServer(t *testing.T, accessToken string) *oauth2.Config {
	t.Helper()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": "%s", "token_type": "Bearer", "refresh_token": "refresh", "expires_in": 3600}`, accessToken)
	}))
	t.Cleanup(tokenServer.Close)

	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenServer.URL},
	}
}

func awaitResult(t *testing.T, h *OAuthHandler) OAuthResult {
	t.Helper()
	select {
	case result := <-h.Result():
		return result
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OAuth result")
		return OAuthResult{}
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("SuccessfulCallback", func(t *testing.T) {
		var saved *oauth2.Token
		handler := NewOAuthHandler(newExchangeServer(t, "access"), "state123", func(token *oauth2.Token) error {
			saved = token
			return nil
		})

		req := httptest.NewRequest(http.MethodGet, "/api/callback?state=state123&code=authcode", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}

		result := awaitResult(t, handler)
		if result.Error() != nil {
			t.Fatalf("unexpected flow error: %v", result.Error())
		}
		if result.Token.AccessToken != "access" {
			t.Errorf("unexpected access token: %s", result.Token.AccessToken)
		}
		if saved == nil || saved.AccessToken != "access" {
			t.Error("expected token to be persisted before delivery")
		}
	})

	t.Run("InvalidState", func(t *testing.T) {
		handler := NewOAuthHandler(newExchangeServer(t, "access"), "state123", nil)

		req := httptest.NewRequest(http.MethodGet, "/api/callback?state=wrong&code=authcode", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if awaitResult(t, handler).Error() == nil {
			t.Error("expected flow error for invalid state")
		}
	})

	t.Run("ProviderDenied", func(t *testing.T) {
		handler := NewOAuthHandler(newExchangeServer(t, "access"), "state123", nil)

		req := httptest.NewRequest(http.MethodGet, "/api/callback?state=state123&error=access_denied&error_description=user+cancelled", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if awaitResult(t, handler).Error() == nil {
			t.Error("expected flow error when provider denies authorization")
		}
	})

	t.Run("SaveFailure", func(t *testing.T) {
		handler := NewOAuthHandler(newExchangeServer(t, "access"), "state123", func(*oauth2.Token) error {
			return fmt.Errorf("disk full")
		})

		req := httptest.NewRequest(http.MethodGet, "/api/callback?state=state123&code=authcode", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if awaitResult(t, handler).Error() == nil {
			t.Error("expected flow error when persistence fails")
		}
	})

	t.Run("SecondCallbackPanics", func(t *testing.T) {
		handler := NewOAuthHandler(newExchangeServer(t, "access"), "state123", nil)

		req := httptest.NewRequest(http.MethodGet, "/api/callback?state=state123&code=authcode", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		awaitResult(t, handler)

		mustPanic(t, func() {
			handler.ServeHTTP(httptest.NewRecorder(), req)
		})
	})

	t.Run("Routes", func(t *testing.T) {
		handler := NewOAuthHandler(newExchangeServer(t, "access"), "state123", nil)
		routes := handler.Routes()
		if len(routes) != 1 || routes[0] != "GET /api/callback" {
			t.Errorf("unexpected routes: %v", routes)
		}
	})
}
