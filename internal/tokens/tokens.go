// Package tokens persists OAuth tokens in a SQLite database keyed by the
// client id they were issued to, so switching credentials never reuses a
// stale token.
package tokens

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/faintpulse/earmark/internal/shared"
	"golang.org/x/oauth2"
)

// Cache is the on-disk OAuth token cache.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the token cache at path and runs any
// pending schema migrations. The path can be ":memory:" for tests.
func Open(path string) (*Cache, error) {
	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate token cache: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save upserts the token for a client id.
func (c *Cache) Save(clientID string, tok *oauth2.Token) error {
	if clientID == "" {
		return fmt.Errorf("%w: client id required", shared.ErrInvalidArgument)
	}
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: token required", shared.ErrInvalidArgument)
	}

	_, err := c.db.Exec(`
		INSERT INTO oauth_tokens (client_id, access_token, token_type, refresh_token, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(client_id) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`, clientID, tok.AccessToken, tok.TokenType, tok.RefreshToken, tok.Expiry.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Load returns the cached token for a client id, or
// [shared.ErrNoCachedToken] when none has been saved. An expired token is
// still returned; the caller decides whether its refresh token is usable.
func (c *Cache) Load(clientID string) (*oauth2.Token, error) {
	row := c.db.QueryRow(`
		SELECT access_token, token_type, refresh_token, expiry
		FROM oauth_tokens WHERE client_id = ?
	`, clientID)

	var tok oauth2.Token
	err := row.Scan(&tok.AccessToken, &tok.TokenType, &tok.RefreshToken, &tok.Expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: client %s", shared.ErrNoCachedToken, clientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	return &tok, nil
}

// Delete removes the cached token for a client id. Deleting an absent
// token is a no-op.
func (c *Cache) Delete(clientID string) error {
	if _, err := c.db.Exec(`DELETE FROM oauth_tokens WHERE client_id = ?`, clientID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
