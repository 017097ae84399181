// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/faintpulse/earmark/internal/models"
	"golang.org/x/oauth2"
)

// MockService is a configurable test double for [services.Service].
//
// AudioFeatures serves entries from Features and records every requested
// batch in FeatureBatches, so tests can assert how many fetches a caller
// issued and for which ids.
type MockService struct {
	Playlist       []models.Track
	Saved          []models.Track
	Features       map[string]*models.AudioFeatures
	AccessToken    string
	Err            error
	FeatureBatches [][]string
}

func (m *MockService) Authenticate(ctx context.Context, token *oauth2.Token) error {
	return m.Err
}

func (m *MockService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Playlist, nil
}

func (m *MockService) SavedAlbumTracks(ctx context.Context) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Saved, nil
}

func (m *MockService) AudioFeatures(ctx context.Context, trackIDs []string) (map[string]*models.AudioFeatures, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.FeatureBatches = append(m.FeatureBatches, append([]string(nil), trackIDs...))

	result := make(map[string]*models.AudioFeatures, len(trackIDs))
	for _, id := range trackIDs {
		result[id] = m.Features[id]
	}
	return result, nil
}

func (m *MockService) Token() (*oauth2.Token, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	token := m.AccessToken
	if token == "" {
		token = "mock_token"
	}
	return &oauth2.Token{AccessToken: token}, nil
}

func (m *MockService) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
