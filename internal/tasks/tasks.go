// package tasks implements catalog population and dataset builds over the track catalog.
//
// The core abstraction is Engine, which orchestrates pulling the library from the
// remote service into the catalog and deriving datasets from recorded labels.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/faintpulse/earmark/internal/catalog"
	"github.com/faintpulse/earmark/internal/models"
	"github.com/faintpulse/earmark/internal/services"
	"github.com/faintpulse/earmark/internal/shared"
)

// featureBatchSize is the remote API's per-request cap on audio-feature ids.
const featureBatchSize = 100

// PopulateResult contains counters from a full catalog population run.
type PopulateResult struct {
	TotalTracks    int // Distinct tracks seen across playlist and saved albums
	FetchedVectors int // Audio-feature vectors fetched this run
	Unavailable    int // Tracks the service reported no vector for
	Batches        int // Audio-feature requests issued
}

// Engine defines the long-running operations over the catalog.
type Engine interface {
	// Populate pulls the configured playlist and the saved-album library into
	// the catalog, then fetches audio features for tracks that don't have a
	// recorded vector yet.
	Populate(ctx context.Context, progress chan<- ProgressUpdate) (*PopulateResult, error)

	// FittingDataset assembles the labeled rows for one feature.
	FittingDataset(ctx context.Context, progress chan<- ProgressUpdate, feature string) (*Dataset, error)

	// PredictionDataset assembles the rows of every track with a known vector.
	PredictionDataset(ctx context.Context, progress chan<- ProgressUpdate) (*Dataset, error)
}

// CatalogEngine implements Engine over a catalog store and a music service.
type CatalogEngine struct {
	spotify    services.Service
	store      *catalog.Store
	playlistID string
}

// NewCatalogEngine creates a new CatalogEngine. playlistID may be empty, in
// which case Populate only pulls the saved-album library.
func NewCatalogEngine(spotify services.Service, store *catalog.Store, playlistID string) *CatalogEngine {
	return &CatalogEngine{
		spotify:    spotify,
		store:      store,
		playlistID: playlistID,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *CatalogEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Populate refreshes every track detail it sees and fetches audio features
// only for tracks without a recorded vector, so re-running after a partial
// failure never re-fetches what the catalog already holds.
func (e *CatalogEngine) Populate(ctx context.Context, progress chan<- ProgressUpdate) (*PopulateResult, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	result := &PopulateResult{}

	var tracks []models.Track
	seen := make(map[string]bool)
	collect := func(batch []models.Track) {
		for _, t := range batch {
			// Local files and removed tracks come back without an id.
			if t.ID == "" || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			tracks = append(tracks, t)
		}
	}

	if e.playlistID != "" {
		e.sendProgress(progress, fetchPlaylistUpdate(e.playlistID))
		playlistTracks, err := e.spotify.PlaylistTracks(ctx, e.playlistID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist tracks: %w", err)
		}
		collect(playlistTracks)
	}

	e.sendProgress(progress, fetchSavedUpdate())
	savedTracks, err := e.spotify.SavedAlbumTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch saved albums: %w", err)
	}
	collect(savedTracks)

	result.TotalTracks = len(tracks)
	e.sendProgress(progress, storeTracksUpdate(len(tracks)))

	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if err := e.store.PutTrack(t); err != nil {
			return result, fmt.Errorf("failed to store track %s: %w", t.ID, err)
		}
		ids = append(ids, t.ID)
	}

	missing, err := e.store.MissingAudioFeatures(ids)
	if err != nil {
		return result, fmt.Errorf("failed to scan for missing vectors: %w", err)
	}

	for start := 0; start < len(missing); start += featureBatchSize {
		end := min(start+featureBatchSize, len(missing))
		batch := missing[start:end]
		result.Batches++

		e.sendProgress(progress, fetchFeaturesUpdate(end, len(missing)))

		vectors, err := e.spotify.AudioFeatures(ctx, batch)
		if err != nil {
			return result, fmt.Errorf("failed to fetch audio features: %w", err)
		}

		for _, id := range batch {
			f := vectors[id]
			if err := e.store.PutAudioFeatures(id, f); err != nil {
				return result, fmt.Errorf("failed to store audio features for %s: %w", id, err)
			}
			if f == nil {
				result.Unavailable++
			} else {
				result.FetchedVectors++
			}
		}
	}

	return result, nil
}
