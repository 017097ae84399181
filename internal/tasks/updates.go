package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	FetchSaved
	StoreTracks
	FetchFeatures
	BuildDataset
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case FetchSaved:
		return "fetch_saved"
	case StoreTracks:
		return "store_tracks"
	case FetchFeatures:
		return "fetch_features"
	case BuildDataset:
		return "build_dataset"
	default:
		return ""
	}
}

func fetchPlaylistUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s...", playlistID),
	}
}

func fetchSavedUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSaved,
		Step:    1,
		Total:   1,
		Message: "Fetching saved albums...",
	}
}

func storeTracksUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   StoreTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Storing %d tracks...", total),
	}
}

func fetchFeaturesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeatures,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching audio features...", step, total),
	}
}

func buildDatasetUpdate(rows int, feature string) ProgressUpdate {
	if feature == "" {
		return ProgressUpdate{
			Phase:   BuildDataset,
			Step:    1,
			Total:   1,
			Message: fmt.Sprintf("Collected %d rows for prediction", rows),
		}
	}
	return ProgressUpdate{
		Phase:   BuildDataset,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Collected %d labeled rows for %s", rows, feature),
	}
}
