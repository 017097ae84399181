package catalog

import (
	"errors"
	"testing"

	"github.com/faintpulse/earmark/internal/models"
	"github.com/faintpulse/earmark/internal/shared"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenInMemory()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testTrack(id, name string, markets ...string) models.Track {
	return models.Track{
		ID:               id,
		Name:             name,
		Artists:          []models.Artist{{ID: "a1", Name: "Artist"}},
		AvailableMarkets: markets,
	}
}

func TestTracks(t *testing.T) {
	t.Run("PutAndGet", func(t *testing.T) {
		store := openTestStore(t)

		want := testTrack("t1", "Song One", "PL", "US")
		if err := store.PutTrack(want); err != nil {
			t.Fatalf("failed to put track: %v", err)
		}

		got, err := store.Track("t1")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}

		if got.Name != want.Name {
			t.Errorf("expected name %q, got %q", want.Name, got.Name)
		}

		if !got.AvailableIn("PL") {
			t.Error("expected track to be available in PL")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.PutTrack(testTrack("t1", "Old Name")); err != nil {
			t.Fatalf("failed to put track: %v", err)
		}
		if err := store.PutTrack(testTrack("t1", "New Name")); err != nil {
			t.Fatalf("failed to overwrite track: %v", err)
		}

		got, err := store.Track("t1")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Name != "New Name" {
			t.Errorf("expected overwrite to win, got %q", got.Name)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		store := openTestStore(t)

		if _, err := store.Track("missing"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("EmptyID", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.PutTrack(models.Track{}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("EachTrack", func(t *testing.T) {
		store := openTestStore(t)

		for _, id := range []string{"b", "a", "c"} {
			if err := store.PutTrack(testTrack(id, "Track "+id)); err != nil {
				t.Fatalf("failed to put track: %v", err)
			}
		}

		var seen []string
		err := store.EachTrack(func(track models.Track) (bool, error) {
			seen = append(seen, track.ID)
			return true, nil
		})
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		// Badger iterates in key order.
		want := []string{"a", "b", "c"}
		if len(seen) != len(want) {
			t.Fatalf("expected %d tracks, got %d", len(want), len(seen))
		}
		for i := range want {
			if seen[i] != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], seen[i])
			}
		}
	})

	t.Run("EachTrackStopsEarly", func(t *testing.T) {
		store := openTestStore(t)

		for _, id := range []string{"a", "b", "c"} {
			if err := store.PutTrack(testTrack(id, "Track "+id)); err != nil {
				t.Fatalf("failed to put track: %v", err)
			}
		}

		count := 0
		err := store.EachTrack(func(models.Track) (bool, error) {
			count++
			return false, nil
		})
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected scan to stop after 1 track, saw %d", count)
		}
	})
}

func TestAudioFeatures(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		store := openTestStore(t)

		want := &models.AudioFeatures{Energy: 0.8, Tempo: 128, Key: 5, TimeSignature: 4}
		if err := store.PutAudioFeatures("t1", want); err != nil {
			t.Fatalf("failed to put audio features: %v", err)
		}

		got, known, err := store.AudioFeatures("t1")
		if err != nil {
			t.Fatalf("failed to get audio features: %v", err)
		}
		if !known {
			t.Fatal("expected record to be known")
		}
		if got == nil || got.Energy != 0.8 || got.Key != 5 {
			t.Errorf("unexpected features: %+v", got)
		}
	})

	t.Run("UnavailableMarker", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.PutAudioFeatures("t1", nil); err != nil {
			t.Fatalf("failed to put marker: %v", err)
		}

		got, known, err := store.AudioFeatures("t1")
		if err != nil {
			t.Fatalf("failed to get audio features: %v", err)
		}
		if !known {
			t.Error("marker should count as a known record")
		}
		if got != nil {
			t.Errorf("expected nil vector for marker, got %+v", got)
		}
	})

	t.Run("Absent", func(t *testing.T) {
		store := openTestStore(t)

		_, known, err := store.AudioFeatures("t1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if known {
			t.Error("expected record to be unknown")
		}
	})

	t.Run("MissingAudioFeatures", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.PutAudioFeatures("known", &models.AudioFeatures{}); err != nil {
			t.Fatalf("failed to put audio features: %v", err)
		}
		if err := store.PutAudioFeatures("marked", nil); err != nil {
			t.Fatalf("failed to put marker: %v", err)
		}

		missing, err := store.MissingAudioFeatures([]string{"known", "marked", "new1", "new2"})
		if err != nil {
			t.Fatalf("failed to compute missing set: %v", err)
		}

		if len(missing) != 2 || missing[0] != "new1" || missing[1] != "new2" {
			t.Errorf("expected [new1 new2], got %v", missing)
		}
	})
}

func TestFeatures(t *testing.T) {
	t.Run("CreateAndList", func(t *testing.T) {
		store := openTestStore(t)

		for _, name := range []string{"workout", "energetic"} {
			if err := store.CreateFeature(name); err != nil {
				t.Fatalf("failed to create feature %s: %v", name, err)
			}
		}

		names, err := store.Features()
		if err != nil {
			t.Fatalf("failed to list features: %v", err)
		}
		if len(names) != 2 {
			t.Fatalf("expected 2 features, got %d", len(names))
		}
	})

	t.Run("CreateIdempotent", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.CreateFeature("workout"); err != nil {
			t.Fatalf("failed to create feature: %v", err)
		}
		if err := store.CreateFeature("workout"); err != nil {
			t.Fatalf("re-creating a feature should succeed: %v", err)
		}

		names, err := store.Features()
		if err != nil {
			t.Fatalf("failed to list features: %v", err)
		}
		if len(names) != 1 {
			t.Errorf("expected 1 feature, got %d", len(names))
		}
	})

	t.Run("InvalidName", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.CreateFeature(""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for empty name, got %v", err)
		}
		if err := store.CreateFeature("a:b"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for colon in name, got %v", err)
		}
	})

	t.Run("EmptyDirectory", func(t *testing.T) {
		store := openTestStore(t)

		names, err := store.Features()
		if err != nil {
			t.Fatalf("failed to list features: %v", err)
		}
		if names == nil || len(names) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", names)
		}
	})
}

func TestLabels(t *testing.T) {
	t.Run("PutAndGet", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.CreateFeature("workout"); err != nil {
			t.Fatalf("failed to create feature: %v", err)
		}
		if err := store.PutLabel("workout", "t1", 1); err != nil {
			t.Fatalf("failed to put label: %v", err)
		}

		rating, labeled, err := store.Label("workout", "t1")
		if err != nil {
			t.Fatalf("failed to get label: %v", err)
		}
		if !labeled || rating != 1 {
			t.Errorf("expected rating 1, got %d (labeled=%v)", rating, labeled)
		}
	})

	t.Run("LastWriteWins", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.CreateFeature("workout"); err != nil {
			t.Fatalf("failed to create feature: %v", err)
		}
		if err := store.PutLabel("workout", "t1", 1); err != nil {
			t.Fatalf("failed to put label: %v", err)
		}
		if err := store.PutLabel("workout", "t1", 0); err != nil {
			t.Fatalf("failed to overwrite label: %v", err)
		}

		rating, labeled, err := store.Label("workout", "t1")
		if err != nil {
			t.Fatalf("failed to get label: %v", err)
		}
		if !labeled || rating != 0 {
			t.Errorf("expected latest rating 0, got %d", rating)
		}

		count, err := store.LabelCount("workout")
		if err != nil {
			t.Fatalf("failed to count labels: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 label after overwrite, got %d", count)
		}
	})

	t.Run("AbsenceIsUnlabeled", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.CreateFeature("workout"); err != nil {
			t.Fatalf("failed to create feature: %v", err)
		}

		_, labeled, err := store.Label("workout", "t1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if labeled {
			t.Error("expected track to be unlabeled")
		}
	})

	t.Run("UndeclaredFeature", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.PutLabel("ghost", "t1", 1); !errors.Is(err, shared.ErrFeatureNotFound) {
			t.Errorf("expected ErrFeatureNotFound, got %v", err)
		}
	})

	t.Run("FeatureIsolation", func(t *testing.T) {
		store := openTestStore(t)

		for _, name := range []string{"workout", "chill"} {
			if err := store.CreateFeature(name); err != nil {
				t.Fatalf("failed to create feature: %v", err)
			}
		}
		if err := store.PutLabel("workout", "t1", 1); err != nil {
			t.Fatalf("failed to put label: %v", err)
		}

		_, labeled, err := store.Label("chill", "t1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if labeled {
			t.Error("label in one feature namespace must not leak into another")
		}
	})

	t.Run("EachLabel", func(t *testing.T) {
		store := openTestStore(t)

		if err := store.CreateFeature("workout"); err != nil {
			t.Fatalf("failed to create feature: %v", err)
		}
		want := map[string]byte{"t1": 1, "t2": 0, "t3": 255}
		for id, rating := range want {
			if err := store.PutLabel("workout", id, rating); err != nil {
				t.Fatalf("failed to put label: %v", err)
			}
		}

		got := map[string]byte{}
		err := store.EachLabel("workout", func(trackID string, rating byte) error {
			got[trackID] = rating
			return nil
		})
		if err != nil {
			t.Fatalf("scan failed: %v", err)
		}

		for id, rating := range want {
			if got[id] != rating {
				t.Errorf("track %s: expected rating %d, got %d", id, rating, got[id])
			}
		}
	})
}
