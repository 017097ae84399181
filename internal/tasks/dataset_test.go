package tasks

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/faintpulse/earmark/internal/models"
	"github.com/goccy/go-json"
)

func TestFittingDataset(t *testing.T) {
	store := openTestStore(t)
	engine := NewCatalogEngine(nil, store, "")

	if err := store.CreateFeature("mood"); err != nil {
		t.Fatalf("failed to create feature: %v", err)
	}

	seed := func(id string, f *models.AudioFeatures) {
		t.Helper()
		if err := store.PutTrack(track(id, "PL")); err != nil {
			t.Fatalf("failed to seed track: %v", err)
		}
		if err := store.PutAudioFeatures(id, f); err != nil {
			t.Fatalf("failed to seed audio features: %v", err)
		}
	}

	seed("t1", &models.AudioFeatures{Energy: 0.9, Tempo: 120})
	seed("t2", &models.AudioFeatures{Energy: 0.1, Tempo: 60})
	seed("t3", nil) // labeled but unavailable
	if err := store.PutTrack(track("t4", "PL")); err != nil {
		t.Fatalf("failed to seed track: %v", err)
	}

	for id, rating := range map[string]byte{"t1": 1, "t2": 0, "t3": 1, "t4": 1} {
		if err := store.PutLabel("mood", id, rating); err != nil {
			t.Fatalf("failed to label %s: %v", id, err)
		}
	}

	ds, err := engine.FittingDataset(context.Background(), nil, "mood")
	if err != nil {
		t.Fatalf("failed to build fitting dataset: %v", err)
	}

	// t3 (unavailable vector) and t4 (no vector at all) contribute nothing.
	if len(ds.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ds.Rows))
	}
	if len(ds.Rows[0]) != len(models.FeatureColumns) {
		t.Errorf("expected %d columns, got %d", len(models.FeatureColumns), len(ds.Rows[0]))
	}

	targets := make(map[string]bool)
	for i, id := range ds.IDs {
		targets[id] = ds.Targets[i]
	}
	if !targets["t1"] || targets["t2"] {
		t.Errorf("unexpected targets: %v", targets)
	}
}

func TestPredictionDataset(t *testing.T) {
	store := openTestStore(t)
	engine := NewCatalogEngine(nil, store, "")

	if err := store.PutTrack(track("t1", "PL")); err != nil {
		t.Fatalf("failed to seed track: %v", err)
	}
	if err := store.PutAudioFeatures("t1", &models.AudioFeatures{Energy: 0.9}); err != nil {
		t.Fatalf("failed to seed audio features: %v", err)
	}
	if err := store.PutTrack(track("t2", "PL")); err != nil {
		t.Fatalf("failed to seed track: %v", err)
	}
	if err := store.PutAudioFeatures("t2", nil); err != nil {
		t.Fatalf("failed to seed marker: %v", err)
	}
	if err := store.PutTrack(track("t3", "PL")); err != nil {
		t.Fatalf("failed to seed track: %v", err)
	}

	ds, err := engine.PredictionDataset(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to build prediction dataset: %v", err)
	}

	if len(ds.Rows) != 1 || ds.IDs[0] != "t1" {
		t.Errorf("expected only t1 in the prediction dataset, got %v", ds.IDs)
	}
	if len(ds.Targets) != 0 {
		t.Errorf("prediction dataset should carry no targets, got %v", ds.Targets)
	}
}

func TestDatasetExport(t *testing.T) {
	ds := &Dataset{
		FeatureNames: models.FeatureColumns,
		IDs:          []string{"t1", "t2"},
		Rows: [][]float64{
			{0.1, 0.2, 0.3, 0.4, 7, 0.5, -6.5, 0.6, 120, 4, 0.7},
			{0.9, 0.8, 0.7, 0.6, 2, 0.5, -3.5, 0.4, 90, 3, 0.3},
		},
		Targets: []bool{true, false},
	}

	t.Run("CSV", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ds.WriteCSV(&buf); err != nil {
			t.Fatalf("failed to write CSV: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[0], "id,") || !strings.HasSuffix(lines[0], ",label") {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if !strings.HasPrefix(lines[1], "t1,") || !strings.HasSuffix(lines[1], ",1") {
			t.Errorf("unexpected first row: %s", lines[1])
		}
		if !strings.HasSuffix(lines[2], ",0") {
			t.Errorf("expected negative label on second row: %s", lines[2])
		}
	})

	t.Run("CSVWithoutTargets", func(t *testing.T) {
		prediction := &Dataset{FeatureNames: ds.FeatureNames, IDs: ds.IDs, Rows: ds.Rows}

		var buf bytes.Buffer
		if err := prediction.WriteCSV(&buf); err != nil {
			t.Fatalf("failed to write CSV: %v", err)
		}
		if strings.Contains(strings.SplitN(buf.String(), "\n", 2)[0], "label") {
			t.Error("prediction CSV should have no label column")
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ds.WriteJSON(&buf); err != nil {
			t.Fatalf("failed to write JSON: %v", err)
		}

		var decoded Dataset
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode JSON: %v", err)
		}
		if len(decoded.Rows) != 2 || len(decoded.Targets) != 2 {
			t.Errorf("unexpected decoded dataset: %+v", decoded)
		}
	})
}
