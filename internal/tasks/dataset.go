package tasks

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/faintpulse/earmark/internal/models"
	"github.com/goccy/go-json"
)

// Dataset is a feature matrix derived from the catalog.
//
// Rows, IDs, and (for fitting datasets) Targets are index-aligned. A
// prediction dataset has no Targets.
type Dataset struct {
	FeatureNames []string    `json:"feature_names"`
	IDs          []string    `json:"ids"`
	Rows         [][]float64 `json:"rows"`
	Targets      []bool      `json:"targets,omitempty"`
}

// FittingDataset assembles one row per labeled track of the feature. Ratings
// above zero become positive targets. Labeled tracks whose vector is missing
// or marked unavailable contribute nothing; a label is an opinion about a
// track, not a guarantee the service ever produced features for it.
func (e *CatalogEngine) FittingDataset(ctx context.Context, progress chan<- ProgressUpdate, feature string) (*Dataset, error) {
	ds := &Dataset{FeatureNames: models.FeatureColumns}

	err := e.store.EachLabel(feature, func(trackID string, rating byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, known, err := e.store.AudioFeatures(trackID)
		if err != nil {
			return err
		}
		if !known || f == nil {
			return nil
		}

		ds.IDs = append(ds.IDs, trackID)
		ds.Rows = append(ds.Rows, f.Row())
		ds.Targets = append(ds.Targets, rating > 0)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, buildDatasetUpdate(len(ds.Rows), feature))
	return ds, nil
}

// PredictionDataset assembles one row per track with a known, available
// vector, regardless of labels.
func (e *CatalogEngine) PredictionDataset(ctx context.Context, progress chan<- ProgressUpdate) (*Dataset, error) {
	ds := &Dataset{FeatureNames: models.FeatureColumns}

	err := e.store.EachTrack(func(t models.Track) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		f, known, err := e.store.AudioFeatures(t.ID)
		if err != nil {
			return false, err
		}
		if !known || f == nil {
			return true, nil
		}

		ds.IDs = append(ds.IDs, t.ID)
		ds.Rows = append(ds.Rows, f.Row())
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, buildDatasetUpdate(len(ds.Rows), ""))
	return ds, nil
}

// WriteCSV writes the dataset with a header row. Fitting datasets carry a
// trailing label column with 1 for positive targets.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string{"id"}, d.FeatureNames...)
	if len(d.Targets) > 0 {
		header = append(header, "label")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range d.Rows {
		record := make([]string, 0, len(header))
		record = append(record, d.IDs[i])
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if len(d.Targets) > 0 {
			label := "0"
			if d.Targets[i] {
				label = "1"
			}
			record = append(record, label)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the dataset as a single JSON document.
func (d *Dataset) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
