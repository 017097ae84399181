// package formatter renders catalog summaries (plain text, Markdown) and writes dataset exports to disk
package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/faintpulse/earmark/internal/catalog"
	"github.com/faintpulse/earmark/internal/models"
	"github.com/faintpulse/earmark/internal/tasks"
)

// FeatureSummary describes one declared feature's labeling progress.
type FeatureSummary struct {
	Name     string
	Labels   int
	Positive int
}

// Summary describes the catalog's contents.
type Summary struct {
	Tracks      int
	Vectors     int
	Unavailable int
	Features    []FeatureSummary
}

// BuildSummary walks the catalog and tallies tracks, vectors, and per-feature
// label counts.
func BuildSummary(store *catalog.Store) (*Summary, error) {
	summary := &Summary{}

	err := store.EachTrack(func(t models.Track) (bool, error) {
		summary.Tracks++

		f, known, err := store.AudioFeatures(t.ID)
		if err != nil {
			return false, err
		}
		if known {
			if f == nil {
				summary.Unavailable++
			} else {
				summary.Vectors++
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tracks: %w", err)
	}

	features, err := store.Features()
	if err != nil {
		return nil, fmt.Errorf("failed to list features: %w", err)
	}

	for _, name := range features {
		fs := FeatureSummary{Name: name}
		err := store.EachLabel(name, func(trackID string, rating byte) error {
			fs.Labels++
			if rating > 0 {
				fs.Positive++
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk labels for %s: %w", name, err)
		}
		summary.Features = append(summary.Features, fs)
	}

	return summary, nil
}

// ToText renders the summary as plain text.
func ToText(s *Summary) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n", s.Tracks))
	buf.WriteString(fmt.Sprintf("Vectors: %d (%d unavailable, %d unfetched)\n", s.Vectors, s.Unavailable, s.Tracks-s.Vectors-s.Unavailable))
	buf.WriteString(fmt.Sprintf("Features: %d\n", len(s.Features)))

	for _, f := range s.Features {
		buf.WriteString(fmt.Sprintf("  %s: %d labels (%d positive)\n", f.Name, f.Labels, f.Positive))
	}

	return buf.Bytes()
}

// ToMarkdown renders the summary as a Markdown document.
func ToMarkdown(s *Summary) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Catalog\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", s.Tracks))
	buf.WriteString(fmt.Sprintf("**Vectors**: %d\n", s.Vectors))
	buf.WriteString(fmt.Sprintf("**Unavailable**: %d\n\n", s.Unavailable))

	if len(s.Features) > 0 {
		buf.WriteString("## Features\n\n")
		buf.WriteString("| Feature | Labels | Positive |\n")
		buf.WriteString("| --- | --- | --- |\n")
		for _, f := range s.Features {
			buf.WriteString(fmt.Sprintf("| %s | %d | %d |\n", f.Name, f.Labels, f.Positive))
		}
	}

	return buf.Bytes()
}

// DatasetExportResult contains the path of the file created by WriteDatasetExport.
type DatasetExportResult struct {
	Path   string
	Format string
	Rows   int
}

// WriteDatasetExport writes a dataset to {base}.csv or {base}.json.
//
// format must be "csv" or "json"; base defaults to "dataset".
func WriteDatasetExport(ds *tasks.Dataset, base, format string) (*DatasetExportResult, error) {
	if base == "" {
		base = "dataset"
	}

	var buf bytes.Buffer
	var path string

	switch format {
	case "csv":
		if err := ds.WriteCSV(&buf); err != nil {
			return nil, fmt.Errorf("failed to generate CSV: %w", err)
		}
		path = base + ".csv"
	case "json":
		if err := ds.WriteJSON(&buf); err != nil {
			return nil, fmt.Errorf("failed to generate JSON: %w", err)
		}
		path = base + ".json"
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", format)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write dataset file: %w", err)
	}

	return &DatasetExportResult{Path: path, Format: format, Rows: len(ds.Rows)}, nil
}
