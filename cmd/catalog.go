package main

import (
	"context"
	"fmt"

	"github.com/faintpulse/earmark/internal/formatter"
	"github.com/faintpulse/earmark/internal/shared"
	"github.com/faintpulse/earmark/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Populate pulls the configured playlist and saved-album library into the
// catalog and fetches audio features for tracks without a recorded vector.
func (r *Runner) Populate(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	store, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	engine := tasks.NewCatalogEngine(r.spotify, store, r.config.Catalog.PlaylistID)
	result, err := r.runPopulate(ctx, engine)
	if err != nil {
		return err
	}

	r.writePlain("✓ Catalog populated\n")
	r.writePlain("  Tracks: %d\n", result.TotalTracks)
	r.writePlain("  New vectors: %d\n", result.FetchedVectors)
	r.writePlain("  Unavailable: %d\n", result.Unavailable)
	return nil
}

// runPopulate runs the populate operation while logging its progress updates.
func (r *Runner) runPopulate(ctx context.Context, engine *tasks.CatalogEngine) (*tasks.PopulateResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})

	go func() {
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase.String())
		}
		close(drained)
	}()

	result, err := engine.Populate(ctx, progress)
	close(progress)
	<-drained

	return result, err
}

// Status prints a summary of the catalog's contents.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := formatter.BuildSummary(store)
	if err != nil {
		return err
	}

	if cmd.Bool("markdown") {
		return r.writePlain("%s", formatter.ToMarkdown(summary))
	}
	return r.writePlain("%s", formatter.ToText(summary))
}

// FeaturesList lists the declared features and their label counts.
func (r *Runner) FeaturesList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	features, err := store.Features()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(features, cmd.Bool("pretty"))
	}

	if len(features) == 0 {
		return r.writePlain("No features declared. Add one with 'earmark features add <name>'.\n")
	}

	for _, name := range features {
		count, err := store.LabelCount(name)
		if err != nil {
			return err
		}
		r.writePlain("%s: %d labels\n", name, count)
	}
	return nil
}

// FeaturesAdd declares a new label namespace.
func (r *Runner) FeaturesAdd(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: feature name is required", shared.ErrMissingArgument)
	}

	store, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateFeature(name); err != nil {
		return err
	}

	r.writePlain("✓ Feature '%s' declared\n", name)
	return nil
}

// Dataset builds a fitting or prediction dataset and writes it to disk.
func (r *Runner) Dataset(ctx context.Context, cmd *cli.Command) error {
	feature := cmd.String("feature")
	prediction := cmd.Bool("prediction")
	format := cmd.String("format")
	output := cmd.String("output")

	if feature == "" && !prediction {
		return fmt.Errorf("%w: either --feature or --prediction is required", shared.ErrMissingArgument)
	}
	if feature != "" && prediction {
		return fmt.Errorf("%w: --feature and --prediction are mutually exclusive", shared.ErrInvalidArgument)
	}

	store, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	engine := tasks.NewCatalogEngine(r.spotify, store, r.config.Catalog.PlaylistID)

	var ds *tasks.Dataset
	if prediction {
		if output == "" {
			output = "prediction"
		}
		ds, err = engine.PredictionDataset(ctx, nil)
	} else {
		if output == "" {
			output = feature + "_fitting"
		}
		ds, err = engine.FittingDataset(ctx, nil, feature)
	}
	if err != nil {
		return err
	}

	result, err := formatter.WriteDatasetExport(ds, output, format)
	if err != nil {
		return err
	}

	r.writePlain("✓ Dataset written to %s (%d rows)\n", result.Path, result.Rows)
	return nil
}
