package main

import (
	"context"
	"os"

	"github.com/faintpulse/earmark/internal/server"
	"github.com/faintpulse/earmark/internal/tasks"
	"github.com/faintpulse/earmark/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve populates the catalog and runs the labeling web service until a
// shutdown request.
//
// Population runs first so the browser session always labels a fresh
// catalog; set EARMARK_SKIP_POPULATE (or --skip-populate) to start the
// server immediately instead.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuthenticated(ctx); err != nil {
		return err
	}

	store, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	if cmd.Bool("skip-populate") || os.Getenv("EARMARK_SKIP_POPULATE") != "" {
		r.logger.Info("skipping catalog population")
	} else {
		engine := tasks.NewCatalogEngine(r.spotify, store, r.config.Catalog.PlaylistID)
		result, err := r.runPopulate(ctx, engine)
		if err != nil {
			return err
		}
		r.logger.Info("catalog populated", "tracks", result.TotalTracks, "new_vectors", result.FetchedVectors)
	}

	addr := r.config.Server.Addr()
	r.writePlain("→ Labeling UI at http://%s/\n", addr)
	r.writePlain("→ Stop with POST /api/shutdown or the page's stop button\n")

	srv := server.NewLabelingServer(store, r.spotify, r.config.Catalog.Market, addr, web.Handler(), r.logger)
	return srv.Run(ctx)
}
