// Package web embeds the labeling front-end served by the labeling server.
//
// The front-end is a single static page driven entirely by the /api
// endpoints: it lists declared features, fetches the next untrained track
// for the selected feature, plays it through the Spotify embed, and submits
// yes/no ratings. No state lives in this package; the page is a thin client
// over the API.
package web

import (
	"embed"
	"net/http"
	"strings"
)

//go:embed static
var assets embed.FS

// Handler serves the embedded labeling page.
//
// The index is served at every non-static path so the page can be reloaded
// regardless of location; files under /static/ are served verbatim.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/static/") {
			http.FileServerFS(assets).ServeHTTP(w, r)
			return
		}
		http.ServeFileFS(w, r, assets, "static/index.html")
	})
}
