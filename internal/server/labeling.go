package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/faintpulse/earmark/internal/catalog"
	"github.com/faintpulse/earmark/internal/services"
	"github.com/faintpulse/earmark/internal/shared"
	"github.com/goccy/go-json"
)

// shutdownTimeout bounds the graceful drain after a shutdown request.
const shutdownTimeout = 5 * time.Second

// LabelingServer serves the labeling API and the embedded web front-end.
//
// Every endpoint reads or writes the catalog directly; the server keeps no
// session state of its own. The one piece of shared state is the shutdown
// [Completion]: POST /api/shutdown consumes it exactly once, and a second
// request panics instead of silently doing nothing.
type LabelingServer struct {
	store    *catalog.Store
	spotify  services.Service
	market   string
	addr     string
	ui       http.Handler
	logger   *log.Logger
	shutdown *Completion[struct{}]
}

// NewLabelingServer creates a labeling server over the given catalog and
// authenticated service. market filters the tracks offered for labeling; ui,
// when non-nil, is mounted at the root path.
func NewLabelingServer(store *catalog.Store, spotify services.Service, market, addr string, ui http.Handler, logger *log.Logger) *LabelingServer {
	return &LabelingServer{
		store:    store,
		spotify:  spotify,
		market:   market,
		addr:     addr,
		ui:       ui,
		logger:   logger,
		shutdown: NewCompletion[struct{}](),
	}
}

// Register mounts the API routes and the web front-end on the router.
func (s *LabelingServer) Register(router Router) {
	router.Handle(http.MethodGet, "/api/features", http.HandlerFunc(s.handleListFeatures))
	router.Handle(http.MethodGet, "/api/features/{feature_id}", http.HandlerFunc(s.handleFeatureInfo))
	router.Handle(http.MethodPost, "/api/features/{feature_id}", http.HandlerFunc(s.handleCreateFeature))
	router.Handle(http.MethodGet, "/api/features/{feature_id}/tracks/random_untrained", http.HandlerFunc(s.handleNextUntrained))
	router.Handle(http.MethodPost, "/api/features/{feature_id}/tracks/{track_id}/rate/{rating}", http.HandlerFunc(s.handleRate))
	router.Handle(http.MethodGet, "/api/spotify_token", http.HandlerFunc(s.handleToken))
	router.Handle(http.MethodPost, "/api/shutdown", http.HandlerFunc(s.handleShutdown))

	if s.ui != nil {
		router.Handle(http.MethodGet, "/", s.ui)
		router.Handle(http.MethodGet, "/static/{file}", s.ui)
	}
}

// Run serves until a shutdown request or context cancellation, then drains
// in-flight requests and returns.
func (s *LabelingServer) Run(ctx context.Context) error {
	router := NewBasicRouter()
	router.Use(LogRequests(s.logger))
	s.Register(router)

	httpServer := &http.Server{Addr: s.addr, Handler: router}
	done := s.shutdown.Arm()
	errChan := make(chan error, 1)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	s.logger.Info("labeling server listening", "addr", s.addr)

	select {
	case <-done:
		s.logger.Info("shutdown requested")
	case <-ctx.Done():
	case err := <-errChan:
		return err
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(drainCtx)
}

func (s *LabelingServer) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	features, err := s.store.Features()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, features)
}

func (s *LabelingServer) handleFeatureInfo(w http.ResponseWriter, r *http.Request) {
	feature := r.PathValue("feature_id")

	ok, err := s.store.HasFeature(feature)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", shared.ErrFeatureNotFound, feature))
		return
	}

	count, err := s.store.LabelCount(feature)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]any{"name": feature, "labels": count})
}

func (s *LabelingServer) handleCreateFeature(w http.ResponseWriter, r *http.Request) {
	if err := s.store.CreateFeature(r.PathValue("feature_id")); err != nil {
		writeError(w, err)
		return
	}
	fmt.Fprint(w, "ok")
}

func (s *LabelingServer) handleNextUntrained(w http.ResponseWriter, r *http.Request) {
	track, err := s.store.NextUntrained(r.PathValue("feature_id"), s.market)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, track)
}

func (s *LabelingServer) handleRate(w http.ResponseWriter, r *http.Request) {
	rating, err := strconv.ParseUint(r.PathValue("rating"), 10, 8)
	if err != nil {
		writeError(w, fmt.Errorf("%w: rating must be 0-255", shared.ErrInvalidArgument))
		return
	}

	if err := s.store.PutLabel(r.PathValue("feature_id"), r.PathValue("track_id"), byte(rating)); err != nil {
		writeError(w, err)
		return
	}
	fmt.Fprint(w, "ok")
}

func (s *LabelingServer) handleToken(w http.ResponseWriter, r *http.Request) {
	token, err := s.spotify.Token()
	if err != nil {
		writeError(w, err)
		return
	}
	fmt.Fprint(w, token.AccessToken)
}

func (s *LabelingServer) handleShutdown(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "ok")
	s.shutdown.Fire(struct{}{})
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError maps catalog and service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrFeatureNotFound),
		errors.Is(err, shared.ErrTrackNotFound),
		errors.Is(err, shared.ErrNoMoreTracks):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrTokenExpired):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
