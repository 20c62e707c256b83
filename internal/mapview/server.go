package mapview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/groupride/convoy/internal/channel"
	"github.com/groupride/convoy/pkg/core"
	"github.com/groupride/convoy/pkg/streaming"
)

// Doer runs a function on the UI loop and waits for it.
type Doer interface {
	Do(ctx context.Context, fn func()) error
}

// PositionSink receives the device location feed.
type PositionSink interface {
	Set(c core.Coordinate)
	Clear()
}

// TrailSource returns the recorded positions of one participant.
type TrailSource interface {
	Trail(ctx context.Context, id string) ([]core.Coordinate, error)
}

// Options wires a Server. Trails and Metrics are optional.
type Options struct {
	ListenAddr  string
	Surface     *Surface
	Hub         *Hub
	Loop        Doer
	Position    PositionSink
	Permissions channel.Sender[core.PermissionState]
	Themes      channel.Sender[core.ThemeMode]
	Trails      TrailSource
	Metrics     http.Handler
	Logger      zerolog.Logger
}

// Server exposes the map surface over HTTP.
type Server struct {
	opts     Options
	router   chi.Router
	srv      *http.Server
	validate *validator.Validate
	log      zerolog.Logger
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	s := &Server{
		opts:     opts,
		validate: validator.New(),
		log:      opts.Logger.With().Str("component", "http").Logger(),
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Get("/markers", s.getMarkers)
	r.Get("/visibility", s.getVisibility)
	r.Get("/ws", s.serveWS)
	r.Get("/trails/{id}", s.getTrail)
	r.Post("/position", s.postPosition)
	r.Delete("/position", s.deletePosition)
	r.Post("/permission", s.postPermission)
	r.Post("/theme", s.postTheme)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	s.router = r
	s.srv = &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("map view listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("map view server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if s.opts.Hub != nil {
		s.opts.Hub.Close()
	}
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("map view shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) snapshot(ctx context.Context) (streaming.SnapshotPayload, error) {
	var snap streaming.SnapshotPayload
	err := s.opts.Loop.Do(ctx, func() { snap = s.opts.Surface.Snapshot() })
	return snap, err
}

func (s *Server) getMarkers(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(featureCollection(snap.Markers))
}

func (s *Server) getVisibility(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Visibility)
}

func (s *Server) getTrail(w http.ResponseWriter, r *http.Request) {
	if s.opts.Trails == nil {
		writeError(w, http.StatusNotFound, errors.New("ride log is not recording trails"))
		return
	}
	id := chi.URLParam(r, "id")
	points, err := s.opts.Trails.Trail(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	feature, err := trailFeature(id, points)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(feature)
}

// serveWS upgrades the request and registers the client on the UI loop so the
// snapshot it receives lines up with the deltas that follow.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	if s.opts.Hub == nil {
		writeError(w, http.StatusNotFound, errors.New("live feed disabled"))
		return
	}
	c, err := s.opts.Hub.upgrade(w, r)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	err = s.opts.Loop.Do(r.Context(), func() {
		env, err := streaming.NewEnvelope(streaming.TypeSnapshot, s.opts.Surface.Snapshot())
		if err != nil {
			s.log.Error().Err(err).Msg("failed to build snapshot")
			c.close()
			return
		}
		data, _ := json.Marshal(env)
		s.opts.Hub.add(c, data)
	})
	if err != nil {
		c.close()
	}
}

type positionRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

func (s *Server) postPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.opts.Position.Set(core.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deletePosition(w http.ResponseWriter, r *http.Request) {
	s.opts.Position.Clear()
	w.WriteHeader(http.StatusNoContent)
}

type permissionRequest struct {
	State string `json:"state" validate:"required,oneof=undetermined denied authorized"`
}

func (s *Server) postPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p, err := core.ParsePermissionState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.opts.Permissions.Send(p)
	w.WriteHeader(http.StatusAccepted)
}

type themeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=light dark"`
}

func (s *Server) postTheme(w http.ResponseWriter, r *http.Request) {
	var req themeRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, err := core.ParseThemeMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.opts.Themes.Send(t)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
