// Package server provides the HTTP server for SignSpeak.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/app"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/logging"
	"github.com/ayusman/signspeak/internal/server/api"
	"github.com/ayusman/signspeak/internal/store"
)

// ShutdownTimeout bounds how long Run waits for open requests on exit.
const ShutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Trainer   *gesture.Trainer
	// Preview enables /api/stream. Usually the App when the camera is on.
	Preview PreviewSource
	Logger  *logrus.Logger
}

// Server represents the HTTP server for the SignSpeak application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    *logrus.Entry
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    logging.Component(config.Logger, "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	var reload api.Reloader
	if s.config.App != nil {
		reload = s.config.App
		s.mux.HandleFunc("/api/recognition", s.handleRecognition)
	}

	if s.config.Store != nil && s.config.Trainer != nil {
		lib := s.config.Store.Library()
		apiLog := logging.Component(s.config.Logger, "api")

		gestureHandler := api.NewGestureHandler(s.config.Trainer, lib, reload, apiLog)
		samplesHandler := api.NewSamplesHandler(s.config.Trainer, lib, reload, apiLog)

		// Route /api/gestures/{label}/samples to the samples handler
		gestureRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/samples") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			gestureHandler.ServeHTTP(w, r)
		})
		s.mux.Handle("/api/gestures", gestureRouter)
		s.mux.Handle("/api/gestures/", gestureRouter)

		sentenceHandler := api.NewSentenceHandler(s.config.Trainer, lib, reload, apiLog)
		s.mux.Handle("/api/sentences", sentenceHandler)
		s.mux.Handle("/api/sentences/", sentenceHandler)

		bindingHandler := api.NewBindingHandler(s.config.Store.Bindings(), apiLog)
		s.mux.Handle("/api/bindings", bindingHandler)
		s.mux.Handle("/api/bindings/", bindingHandler)
	}

	if s.config.App != nil && s.config.Trainer != nil {
		s.mux.Handle("/api/ws", NewRecognitionHandler(s.config.App, s.config.Trainer, logging.Component(s.config.Logger, "ws")))
	}

	if s.config.Preview != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Preview))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status    string           `json:"status"`
	Uptime    string           `json:"uptime"`
	Enabled   *bool            `json:"enabled,omitempty"`
	Strategy  gesture.Strategy `json:"strategy,omitempty"`
	Gestures  int              `json:"gestures"`
	Sentences int              `json:"sentences"`
	Dropped   uint64           `json:"dropped_frames"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	}
	if a := s.config.App; a != nil {
		enabled := a.IsEnabled()
		snap := a.Snapshot()
		response.Enabled = &enabled
		response.Strategy = a.Strategy()
		response.Gestures = len(snap.Gestures)
		response.Sentences = len(snap.Sentences)
		response.Dropped = a.Dropped()
	}

	writeJSON(w, http.StatusOK, response)
}

type recognitionState struct {
	Enabled bool `json:"enabled"`
}

// handleRecognition reports or toggles recognition. Turning it off resets
// all pending words and sentences.
func (s *Server) handleRecognition(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut, http.MethodPost:
		var req recognitionState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		s.config.App.SetEnabled(req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, recognitionState{Enabled: s.config.App.IsEnabled()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
