// Package api provides HTTP API handlers for the SignSpeak library.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// Reloader is told after every library write so recognition sees the change.
type Reloader interface {
	Reload() error
}

// GestureHandler handles HTTP requests for gesture resources.
type GestureHandler struct {
	trainer *gesture.Trainer
	lib     gesture.Library
	reload  Reloader
	log     *logrus.Entry
}

// NewGestureHandler creates a GestureHandler. reload may be nil.
func NewGestureHandler(trainer *gesture.Trainer, lib gesture.Library, reload Reloader, log *logrus.Entry) *GestureHandler {
	if log == nil {
		log = logging.Component(nil, "api")
	}
	return &GestureHandler{trainer: trainer, lib: lib, reload: reload, log: log}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/gestures or /api/gestures/{label}
	label := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	label = strings.TrimPrefix(label, "/")

	if label == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, label)
	case http.MethodDelete:
		h.delete(w, r, label)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createGestureRequest struct {
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Samples     []landmark.Frame `json:"samples"`
}

type gestureResponse struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	SampleCount int              `json:"sample_count"`
	Samples     []landmark.Frame `json:"samples,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toGestureResponse(g *gesture.Gesture, withSamples bool) gestureResponse {
	resp := gestureResponse{
		ID:          g.ID,
		Label:       g.Label,
		Description: g.Description,
		SampleCount: len(g.Samples),
		CreatedAt:   g.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   g.UpdatedAt.Format(time.RFC3339),
	}
	if withSamples {
		resp.Samples = g.Samples
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// StatusFor maps library and training errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, gesture.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gesture.ErrDuplicateLabel):
		return http.StatusConflict
	case errors.Is(err, gesture.ErrEmptyLabel),
		errors.Is(err, gesture.ErrEmptySentence),
		errors.Is(err, gesture.ErrInsufficientSamples),
		errors.Is(err, gesture.ErrNoHandDetected),
		errors.Is(err, gesture.ErrUnknownGesture):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are logged and
// replaced by fallback in the response.
func fail(w http.ResponseWriter, log *logrus.Entry, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error(fallback)
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}

func notify(reload Reloader, log *logrus.Entry) {
	if reload == nil {
		return
	}
	if err := reload.Reload(); err != nil {
		log.WithError(err).Warn("reload library")
	}
}

// list handles GET /api/gestures and returns all gestures without samples.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	gestures, err := h.lib.Gestures()
	if err != nil {
		fail(w, h.log, err, "Failed to list gestures")
		return
	}

	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(gestures)),
	}
	for i := range gestures {
		response.Gestures = append(response.Gestures, toGestureResponse(&gestures[i], false))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gestures/{label}. Samples are included with ?samples=true.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, label string) {
	g, err := h.lib.Gesture(label)
	if err != nil {
		fail(w, h.log, err, "Failed to get gesture")
		return
	}

	writeJSON(w, http.StatusOK, toGestureResponse(g, r.URL.Query().Get("samples") == "true"))
}

// create handles POST /api/gestures and trains a new gesture from samples.
func (h *GestureHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	g, err := h.trainer.SaveGesture(req.Label, req.Description, req.Samples)
	if err != nil {
		fail(w, h.log, err, "Failed to save gesture")
		return
	}
	notify(h.reload, h.log)

	writeJSON(w, http.StatusCreated, toGestureResponse(g, false))
}

// delete handles DELETE /api/gestures/{label}.
func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, label string) {
	if err := h.trainer.DeleteGesture(label); err != nil {
		fail(w, h.log, err, "Failed to delete gesture")
		return
	}
	notify(h.reload, h.log)

	w.WriteHeader(http.StatusNoContent)
}
