package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// SamplesHandler handles HTTP requests for the samples of one gesture.
type SamplesHandler struct {
	trainer *gesture.Trainer
	lib     gesture.Library
	reload  Reloader
	log     *logrus.Entry
}

// NewSamplesHandler creates a SamplesHandler. reload may be nil.
func NewSamplesHandler(trainer *gesture.Trainer, lib gesture.Library, reload Reloader, log *logrus.Entry) *SamplesHandler {
	if log == nil {
		log = logging.Component(nil, "api")
	}
	return &SamplesHandler{trainer: trainer, lib: lib, reload: reload, log: log}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/gestures/{label}/samples
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures/")
	label, ok := strings.CutSuffix(path, "/samples")
	if !ok || label == "" || strings.Contains(label, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, label)
	case http.MethodPost:
		h.create(w, r, label)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createSamplesRequest struct {
	Samples []landmark.Frame `json:"samples"`
}

type listSamplesResponse struct {
	Label   string           `json:"label"`
	Samples []landmark.Frame `json:"samples"`
}

// list handles GET /api/gestures/{label}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, label string) {
	g, err := h.lib.Gesture(label)
	if err != nil {
		fail(w, h.log, err, "Failed to list samples")
		return
	}

	samples := g.Samples
	if samples == nil {
		samples = []landmark.Frame{}
	}
	writeJSON(w, http.StatusOK, listSamplesResponse{Label: g.Label, Samples: samples})
}

// create handles POST /api/gestures/{label}/samples
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, label string) {
	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	g, err := h.trainer.AddSamples(label, req.Samples)
	if err != nil {
		fail(w, h.log, err, "Failed to save samples")
		return
	}
	notify(h.reload, h.log)

	writeJSON(w, http.StatusCreated, toGestureResponse(g, false))
}
