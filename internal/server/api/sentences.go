package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// SentenceHandler handles HTTP requests for sentence resources.
type SentenceHandler struct {
	trainer *gesture.Trainer
	lib     gesture.Library
	reload  Reloader
	log     *logrus.Entry
}

// NewSentenceHandler creates a SentenceHandler. reload may be nil.
func NewSentenceHandler(trainer *gesture.Trainer, lib gesture.Library, reload Reloader, log *logrus.Entry) *SentenceHandler {
	if log == nil {
		log = logging.Component(nil, "api")
	}
	return &SentenceHandler{trainer: trainer, lib: lib, reload: reload, log: log}
}

func (h *SentenceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	label := strings.TrimPrefix(r.URL.Path, "/api/sentences")
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

type wordRequest struct {
	Label   string           `json:"label"`
	Samples []landmark.Frame `json:"samples,omitempty"`
	Reuse   bool             `json:"reuse,omitempty"`
}

type createSentenceRequest struct {
	Label     string             `json:"label"`
	Strategy  gesture.Strategy   `json:"strategy"`
	Words     []wordRequest      `json:"words,omitempty"`
	Templates [][]landmark.Frame `json:"templates,omitempty"`
}

type sentenceResponse struct {
	ID        string           `json:"id"`
	Label     string           `json:"label"`
	Strategy  gesture.Strategy `json:"strategy"`
	Words     []string         `json:"words,omitempty"`
	Templates int              `json:"templates,omitempty"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

type listSentencesResponse struct {
	Sentences []sentenceResponse `json:"sentences"`
}

func toSentenceResponse(s *gesture.Sentence) sentenceResponse {
	return sentenceResponse{
		ID:        s.ID,
		Label:     s.Label,
		Strategy:  s.Strategy,
		Words:     s.WordLabels(),
		Templates: len(s.Templates),
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *SentenceHandler) list(w http.ResponseWriter, r *http.Request) {
	sentences, err := h.lib.Sentences()
	if err != nil {
		fail(w, h.log, err, "Failed to list sentences")
		return
	}

	response := listSentencesResponse{
		Sentences: make([]sentenceResponse, 0, len(sentences)),
	}
	for i := range sentences {
		response.Sentences = append(response.Sentences, toSentenceResponse(&sentences[i]))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *SentenceHandler) get(w http.ResponseWriter, r *http.Request, label string) {
	s, err := h.lib.Sentence(label)
	if err != nil {
		fail(w, h.log, err, "Failed to get sentence")
		return
	}

	writeJSON(w, http.StatusOK, toSentenceResponse(s))
}

// create handles POST /api/sentences. Token sentences list their words,
// motion sentences carry whole-sequence templates.
func (h *SentenceHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSentenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Strategy == "" {
		req.Strategy = gesture.StrategyTokens
	}

	var (
		s   *gesture.Sentence
		err error
	)
	switch req.Strategy {
	case gesture.StrategyTokens:
		specs := make([]gesture.WordSpec, len(req.Words))
		for i, word := range req.Words {
			specs[i] = gesture.WordSpec{Label: word.Label, Samples: word.Samples, Reuse: word.Reuse}
		}
		s, err = h.trainer.SaveSentence(req.Label, specs)
	case gesture.StrategyMotion:
		s, err = h.trainer.SaveMotionSentence(req.Label, req.Templates)
	default:
		writeError(w, http.StatusBadRequest, "Invalid strategy")
		return
	}
	if err != nil {
		fail(w, h.log, err, "Failed to save sentence")
		return
	}
	notify(h.reload, h.log)

	writeJSON(w, http.StatusCreated, toSentenceResponse(s))
}

func (h *SentenceHandler) delete(w http.ResponseWriter, r *http.Request, label string) {
	if err := h.trainer.DeleteSentence(label); err != nil {
		fail(w, h.log, err, "Failed to delete sentence")
		return
	}
	notify(h.reload, h.log)

	w.WriteHeader(http.StatusNoContent)
}
