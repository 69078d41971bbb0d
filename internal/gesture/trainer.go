package gesture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// DefaultMinSamples is the number of captures required to save a word.
const DefaultMinSamples = 30

// Session accumulates captured frames for one label before it is saved.
type Session struct {
	label   string
	samples []landmark.Frame
}

// NewSession starts an empty capture session.
func NewSession(label string) *Session {
	return &Session{label: strings.TrimSpace(label)}
}

// Label returns the label being captured.
func (s *Session) Label() string {
	return s.label
}

// Capture appends a copy of the world-space frame.
// Returns ErrNoHandDetected and appends nothing when the frame is empty.
func (s *Session) Capture(world landmark.Frame) error {
	if world.Empty() {
		return ErrNoHandDetected
	}
	s.samples = append(s.samples, world.Clone())
	return nil
}

// Samples returns a copy of the captured frames.
func (s *Session) Samples() []landmark.Frame {
	return copyFrames(s.samples)
}

// Len returns the number of captured frames.
func (s *Session) Len() int {
	return len(s.samples)
}

// Reset discards all captured frames.
func (s *Session) Reset() {
	s.samples = nil
}

// WordSpec describes one word of a token sentence being saved.
type WordSpec struct {
	Label   string           `json:"label"`
	Samples []landmark.Frame `json:"samples,omitempty"`
	// Reuse takes the samples already stored for Label instead of Samples.
	Reuse bool `json:"reuse,omitempty"`
}

// Trainer validates captured samples and writes them to a Library.
type Trainer struct {
	lib        Library
	minSamples int
	log        *logrus.Entry
}

// NewTrainer creates a Trainer. A minSamples below 1 means DefaultMinSamples.
func NewTrainer(lib Library, minSamples int, log *logrus.Entry) *Trainer {
	if minSamples < 1 {
		minSamples = DefaultMinSamples
	}
	if log == nil {
		log = logging.Component(nil, "trainer")
	}
	return &Trainer{lib: lib, minSamples: minSamples, log: log}
}

// MinSamples returns the number of samples required per word.
func (t *Trainer) MinSamples() int {
	return t.minSamples
}

// SaveGesture normalizes samples and stores them as a new gesture.
func (t *Trainer) SaveGesture(label, description string, samples []landmark.Frame) (*Gesture, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}
	if err := t.checkGestureFree(label); err != nil {
		return nil, err
	}

	normalized, err := t.prepareSamples(samples)
	if err != nil {
		return nil, err
	}

	g := &Gesture{
		Label:       label,
		Description: strings.TrimSpace(description),
		Samples:     normalized,
	}
	if err := t.lib.PutGesture(g); err != nil {
		return nil, fmt.Errorf("save gesture %q: %w", label, err)
	}

	t.log.WithFields(logrus.Fields{"label": label, "samples": len(normalized)}).Info("gesture saved")
	return g, nil
}

// AddSamples appends more samples to an existing gesture. Any positive
// number of samples is accepted.
func (t *Trainer) AddSamples(label string, samples []landmark.Frame) (*Gesture, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: have 0, need 1", ErrInsufficientSamples)
	}
	g, err := t.lib.Gesture(label)
	if err != nil {
		return nil, fmt.Errorf("gesture %q: %w", label, err)
	}

	for i, s := range samples {
		if s.Empty() {
			return nil, fmt.Errorf("sample %d: %w", i+1, ErrNoHandDetected)
		}
		g.Samples = append(g.Samples, landmark.Normalize(s))
	}
	if err := t.lib.PutGesture(g); err != nil {
		return nil, fmt.Errorf("save gesture %q: %w", g.Label, err)
	}

	t.log.WithFields(logrus.Fields{"label": g.Label, "samples": len(g.Samples)}).Info("samples added")
	return g, nil
}

// SaveSentence stores a token sentence made of the given words.
// Words whose labels are not yet standalone gestures are also stored as
// gestures so the classifier can recognize them.
func (t *Trainer) SaveSentence(label string, words []WordSpec) (*Sentence, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}
	if len(words) == 0 {
		return nil, ErrEmptySentence
	}
	if err := t.checkSentenceFree(label); err != nil {
		return nil, err
	}

	// Validate every word before writing anything
	resolved := make([]Word, len(words))
	for i, spec := range words {
		wordLabel := strings.TrimSpace(spec.Label)
		if wordLabel == "" {
			return nil, fmt.Errorf("word %d: %w", i+1, ErrEmptyLabel)
		}

		var samples []landmark.Frame
		if spec.Reuse {
			reused, err := t.Reusable(wordLabel)
			if err != nil {
				return nil, fmt.Errorf("word %d %q: %w", i+1, wordLabel, err)
			}
			samples = reused
		} else {
			prepared, err := t.prepareSamples(spec.Samples)
			if err != nil {
				return nil, fmt.Errorf("word %d %q: %w", i+1, wordLabel, err)
			}
			samples = prepared
		}
		resolved[i] = Word{Label: wordLabel, Samples: samples}
	}

	// Word gestures go first so a stored sentence is always recognizable.
	var created []string
	for _, w := range resolved {
		added, err := t.ensureGesture(w, label)
		if err != nil {
			t.rollback(created)
			return nil, err
		}
		if added {
			created = append(created, w.Label)
		}
	}

	s := &Sentence{
		Label:    label,
		Strategy: StrategyTokens,
		Words:    resolved,
	}
	if err := t.lib.PutSentence(s); err != nil {
		t.rollback(created)
		return nil, fmt.Errorf("save sentence %q: %w", label, err)
	}

	t.log.WithFields(logrus.Fields{"label": label, "words": len(resolved)}).Info("sentence saved")
	return s, nil
}

// SaveMotionSentence stores a sentence recognized from whole-sequence templates.
func (t *Trainer) SaveMotionSentence(label string, templates [][]landmark.Frame) (*Sentence, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, ErrEmptyLabel
	}
	if err := t.checkSentenceFree(label); err != nil {
		return nil, err
	}

	var normalized [][]landmark.Frame
	for _, tpl := range templates {
		var frames []landmark.Frame
		for _, f := range tpl {
			if f.Empty() {
				continue
			}
			frames = append(frames, landmark.Normalize(f))
		}
		if len(frames) > 0 {
			normalized = append(normalized, frames)
		}
	}
	if len(normalized) == 0 {
		return nil, ErrEmptySentence
	}

	s := &Sentence{
		Label:     label,
		Strategy:  StrategyMotion,
		Templates: normalized,
	}
	if err := t.lib.PutSentence(s); err != nil {
		return nil, fmt.Errorf("save sentence %q: %w", label, err)
	}

	t.log.WithFields(logrus.Fields{"label": label, "templates": len(normalized)}).Info("motion sentence saved")
	return s, nil
}

// Reusable returns the stored samples for a word label. Standalone gestures
// are searched first, then the words of token sentences. Samples are
// returned as stored, without re-normalizing.
func (t *Trainer) Reusable(label string) ([]landmark.Frame, error) {
	g, err := t.lib.Gesture(label)
	switch {
	case err == nil && len(g.Samples) > 0:
		return g.Samples, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("lookup gesture: %w", err)
	}

	sentences, err := t.lib.Sentences()
	if err != nil {
		return nil, fmt.Errorf("list sentences: %w", err)
	}
	for _, s := range sentences {
		for _, w := range s.Words {
			if SameLabel(w.Label, label) && len(w.Samples) > 0 {
				return copyFrames(w.Samples), nil
			}
		}
	}

	return nil, ErrUnknownGesture
}

// DeleteGesture removes a gesture by label.
func (t *Trainer) DeleteGesture(label string) error {
	if err := t.lib.DeleteGesture(label); err != nil {
		return fmt.Errorf("delete gesture %q: %w", label, err)
	}
	t.log.WithField("label", label).Info("gesture deleted")
	return nil
}

// DeleteSentence removes a sentence by label.
func (t *Trainer) DeleteSentence(label string) error {
	if err := t.lib.DeleteSentence(label); err != nil {
		return fmt.Errorf("delete sentence %q: %w", label, err)
	}
	t.log.WithField("label", label).Info("sentence deleted")
	return nil
}

// prepareSamples checks the sample count and returns normalized copies.
func (t *Trainer) prepareSamples(samples []landmark.Frame) ([]landmark.Frame, error) {
	if len(samples) < t.minSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientSamples, len(samples), t.minSamples)
	}

	normalized := make([]landmark.Frame, len(samples))
	for i, s := range samples {
		if s.Empty() {
			return nil, fmt.Errorf("sample %d: %w", i+1, ErrNoHandDetected)
		}
		normalized[i] = landmark.Normalize(s)
	}
	return normalized, nil
}

func (t *Trainer) checkGestureFree(label string) error {
	_, err := t.lib.Gesture(label)
	switch {
	case err == nil:
		return fmt.Errorf("gesture %q: %w", label, ErrDuplicateLabel)
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup gesture: %w", err)
	}
}

func (t *Trainer) checkSentenceFree(label string) error {
	_, err := t.lib.Sentence(label)
	switch {
	case err == nil:
		return fmt.Errorf("sentence %q: %w", label, ErrDuplicateLabel)
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup sentence: %w", err)
	}
}

// ensureGesture stores w as a standalone gesture unless one already exists.
// It reports whether a gesture was added.
func (t *Trainer) ensureGesture(w Word, sentence string) (bool, error) {
	_, err := t.lib.Gesture(w.Label)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, fmt.Errorf("lookup gesture: %w", err)
	}

	g := &Gesture{
		Label:       w.Label,
		Description: fmt.Sprintf("Gesture for %q from sentence %q", w.Label, sentence),
		Samples:     copyFrames(w.Samples),
	}
	if err := t.lib.PutGesture(g); err != nil {
		return false, fmt.Errorf("save word gesture %q: %w", w.Label, err)
	}
	t.log.WithFields(logrus.Fields{"label": w.Label, "sentence": sentence}).Debug("word gesture added")
	return true, nil
}

// rollback removes word gestures added by a sentence save that failed.
func (t *Trainer) rollback(labels []string) {
	for _, label := range labels {
		if err := t.lib.DeleteGesture(label); err != nil {
			t.log.WithError(err).WithField("label", label).Warn("failed to remove word gesture")
		}
	}
}
