package gesture

import (
	"time"

	"github.com/emirpasic/gods/queues/circularbuffer"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// Stabilizer defaults.
const (
	DefaultConfidenceThreshold = 0.8
	DefaultRequiredConsistency = 3
	DefaultDetectionInterval   = 50 * time.Millisecond
	DefaultRepeatInterval      = 1500 * time.Millisecond
)

// StabilizerConfig holds the thresholds for turning per-frame results into words.
type StabilizerConfig struct {
	// ConfidenceThreshold is the confidence a result must exceed to count as a hit.
	ConfidenceThreshold float64
	// RequiredConsistency is how many consecutive equal hits make a word.
	RequiredConsistency int
	// DetectionInterval is the minimum spacing between classification attempts.
	DetectionInterval time.Duration
	// RepeatInterval allows re-emitting a held word after this long. Zero disables it.
	RepeatInterval time.Duration
}

// DefaultStabilizerConfig returns the default stabilizer thresholds.
func DefaultStabilizerConfig() StabilizerConfig {
	return StabilizerConfig{
		ConfidenceThreshold: DefaultConfidenceThreshold,
		RequiredConsistency: DefaultRequiredConsistency,
		DetectionInterval:   DefaultDetectionInterval,
		RepeatInterval:      DefaultRepeatInterval,
	}
}

// Stabilizer filters noisy per-frame classifications into discrete word events.
// It is not safe for concurrent use.
type Stabilizer struct {
	cfg        StabilizerConfig
	classifier *Classifier
	ring       *circularbuffer.Queue
	limiter    *rate.Limiter
	log        *logrus.Entry

	lastLabel string
	lastAt    time.Time
	// misses counts consecutive misses since the last hit or emission.
	misses int
	// rearmed is set once RequiredConsistency consecutive misses follow an emission.
	rearmed bool
}

// NewStabilizer creates a Stabilizer that classifies frames with c.
func NewStabilizer(cfg StabilizerConfig, c *Classifier, log *logrus.Entry) *Stabilizer {
	if cfg.RequiredConsistency < 1 {
		cfg.RequiredConsistency = DefaultRequiredConsistency
	}
	if c == nil {
		c = NewClassifier(DefaultK, nil)
	}
	if log == nil {
		log = logging.Component(nil, "stabilizer")
	}

	limit := rate.Inf
	if cfg.DetectionInterval > 0 {
		limit = rate.Every(cfg.DetectionInterval)
	}

	return &Stabilizer{
		cfg:        cfg,
		classifier: c,
		ring:       circularbuffer.New(2 * cfg.RequiredConsistency),
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
		rearmed:    true,
	}
}

// Allow reports whether a classification attempt may run at now.
// Attempts that arrive too early are dropped, not deferred.
func (s *Stabilizer) Allow(now time.Time) bool {
	return s.limiter.AllowN(now, 1)
}

// Observe classifies a frame and feeds the result into the ring.
// It returns a word event when the last RequiredConsistency hits agree and
// the word may be emitted.
func (s *Stabilizer) Observe(now time.Time, frame landmark.Frame, gestures []Gesture) (Event, bool) {
	result := s.classifier.Classify(frame, gestures)

	if result.IsSentinel() || result.Confidence <= s.cfg.ConfidenceThreshold {
		s.log.WithFields(logrus.Fields{
			"label":      result.Label,
			"confidence": result.Confidence,
		}).Debug("frame below threshold")
		s.Miss(now)
		return Event{}, false
	}

	s.misses = 0
	s.ring.Enqueue(result.Label)

	label, ok := s.consistent()
	if !ok {
		return Event{}, false
	}

	if !s.shouldEmit(now, label) {
		return Event{}, false
	}

	s.ring.Clear()
	s.lastLabel = label
	s.lastAt = now
	s.rearmed = false

	event := Event{
		Kind:       EventWord,
		Label:      label,
		Confidence: result.Confidence,
		At:         now,
	}
	s.log.WithFields(logrus.Fields{
		"label":      event.Label,
		"confidence": event.Confidence,
	}).Info("word recognized")
	return event, true
}

// Miss records a frame with no usable result, such as a frame with no hand.
// The oldest ring entry is dropped so stale hits decay. The last word re-arms
// only after RequiredConsistency consecutive misses, so a single flicker
// while the hand is held does not repeat it.
func (s *Stabilizer) Miss(now time.Time) {
	s.ring.Dequeue()
	s.misses++
	if s.misses >= s.cfg.RequiredConsistency && s.ring.Empty() {
		s.rearmed = true
	}
}

// Reset clears the ring and forgets the last emitted word.
func (s *Stabilizer) Reset() {
	s.ring.Clear()
	s.lastLabel = ""
	s.lastAt = time.Time{}
	s.misses = 0
	s.rearmed = true
}

// Pending returns the ring contents, oldest first.
func (s *Stabilizer) Pending() []string {
	values := s.ring.Values()
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.(string)
	}
	return out
}

// consistent reports whether the newest RequiredConsistency entries share one label.
func (s *Stabilizer) consistent() (string, bool) {
	n := s.cfg.RequiredConsistency
	if s.ring.Size() < n {
		return "", false
	}

	values := s.ring.Values()
	recent := values[len(values)-n:]
	label := recent[0].(string)
	for _, v := range recent[1:] {
		if v.(string) != label {
			return "", false
		}
	}
	return label, true
}

// shouldEmit applies the re-arm rule for a consistent label.
func (s *Stabilizer) shouldEmit(now time.Time, label string) bool {
	if s.lastLabel == "" || !SameLabel(label, s.lastLabel) {
		return true
	}
	if s.rearmed {
		return true
	}
	return s.cfg.RepeatInterval > 0 && now.Sub(s.lastAt) >= s.cfg.RepeatInterval
}
