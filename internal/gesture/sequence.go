package gesture

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// Sequence defaults.
const (
	DefaultSequenceTimeout  = 5 * time.Second
	DefaultSequenceCooldown = 3 * time.Second
	// MaxSentenceWords bounds the token buffer regardless of the library.
	MaxSentenceWords = 32
)

// Sequencer turns a stream of words or frames into sentence events.
// Implementations are not safe for concurrent use.
type Sequencer interface {
	// ObserveWord feeds a recognized word.
	ObserveWord(now time.Time, word Event, sentences []Sentence) (Event, bool)
	// ObserveFrame feeds a normalized live frame.
	ObserveFrame(now time.Time, frame landmark.Frame, sentences []Sentence) (Event, bool)
	// CoolingDown reports whether word classification should be paused.
	CoolingDown(now time.Time) bool
	// Reset clears buffered input and any cooldown.
	Reset()
}

// TokenConfig configures a TokenMatcher.
type TokenConfig struct {
	// Timeout clears the buffer when no word arrives for this long.
	Timeout time.Duration
	// Cooldown pauses classification after a sentence is recognized.
	Cooldown time.Duration
}

// TokenMatcher recognizes sentences whose word labels form a suffix of the
// recent word history.
type TokenMatcher struct {
	cfg           TokenConfig
	log           *logrus.Entry
	buffer        []Event
	lastWordAt    time.Time
	cooldownUntil time.Time
}

// NewTokenMatcher creates a TokenMatcher.
func NewTokenMatcher(cfg TokenConfig, log *logrus.Entry) *TokenMatcher {
	if log == nil {
		log = logging.Component(nil, "sequence")
	}
	return &TokenMatcher{cfg: cfg, log: log}
}

// ObserveWord appends word to the history and checks every token sentence.
// When more than one sentence matches, the longest wins; among equal
// lengths the first in library order wins.
func (m *TokenMatcher) ObserveWord(now time.Time, word Event, sentences []Sentence) (Event, bool) {
	if m.CoolingDown(now) {
		return Event{}, false
	}

	if len(m.buffer) > 0 && m.cfg.Timeout > 0 && now.Sub(m.lastWordAt) > m.cfg.Timeout {
		m.log.WithField("words", len(m.buffer)).Debug("sequence timed out")
		m.buffer = m.buffer[:0]
	}

	m.buffer = append(m.buffer, word)
	m.lastWordAt = now

	limit := MaxSentenceWords
	if longest := longestSentence(sentences); longest > 0 && longest < limit {
		limit = longest
	}
	if over := len(m.buffer) - limit; over > 0 {
		m.buffer = append(m.buffer[:0], m.buffer[over:]...)
	}

	var best *Sentence
	for i := range sentences {
		s := &sentences[i]
		if s.Strategy == StrategyMotion || len(s.Words) == 0 {
			continue
		}
		if !m.endsWith(s.Words) {
			continue
		}
		if best == nil || len(s.Words) > len(best.Words) {
			best = s
		}
	}
	if best == nil {
		return Event{}, false
	}

	matched := m.buffer[len(m.buffer)-len(best.Words):]
	var total float64
	for _, w := range matched {
		total += w.Confidence
	}

	event := Event{
		Kind:       EventSentence,
		Label:      best.Label,
		Confidence: total / float64(len(matched)),
		At:         now,
	}

	m.buffer = m.buffer[:0]
	m.cooldownUntil = now.Add(m.cfg.Cooldown)

	m.log.WithFields(logrus.Fields{
		"label":      event.Label,
		"confidence": event.Confidence,
		"words":      len(best.Words),
	}).Info("sentence recognized")
	return event, true
}

// ObserveFrame is a no-op for token sentences.
func (m *TokenMatcher) ObserveFrame(time.Time, landmark.Frame, []Sentence) (Event, bool) {
	return Event{}, false
}

// CoolingDown reports whether a recent sentence is still suppressing input.
func (m *TokenMatcher) CoolingDown(now time.Time) bool {
	return now.Before(m.cooldownUntil)
}

// Reset clears the word history and the cooldown.
func (m *TokenMatcher) Reset() {
	m.buffer = m.buffer[:0]
	m.lastWordAt = time.Time{}
	m.cooldownUntil = time.Time{}
}

// Buffered returns the labels currently held, oldest first.
func (m *TokenMatcher) Buffered() []string {
	labels := make([]string, len(m.buffer))
	for i, w := range m.buffer {
		labels[i] = w.Label
	}
	return labels
}

func (m *TokenMatcher) endsWith(words []Word) bool {
	if len(words) > len(m.buffer) {
		return false
	}
	offset := len(m.buffer) - len(words)
	for i, w := range words {
		if !SameLabel(m.buffer[offset+i].Label, w.Label) {
			return false
		}
	}
	return true
}

func longestSentence(sentences []Sentence) int {
	var n int
	for _, s := range sentences {
		n = max(n, len(s.Words))
	}
	return n
}
