// Package gesture provides gesture and sentence recognition over hand landmark frames.
package gesture

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ayusman/signspeak/internal/landmark"
)

// Sentinel labels returned by the classifier. They are never emitted as words.
const (
	LabelNoGestures = "No gestures trained"
	LabelUnknown    = "Unknown"
)

// Strategy selects how a sentence is recognized.
type Strategy string

const (
	// StrategyTokens recognizes a sentence as an ordered list of word labels.
	StrategyTokens Strategy = "tokens"
	// StrategyMotion recognizes a sentence as a continuous landmark trajectory.
	StrategyMotion Strategy = "motion"
)

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	return s == StrategyTokens || s == StrategyMotion
}

// Gesture is a labelled word with its training samples.
type Gesture struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Description string           `json:"description,omitempty"`
	Samples     []landmark.Frame `json:"samples"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Word is one ordered element of a token sentence.
type Word struct {
	Label   string           `json:"label"`
	Samples []landmark.Frame `json:"samples,omitempty"`
}

// Sentence is a labelled sequence of words or a set of motion templates.
type Sentence struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Strategy  Strategy           `json:"strategy"`
	Words     []Word             `json:"words,omitempty"`
	Templates [][]landmark.Frame `json:"templates,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// WordLabels returns the sentence's word labels in order.
func (s *Sentence) WordLabels() []string {
	labels := make([]string, len(s.Words))
	for i, w := range s.Words {
		labels[i] = w.Label
	}
	return labels
}

// LabelKey returns the comparison key for a label.
// Labels that differ only in case, compatibility form or surrounding
// whitespace share a key.
func LabelKey(label string) string {
	// cases.Caser is stateful, so each call gets its own.
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(label)))
}

// SameLabel reports whether two labels are equal under LabelKey.
func SameLabel(a, b string) bool {
	return LabelKey(a) == LabelKey(b)
}

// Result is the outcome of classifying one frame.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// IsSentinel reports whether the result carries one of the sentinel labels.
func (r Result) IsSentinel() bool {
	return r.Label == LabelNoGestures || r.Label == LabelUnknown
}

// EventKind distinguishes recognized words from recognized sentences.
type EventKind string

const (
	EventWord     EventKind = "word"
	EventSentence EventKind = "sentence"
)

// Event is a recognition emitted by the stabilizer or a sequencer.
type Event struct {
	Kind       EventKind `json:"kind"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}
