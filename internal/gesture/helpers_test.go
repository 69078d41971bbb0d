package gesture

import (
	"time"

	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

var testLog = logging.Component(logging.Discard(), "test")

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

// repeatFrame returns n copies of f.
func repeatFrame(f landmark.Frame, n int) []landmark.Frame {
	out := make([]landmark.Frame, n)
	for i := range out {
		out[i] = f.Clone()
	}
	return out
}

// jittered returns n copies of f, each scaled and shifted a little differently.
func jittered(f landmark.Frame, n int) []landmark.Frame {
	out := make([]landmark.Frame, n)
	for i := range out {
		d := float64(i) * 0.01
		out[i] = landmark.Transform(f, 1+d, d, -d, d/2)
	}
	return out
}

func trained(label string, f landmark.Frame, n int) Gesture {
	return Gesture{Label: label, Samples: repeatFrame(landmark.Normalize(f), n)}
}

// point is a one-landmark frame, handy when exact distances matter.
func point(x float64) landmark.Frame {
	return landmark.Frame{{X: x}}
}

func tokenSentence(label string, words ...string) Sentence {
	s := Sentence{Label: label, Strategy: StrategyTokens}
	for _, w := range words {
		s.Words = append(s.Words, Word{Label: w})
	}
	return s
}

func word(label string, confidence float64, now time.Time) Event {
	return Event{Kind: EventWord, Label: label, Confidence: confidence, At: now}
}
