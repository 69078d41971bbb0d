package gesture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signspeak/internal/landmark"
)

const testMinSamples = 5

func newTestTrainer() (*Trainer, *MemoryLibrary) {
	lib := NewMemoryLibrary()
	return NewTrainer(lib, testMinSamples, testLog), lib
}

func TestSession_Capture(t *testing.T) {
	s := NewSession("  hello ")
	assert.Equal(t, "hello", s.Label())

	require.NoError(t, s.Capture(landmark.ThumbsUp()))
	assert.ErrorIs(t, s.Capture(nil), ErrNoHandDetected)
	assert.ErrorIs(t, s.Capture(landmark.Frame{}), ErrNoHandDetected)
	assert.Equal(t, 1, s.Len())

	samples := s.Samples()
	samples[0][0].X = 99
	assert.NotEqual(t, 99.0, s.Samples()[0][0].X, "samples must be copies")

	s.Reset()
	assert.Zero(t, s.Len())
}

func TestTrainer_SaveGesture(t *testing.T) {
	tr, lib := newTestTrainer()

	g, err := tr.SaveGesture("Hello", "wave hello", jittered(landmark.OpenPalm(), testMinSamples))
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)

	stored, err := lib.Gesture("hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", stored.Label)
	assert.Equal(t, "wave hello", stored.Description)
	require.Len(t, stored.Samples, testMinSamples)

	for _, sample := range stored.Samples {
		c := landmark.Centroid(sample)
		assert.InDelta(t, 0, c.X, 1e-9)
		assert.InDelta(t, 0, c.Y, 1e-9)
		assert.InDelta(t, 0, c.Z, 1e-9)
	}
}

func TestTrainer_SaveGestureErrors(t *testing.T) {
	tr, lib := newTestTrainer()
	_, err := tr.SaveGesture("hello", "", repeatFrame(landmark.OpenPalm(), testMinSamples))
	require.NoError(t, err)

	tests := []struct {
		name    string
		label   string
		samples []landmark.Frame
		want    error
	}{
		{"empty label", "   ", repeatFrame(landmark.Fist(), testMinSamples), ErrEmptyLabel},
		{"duplicate ignoring case", "HELLO", repeatFrame(landmark.Fist(), testMinSamples), ErrDuplicateLabel},
		{"too few samples", "fist", repeatFrame(landmark.Fist(), testMinSamples-1), ErrInsufficientSamples},
		{"empty sample", "fist", append(repeatFrame(landmark.Fist(), testMinSamples-1), landmark.Frame{}), ErrNoHandDetected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.SaveGesture(tt.label, "", tt.samples)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := lib.Gestures()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTrainer_SaveSentence(t *testing.T) {
	tr, lib := newTestTrainer()
	_, err := tr.SaveGesture("thank", "", repeatFrame(landmark.OpenPalm(), testMinSamples))
	require.NoError(t, err)

	s, err := tr.SaveSentence("Thank You", []WordSpec{
		{Label: "thank", Samples: repeatFrame(landmark.Fist(), testMinSamples)},
		{Label: "you", Samples: repeatFrame(landmark.ThumbsUp(), testMinSamples)},
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyTokens, s.Strategy)
	assert.Equal(t, []string{"thank", "you"}, s.WordLabels())

	t.Run("missing word becomes a gesture", func(t *testing.T) {
		g, err := lib.Gesture("you")
		require.NoError(t, err)
		assert.Equal(t, `Gesture for "you" from sentence "Thank You"`, g.Description)
		assert.Len(t, g.Samples, testMinSamples)
	})

	t.Run("existing gesture is kept", func(t *testing.T) {
		g, err := lib.Gesture("thank")
		require.NoError(t, err)
		assert.Empty(t, g.Description)
		assert.InDelta(t, 0, landmark.Distance(g.Samples[0], landmark.Normalize(landmark.OpenPalm())), 1e-9)
	})

	t.Run("duplicate sentence", func(t *testing.T) {
		_, err := tr.SaveSentence("thank you", []WordSpec{{Label: "thank", Reuse: true}})
		assert.ErrorIs(t, err, ErrDuplicateLabel)
	})
}

func TestTrainer_SaveSentenceErrors(t *testing.T) {
	tr, lib := newTestTrainer()

	_, err := tr.SaveSentence("", []WordSpec{{Label: "a"}})
	assert.ErrorIs(t, err, ErrEmptyLabel)

	_, err = tr.SaveSentence("nothing", nil)
	assert.ErrorIs(t, err, ErrEmptySentence)

	_, err = tr.SaveSentence("blank word", []WordSpec{{Label: " ", Samples: repeatFrame(landmark.Fist(), testMinSamples)}})
	assert.ErrorIs(t, err, ErrEmptyLabel)

	_, err = tr.SaveSentence("unknown reuse", []WordSpec{{Label: "ghost", Reuse: true}})
	assert.ErrorIs(t, err, ErrUnknownGesture)

	_, err = tr.SaveSentence("short", []WordSpec{
		{Label: "a", Samples: repeatFrame(landmark.Fist(), testMinSamples)},
		{Label: "b", Samples: repeatFrame(landmark.Fist(), 2)},
	})
	assert.ErrorIs(t, err, ErrInsufficientSamples)

	gestures, err := lib.Gestures()
	require.NoError(t, err)
	sentences, err := lib.Sentences()
	require.NoError(t, err)
	assert.Empty(t, gestures, "failed saves must not write words")
	assert.Empty(t, sentences)
}

func TestTrainer_Reusable(t *testing.T) {
	tr, lib := newTestTrainer()

	t.Run("from standalone gesture", func(t *testing.T) {
		_, err := tr.SaveGesture("hello", "", jittered(landmark.OpenPalm(), testMinSamples))
		require.NoError(t, err)

		stored, err := lib.Gesture("hello")
		require.NoError(t, err)

		samples, err := tr.Reusable("HELLO")
		require.NoError(t, err)
		assert.Equal(t, stored.Samples, samples)

		s, err := tr.SaveSentence("hello there", []WordSpec{
			{Label: "hello", Reuse: true},
			{Label: "there", Samples: repeatFrame(landmark.Fist(), testMinSamples)},
		})
		require.NoError(t, err)
		assert.Equal(t, stored.Samples, s.Words[0].Samples)
	})

	t.Run("from a sentence word", func(t *testing.T) {
		require.NoError(t, tr.DeleteGesture("there"))

		samples, err := tr.Reusable("There")
		require.NoError(t, err)
		assert.Len(t, samples, testMinSamples)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := tr.Reusable("nobody")
		assert.ErrorIs(t, err, ErrUnknownGesture)
	})
}

func TestTrainer_SaveMotionSentence(t *testing.T) {
	tr, lib := newTestTrainer()

	_, err := tr.SaveMotionSentence("wave", nil)
	assert.ErrorIs(t, err, ErrEmptySentence)

	_, err = tr.SaveMotionSentence("wave", [][]landmark.Frame{{nil, {}}})
	assert.ErrorIs(t, err, ErrEmptySentence)

	s, err := tr.SaveMotionSentence("wave", [][]landmark.Frame{
		{landmark.OpenPalm(), landmark.Transform(landmark.OpenPalm(), 1, 0.1, 0, 0)},
		{},
	})
	require.NoError(t, err)
	assert.Equal(t, StrategyMotion, s.Strategy)
	require.Len(t, s.Templates, 1)

	stored, err := lib.Sentence("WAVE")
	require.NoError(t, err)
	assert.InDelta(t, 0, landmark.Distance(stored.Templates[0][0], stored.Templates[0][1]), 1e-9)

	_, err = tr.SaveMotionSentence("Wave", [][]landmark.Frame{{landmark.Fist()}})
	assert.ErrorIs(t, err, ErrDuplicateLabel)
}

func TestTrainer_Delete(t *testing.T) {
	tr, lib := newTestTrainer()
	_, err := tr.SaveSentence("hi", []WordSpec{{Label: "hi", Samples: repeatFrame(landmark.OpenPalm(), testMinSamples)}})
	require.NoError(t, err)

	require.NoError(t, tr.DeleteSentence("HI"))
	require.NoError(t, tr.DeleteGesture("hi"))

	_, err = lib.Sentence("hi")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, tr.DeleteGesture("hi"), ErrNotFound)
	assert.ErrorIs(t, tr.DeleteSentence("hi"), ErrNotFound)
}

func TestNewTrainer_DefaultMinSamples(t *testing.T) {
	assert.Equal(t, DefaultMinSamples, NewTrainer(NewMemoryLibrary(), 0, nil).MinSamples())
}

func TestTrainer_AddSamples(t *testing.T) {
	tr, lib := newTestTrainer()
	_, err := tr.SaveGesture("hello", "", repeatFrame(landmark.OpenPalm(), testMinSamples))
	require.NoError(t, err)

	g, err := tr.AddSamples("HELLO", jittered(landmark.OpenPalm(), 2))
	require.NoError(t, err)
	assert.Len(t, g.Samples, testMinSamples+2)

	stored, err := lib.Gesture("hello")
	require.NoError(t, err)
	assert.Len(t, stored.Samples, testMinSamples+2)

	_, err = tr.AddSamples("hello", nil)
	assert.ErrorIs(t, err, ErrInsufficientSamples)
	_, err = tr.AddSamples("hello", []landmark.Frame{nil})
	assert.ErrorIs(t, err, ErrNoHandDetected)
	_, err = tr.AddSamples("absent", repeatFrame(landmark.Fist(), 1))
	assert.ErrorIs(t, err, ErrNotFound)
}

// failingLibrary rejects writes for the configured labels.
type failingLibrary struct {
	*MemoryLibrary
	gesture  string
	sentence string
}

var errDiskFull = errors.New("disk full")

func (l *failingLibrary) PutGesture(g *Gesture) error {
	if g.Label == l.gesture {
		return errDiskFull
	}
	return l.MemoryLibrary.PutGesture(g)
}

func (l *failingLibrary) PutSentence(s *Sentence) error {
	if s.Label == l.sentence {
		return errDiskFull
	}
	return l.MemoryLibrary.PutSentence(s)
}

func TestTrainer_SaveSentenceWriteFailure(t *testing.T) {
	words := []WordSpec{
		{Label: "good", Samples: repeatFrame(landmark.ThumbsUp(), testMinSamples)},
		{Label: "night", Samples: repeatFrame(landmark.Fist(), testMinSamples)},
	}

	tests := []struct {
		name string
		lib  *failingLibrary
	}{
		{"word gesture fails", &failingLibrary{MemoryLibrary: NewMemoryLibrary(), gesture: "night"}},
		{"sentence fails", &failingLibrary{MemoryLibrary: NewMemoryLibrary(), sentence: "good night"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTrainer(tt.lib, testMinSamples, testLog)

			_, err := tr.SaveSentence("good night", words)
			assert.ErrorIs(t, err, errDiskFull)

			sentences, err := tt.lib.Sentences()
			require.NoError(t, err)
			assert.Empty(t, sentences)

			gestures, err := tt.lib.Gestures()
			require.NoError(t, err)
			assert.Empty(t, gestures, "word gestures added by the failed save are removed")
		})
	}
}

func TestTrainer_SaveSentenceKeepsExistingGesturesOnFailure(t *testing.T) {
	lib := &failingLibrary{MemoryLibrary: NewMemoryLibrary(), sentence: "good night"}
	tr := NewTrainer(lib, testMinSamples, testLog)
	_, err := tr.SaveGesture("good", "", repeatFrame(landmark.ThumbsUp(), testMinSamples))
	require.NoError(t, err)

	_, err = tr.SaveSentence("good night", []WordSpec{
		{Label: "good", Reuse: true},
		{Label: "night", Samples: repeatFrame(landmark.Fist(), testMinSamples)},
	})
	require.ErrorIs(t, err, errDiskFull)

	_, err = lib.Gesture("good")
	assert.NoError(t, err)
	_, err = lib.Gesture("night")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrainer_SavedGestureClassifiesItsOwnSamples(t *testing.T) {
	lib := NewMemoryLibrary()
	tr := NewTrainer(lib, DefaultMinSamples, testLog)
	_, err := tr.SaveGesture("Hello", "", jittered(landmark.OpenPalm(), 30))
	require.NoError(t, err)

	stored, err := lib.Gestures()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Len(t, stored[0].Samples, 30)

	result := NewClassifier(1, testLog).Classify(stored[0].Samples[7], stored)

	assert.Equal(t, "Hello", result.Label)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}
