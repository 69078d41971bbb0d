package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/signspeak/internal/landmark"
)

func TestMemoryLibrary_Gestures(t *testing.T) {
	lib := NewMemoryLibrary()

	g := &Gesture{Label: "Hello", Samples: repeatFrame(landmark.OpenPalm(), 2)}
	require.NoError(t, lib.PutGesture(g))
	require.NotEmpty(t, g.ID)
	require.False(t, g.CreatedAt.IsZero())

	require.NoError(t, lib.PutGesture(&Gesture{Label: "bye", Samples: repeatFrame(landmark.Fist(), 1)}))

	t.Run("lookup ignores case", func(t *testing.T) {
		got, err := lib.Gesture("HELLO")
		require.NoError(t, err)
		assert.Equal(t, g.ID, got.ID)
	})

	t.Run("insertion order", func(t *testing.T) {
		all, err := lib.Gestures()
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "Hello", all[0].Label)
		assert.Equal(t, "bye", all[1].Label)
	})

	t.Run("put replaces and keeps id", func(t *testing.T) {
		replacement := &Gesture{Label: "hello", Samples: repeatFrame(landmark.Fist(), 3)}
		require.NoError(t, lib.PutGesture(replacement))
		assert.Equal(t, g.ID, replacement.ID)

		got, err := lib.Gesture("hello")
		require.NoError(t, err)
		assert.Len(t, got.Samples, 3)

		all, err := lib.Gestures()
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		got, err := lib.Gesture("bye")
		require.NoError(t, err)
		got.Samples[0][0].X = 42

		again, err := lib.Gesture("bye")
		require.NoError(t, err)
		assert.NotEqual(t, 42.0, again.Samples[0][0].X)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, lib.DeleteGesture("BYE"))
		_, err := lib.Gesture("bye")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, lib.DeleteGesture("bye"), ErrNotFound)
	})

	t.Run("empty label rejected", func(t *testing.T) {
		assert.ErrorIs(t, lib.PutGesture(&Gesture{Label: " "}), ErrEmptyLabel)
	})
}

func TestMemoryLibrary_Sentences(t *testing.T) {
	lib := NewMemoryLibrary()

	s := tokenSentence("Thank You", "thank", "you")
	require.NoError(t, lib.PutSentence(&s))

	got, err := lib.Sentence("thank you")
	require.NoError(t, err)
	assert.Equal(t, []string{"thank", "you"}, got.WordLabels())

	require.NoError(t, lib.DeleteSentence("THANK YOU"))
	_, err = lib.Sentence("thank you")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewSnapshot(t *testing.T) {
	gestures := []Gesture{
		{Label: "palm", Samples: []landmark.Frame{landmark.OpenPalm()}},
		{Label: "empty"},
	}
	sentences := []Sentence{
		tokenSentence("hello world", "hello", "world"),
		{Label: "no words", Strategy: StrategyTokens},
		{Label: "wave", Strategy: StrategyMotion, Templates: [][]landmark.Frame{{landmark.OpenPalm()}, {}}},
		{Label: "still", Strategy: StrategyMotion},
	}

	snap := NewSnapshot(gestures, sentences)

	require.Len(t, snap.Gestures, 1)
	assert.Equal(t, "palm", snap.Gestures[0].Label)
	c := landmark.Centroid(snap.Gestures[0].Samples[0])
	assert.InDelta(t, 0, c.X, 1e-9)

	assert.Len(t, snap.Sentences, 2)
	tokens := snap.SentencesFor(StrategyTokens)
	require.Len(t, tokens, 1)
	assert.Equal(t, "hello world", tokens[0].Label)

	motion := snap.SentencesFor(StrategyMotion)
	require.Len(t, motion, 1)
	assert.Len(t, motion[0].Templates, 1)

	// Building a snapshot leaves the inputs untouched.
	assert.Equal(t, landmark.OpenPalm(), gestures[0].Samples[0])
	assert.Len(t, sentences[2].Templates, 2)

	assert.Equal(t, []string{"palm"}, snap.Labels())
}

func TestLoadSnapshot(t *testing.T) {
	lib := NewMemoryLibrary()
	require.NoError(t, lib.PutGesture(&Gesture{Label: "b", Samples: []landmark.Frame{landmark.Fist()}}))
	require.NoError(t, lib.PutGesture(&Gesture{Label: "a", Samples: []landmark.Frame{landmark.OpenPalm()}}))

	snap, err := LoadSnapshot(lib)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, snap.Labels())

	var nilSnap *Snapshot
	assert.Nil(t, nilSnap.SentencesFor(StrategyTokens))
}
