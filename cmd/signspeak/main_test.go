package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/signspeak/internal/capture"
	"github.com/ayusman/signspeak/internal/config"
	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/store"
)

// run executes the CLI with a config file in dir and returns stdout.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--db", filepath.Join(dir, "library.db"),
		"--log-level", "error",
	}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func seedLibrary(t *testing.T, dir string) {
	t.Helper()

	st, err := store.New(filepath.Join(dir, "library.db"))
	require.NoError(t, err)
	defer st.Close()

	trainer := gesture.NewTrainer(st.Library(), 2, nil)
	samples := []landmark.Frame{landmark.OpenPalm(), landmark.OpenPalm()}
	_, err = trainer.SaveGesture("hello", "wave", samples)
	require.NoError(t, err)
	_, err = trainer.SaveSentence("hello there", []gesture.WordSpec{
		{Label: "hello", Reuse: true},
		{Label: "there", Samples: []landmark.Frame{landmark.Fist(), landmark.Fist()}},
	})
	require.NoError(t, err)
}

func TestConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  addr: \":9000\"\nrecognition:\n  k: 5\n"), 0o644))

	t.Setenv("SIGNSPEAK_RECOGNITION_K", "7")
	t.Setenv("SIGNSPEAK_SEQUENCE_STRATEGY", "motion")

	out, err := run(t, dir, "config")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, ":9000", cfg.Server.Addr, "file value")
	assert.Equal(t, 7, cfg.Recognition.K, "environment beats file")
	assert.Equal(t, gesture.StrategyMotion, cfg.Sequence.Strategy)
	assert.Equal(t, filepath.Join(dir, "library.db"), cfg.Storage.Path, "flag")
	assert.Equal(t, gesture.DefaultRequiredConsistency, cfg.Recognition.RequiredConsistency, "default")
}

func TestConfigInvalid(t *testing.T) {
	t.Setenv("SIGNSPEAK_SEQUENCE_STRATEGY", "telepathy")

	_, err := run(t, t.TempDir(), "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence.strategy")
}

func TestGesturesAndSentences(t *testing.T) {
	dir := t.TempDir()
	seedLibrary(t, dir)

	out, err := run(t, dir, "gestures", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "there")
	assert.Contains(t, out, "wave")

	out, err = run(t, dir, "sentences", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "hello there")
	assert.Contains(t, out, "tokens")

	_, err = run(t, dir, "sentences", "delete", "Hello There")
	require.NoError(t, err)
	out, err = run(t, dir, "sentences", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "hello there")

	_, err = run(t, dir, "gestures", "delete", "there")
	require.NoError(t, err)
	_, err = run(t, dir, "gestures", "delete", "there")
	assert.ErrorIs(t, err, gesture.ErrNotFound)
}

func TestExportImport(t *testing.T) {
	src := t.TempDir()
	seedLibrary(t, src)
	bundle := filepath.Join(t.TempDir(), "library.sslib")

	_, err := run(t, src, "export", bundle)
	require.NoError(t, err)

	dst := t.TempDir()
	out, err := run(t, dst, "import", bundle)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 words, 1 sentences")

	out, err = run(t, dst, "sentences", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "hello there")
}

func closeFrames(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

func TestCaptureSamples(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping camera capture test in short mode")
	}

	frames := capture.SolidFrames(2)
	defer closeFrames(frames)
	cam := capture.NewMockCamera(frames, true)
	require.NoError(t, cam.Open())
	defer cam.Close()

	det := detector.NewMockDetector()
	det.SetHands([]detector.Hand{detector.HandFromFrame(landmark.ThumbsUp())})

	session := gesture.NewSession("yes")
	var seen []int
	err := captureSamples(context.Background(), cam, det, session, 4, time.Millisecond, func(n int) {
		seen = append(seen, n)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, session.Len())
	assert.Equal(t, []int{1, 2, 3, 4}, seen)
}

func TestCaptureSamples_SkipsEmptyAndStops(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping camera capture test in short mode")
	}

	frames := capture.SolidFrames(1)
	defer closeFrames(frames)
	cam := capture.NewMockCamera(frames, true)
	require.NoError(t, cam.Open())
	defer cam.Close()

	det := detector.NewMockDetector()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	session := gesture.NewSession("nothing")
	err := captureSamples(ctx, cam, det, session, 1, time.Millisecond, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, session.Len())
	assert.Positive(t, det.Calls())
}
