// Package app runs the SignSpeak recognition loop: landmark frames in,
// word and sentence events out.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/capture"
	"github.com/ayusman/signspeak/internal/config"
	"github.com/ayusman/signspeak/internal/detector"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// DefaultQueueSize is the number of frames Submit buffers before dropping.
const DefaultQueueSize = 8

// ErrRunning is returned by Start when the loop is already running.
var ErrRunning = errors.New("recognition loop already running")

// Config holds the collaborators and settings of an App.
type Config struct {
	// Library is read on Open and Reload. Required.
	Library gesture.Library
	// Settings defaults to config.Default() when nil.
	Settings *config.Config
	Logger   *logrus.Logger

	// Camera, Gate and Detector form the optional local landmark source.
	// The camera loop runs only when both Camera and Detector are set.
	Camera   capture.Camera
	Gate     *capture.Gate
	Detector detector.Detector

	// Now defaults to time.Now.
	Now func() time.Time
}

// App is a recognition session. Frames are processed one at a time;
// results are fanned out to subscribers.
type App struct {
	cfg      Config
	settings *config.Config
	log      *logrus.Entry
	now      func() time.Time

	snapshot atomic.Pointer[gesture.Snapshot]
	enabled  atomic.Bool
	dropped  atomic.Uint64
	preview  atomic.Pointer[[]byte]

	// mu serializes recognition cycles.
	mu         sync.Mutex
	strategy   gesture.Strategy
	stabilizer *gesture.Stabilizer
	sequencer  gesture.Sequencer

	frames chan landmark.Frame

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	subMu   sync.Mutex
	subs    map[int]chan gesture.Event
	nextSub int
	last    *gesture.Event
}

// New builds an App from cfg. Call Open before processing frames.
func New(cfg Config) (*App, error) {
	if cfg.Library == nil {
		return nil, errors.New("app: library is required")
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	queue := settings.App.QueueSize
	if queue <= 0 {
		queue = DefaultQueueSize
	}

	a := &App{
		cfg:      cfg,
		settings: settings,
		log:      logging.Component(cfg.Logger, "app"),
		now:      now,
		strategy: settings.Sequence.Strategy,
		frames:   make(chan landmark.Frame, queue),
		subs:     make(map[int]chan gesture.Event),
	}

	classifier := gesture.NewClassifier(settings.Recognition.K, logging.Component(cfg.Logger, "classifier"))
	a.stabilizer = gesture.NewStabilizer(settings.StabilizerConfig(), classifier, logging.Component(cfg.Logger, "stabilizer"))

	switch a.strategy {
	case gesture.StrategyMotion:
		a.sequencer = gesture.NewMotionMatcher(settings.MotionConfig(), logging.Component(cfg.Logger, "motion"))
	default:
		a.strategy = gesture.StrategyTokens
		a.sequencer = gesture.NewTokenMatcher(settings.TokenConfig(), logging.Component(cfg.Logger, "tokens"))
	}

	a.snapshot.Store(gesture.NewSnapshot(nil, nil))
	a.enabled.Store(true)

	return a, nil
}

// Open loads the library snapshot.
func (a *App) Open() error {
	return a.Reload()
}

// Close stops the loop and releases the camera and detector.
func (a *App) Close() error {
	a.Stop()

	var errs []error
	if a.cfg.Camera != nil {
		errs = append(errs, a.cfg.Camera.Close())
	}
	if a.cfg.Detector != nil {
		errs = append(errs, a.cfg.Detector.Close())
	}
	return errors.Join(errs...)
}

// Reload rebuilds the snapshot from the library and swaps it in.
// Recognition cycles already running keep the snapshot they started with.
func (a *App) Reload() error {
	snap, err := gesture.LoadSnapshot(a.cfg.Library)
	if err != nil {
		return err
	}
	a.snapshot.Store(snap)
	a.log.WithFields(logrus.Fields{
		"gestures":  len(snap.Gestures),
		"sentences": len(snap.Sentences),
	}).Info("library loaded")
	return nil
}

// Snapshot returns the library view currently used for recognition.
func (a *App) Snapshot() *gesture.Snapshot {
	return a.snapshot.Load()
}

// Strategy returns the sentence strategy in use.
func (a *App) Strategy() gesture.Strategy {
	return a.strategy
}

// SetEnabled turns recognition on or off. Turning it off resets all
// in-flight state.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) == enabled {
		return
	}
	if !enabled {
		a.Reset()
	}
	a.log.WithField("enabled", enabled).Info("recognition toggled")
}

// IsEnabled reports whether recognition is on.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// Reset clears the stabilizer ring, the sentence buffer and any cooldown.
func (a *App) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stabilizer.Reset()
	a.sequencer.Reset()
	if a.cfg.Gate != nil {
		a.cfg.Gate.Reset()
	}
}

// Process runs one recognition cycle on a raw landmark frame at the current time.
func (a *App) Process(frame landmark.Frame) []gesture.Event {
	return a.ProcessAt(a.now(), frame)
}

// ProcessAt runs one recognition cycle on a raw landmark frame.
// An empty frame means no hand was seen. The returned events have
// already been published to subscribers.
func (a *App) ProcessAt(now time.Time, frame landmark.Frame) []gesture.Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Checked under the lock so a frame cannot land after SetEnabled(false) resets.
	if !a.IsEnabled() {
		return nil
	}

	events := a.process(now, frame)
	for _, e := range events {
		a.publish(e)
	}
	return events
}

func (a *App) process(now time.Time, frame landmark.Frame) []gesture.Event {
	if !a.stabilizer.Allow(now) {
		return nil
	}

	if frame.Empty() {
		a.stabilizer.Miss(now)
		return nil
	}

	snap := a.snapshot.Load()
	normalized := landmark.Normalize(frame)

	var events []gesture.Event

	// Motion sentences are matched on the raw frame stream.
	if a.strategy == gesture.StrategyMotion {
		if e, ok := a.sequencer.ObserveFrame(now, normalized, snap.SentencesFor(gesture.StrategyMotion)); ok {
			events = append(events, e)
		}
	}

	if a.sequencer.CoolingDown(now) {
		return events
	}

	word, ok := a.stabilizer.Observe(now, normalized, snap.Gestures)
	if !ok {
		return events
	}
	events = append(events, word)

	if a.strategy == gesture.StrategyTokens {
		if e, ok := a.sequencer.ObserveWord(now, word, snap.SentencesFor(gesture.StrategyTokens)); ok {
			events = append(events, e)
		}
	}

	return events
}

// Submit queues a frame for the loop started by Start. It never blocks:
// when the queue is full the frame is dropped and false is returned.
func (a *App) Submit(frame landmark.Frame) bool {
	select {
	case a.frames <- frame:
		return true
	default:
		n := a.dropped.Add(1)
		a.log.WithField("dropped", n).Debug("frame queue full")
		return false
	}
}

// Dropped returns how many submitted frames were dropped.
func (a *App) Dropped() uint64 {
	return a.dropped.Load()
}

// Start launches the frame consumer and, when configured, the camera loop.
// The loops run until ctx is done or Stop is called.
func (a *App) Start(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.cancel != nil {
		return ErrRunning
	}

	if a.cfg.Camera != nil && a.cfg.Detector != nil {
		if err := a.cfg.Camera.Open(); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.consume(ctx)
	}()

	if a.cfg.Camera != nil && a.cfg.Detector != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.runCamera(ctx)
		}()
	}

	a.log.WithField("strategy", a.strategy).Info("recognition loop started")
	return nil
}

// Stop halts the loops, waits for them to exit and resets all state.
// Queued frames are discarded.
func (a *App) Stop() {
	a.runMu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	a.wg.Wait()

drain:
	for {
		select {
		case <-a.frames:
		default:
			break drain
		}
	}

	if a.cfg.Camera != nil {
		if err := a.cfg.Camera.Close(); err != nil {
			a.log.WithError(err).Warn("close camera")
		}
	}

	a.Reset()
	a.log.Info("recognition loop stopped")
}

// Running reports whether Start has been called without a matching Stop.
func (a *App) Running() bool {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.cancel != nil
}

func (a *App) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-a.frames:
			a.Process(frame)
		}
	}
}

// Subscribe returns a channel receiving every event and a func that
// cancels the subscription. A subscriber that falls more than buffer
// events behind misses events; recognition never waits on it.
func (a *App) Subscribe(buffer int) (<-chan gesture.Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan gesture.Event, buffer)

	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subs, id)
			a.subMu.Unlock()
			close(ch)
		})
	}
}

// LastEvent returns the most recent event, if any.
func (a *App) LastEvent() (gesture.Event, bool) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	if a.last == nil {
		return gesture.Event{}, false
	}
	return *a.last, true
}

func (a *App) publish(e gesture.Event) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	a.last = &e
	for id, ch := range a.subs {
		select {
		case ch <- e:
		default:
			a.log.WithFields(logrus.Fields{
				"subscriber": id,
				"label":      e.Label,
			}).Debug("subscriber behind, event dropped")
		}
	}
}
