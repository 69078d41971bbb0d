package gesture

import (
	"math"
	"time"

	"github.com/emirpasic/gods/queues/circularbuffer"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
)

// Motion defaults.
const (
	DefaultDTWThreshold  = 0.5
	DefaultMotionBuffer  = 50
	DefaultMotionTick    = time.Second
	DefaultMotionMinimum = 10
	DefaultMaxTemplates  = 16
)

// DTWCost calculates the Dynamic Time Warping cost between two frame sequences.
// Cell cost is landmark.Distance. The accumulated cost is divided by n+m.
// Returns infinity if either sequence is empty.
func DTWCost(live, template []landmark.Frame) float64 {
	n := len(live)
	m := len(template)

	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// Create (n+1) x (m+1) cost matrix initialized to infinity
	dtw := make([][]float64, n+1)
	for i := range dtw {
		dtw[i] = make([]float64, m+1)
		for j := range dtw[i] {
			dtw[i][j] = math.Inf(1)
		}
	}
	dtw[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := landmark.Distance(live[i-1], template[j-1])
			dtw[i][j] = cost + min(dtw[i-1][j], dtw[i][j-1], dtw[i-1][j-1])
		}
	}

	return dtw[n][m] / float64(n+m)
}

// MotionConfig configures a MotionMatcher.
type MotionConfig struct {
	// Threshold is the DTW cost below which a sentence matches.
	Threshold float64
	// BufferSize is the number of recent frames compared against templates.
	BufferSize int
	// TickInterval is the minimum spacing between evaluations.
	TickInterval time.Duration
	// MinFrames is the buffer length needed before evaluating.
	MinFrames int
	// MaxTemplates caps the templates compared per sentence.
	MaxTemplates int
}

// DefaultMotionConfig returns the default motion matching parameters.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Threshold:    DefaultDTWThreshold,
		BufferSize:   DefaultMotionBuffer,
		TickInterval: DefaultMotionTick,
		MinFrames:    DefaultMotionMinimum,
		MaxTemplates: DefaultMaxTemplates,
	}
}

// MotionMatcher recognizes sentences recorded as continuous frame sequences
// by comparing a rolling buffer of live frames against stored templates.
type MotionMatcher struct {
	cfg     MotionConfig
	buffer  *circularbuffer.Queue
	limiter *rate.Limiter
	log     *logrus.Entry
}

// NewMotionMatcher creates a MotionMatcher. Zero fields take their defaults.
func NewMotionMatcher(cfg MotionConfig, log *logrus.Entry) *MotionMatcher {
	def := DefaultMotionConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.MinFrames < 1 {
		cfg.MinFrames = 1
	}
	if cfg.MinFrames > cfg.BufferSize {
		cfg.MinFrames = cfg.BufferSize
	}
	if log == nil {
		log = logging.Component(nil, "motion")
	}

	limit := rate.Inf
	if cfg.TickInterval > 0 {
		limit = rate.Every(cfg.TickInterval)
	}

	return &MotionMatcher{
		cfg:     cfg,
		buffer:  circularbuffer.New(cfg.BufferSize),
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// ObserveWord is a no-op for motion sentences.
func (m *MotionMatcher) ObserveWord(time.Time, Event, []Sentence) (Event, bool) {
	return Event{}, false
}

// ObserveFrame appends a normalized frame to the buffer and, at most once
// per tick, compares the buffer against every motion template.
func (m *MotionMatcher) ObserveFrame(now time.Time, frame landmark.Frame, sentences []Sentence) (Event, bool) {
	if frame.Empty() {
		return Event{}, false
	}
	m.buffer.Enqueue(frame)

	if m.buffer.Size() < m.cfg.MinFrames {
		return Event{}, false
	}
	if !m.limiter.AllowN(now, 1) {
		return Event{}, false
	}

	live := m.frames()

	bestLabel := ""
	bestCost := math.Inf(1)
	for _, s := range sentences {
		if s.Strategy != StrategyMotion {
			continue
		}
		templates := s.Templates
		if m.cfg.MaxTemplates > 0 && len(templates) > m.cfg.MaxTemplates {
			templates = templates[:m.cfg.MaxTemplates]
		}
		for _, tpl := range templates {
			if cost := DTWCost(live, tpl); cost < bestCost {
				bestCost = cost
				bestLabel = s.Label
			}
		}
	}

	if bestLabel == "" || bestCost >= m.cfg.Threshold {
		m.log.WithFields(logrus.Fields{
			"frames": len(live),
			"cost":   bestCost,
		}).Debug("no sentence")
		return Event{}, false
	}

	event := Event{
		Kind:       EventSentence,
		Label:      bestLabel,
		Confidence: math.Max(0, 1-bestCost/m.cfg.Threshold),
		At:         now,
	}
	m.buffer.Clear()

	m.log.WithFields(logrus.Fields{
		"label":      event.Label,
		"confidence": event.Confidence,
		"cost":       bestCost,
	}).Info("sentence recognized")
	return event, true
}

// CoolingDown always reports false. A motion match clears the buffer instead.
func (m *MotionMatcher) CoolingDown(time.Time) bool {
	return false
}

// Reset empties the frame buffer.
func (m *MotionMatcher) Reset() {
	m.buffer.Clear()
}

// Len returns the number of buffered frames.
func (m *MotionMatcher) Len() int {
	return m.buffer.Size()
}

func (m *MotionMatcher) frames() []landmark.Frame {
	values := m.buffer.Values()
	out := make([]landmark.Frame, len(values))
	for i, v := range values {
		out[i] = v.(landmark.Frame)
	}
	return out
}
