package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection
	DiffThreshold = 25
	// DefaultHold keeps the gate open after the last motion so held signs
	// are still classified.
	DefaultHold = 2 * time.Second
)

// MotionDetector detects motion between consecutive video frames
// using frame differencing with Gaussian blur for noise reduction.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	closed      bool
	mu          sync.Mutex
}

// NewMotionDetector creates a new MotionDetector.
// threshold is the percentage of pixels that must change, e.g. 1.0 for 1%.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and returns whether motion
// was seen and the percentage of changed pixels. The first frame only
// sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed && !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// Close releases resources used by the motion detector.
// Detect reports no motion afterwards. Closing twice is safe.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.prevGray.Close()
	m.closed = true
	m.initialized = false
}

// Gate decides which camera frames are worth sending to the landmark detector.
// It opens on motion and stays open for the hold period afterwards.
// A nil detector keeps the gate always open.
type Gate struct {
	mu         sync.Mutex
	detector   *MotionDetector
	hold       time.Duration
	lastMotion time.Time
}

// NewGate wraps a motion detector with a hold period.
func NewGate(detector *MotionDetector, hold time.Duration) *Gate {
	return &Gate{detector: detector, hold: hold}
}

// Open reports whether frame, seen at now, should be processed.
func (g *Gate) Open(now time.Time, frame *gocv.Mat) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.detector == nil {
		return true
	}
	if moved, _ := g.detector.Detect(frame); moved {
		g.lastMotion = now
		return true
	}
	return !g.lastMotion.IsZero() && now.Sub(g.lastMotion) < g.hold
}

// Reset closes the gate and drops the motion baseline.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastMotion = time.Time{}
	if g.detector != nil {
		g.detector.Reset()
	}
}

// Close releases the motion detector.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.detector != nil {
		g.detector.Close()
	}
}
