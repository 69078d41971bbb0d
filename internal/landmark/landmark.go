// Package landmark provides hand landmark frames and the geometry used to compare them.
package landmark

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Landmark is a single 3D point on a tracked hand.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Frame is the ordered set of landmarks captured at one instant.
// Point i of one frame corresponds to point i of every other frame.
type Frame []Landmark

// Empty reports whether the frame carries no landmarks, which the
// landmark source uses to signal that no hand was detected.
func (f Frame) Empty() bool {
	return len(f) == 0
}

// Clone returns a copy of the frame that shares no memory with f.
func (f Frame) Clone() Frame {
	if f == nil {
		return nil
	}
	out := make(Frame, len(f))
	copy(out, f)
	return out
}

// distance3D calculates the Euclidean distance between two landmarks.
func distance3D(a, b Landmark) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Centroid returns the arithmetic mean of the frame's landmarks.
func Centroid(f Frame) Landmark {
	var c Landmark
	if len(f) == 0 {
		return c
	}
	for _, p := range f {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(len(f))
	c.X /= n
	c.Y /= n
	c.Z /= n
	return c
}

// Normalize makes the frame translation- and scale-invariant.
// The centroid is moved to the origin and the landmark farthest from it
// ends up at distance 1.0. A frame with zero spread yields all-zero
// landmarks of the same length. Rotation is not compensated.
// Returns a new Frame; f is not modified.
func Normalize(f Frame) Frame {
	if f == nil {
		return nil
	}

	centroid := Centroid(f)

	var maxDist float64
	for _, p := range f {
		if d := distance3D(p, centroid); d > maxDist {
			maxDist = d
		}
	}

	normalized := make(Frame, len(f))
	if maxDist == 0 {
		for i, p := range f {
			normalized[i] = Landmark{Visibility: p.Visibility}
		}
		return normalized
	}

	for i, p := range f {
		normalized[i] = Landmark{
			X:          (p.X - centroid.X) / maxDist,
			Y:          (p.Y - centroid.Y) / maxDist,
			Z:          (p.Z - centroid.Z) / maxDist,
			Visibility: p.Visibility,
		}
	}

	return normalized
}

// Distance returns the mean per-point Euclidean distance between two frames.
// When the landmark counts differ only the shared prefix is compared.
// Returns +Inf if either frame is empty.
func Distance(a, b Frame) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return math.Inf(1)
	}

	var total float64
	for i := 0; i < n; i++ {
		total += distance3D(a[i], b[i])
	}
	return total / float64(n)
}

// Mismatch reports whether two frames have a different landmark count,
// in which case Distance silently truncated the comparison.
func Mismatch(a, b Frame) bool {
	return len(a) != len(b)
}
