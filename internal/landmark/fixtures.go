package landmark

// ThumbsUp returns a preset frame of a thumbs up pose.
// The thumb is extended upward while the other fingers are curled.
func ThumbsUp() Frame {
	f := make(Frame, NumLandmarks)

	f[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (Y decreases going up)
	f[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.0}
	f[ThumbMCP] = Landmark{X: 0.58, Y: 0.65, Z: 0.0}
	f[ThumbIP] = Landmark{X: 0.58, Y: 0.50, Z: 0.0}
	f[ThumbTip] = Landmark{X: 0.58, Y: 0.35, Z: 0.0}

	f[IndexMCP] = Landmark{X: 0.55, Y: 0.70, Z: -0.02}
	f[IndexPIP] = Landmark{X: 0.55, Y: 0.68, Z: -0.05}
	f[IndexDIP] = Landmark{X: 0.52, Y: 0.70, Z: -0.04}
	f[IndexTip] = Landmark{X: 0.50, Y: 0.72, Z: -0.02}

	f[MiddleMCP] = Landmark{X: 0.50, Y: 0.68, Z: -0.02}
	f[MiddlePIP] = Landmark{X: 0.50, Y: 0.66, Z: -0.05}
	f[MiddleDIP] = Landmark{X: 0.47, Y: 0.68, Z: -0.04}
	f[MiddleTip] = Landmark{X: 0.45, Y: 0.70, Z: -0.02}

	f[RingMCP] = Landmark{X: 0.45, Y: 0.70, Z: -0.02}
	f[RingPIP] = Landmark{X: 0.45, Y: 0.68, Z: -0.05}
	f[RingDIP] = Landmark{X: 0.42, Y: 0.70, Z: -0.04}
	f[RingTip] = Landmark{X: 0.40, Y: 0.72, Z: -0.02}

	f[PinkyMCP] = Landmark{X: 0.40, Y: 0.72, Z: -0.02}
	f[PinkyPIP] = Landmark{X: 0.40, Y: 0.70, Z: -0.05}
	f[PinkyDIP] = Landmark{X: 0.37, Y: 0.72, Z: -0.04}
	f[PinkyTip] = Landmark{X: 0.35, Y: 0.74, Z: -0.02}

	return f
}

// OpenPalm returns a preset frame of an open palm with all fingers extended.
func OpenPalm() Frame {
	f := make(Frame, NumLandmarks)

	f[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	f[ThumbCMC] = Landmark{X: 0.55, Y: 0.75, Z: 0.02}
	f[ThumbMCP] = Landmark{X: 0.62, Y: 0.70, Z: 0.03}
	f[ThumbIP] = Landmark{X: 0.68, Y: 0.65, Z: 0.03}
	f[ThumbTip] = Landmark{X: 0.73, Y: 0.60, Z: 0.03}

	f[IndexMCP] = Landmark{X: 0.55, Y: 0.68, Z: 0.0}
	f[IndexPIP] = Landmark{X: 0.57, Y: 0.55, Z: 0.0}
	f[IndexDIP] = Landmark{X: 0.58, Y: 0.45, Z: 0.0}
	f[IndexTip] = Landmark{X: 0.58, Y: 0.35, Z: 0.0}

	f[MiddleMCP] = Landmark{X: 0.50, Y: 0.66, Z: 0.0}
	f[MiddlePIP] = Landmark{X: 0.50, Y: 0.52, Z: 0.0}
	f[MiddleDIP] = Landmark{X: 0.50, Y: 0.40, Z: 0.0}
	f[MiddleTip] = Landmark{X: 0.50, Y: 0.28, Z: 0.0}

	f[RingMCP] = Landmark{X: 0.45, Y: 0.68, Z: 0.0}
	f[RingPIP] = Landmark{X: 0.43, Y: 0.55, Z: 0.0}
	f[RingDIP] = Landmark{X: 0.42, Y: 0.45, Z: 0.0}
	f[RingTip] = Landmark{X: 0.42, Y: 0.35, Z: 0.0}

	f[PinkyMCP] = Landmark{X: 0.40, Y: 0.70, Z: 0.0}
	f[PinkyPIP] = Landmark{X: 0.37, Y: 0.60, Z: 0.0}
	f[PinkyDIP] = Landmark{X: 0.35, Y: 0.50, Z: 0.0}
	f[PinkyTip] = Landmark{X: 0.34, Y: 0.42, Z: 0.0}

	return f
}

// Fist returns a preset frame of a closed fist, thumb folded across.
func Fist() Frame {
	f := make(Frame, NumLandmarks)

	f[Wrist] = Landmark{X: 0.5, Y: 0.8, Z: 0.0}

	f[ThumbCMC] = Landmark{X: 0.55, Y: 0.76, Z: 0.0}
	f[ThumbMCP] = Landmark{X: 0.57, Y: 0.72, Z: -0.02}
	f[ThumbIP] = Landmark{X: 0.54, Y: 0.69, Z: -0.04}
	f[ThumbTip] = Landmark{X: 0.50, Y: 0.68, Z: -0.05}

	f[IndexMCP] = Landmark{X: 0.55, Y: 0.68, Z: -0.01}
	f[IndexPIP] = Landmark{X: 0.56, Y: 0.63, Z: -0.05}
	f[IndexDIP] = Landmark{X: 0.55, Y: 0.66, Z: -0.07}
	f[IndexTip] = Landmark{X: 0.54, Y: 0.69, Z: -0.06}

	f[MiddleMCP] = Landmark{X: 0.50, Y: 0.67, Z: -0.01}
	f[MiddlePIP] = Landmark{X: 0.50, Y: 0.62, Z: -0.05}
	f[MiddleDIP] = Landmark{X: 0.50, Y: 0.65, Z: -0.07}
	f[MiddleTip] = Landmark{X: 0.50, Y: 0.68, Z: -0.06}

	f[RingMCP] = Landmark{X: 0.45, Y: 0.68, Z: -0.01}
	f[RingPIP] = Landmark{X: 0.45, Y: 0.63, Z: -0.05}
	f[RingDIP] = Landmark{X: 0.45, Y: 0.66, Z: -0.07}
	f[RingTip] = Landmark{X: 0.46, Y: 0.69, Z: -0.06}

	f[PinkyMCP] = Landmark{X: 0.41, Y: 0.70, Z: -0.01}
	f[PinkyPIP] = Landmark{X: 0.41, Y: 0.66, Z: -0.04}
	f[PinkyDIP] = Landmark{X: 0.41, Y: 0.68, Z: -0.05}
	f[PinkyTip] = Landmark{X: 0.42, Y: 0.71, Z: -0.05}

	return f
}

// Transform returns f scaled by s around the origin and then translated by (dx, dy, dz).
func Transform(f Frame, s, dx, dy, dz float64) Frame {
	out := make(Frame, len(f))
	for i, p := range f {
		out[i] = Landmark{
			X:          p.X*s + dx,
			Y:          p.Y*s + dy,
			Z:          p.Z*s + dz,
			Visibility: p.Visibility,
		}
	}
	return out
}
