// Package detector extracts hand landmarks from camera frames.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/signspeak/internal/landmark"
)

// Hand is one detected hand.
// Landmarks are image-space points; World holds the metric 3D points used
// for recognition. An empty World means the hand could not be measured.
type Hand struct {
	Landmarks  landmark.Frame `json:"landmarks"`
	World      landmark.Frame `json:"world"`
	Handedness string         `json:"handedness"`
	Score      float64        `json:"score"`
}

// FirstWorld returns the world frame of the first hand, or nil when there is none.
func FirstWorld(hands []Hand) landmark.Frame {
	if len(hands) == 0 {
		return nil
	}
	return hands[0].World
}

// Detector defines the interface for hand detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hands.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]Hand, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect.
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// Script is the landmark helper script. Empty means search the usual places.
	Script string

	// Python is the interpreter used to run Script.
	Python string

	// IdleTimeout stops the helper process after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
		Python:        "python3",
		IdleTimeout:   30 * time.Second,
	}
}
