package gesture

import "errors"

var (
	// ErrNotFound is returned when no gesture or sentence has the requested label.
	ErrNotFound = errors.New("not found")

	// ErrNoHandDetected is returned when a capture is attempted on a frame without landmarks.
	ErrNoHandDetected = errors.New("no hand detected")

	// ErrDuplicateLabel is returned when a label already exists, compared case-insensitively.
	ErrDuplicateLabel = errors.New("duplicate label")

	// ErrInsufficientSamples is returned when fewer samples than the configured minimum are saved.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrEmptyLabel is returned when a gesture or sentence has a blank label.
	ErrEmptyLabel = errors.New("label is required")

	// ErrEmptySentence is returned when a sentence has no words or templates.
	ErrEmptySentence = errors.New("sentence has no words")

	// ErrUnknownGesture is returned when reuse is requested for a word that was never trained.
	ErrUnknownGesture = errors.New("unknown gesture")
)
