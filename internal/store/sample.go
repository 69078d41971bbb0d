package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ayusman/signspeak/internal/landmark"
)

// encodeFrames serializes frames for a TEXT column.
func encodeFrames(frames []landmark.Frame) (string, error) {
	if frames == nil {
		frames = []landmark.Frame{}
	}
	data, err := json.Marshal(frames)
	if err != nil {
		return "", fmt.Errorf("encode frames: %w", err)
	}
	return string(data), nil
}

func decodeFrames(data string) ([]landmark.Frame, error) {
	var frames []landmark.Frame
	if err := json.Unmarshal([]byte(data), &frames); err != nil {
		return nil, fmt.Errorf("decode frames: %w", err)
	}
	return frames, nil
}

// insertSamples writes one row per sample for a gesture.
func insertSamples(tx *sql.Tx, gestureID string, samples []landmark.Frame) error {
	stmt, err := tx.Prepare(`INSERT INTO gesture_samples (gesture_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, sample := range samples {
		data, err := json.Marshal(sample)
		if err != nil {
			return fmt.Errorf("encode sample %d: %w", i, err)
		}
		if _, err := stmt.Exec(gestureID, i, string(data)); err != nil {
			return err
		}
	}
	return nil
}

// loadSamples returns the samples of every gesture keyed by gesture ID,
// or of a single gesture when id is not empty.
func loadSamples(q queryer, id string) (map[string][]landmark.Frame, error) {
	query := `SELECT gesture_id, data FROM gesture_samples ORDER BY gesture_id, sample_index`
	var args []any
	if id != "" {
		query = `SELECT gesture_id, data FROM gesture_samples WHERE gesture_id = ? ORDER BY sample_index`
		args = append(args, id)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make(map[string][]landmark.Frame)
	for rows.Next() {
		var gestureID, data string
		if err := rows.Scan(&gestureID, &data); err != nil {
			return nil, err
		}
		var frame landmark.Frame
		if err := json.Unmarshal([]byte(data), &frame); err != nil {
			return nil, fmt.Errorf("decode sample of %s: %w", gestureID, err)
		}
		samples[gestureID] = append(samples[gestureID], frame)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
