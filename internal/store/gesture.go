package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/signspeak/internal/gesture"
)

// GestureRepository provides CRUD operations for gestures and their samples.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

// Put inserts a gesture or replaces the one with the same label key.
// Samples are replaced as a whole.
func (r *GestureRepository) Put(g *gesture.Gesture) error {
	key := gesture.LabelKey(g.Label)
	if key == "" {
		return gesture.ErrEmptyLabel
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	var id string
	var createdAt time.Time
	err = tx.QueryRow(`SELECT id, created_at FROM gestures WHERE label_key = ?`, key).Scan(&id, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
		g.UpdatedAt = now
		_, err = tx.Exec(
			`INSERT INTO gestures (id, label, label_key, description, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, g.Label, key, g.Description, g.CreatedAt, g.UpdatedAt,
		)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		g.ID = id
		g.CreatedAt = createdAt
		g.UpdatedAt = now
		_, err = tx.Exec(
			`UPDATE gestures SET label = ?, description = ?, updated_at = ? WHERE id = ?`,
			g.Label, g.Description, g.UpdatedAt, g.ID,
		)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM gesture_samples WHERE gesture_id = ?`, g.ID); err != nil {
			return err
		}
	}

	if err := insertSamples(tx, g.ID, g.Samples); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByLabel retrieves a gesture and its samples by label, ignoring case.
func (r *GestureRepository) GetByLabel(label string) (*gesture.Gesture, error) {
	g := &gesture.Gesture{}

	err := r.db.QueryRow(
		`SELECT id, label, description, created_at, updated_at
		 FROM gestures WHERE label_key = ?`,
		gesture.LabelKey(label),
	).Scan(&g.ID, &g.Label, &g.Description, &g.CreatedAt, &g.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	samples, err := loadSamples(r.db, g.ID)
	if err != nil {
		return nil, err
	}
	g.Samples = samples[g.ID]

	return g, nil
}

// List retrieves all gestures with their samples, oldest first.
func (r *GestureRepository) List() ([]gesture.Gesture, error) {
	rows, err := r.db.Query(
		`SELECT id, label, description, created_at, updated_at
		 FROM gestures ORDER BY created_at, label_key`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []gesture.Gesture
	for rows.Next() {
		var g gesture.Gesture
		if err := rows.Scan(&g.ID, &g.Label, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	samples, err := loadSamples(r.db, "")
	if err != nil {
		return nil, err
	}
	for i := range gestures {
		gestures[i].Samples = samples[gestures[i].ID]
	}

	return gestures, nil
}

// Count returns the number of stored gestures.
func (r *GestureRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM gestures`).Scan(&n)
	return n, err
}

// Delete removes a gesture and its samples by label.
func (r *GestureRepository) Delete(label string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE label_key = ?`, gesture.LabelKey(label))
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
