package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/signspeak/internal/gesture"
)

// SentenceRepository provides CRUD operations for sentences.
type SentenceRepository struct {
	db *sql.DB
}

// Sentences returns the sentence repository for this store.
func (s *Store) Sentences() *SentenceRepository {
	return &SentenceRepository{db: s.db}
}

// Put inserts a sentence or replaces the one with the same label key.
// Words and templates are replaced as a whole.
func (r *SentenceRepository) Put(s *gesture.Sentence) error {
	key := gesture.LabelKey(s.Label)
	if key == "" {
		return gesture.ErrEmptyLabel
	}
	if s.Strategy == "" {
		s.Strategy = gesture.StrategyTokens
	}
	if !s.Strategy.Valid() {
		return fmt.Errorf("unknown strategy %q", s.Strategy)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	var id string
	var createdAt time.Time
	err = tx.QueryRow(`SELECT id, created_at FROM sentences WHERE label_key = ?`, key).Scan(&id, &createdAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		s.UpdatedAt = now
		_, err = tx.Exec(
			`INSERT INTO sentences (id, label, label_key, strategy, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			s.ID, s.Label, key, string(s.Strategy), s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		s.ID = id
		s.CreatedAt = createdAt
		s.UpdatedAt = now
		_, err = tx.Exec(
			`UPDATE sentences SET label = ?, strategy = ?, updated_at = ? WHERE id = ?`,
			s.Label, string(s.Strategy), s.UpdatedAt, s.ID,
		)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM sentence_words WHERE sentence_id = ?`, s.ID); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM sentence_templates WHERE sentence_id = ?`, s.ID); err != nil {
			return err
		}
	}

	for i, w := range s.Words {
		data, err := encodeFrames(w.Samples)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO sentence_words (sentence_id, position, label, data) VALUES (?, ?, ?, ?)`,
			s.ID, i, w.Label, data,
		)
		if err != nil {
			return err
		}
	}

	for i, tpl := range s.Templates {
		data, err := encodeFrames(tpl)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			`INSERT INTO sentence_templates (sentence_id, template_index, data) VALUES (?, ?, ?)`,
			s.ID, i, data,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetByLabel retrieves a sentence with its words and templates by label, ignoring case.
func (r *SentenceRepository) GetByLabel(label string) (*gesture.Sentence, error) {
	s := &gesture.Sentence{}
	var strategy string

	err := r.db.QueryRow(
		`SELECT id, label, strategy, created_at, updated_at
		 FROM sentences WHERE label_key = ?`,
		gesture.LabelKey(label),
	).Scan(&s.ID, &s.Label, &strategy, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Strategy = gesture.Strategy(strategy)

	if err := r.loadParts(s); err != nil {
		return nil, err
	}
	return s, nil
}

// List retrieves all sentences with their words and templates, oldest first.
func (r *SentenceRepository) List() ([]gesture.Sentence, error) {
	rows, err := r.db.Query(
		`SELECT id, label, strategy, created_at, updated_at
		 FROM sentences ORDER BY created_at, label_key`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sentences []gesture.Sentence
	for rows.Next() {
		var s gesture.Sentence
		var strategy string
		if err := rows.Scan(&s.ID, &s.Label, &strategy, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Strategy = gesture.Strategy(strategy)
		sentences = append(sentences, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range sentences {
		if err := r.loadParts(&sentences[i]); err != nil {
			return nil, err
		}
	}

	return sentences, nil
}

// Delete removes a sentence by label.
func (r *SentenceRepository) Delete(label string) error {
	result, err := r.db.Exec(`DELETE FROM sentences WHERE label_key = ?`, gesture.LabelKey(label))
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

// loadParts fills in the words and templates of s.
func (r *SentenceRepository) loadParts(s *gesture.Sentence) error {
	rows, err := r.db.Query(
		`SELECT label, data FROM sentence_words WHERE sentence_id = ? ORDER BY position`,
		s.ID,
	)
	if err != nil {
		return err
	}
	for rows.Next() {
		var w gesture.Word
		var data string
		if err := rows.Scan(&w.Label, &data); err != nil {
			rows.Close()
			return err
		}
		if w.Samples, err = decodeFrames(data); err != nil {
			rows.Close()
			return err
		}
		s.Words = append(s.Words, w)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = r.db.Query(
		`SELECT data FROM sentence_templates WHERE sentence_id = ? ORDER BY template_index`,
		s.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return err
		}
		frames, err := decodeFrames(data)
		if err != nil {
			return err
		}
		s.Templates = append(s.Templates, frames)
	}

	return rows.Err()
}
