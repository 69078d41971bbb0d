package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Gestures table - one row per trained word
		`CREATE TABLE IF NOT EXISTS gestures (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			label_key TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Gesture samples table - normalized landmark frames as JSON
		`CREATE TABLE IF NOT EXISTS gesture_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,

		// Sentences table - token or motion sentences
		`CREATE TABLE IF NOT EXISTS sentences (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			label_key TEXT NOT NULL UNIQUE,
			strategy TEXT NOT NULL CHECK(strategy IN ('tokens', 'motion')),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sentence words table - ordered words of token sentences with their samples
		`CREATE TABLE IF NOT EXISTS sentence_words (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sentence_id TEXT NOT NULL REFERENCES sentences(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '[]'
		)`,

		// Sentence templates table - frame sequences of motion sentences
		`CREATE TABLE IF NOT EXISTS sentence_templates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sentence_id TEXT NOT NULL REFERENCES sentences(id) ON DELETE CASCADE,
			template_index INTEGER NOT NULL,
			data TEXT NOT NULL
		)`,

		// Bindings table - plugin actions to run when a label is recognized
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			label_key TEXT NOT NULL UNIQUE,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_gesture_samples_gesture_id ON gesture_samples(gesture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sentence_words_sentence_id ON sentence_words(sentence_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sentence_templates_sentence_id ON sentence_templates(sentence_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
