package store

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/ayusman/signspeak/internal/gesture"
)

// BundleVersion is the format version written by Export.
const BundleVersion = 1

// Bundle is the portable form of a library, written as zstd-compressed JSON.
type Bundle struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Gestures   []gesture.Gesture  `json:"gestures"`
	Sentences  []gesture.Sentence `json:"sentences"`
	Bindings   []*Binding         `json:"bindings,omitempty"`
}

// ImportStats counts what Import wrote.
type ImportStats struct {
	Gestures  int `json:"gestures"`
	Sentences int `json:"sentences"`
	Bindings  int `json:"bindings"`
}

// Export writes every gesture, sentence and binding to w.
func (s *Store) Export(w io.Writer) error {
	gestures, err := s.Gestures().List()
	if err != nil {
		return fmt.Errorf("list gestures: %w", err)
	}
	sentences, err := s.Sentences().List()
	if err != nil {
		return fmt.Errorf("list sentences: %w", err)
	}
	bindings, err := s.Bindings().List()
	if err != nil {
		return fmt.Errorf("list bindings: %w", err)
	}

	bundle := Bundle{
		Version:    BundleVersion,
		ExportedAt: time.Now().UTC(),
		Gestures:   gestures,
		Sentences:  sentences,
		Bindings:   bindings,
	}

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(bundle); err != nil {
		enc.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	return enc.Close()
}

// Import reads a bundle from r and upserts its contents by label.
// Bindings whose label is already bound are skipped.
func (s *Store) Import(r io.Reader) (ImportStats, error) {
	var stats ImportStats

	dec, err := zstd.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("create decoder: %w", err)
	}
	defer dec.Close()

	var bundle Bundle
	if err := json.NewDecoder(dec).Decode(&bundle); err != nil {
		return stats, fmt.Errorf("decode bundle: %w", err)
	}
	if bundle.Version != BundleVersion {
		return stats, fmt.Errorf("unsupported bundle version %d", bundle.Version)
	}

	for i := range bundle.Gestures {
		g := bundle.Gestures[i]
		g.ID = ""
		if err := s.Gestures().Put(&g); err != nil {
			return stats, fmt.Errorf("import gesture %q: %w", g.Label, err)
		}
		stats.Gestures++
	}

	for i := range bundle.Sentences {
		sentence := bundle.Sentences[i]
		sentence.ID = ""
		if err := s.Sentences().Put(&sentence); err != nil {
			return stats, fmt.Errorf("import sentence %q: %w", sentence.Label, err)
		}
		stats.Sentences++
	}

	for _, b := range bundle.Bindings {
		existing, err := s.Bindings().GetByLabel(b.Label)
		if err != nil {
			return stats, fmt.Errorf("lookup binding %q: %w", b.Label, err)
		}
		if existing != nil {
			continue
		}
		b.ID = ""
		if err := s.Bindings().Create(b); err != nil {
			return stats, fmt.Errorf("import binding %q: %w", b.Label, err)
		}
		stats.Bindings++
	}

	return stats, nil
}
