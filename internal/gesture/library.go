package gesture

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/signspeak/internal/landmark"
)

// Library is the persistent store of trained gestures and sentences.
// Labels are matched with LabelKey. Lookups of a missing label return ErrNotFound.
type Library interface {
	Gestures() ([]Gesture, error)
	Sentences() ([]Sentence, error)
	Gesture(label string) (*Gesture, error)
	Sentence(label string) (*Sentence, error)
	PutGesture(g *Gesture) error
	PutSentence(s *Sentence) error
	DeleteGesture(label string) error
	DeleteSentence(label string) error
}

// MemoryLibrary is an in-process Library. Values are copied in and out.
type MemoryLibrary struct {
	mu        sync.RWMutex
	gestures  map[string]*Gesture
	sentences map[string]*Sentence
	gOrder    []string
	sOrder    []string
}

// NewMemoryLibrary creates an empty MemoryLibrary.
func NewMemoryLibrary() *MemoryLibrary {
	return &MemoryLibrary{
		gestures:  make(map[string]*Gesture),
		sentences: make(map[string]*Sentence),
	}
}

// Gestures returns all gestures in insertion order.
func (m *MemoryLibrary) Gestures() ([]Gesture, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Gesture, 0, len(m.gOrder))
	for _, key := range m.gOrder {
		out = append(out, *copyGesture(m.gestures[key]))
	}
	return out, nil
}

// Sentences returns all sentences in insertion order.
func (m *MemoryLibrary) Sentences() ([]Sentence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Sentence, 0, len(m.sOrder))
	for _, key := range m.sOrder {
		out = append(out, *copySentence(m.sentences[key]))
	}
	return out, nil
}

// Gesture returns the gesture with the given label.
func (m *MemoryLibrary) Gesture(label string) (*Gesture, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.gestures[LabelKey(label)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyGesture(g), nil
}

// Sentence returns the sentence with the given label.
func (m *MemoryLibrary) Sentence(label string) (*Sentence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sentences[LabelKey(label)]
	if !ok {
		return nil, ErrNotFound
	}
	return copySentence(s), nil
}

// PutGesture inserts or replaces the gesture with g's label.
// A missing ID and timestamps are filled in on g.
func (m *MemoryLibrary) PutGesture(g *Gesture) error {
	if g == nil {
		return fmt.Errorf("put gesture: nil gesture")
	}
	key := LabelKey(g.Label)
	if key == "" {
		return ErrEmptyLabel
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if existing, ok := m.gestures[key]; ok {
		g.ID = existing.ID
		g.CreatedAt = existing.CreatedAt
	} else {
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = now
		}
		m.gOrder = append(m.gOrder, key)
	}
	g.UpdatedAt = now

	m.gestures[key] = copyGesture(g)
	return nil
}

// PutSentence inserts or replaces the sentence with s's label.
func (m *MemoryLibrary) PutSentence(s *Sentence) error {
	if s == nil {
		return fmt.Errorf("put sentence: nil sentence")
	}
	key := LabelKey(s.Label)
	if key == "" {
		return ErrEmptyLabel
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if existing, ok := m.sentences[key]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		m.sOrder = append(m.sOrder, key)
	}
	s.UpdatedAt = now

	m.sentences[key] = copySentence(s)
	return nil
}

// DeleteGesture removes the gesture with the given label.
func (m *MemoryLibrary) DeleteGesture(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := LabelKey(label)
	if _, ok := m.gestures[key]; !ok {
		return ErrNotFound
	}
	delete(m.gestures, key)
	m.gOrder = removeKey(m.gOrder, key)
	return nil
}

// DeleteSentence removes the sentence with the given label.
func (m *MemoryLibrary) DeleteSentence(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := LabelKey(label)
	if _, ok := m.sentences[key]; !ok {
		return ErrNotFound
	}
	delete(m.sentences, key)
	m.sOrder = removeKey(m.sOrder, key)
	return nil
}

func removeKey(keys []string, key string) []string {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

func copyFrames(frames []landmark.Frame) []landmark.Frame {
	if frames == nil {
		return nil
	}
	out := make([]landmark.Frame, len(frames))
	for i, f := range frames {
		out[i] = f.Clone()
	}
	return out
}

func copyGesture(g *Gesture) *Gesture {
	c := *g
	c.Samples = copyFrames(g.Samples)
	return &c
}

func copySentence(s *Sentence) *Sentence {
	c := *s
	if s.Words != nil {
		c.Words = make([]Word, len(s.Words))
		for i, w := range s.Words {
			c.Words[i] = Word{Label: w.Label, Samples: copyFrames(w.Samples)}
		}
	}
	if s.Templates != nil {
		c.Templates = make([][]landmark.Frame, len(s.Templates))
		for i, t := range s.Templates {
			c.Templates[i] = copyFrames(t)
		}
	}
	return &c
}

// Snapshot is an immutable view of the library used by the recognizer.
// Samples and templates are normalized, and entries that cannot match
// anything are left out.
type Snapshot struct {
	Gestures  []Gesture
	Sentences []Sentence
	TakenAt   time.Time
}

// NewSnapshot copies and normalizes the given gestures and sentences.
func NewSnapshot(gestures []Gesture, sentences []Sentence) *Snapshot {
	snap := &Snapshot{TakenAt: time.Now()}

	for i := range gestures {
		if len(gestures[i].Samples) == 0 {
			continue
		}
		g := copyGesture(&gestures[i])
		for j, sample := range g.Samples {
			g.Samples[j] = landmark.Normalize(sample)
		}
		snap.Gestures = append(snap.Gestures, *g)
	}

	for i := range sentences {
		s := copySentence(&sentences[i])
		switch s.Strategy {
		case StrategyMotion:
			templates := s.Templates[:0]
			for _, tpl := range s.Templates {
				if len(tpl) == 0 {
					continue
				}
				for j, f := range tpl {
					tpl[j] = landmark.Normalize(f)
				}
				templates = append(templates, tpl)
			}
			if len(templates) == 0 {
				continue
			}
			s.Templates = templates
		default:
			if len(s.Words) == 0 {
				continue
			}
		}
		snap.Sentences = append(snap.Sentences, *s)
	}

	return snap
}

// LoadSnapshot reads everything from lib into a new Snapshot.
func LoadSnapshot(lib Library) (*Snapshot, error) {
	gestures, err := lib.Gestures()
	if err != nil {
		return nil, fmt.Errorf("load gestures: %w", err)
	}
	sentences, err := lib.Sentences()
	if err != nil {
		return nil, fmt.Errorf("load sentences: %w", err)
	}
	return NewSnapshot(gestures, sentences), nil
}

// SentencesFor returns the sentences recognized by the given strategy.
func (s *Snapshot) SentencesFor(strategy Strategy) []Sentence {
	if s == nil {
		return nil
	}
	var out []Sentence
	for _, sentence := range s.Sentences {
		if sentence.Strategy == strategy {
			out = append(out, sentence)
		}
	}
	return out
}

// Labels returns the gesture labels in the snapshot, sorted.
func (s *Snapshot) Labels() []string {
	if s == nil {
		return nil
	}
	labels := make([]string, len(s.Gestures))
	for i, g := range s.Gestures {
		labels[i] = g.Label
	}
	sort.Strings(labels)
	return labels
}
