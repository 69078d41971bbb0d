package store

import "github.com/ayusman/signspeak/internal/gesture"

// Library adapts the store's repositories to gesture.Library.
type Library struct {
	gestures  *GestureRepository
	sentences *SentenceRepository
}

var _ gesture.Library = (*Library)(nil)

// Library returns the gesture library backed by this store.
func (s *Store) Library() *Library {
	return &Library{gestures: s.Gestures(), sentences: s.Sentences()}
}

func (l *Library) Gestures() ([]gesture.Gesture, error) { return l.gestures.List() }

func (l *Library) Sentences() ([]gesture.Sentence, error) { return l.sentences.List() }

func (l *Library) Gesture(label string) (*gesture.Gesture, error) {
	return l.gestures.GetByLabel(label)
}

func (l *Library) Sentence(label string) (*gesture.Sentence, error) {
	return l.sentences.GetByLabel(label)
}

func (l *Library) PutGesture(g *gesture.Gesture) error { return l.gestures.Put(g) }

func (l *Library) PutSentence(s *gesture.Sentence) error { return l.sentences.Put(s) }

func (l *Library) DeleteGesture(label string) error { return l.gestures.Delete(label) }

func (l *Library) DeleteSentence(label string) error { return l.sentences.Delete(label) }
