package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/landmark"
	"github.com/ayusman/signspeak/internal/logging"
	"github.com/ayusman/signspeak/internal/store"
)

const testMinSamples = 3

var testLog = logging.Component(logging.Discard(), "api")

// countingReloader records how often the library was reloaded.
type countingReloader struct{ calls int }

func (r *countingReloader) Reload() error {
	r.calls++
	return nil
}

type fixture struct {
	store   *store.Store
	lib     gesture.Library
	trainer *gesture.Trainer
	reload  *countingReloader
}

// newFixture creates a Store with a temporary database and a trainer on top.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	lib := s.Library()
	return &fixture{
		store:   s,
		lib:     lib,
		trainer: gesture.NewTrainer(lib, testMinSamples, testLog),
		reload:  &countingReloader{},
	}
}

func frames(f landmark.Frame, n int) []landmark.Frame {
	out := make([]landmark.Frame, n)
	for i := range out {
		out[i] = f.Clone()
	}
	return out
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
