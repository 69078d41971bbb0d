package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/store"
)

type fakeBindings map[string]*store.Binding

func (f fakeBindings) GetByLabel(label string) (*store.Binding, error) {
	if label == "broken" {
		return nil, errors.New("database is locked")
	}
	return f[gesture.LabelKey(label)], nil
}

// newDispatcher sets up a "speak" plugin that appends each request to
// a log file and answers with success.
func newDispatcher(t *testing.T, bindings fakeBindings) (*Dispatcher, string) {
	t.Helper()
	skipOnWindows(t)

	dir := t.TempDir()
	out := filepath.Join(t.TempDir(), "requests.log")
	writePlugin(t, dir, "speak",
		"cat >> '"+out+"'\necho >> '"+out+"'\n"+`echo '{"success":true}'`+"\n", "say")
	writePlugin(t, dir, "grumpy",
		`echo '{"success":false,"error":"not today"}'`+"\n")

	manager := NewManager(dir, testLog)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	return NewDispatcher(bindings, manager, NewExecutor(5*time.Second), testLog), out
}

func readRequests(t *testing.T, path string) []Request {
	t.Helper()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read requests: %v", err)
	}

	var requests []Request
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var r Request
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("bad request line %q: %v", line, err)
		}
		requests = append(requests, r)
	}
	return requests
}

func event(kind gesture.EventKind, label string) gesture.Event {
	return gesture.Event{Kind: kind, Label: label, Confidence: 0.9, At: time.Now()}
}

func TestDispatcher_Dispatch(t *testing.T) {
	d, out := newDispatcher(t, fakeBindings{
		"hello": {Label: "hello", PluginName: "speak", ActionName: "say", Config: json.RawMessage(`{"voice":"en"}`), Enabled: true},
	})

	resp, err := d.Dispatch(context.Background(), event(gesture.EventSentence, "Hello"))
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}
	if resp == nil || !resp.Success {
		t.Fatalf("expected successful response, got %+v", resp)
	}

	requests := readRequests(t, out)
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	r := requests[0]
	if r.Action != "say" || r.Label != "Hello" || r.Kind != "sentence" || r.Confidence != 0.9 {
		t.Errorf("unexpected request %+v", r)
	}
	if string(r.Config) != `{"voice":"en"}` {
		t.Errorf("config = %s", r.Config)
	}
}

func TestDispatcher_Dispatch_NoAction(t *testing.T) {
	d, out := newDispatcher(t, fakeBindings{
		"off": {Label: "off", PluginName: "speak", ActionName: "say", Enabled: false},
	})

	for _, label := range []string{"unbound", "off"} {
		t.Run(label, func(t *testing.T) {
			resp, err := d.Dispatch(context.Background(), event(gesture.EventWord, label))
			if err != nil || resp != nil {
				t.Errorf("expected nothing to run, got %+v, %v", resp, err)
			}
		})
	}
	if requests := readRequests(t, out); len(requests) != 0 {
		t.Errorf("expected no plugin runs, got %d", len(requests))
	}
}

func TestDispatcher_Dispatch_Errors(t *testing.T) {
	d, _ := newDispatcher(t, fakeBindings{
		"ghost":  {Label: "ghost", PluginName: "missing", ActionName: "say", Enabled: true},
		"shout":  {Label: "shout", PluginName: "speak", ActionName: "shout", Enabled: true},
		"grumpy": {Label: "grumpy", PluginName: "grumpy", ActionName: "anything", Enabled: true},
	})

	tests := []struct {
		label   string
		target  error
		message string
	}{
		{label: "ghost", target: ErrPluginNotFound},
		{label: "shout", target: ErrUnsupportedAction},
		{label: "grumpy", message: "not today"},
		{label: "broken", message: "database is locked"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			_, err := d.Dispatch(context.Background(), event(gesture.EventWord, tt.label))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Errorf("expected error containing %q, got %v", tt.message, err)
			}
		})
	}
}

func TestDispatcher_Run(t *testing.T) {
	d, out := newDispatcher(t, fakeBindings{
		"hello":  {Label: "hello", PluginName: "speak", ActionName: "say", Enabled: true},
		"thanks": {Label: "thanks", PluginName: "speak", ActionName: "say", Enabled: true},
		"ghost":  {Label: "ghost", PluginName: "missing", ActionName: "say", Enabled: true},
	})

	events := make(chan gesture.Event, 4)
	events <- event(gesture.EventWord, "hello")
	events <- event(gesture.EventWord, "ghost")
	events <- event(gesture.EventSentence, "thanks")
	close(events)

	if err := d.Run(context.Background(), events); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	requests := readRequests(t, out)
	if len(requests) != 2 {
		t.Fatalf("expected 2 plugin runs, got %d", len(requests))
	}
	if requests[0].Label != "hello" || requests[1].Label != "thanks" {
		t.Errorf("unexpected order %q, %q", requests[0].Label, requests[1].Label)
	}
}

func TestDispatcher_Run_ContextCancelled(t *testing.T) {
	d, _ := newDispatcher(t, fakeBindings{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- d.Run(ctx, make(chan gesture.Event))
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
