// Package tray provides a system tray menu for toggling recognition and
// showing the last recognized word or sentence.
package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/logging"
)

const eventBuffer = 8

// Recognizer is the part of the recognition app the tray drives.
type Recognizer interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	Subscribe(buffer int) (<-chan gesture.Event, func())
}

// Tray represents the system tray application.
type Tray struct {
	recognizer Recognizer
	onSettings func()
	onQuit     func()
	log        *logrus.Entry
	mu         sync.RWMutex
	last       string

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastEvent *systray.MenuItem
}

// New creates a Tray bound to r.
func New(r Recognizer, log *logrus.Entry) *Tray {
	if log == nil {
		log = logging.Component(nil, "tray")
	}
	return &Tray{recognizer: r, log: log}
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray and blocks until Quit is clicked or ctx is
// done. It must be called from the main goroutine on macOS.
func (t *Tray) Run(ctx context.Context) {
	events, unsubscribe := t.recognizer.Subscribe(eventBuffer)
	defer unsubscribe()

	go t.watch(ctx, events)
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()

	systray.Run(t.onReady, func() {
		t.log.Debug("tray exited")
	})
}

// watch mirrors recognition events into the menu.
func (t *Tray) watch(ctx context.Context, events <-chan gesture.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			t.SetLastEvent(e)
		}
	}
}

func (t *Tray) onReady() {
	systray.SetTitle("SignSpeak")
	systray.SetTooltip("SignSpeak sign language recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.recognizer.IsEnabled()), "Toggle recognition")
	systray.AddSeparator()
	t.menuLastEvent = systray.AddMenuItem(lastTitle(t.last), "Last recognized word or sentence")
	t.menuLastEvent.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit SignSpeak")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// Toggle flips recognition on or off and returns the new state.
func (t *Tray) Toggle() bool {
	enabled := !t.recognizer.IsEnabled()
	t.recognizer.SetEnabled(enabled)
	t.log.WithField("enabled", enabled).Info("recognition toggled")

	t.mu.RLock()
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	t.mu.RUnlock()
	return enabled
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastEvent updates the last event display in the menu.
func (t *Tray) SetLastEvent(e gesture.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = describe(e)
	if t.menuLastEvent != nil {
		t.menuLastEvent.SetTitle(lastTitle(t.last))
	}
}

// LastEvent returns the text shown for the last event.
func (t *Tray) LastEvent() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func describe(e gesture.Event) string {
	if e.Label == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s, %.0f%%)", e.Label, e.Kind, e.Confidence*100)
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(last string) string {
	if last == "" {
		return "Last: none"
	}
	return "Last: " + last
}
