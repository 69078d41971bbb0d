package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/logging"
	"github.com/ayusman/signspeak/internal/store"
)

// ErrUnsupportedAction is returned when a binding names an action the
// plugin manifest does not declare.
var ErrUnsupportedAction = errors.New("action not supported by plugin")

// BindingFinder looks up the binding for a recognized label.
// A nil binding with a nil error means nothing is bound.
type BindingFinder interface {
	GetByLabel(label string) (*store.Binding, error)
}

// Dispatcher runs the plugin bound to each recognized word or sentence.
type Dispatcher struct {
	bindings BindingFinder
	manager  *Manager
	executor *Executor
	log      *logrus.Entry
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(bindings BindingFinder, manager *Manager, executor *Executor, log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logging.Component(nil, "dispatch")
	}
	return &Dispatcher{bindings: bindings, manager: manager, executor: executor, log: log}
}

// Run dispatches events until ctx is done or events is closed.
// Failures are logged; one bad plugin does not stop the loop.
func (d *Dispatcher) Run(ctx context.Context, events <-chan gesture.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := d.Dispatch(ctx, e); err != nil {
				d.log.WithError(err).WithField("label", e.Label).Warn("action failed")
			}
		}
	}
}

// Dispatch runs the action bound to e.Label. It returns a nil response
// and nil error when no enabled binding exists.
func (d *Dispatcher) Dispatch(ctx context.Context, e gesture.Event) (*Response, error) {
	b, err := d.bindings.GetByLabel(e.Label)
	if err != nil {
		return nil, fmt.Errorf("lookup binding: %w", err)
	}
	if b == nil || !b.Enabled {
		d.log.WithField("label", e.Label).Debug("no binding")
		return nil, nil
	}

	p, err := d.manager.Get(b.PluginName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.PluginName, err)
	}
	if !p.Manifest.Supports(b.ActionName) {
		return nil, fmt.Errorf("%s/%s: %w", b.PluginName, b.ActionName, ErrUnsupportedAction)
	}

	resp, err := d.executor.Execute(ctx, p, &Request{
		Action:     b.ActionName,
		Label:      e.Label,
		Kind:       string(e.Kind),
		Confidence: e.Confidence,
		Config:     b.Config,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("%s/%s: %s", b.PluginName, b.ActionName, resp.Error)
	}

	d.log.WithFields(logrus.Fields{
		"label":  e.Label,
		"plugin": b.PluginName,
		"action": b.ActionName,
	}).Info("action executed")
	return resp, nil
}
