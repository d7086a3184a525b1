package midihost

import (
	"github.com/leandrodaf/midihost/internal/listener"
	"github.com/leandrodaf/midihost/sdk/contracts"
)

// CreateListener allocates an unconfigured listener and returns its handle.
// Configure a target sink and bind a device before starting it.
func (h *Host) CreateListener() contracts.Handle {
	handle := h.listeners.Insert(listener.New(h.logger, h.provider))
	h.logger.Info("Listener created", h.logger.Field().Int("handle", int(handle)))
	return handle
}

// SetTarget points the listener at an event sink. Rejected with
// ErrAlreadyRunning while the listener runs.
func (h *Host) SetTarget(handle contracts.Handle, sink contracts.EventSink) error {
	l, err := h.listener(handle)
	if err != nil {
		return err
	}
	return l.SetTarget(sink)
}

// SetFilter installs a status byte filter on the listener. A nil filter, or
// one with no commands, forwards every message.
func (h *Host) SetFilter(handle contracts.Handle, filter *contracts.MIDIEventFilter) error {
	l, err := h.listener(handle)
	if err != nil {
		return err
	}
	return l.SetFilter(filter)
}

// BindDevice selects the input device the listener opens on Start.
func (h *Host) BindDevice(handle contracts.Handle, deviceID int) error {
	l, err := h.listener(handle)
	if err != nil {
		return err
	}
	return l.BindDevice(deviceID)
}

// StartListener opens the listener's private device connection and launches
// its worker. Preconditions: a target sink is set and a device is bound.
func (h *Host) StartListener(handle contracts.Handle) error {
	l, err := h.listener(handle)
	if err != nil {
		return err
	}
	return l.Start()
}

// StopListener stops the worker and waits for it to exit. After StopListener
// returns, the sink receives no further events. Stopping a listener that is
// not running is a no-op.
func (h *Host) StopListener(handle contracts.Handle) error {
	l, err := h.listener(handle)
	if err != nil {
		return err
	}
	return l.Stop()
}

// ListenerRunning reports whether the listener's worker is live.
func (h *Host) ListenerRunning(handle contracts.Handle) (bool, error) {
	l, err := h.listener(handle)
	if err != nil {
		return false, err
	}
	return l.Running(), nil
}

// DestroyListener stops the listener and releases the handle. The handle is
// never reused; destroying twice reports ErrInvalidHandle.
func (h *Host) DestroyListener(handle contracts.Handle) error {
	l, ok := h.listeners.Remove(handle)
	if !ok {
		return invalidHandle("listener", handle)
	}
	return l.Stop()
}

// OpenListener creates, configures and starts a listener in one call. The
// optional statuses become the listener's filter. On failure no handle
// remains allocated.
func (h *Host) OpenListener(sink contracts.EventSink, deviceID int, statuses ...contracts.MIDICommand) (contracts.Handle, error) {
	handle := h.CreateListener()

	if err := h.SetTarget(handle, sink); err != nil {
		h.discardListener(handle)
		return 0, err
	}
	if len(statuses) > 0 {
		if err := h.SetFilter(handle, &contracts.MIDIEventFilter{Commands: statuses}); err != nil {
			h.discardListener(handle)
			return 0, err
		}
	}
	if err := h.BindDevice(handle, deviceID); err != nil {
		h.discardListener(handle)
		return 0, err
	}
	if err := h.StartListener(handle); err != nil {
		h.discardListener(handle)
		return 0, err
	}
	return handle, nil
}

// discardListener rolls back a partially configured listener after a failed
// OpenListener step.
func (h *Host) discardListener(handle contracts.Handle) {
	if err := h.DestroyListener(handle); err != nil {
		h.logger.Warn("Discarding listener after failed open", h.logger.Field().Error("error", err))
	}
}
