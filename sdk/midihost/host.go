// Package midihost exposes the public surface of the SDK: normalized MIDI
// file queries, device managers and live listeners, all addressed through
// integer handles so hosts never share library pointers.
package midihost

import (
	"fmt"

	"github.com/leandrodaf/midihost/internal/device"
	"github.com/leandrodaf/midihost/internal/listener"
	"github.com/leandrodaf/midihost/internal/midifile"
	"github.com/leandrodaf/midihost/internal/registry"
	"github.com/leandrodaf/midihost/sdk/contracts"
)

// Host owns the handle registries and the device port provider. Managers and
// listeners share one handle space; files have their own, so a file handle
// and a manager handle may carry the same number without colliding.
type Host struct {
	logger       contracts.Logger
	provider     contracts.PortProvider
	defaultTempo uint32

	files     *registry.Table[*midifile.File]
	managers  *registry.Table[*device.Manager]
	listeners *registry.Table[*listener.Listener]
}

// New creates a host with the specified options. It applies default options
// and, when no port provider was supplied, selects the platform one.
//
// opts ...contracts.Option: A variadic list of option functions to customize the host configuration.
//
// Returns:
//   - *Host: An instance of the MIDI host.
//   - error: An error, if any occurred during the creation of the host.
func New(opts ...contracts.Option) (*Host, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	provider := options.PortProvider
	if provider == nil {
		provider, err = newPlatformProvider(&options)
		if err != nil {
			return nil, err
		}
	}

	shared := &registry.Counter{}
	return &Host{
		logger:       options.Logger,
		provider:     provider,
		defaultTempo: options.DefaultTempo,
		files:        registry.NewTable[*midifile.File](&registry.Counter{}),
		managers:     registry.NewTable[*device.Manager](shared),
		listeners:    registry.NewTable[*listener.Listener](shared),
	}, nil
}

// Shutdown stops every listener, closes every manager and file, and releases
// the port provider. The host must not be used afterwards.
func (h *Host) Shutdown() error {
	for _, l := range h.listeners.Drain() {
		if err := l.Stop(); err != nil {
			h.logger.Warn("Stopping listener during shutdown", h.logger.Field().Error("error", err))
		}
	}
	for _, m := range h.managers.Drain() {
		if err := m.Close(); err != nil {
			h.logger.Warn("Closing manager during shutdown", h.logger.Field().Error("error", err))
		}
	}
	h.files.Drain()

	err := h.provider.Close()
	h.logger.Info("MIDI host shut down")
	return err
}

func invalidHandle(kind string, handle contracts.Handle) error {
	return fmt.Errorf("%w: %s handle %d", contracts.ErrInvalidHandle, kind, handle)
}

func (h *Host) file(handle contracts.Handle) (*midifile.File, error) {
	file, ok := h.files.Get(handle)
	if !ok {
		return nil, invalidHandle("file", handle)
	}
	return file, nil
}

func (h *Host) manager(handle contracts.Handle) (*device.Manager, error) {
	manager, ok := h.managers.Get(handle)
	if !ok {
		return nil, invalidHandle("manager", handle)
	}
	return manager, nil
}

func (h *Host) listener(handle contracts.Handle) (*listener.Listener, error) {
	l, ok := h.listeners.Get(handle)
	if !ok {
		return nil, invalidHandle("listener", handle)
	}
	return l, nil
}
