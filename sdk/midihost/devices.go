package midihost

import (
	"github.com/leandrodaf/midihost/internal/device"
	"github.com/leandrodaf/midihost/sdk/contracts"
)

// InputDevices lists the available MIDI input devices in provider order.
// Device indices passed to ConnectInput and BindDevice refer to this order.
func (h *Host) InputDevices() ([]contracts.DeviceInfo, error) {
	return h.provider.InputDevices()
}

// OutputDevices lists the available MIDI output devices in provider order.
func (h *Host) OutputDevices() ([]contracts.DeviceInfo, error) {
	return h.provider.OutputDevices()
}

// CreateManager allocates a device manager and returns its handle. A fresh
// manager has no connections.
func (h *Host) CreateManager() contracts.Handle {
	handle := h.managers.Insert(device.NewManager(h.logger))
	h.logger.Info("Manager created", h.logger.Field().Int("handle", int(handle)))
	return handle
}

// DestroyManager closes the manager's connections and releases the handle.
// The handle is never reused; destroying twice reports ErrInvalidHandle.
func (h *Host) DestroyManager(handle contracts.Handle) error {
	manager, ok := h.managers.Remove(handle)
	if !ok {
		return invalidHandle("manager", handle)
	}
	return manager.Close()
}

// ConnectInput opens the input device and attaches it to the manager,
// replacing any previous input connection.
func (h *Host) ConnectInput(handle contracts.Handle, deviceID int) error {
	manager, err := h.manager(handle)
	if err != nil {
		return err
	}
	conn, err := h.provider.OpenInput(deviceID)
	if err != nil {
		return err
	}
	manager.ConnectInput(conn)
	return nil
}

// ConnectOutput opens the output device and attaches it to the manager,
// replacing any previous output connection.
func (h *Host) ConnectOutput(handle contracts.Handle, deviceID int) error {
	manager, err := h.manager(handle)
	if err != nil {
		return err
	}
	conn, err := h.provider.OpenOutput(deviceID)
	if err != nil {
		return err
	}
	manager.ConnectOutput(conn)
	return nil
}

// SendMessage writes a raw MIDI message through the manager's output
// connection. Managers without one report ErrDeviceUnavailable.
func (h *Host) SendMessage(handle contracts.Handle, msg []byte) error {
	manager, err := h.manager(handle)
	if err != nil {
		return err
	}
	return manager.Send(msg)
}

// ReceiveMessage returns the next pending input message without blocking.
// ok is false when nothing is pending or the manager has no input.
func (h *Host) ReceiveMessage(handle contracts.Handle) (msg []byte, ok bool, err error) {
	manager, err := h.manager(handle)
	if err != nil {
		return nil, false, err
	}
	msg, ok = manager.Receive()
	return msg, ok, nil
}
