//go:build cgo
// +build cgo

// Package midirt provides the default PortProvider, backed by the rtmidi
// driver from gomidi. It reaches ALSA, CoreMIDI and winmm through one API,
// so it also serves platforms without a dedicated provider package.
package midirt

import (
	"errors"
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

// Error definitions for rtmidi handling issues.
var (
	ErrDriverUnavailable = errors.New("rtmidi driver unavailable")
	ErrOpenPort          = errors.New("error opening MIDI port")
)

// Provider bridges gomidi driver ports to the generic port interfaces.
type Provider struct {
	logger     contracts.Logger
	bufferSize int
}

// NewProvider checks the registered driver and wraps it.
func NewProvider(options *contracts.ClientOptions) (contracts.PortProvider, error) {
	if drivers.Get() == nil {
		return nil, ErrDriverUnavailable
	}
	options.Logger.Info("rtmidi driver initialized")

	return &Provider{
		logger:     options.Logger,
		bufferSize: options.ChannelBufferSize,
	}, nil
}

// InputDevices lists the driver's input ports.
func (p *Provider) InputDevices() ([]contracts.DeviceInfo, error) {
	ins, err := drivers.Get().Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if len(ins) == 0 {
		p.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{
			Name:         in.String(),
			EntityName:   in.String(),
			Manufacturer: drivers.Get().String(),
		}
	}
	return devices, nil
}

// OutputDevices lists the driver's output ports.
func (p *Provider) OutputDevices() ([]contracts.DeviceInfo, error) {
	outs, err := drivers.Get().Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if len(outs) == 0 {
		p.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(outs))
	for i, out := range outs {
		devices[i] = contracts.DeviceInfo{
			Name:         out.String(),
			EntityName:   out.String(),
			Manufacturer: drivers.Get().String(),
		}
	}
	return devices, nil
}

// OpenInput opens the port and streams its messages into a buffered channel.
func (p *Provider) OpenInput(deviceID int) (contracts.InputConnection, error) {
	ins, err := drivers.Get().Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(ins) {
		p.logger.Error(contracts.ErrDeviceUnavailable.Error(), p.logger.Field().Int("deviceID", deviceID))
		return nil, fmt.Errorf("%w: device %d", contracts.ErrDeviceUnavailable, deviceID)
	}

	in := ins[deviceID]
	if err := in.Open(); err != nil {
		p.logger.Error(ErrOpenPort.Error())
		return nil, fmt.Errorf("%w: %v", ErrOpenPort, err)
	}

	conn := &inputConnection{
		logger: p.logger,
		port:   in,
		ch:     make(chan []byte, p.bufferSize),
	}
	stop, err := in.Listen(conn.onMessage, drivers.ListenConfig{SysEx: true})
	if err != nil {
		in.Close()
		p.logger.Error(ErrOpenPort.Error())
		return nil, fmt.Errorf("%w: %v", ErrOpenPort, err)
	}
	conn.stop = stop

	p.logger.Info("MIDI device successfully connected",
		p.logger.Field().Int("deviceID", deviceID),
		p.logger.Field().String("deviceName", in.String()))
	return conn, nil
}

// OpenOutput opens the port for sends.
func (p *Provider) OpenOutput(deviceID int) (contracts.OutputConnection, error) {
	outs, err := drivers.Get().Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(outs) {
		p.logger.Error(contracts.ErrDeviceUnavailable.Error(), p.logger.Field().Int("deviceID", deviceID))
		return nil, fmt.Errorf("%w: device %d", contracts.ErrDeviceUnavailable, deviceID)
	}

	out := outs[deviceID]
	if err := out.Open(); err != nil {
		p.logger.Error(ErrOpenPort.Error())
		return nil, fmt.Errorf("%w: %v", ErrOpenPort, err)
	}
	return &outputConnection{port: out}, nil
}

// Close shuts the underlying driver down, releasing every open port.
func (p *Provider) Close() error {
	return drivers.Get().Close()
}

// inputConnection streams messages from one driver input port.
type inputConnection struct {
	logger contracts.Logger
	port   drivers.In
	stop   func()
	ch     chan []byte

	mu     sync.Mutex
	closed bool
}

// onMessage copies the driver buffer before queueing it; rtmidi reuses the
// buffer between callbacks.
func (c *inputConnection) onMessage(msg []byte, milliseconds int32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(msg) == 0 {
		return
	}
	buf := append([]byte(nil), msg...)
	select {
	case c.ch <- buf:
	default:
		c.logger.Warn("Event buffer full; dropping MIDI message")
	}
}

func (c *inputConnection) Messages() <-chan []byte {
	return c.ch
}

// Close stops the listener and closes the port. The channel closes under
// the same mutex the callback takes, so no callback can race the close.
func (c *inputConnection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.stop()
	err := c.port.Close()

	c.mu.Lock()
	close(c.ch)
	c.mu.Unlock()
	return err
}

// outputConnection sends messages through one driver output port.
type outputConnection struct {
	mu     sync.Mutex
	port   drivers.Out
	closed bool
}

func (c *outputConnection) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: output closed", contracts.ErrDeviceUnavailable)
	}
	return c.port.Send(msg)
}

func (c *outputConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.port.Close()
}
