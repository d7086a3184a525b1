//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midihost/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI connection and handling issues.
var (
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrCreateOutputPort    = errors.New("error creating output port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Provider bridges CoreMIDI endpoints to the generic port interfaces on
// Darwin (macOS) systems. Each opened connection owns its port, so several
// inputs can stream at the same time.
type Provider struct {
	logger     contracts.Logger
	client     coremidi.Client
	bufferSize int
}

// NewProvider initializes a CoreMIDI client for the host process.
func NewProvider(options *contracts.ClientOptions) (contracts.PortProvider, error) {
	client, err := coremidi.NewClient(options.ClientName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	options.Logger.Info("CoreMIDI client successfully created")

	return &Provider{
		logger:     options.Logger,
		client:     client,
		bufferSize: options.ChannelBufferSize,
	}, nil
}

// InputDevices retrieves the available MIDI sources.
// If no devices are found, an error is logged and returned.
func (p *Provider) InputDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		p.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			Name:         source.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// OutputDevices retrieves the available MIDI destinations.
func (p *Provider) OutputDevices() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		p.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, destination := range destinations {
		entity := destination.Entity()
		devices[i] = contracts.DeviceInfo{
			Name:         destination.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// OpenInput connects an input port to the selected source and streams its
// packets into a buffered channel.
func (p *Provider) OpenInput(deviceID int) (contracts.InputConnection, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		p.logger.Error(contracts.ErrDeviceUnavailable.Error(), p.logger.Field().Int("deviceID", deviceID))
		return nil, fmt.Errorf("%w: device %d", contracts.ErrDeviceUnavailable, deviceID)
	}
	source := sources[deviceID]

	conn := &inputConnection{
		logger: p.logger,
		ch:     make(chan []byte, p.bufferSize),
	}

	port, err := coremidi.NewInputPort(p.client, "Input Port", conn.handlePacket)
	if err != nil {
		p.logger.Error(ErrCreateInputPort.Error())
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}
	conn.port = port

	portConn, err := port.Connect(source)
	if err != nil {
		p.logger.Error(ErrMIDIConnectionError.Error())
		return nil, fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	conn.portConn = portConn

	p.logger.Info("MIDI device successfully connected",
		p.logger.Field().Int("deviceID", deviceID),
		p.logger.Field().String("deviceName", source.Name()))
	return conn, nil
}

// OpenOutput creates an output port bound to the selected destination.
func (p *Provider) OpenOutput(deviceID int) (contracts.OutputConnection, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if deviceID < 0 || deviceID >= len(destinations) {
		p.logger.Error(contracts.ErrDeviceUnavailable.Error(), p.logger.Field().Int("deviceID", deviceID))
		return nil, fmt.Errorf("%w: device %d", contracts.ErrDeviceUnavailable, deviceID)
	}

	port, err := coremidi.NewOutputPort(p.client, "Output Port")
	if err != nil {
		p.logger.Error(ErrCreateOutputPort.Error())
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}

	return &outputConnection{port: port, destination: destinations[deviceID]}, nil
}

// Close releases the provider. CoreMIDI reclaims the client together with
// the process, so there is nothing to tear down here.
func (p *Provider) Close() error {
	return nil
}

// inputConnection streams packets from one CoreMIDI source.
type inputConnection struct {
	logger   contracts.Logger
	port     coremidi.InputPort
	portConn internalPortConnection
	ch       chan []byte

	mu     sync.Mutex
	closed bool
}

// handlePacket copies incoming packet data onto the channel. CoreMIDI owns
// the packet buffer, so the bytes are copied before they are queued.
func (c *inputConnection) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(packet.Data) == 0 {
		return
	}
	msg := append([]byte(nil), packet.Data...)
	select {
	case c.ch <- msg:
	default:
		c.logger.Warn("Event buffer full; dropping MIDI message")
	}
}

func (c *inputConnection) Messages() <-chan []byte {
	return c.ch
}

// Close disconnects from the source. The channel closes only after the
// disconnect and under the same mutex the packet callback takes, so no
// callback can race the close.
func (c *inputConnection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	portConn := c.portConn
	c.mu.Unlock()

	if portConn != nil {
		portConn.Disconnect()
	}

	c.mu.Lock()
	close(c.ch)
	c.mu.Unlock()
	return nil
}

// outputConnection sends packets to one CoreMIDI destination.
type outputConnection struct {
	port        coremidi.OutputPort
	destination coremidi.Destination

	mu     sync.Mutex
	closed bool
}

func (c *outputConnection) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: output closed", contracts.ErrDeviceUnavailable)
	}
	packet := coremidi.NewPacket(msg, 0)
	return packet.Send(&c.port, &c.destination)
}

func (c *outputConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
