package device

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

const defaultLoopbackBuffer = 64

// Loopback is an in-memory PortProvider. Every named device behaves like a
// virtual cable: messages sent to its output port fan out to all open input
// connections on the same device. It backs the test suites and works as a
// software-only device on any platform.
type Loopback struct {
	logger  contracts.Logger
	bufSize int

	mu      sync.Mutex
	devices []string
	subs    map[int][]*loopbackInput
	closed  bool
}

// NewLoopback creates a provider exposing one virtual device per name.
func NewLoopback(logger contracts.Logger, bufSize int, deviceNames ...string) *Loopback {
	if bufSize <= 0 {
		bufSize = defaultLoopbackBuffer
	}
	return &Loopback{
		logger:  logger,
		bufSize: bufSize,
		devices: deviceNames,
		subs:    make(map[int][]*loopbackInput),
	}
}

// InputDevices lists the virtual devices.
func (l *Loopback) InputDevices() ([]contracts.DeviceInfo, error) {
	return l.deviceList()
}

// OutputDevices lists the virtual devices.
func (l *Loopback) OutputDevices() ([]contracts.DeviceInfo, error) {
	return l.deviceList()
}

func (l *Loopback) deviceList() ([]contracts.DeviceInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.devices) == 0 {
		return nil, contracts.ErrNoMIDIDevices
	}
	infos := make([]contracts.DeviceInfo, len(l.devices))
	for i, name := range l.devices {
		infos[i] = contracts.DeviceInfo{
			Name:         name,
			EntityName:   name,
			Manufacturer: "Loopback",
		}
	}
	return infos, nil
}

// OpenInput opens a buffered subscription on the given device.
func (l *Loopback) OpenInput(deviceID int) (contracts.InputConnection, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkDeviceLocked(deviceID); err != nil {
		return nil, err
	}
	in := &loopbackInput{
		parent:   l,
		deviceID: deviceID,
		ch:       make(chan []byte, l.bufSize),
	}
	l.subs[deviceID] = append(l.subs[deviceID], in)
	return in, nil
}

// OpenOutput opens a send port on the given device.
func (l *Loopback) OpenOutput(deviceID int) (contracts.OutputConnection, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkDeviceLocked(deviceID); err != nil {
		return nil, err
	}
	return &loopbackOutput{parent: l, deviceID: deviceID}, nil
}

// Close shuts the provider down and closes every open input connection.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range l.subs {
		for _, in := range append([]*loopbackInput(nil), l.subs[id]...) {
			in.closeLocked()
		}
	}
	l.closed = true
	return nil
}

func (l *Loopback) checkDeviceLocked(deviceID int) error {
	if l.closed {
		return fmt.Errorf("%w: provider closed", contracts.ErrDeviceUnavailable)
	}
	if deviceID < 0 || deviceID >= len(l.devices) {
		return fmt.Errorf("%w: device %d", contracts.ErrDeviceUnavailable, deviceID)
	}
	return nil
}

// deliver fans a message out to every subscriber of the device. Each
// subscriber gets its own copy; full buffers drop, matching hardware drivers
// that cannot block the device callback.
func (l *Loopback) deliver(deviceID int, msg []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, in := range l.subs[deviceID] {
		buf := append([]byte(nil), msg...)
		select {
		case in.ch <- buf:
		default:
			l.logger.Warn("loopback buffer full; dropping message",
				l.logger.Field().Int("device", deviceID))
		}
	}
}

type loopbackInput struct {
	parent   *Loopback
	deviceID int
	ch       chan []byte
	closed   bool
}

func (c *loopbackInput) Messages() <-chan []byte {
	return c.ch
}

func (c *loopbackInput) Close() error {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	c.closeLocked()
	return nil
}

// closeLocked unsubscribes the connection and closes its channel. Callers
// must hold parent.mu so a close can never race a deliver.
func (c *loopbackInput) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true

	subs := c.parent.subs[c.deviceID]
	for i, s := range subs {
		if s == c {
			c.parent.subs[c.deviceID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	close(c.ch)
}

type loopbackOutput struct {
	parent   *Loopback
	deviceID int

	mu     sync.Mutex
	closed bool
}

func (c *loopbackOutput) Send(msg []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return fmt.Errorf("%w: output closed", contracts.ErrDeviceUnavailable)
	}
	c.parent.deliver(c.deviceID, msg)
	return nil
}

func (c *loopbackOutput) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
