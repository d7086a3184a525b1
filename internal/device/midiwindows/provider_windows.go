//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/midihost/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// Error definitions for winmm handling issues.
var (
	ErrOpenDevice      = errors.New("error opening MIDI device")
	ErrLongMessageSend = errors.New("long MIDI messages are not supported on this output")
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs  = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps  = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen        = winmm.NewProc("midiInOpen")
	procMidiInStart       = winmm.NewProc("midiInStart")
	procMidiInStop        = winmm.NewProc("midiInStop")
	procMidiInClose       = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// Provider bridges the winmm multimedia API to the generic port interfaces.
// Only short messages cross the output path; system exclusive transfers need
// buffer preparation that this provider does not implement.
type Provider struct {
	logger     contracts.Logger
	bufferSize int
}

// NewProvider creates a winmm-backed provider for Windows.
func NewProvider(options *contracts.ClientOptions) (contracts.PortProvider, error) {
	options.Logger.Info("MIDI provider created for Windows")

	return &Provider{
		logger:     options.Logger,
		bufferSize: options.ChannelBufferSize,
	}, nil
}

// InputDevices lists the available MIDI input devices.
func (p *Provider) InputDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		p.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			p.logger.Warn(fmt.Sprintf("Failed to get information for MIDI input %d", i))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices[i] = contracts.DeviceInfo{
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		}
	}
	return devices, nil
}

// OutputDevices lists the available MIDI output devices.
func (p *Provider) OutputDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)
	if numDevices == 0 {
		p.logger.Warn(contracts.ErrNoMIDIDevices.Error())
		return nil, contracts.ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			p.logger.Warn(fmt.Sprintf("Failed to get information for MIDI output %d", i))
			continue
		}
		deviceName := windows.UTF16ToString(caps.szPname[:])
		devices[i] = contracts.DeviceInfo{
			Name:         deviceName,
			EntityName:   deviceName,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		}
	}
	return devices, nil
}

// OpenInput opens the device and starts streaming its short messages into a
// buffered channel.
func (p *Provider) OpenInput(deviceID int) (contracts.InputConnection, error) {
	conn := &inputConnection{
		logger: p.logger,
		ch:     make(chan []byte, p.bufferSize),
	}

	callback := windows.NewCallback(midiInCallback)
	fdwOpen := CALLBACK_FUNCTION | MIDI_IO_STATUS

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&conn.handle)),
		uintptr(deviceID),
		callback,
		uintptr(unsafe.Pointer(conn)),
		uintptr(fdwOpen),
	)
	if r1 != 0 {
		p.logger.Error(fmt.Sprintf("Failed to open MIDI device %d: %v", deviceID, err))
		return nil, fmt.Errorf("%w: device %d: %v", contracts.ErrDeviceUnavailable, deviceID, err)
	}

	r1, _, err = procMidiInStart.Call(uintptr(conn.handle))
	if r1 != 0 {
		procMidiInClose.Call(uintptr(conn.handle))
		p.logger.Error(fmt.Sprintf("Failed to start MIDI capture: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrOpenDevice, err)
	}

	p.logger.Info(fmt.Sprintf("MIDI device %d connected", deviceID))
	return conn, nil
}

// OpenOutput opens the device for short message sends.
func (p *Provider) OpenOutput(deviceID int) (contracts.OutputConnection, error) {
	conn := &outputConnection{logger: p.logger}

	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&conn.handle)),
		uintptr(deviceID),
		0,
		0,
		0,
	)
	if r1 != 0 {
		p.logger.Error(fmt.Sprintf("Failed to open MIDI output %d: %v", deviceID, err))
		return nil, fmt.Errorf("%w: device %d: %v", contracts.ErrDeviceUnavailable, deviceID, err)
	}

	p.logger.Info(fmt.Sprintf("MIDI output %d connected", deviceID))
	return conn, nil
}

// Close releases the provider. Open connections hold their own handles.
func (p *Provider) Close() error {
	return nil
}

// inputConnection streams short messages from one winmm input device.
type inputConnection struct {
	logger contracts.Logger
	handle HMIDIIN
	ch     chan []byte

	mu     sync.Mutex
	closed bool
}

// midiInCallback processes incoming MIDI messages. dwInstance carries the
// owning connection.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	c := (*inputConnection)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		c.logger.Info("MIDI device opened")
	case MIM_CLOSE:
		c.logger.Info("MIDI device closed")
	case MIM_DATA:
		status := byte(dwParam1 & 0xFF)
		data1 := byte((dwParam1 >> 8) & 0xFF)
		data2 := byte((dwParam1 >> 16) & 0xFF)
		c.emit(shortMessage(status, data1, data2))
	case MIM_ERROR, MIM_LONGERROR:
		c.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		c.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		c.logger.Warn(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}

	return 0
}

// shortMessage rebuilds the raw bytes that winmm packs into a single dword.
// Status decides how many data bytes the message carries.
func shortMessage(status, data1, data2 byte) []byte {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return []byte{status, data1}
	case 0xF0:
		switch status {
		case 0xF1, 0xF3:
			return []byte{status, data1}
		case 0xF2:
			return []byte{status, data1, data2}
		default:
			return []byte{status}
		}
	default:
		return []byte{status, data1, data2}
	}
}

// emit queues one message, dropping when the buffer is full so the driver
// callback never blocks.
func (c *inputConnection) emit(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || len(msg) == 0 {
		return
	}
	select {
	case c.ch <- msg:
	default:
		c.logger.Warn("Event buffer full; dropping MIDI message")
	}
}

func (c *inputConnection) Messages() <-chan []byte {
	return c.ch
}

// Close stops the capture and closes the device. The channel closes under
// the same mutex the callback takes, so no callback can race the close.
func (c *inputConnection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	handle := c.handle
	c.mu.Unlock()

	r1, _, err := procMidiInStop.Call(uintptr(handle))
	if r1 != 0 {
		c.logger.Error(fmt.Sprintf("Failed to stop MIDI capture: %v", err))
		return err
	}
	r1, _, err = procMidiInClose.Call(uintptr(handle))
	if r1 != 0 {
		c.logger.Error(fmt.Sprintf("Failed to close MIDI device: %v", err))
		return err
	}

	c.mu.Lock()
	close(c.ch)
	c.mu.Unlock()
	return nil
}

// outputConnection sends short messages to one winmm output device.
type outputConnection struct {
	logger contracts.Logger

	mu     sync.Mutex
	handle HMIDIOUT
	closed bool
}

func (c *outputConnection) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: output closed", contracts.ErrDeviceUnavailable)
	}
	if len(msg) == 0 || len(msg) > 3 {
		return ErrLongMessageSend
	}

	var dword uint32
	for i, b := range msg {
		dword |= uint32(b) << (8 * i)
	}
	r1, _, err := procMidiOutShortMsg.Call(uintptr(c.handle), uintptr(dword))
	if r1 != 0 {
		c.logger.Error(fmt.Sprintf("Failed to send MIDI message: %v", err))
		return fmt.Errorf("failed to send MIDI message: %v", err)
	}
	return nil
}

func (c *outputConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	r1, _, err := procMidiOutClose.Call(uintptr(c.handle))
	if r1 != 0 {
		c.logger.Error(fmt.Sprintf("Failed to close MIDI output: %v", err))
		return err
	}
	return nil
}
