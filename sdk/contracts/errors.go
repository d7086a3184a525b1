package contracts

import "errors"

// Error definitions shared by every surface of the SDK. Implementations wrap
// these with call-site context; callers discriminate with errors.Is.
var (
	// ErrInvalidHandle is returned when an operation references a handle that
	// was never issued or has already been destroyed.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrIndexOutOfRange is returned when a track or event index is outside
	// the valid range for the referenced file.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotPresent is returned when an optional value (event text, track
	// instrument) was requested but the event or track does not carry one.
	ErrNotPresent = errors.New("value not present")
	// ErrCapacityExceeded is returned when a result or buffer cannot hold
	// everything the operation produced.
	ErrCapacityExceeded = errors.New("capacity exceeded")
	// ErrDecodeFailure is returned when MIDI file data cannot be parsed.
	ErrDecodeFailure = errors.New("malformed MIDI data")
	// ErrDeviceUnavailable is returned when a device index does not resolve to
	// a port or the port has vanished.
	ErrDeviceUnavailable = errors.New("MIDI device unavailable")
	// ErrAlreadyRunning is returned when a listener is started or reconfigured
	// while its worker is running.
	ErrAlreadyRunning = errors.New("listener already running")
	// ErrNotConfigured is returned when a listener is started before a target
	// and a device have been set.
	ErrNotConfigured = errors.New("listener not configured")
	// ErrNoMIDIDevices is returned when device enumeration finds nothing.
	ErrNoMIDIDevices = errors.New("no MIDI devices found")
)
