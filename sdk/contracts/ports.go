package contracts

// PortProvider enumerates MIDI ports and opens connections to them. The host
// owns one provider; every manager and listener connection is opened through
// it. Implementations must be safe for concurrent use.
type PortProvider interface {
	InputDevices() ([]DeviceInfo, error)               // Lists input ports in a stable order.
	OutputDevices() ([]DeviceInfo, error)              // Lists output ports in a stable order.
	OpenInput(deviceID int) (InputConnection, error)   // Opens the input port at the given index.
	OpenOutput(deviceID int) (OutputConnection, error) // Opens the output port at the given index.
	Close() error                                      // Releases the underlying driver.
}

// InputConnection is a private stream of raw MIDI messages from one input
// port. Messages are delivered in arrival order; the channel is closed when
// the connection dies. Close disconnects the port.
type InputConnection interface {
	Messages() <-chan []byte
	Close() error
}

// OutputConnection sends raw MIDI messages to one output port.
type OutputConnection interface {
	Send(msg []byte) error
	Close() error
}
