package device

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

// Manager pairs at most one input and one output connection and exposes a
// non-blocking receive over the input stream. Its connections are private;
// listeners open their own through the provider.
type Manager struct {
	logger contracts.Logger
	mu     sync.Mutex
	in     contracts.InputConnection
	out    contracts.OutputConnection
}

// NewManager creates a manager with no connections.
func NewManager(logger contracts.Logger) *Manager {
	return &Manager{logger: logger}
}

// ConnectInput attaches an input connection, closing any previous one.
func (m *Manager) ConnectInput(conn contracts.InputConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.in != nil {
		if err := m.in.Close(); err != nil {
			m.logger.Warn("closing previous input connection", m.logger.Field().Error("error", err))
		}
	}
	m.in = conn
}

// ConnectOutput attaches an output connection, closing any previous one.
func (m *Manager) ConnectOutput(conn contracts.OutputConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.out != nil {
		if err := m.out.Close(); err != nil {
			m.logger.Warn("closing previous output connection", m.logger.Field().Error("error", err))
		}
	}
	m.out = conn
}

// Receive returns the next pending input message without blocking. ok is
// false when nothing is pending or no input is connected.
func (m *Manager) Receive() (msg []byte, ok bool) {
	m.mu.Lock()
	in := m.in
	m.mu.Unlock()

	if in == nil {
		return nil, false
	}
	select {
	case msg, open := <-in.Messages():
		if !open {
			return nil, false
		}
		return msg, true
	default:
		return nil, false
	}
}

// Send writes a raw message to the output connection.
func (m *Manager) Send(msg []byte) error {
	m.mu.Lock()
	out := m.out
	m.mu.Unlock()

	if out == nil {
		return fmt.Errorf("%w: no output connected", contracts.ErrDeviceUnavailable)
	}
	return out.Send(msg)
}

// Close releases both connections.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	if m.in != nil {
		firstErr = m.in.Close()
		m.in = nil
	}
	if m.out != nil {
		if err := m.out.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.out = nil
	}
	return firstErr
}
