// Package listener runs the background workers that pump live device input
// into host event sinks.
package listener

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

// Listener owns one private device subscription and forwards classified
// events to a sink from a background goroutine. Configuration is frozen
// while the worker runs; stop and reconfigure first.
type Listener struct {
	logger   contracts.Logger
	provider contracts.PortProvider

	mu       sync.Mutex
	sink     contracts.EventSink
	filter   *contracts.MIDIEventFilter
	deviceID int
	bound    bool
	conn     contracts.InputConnection
	cancel   context.CancelFunc

	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates an unconfigured listener.
func New(logger contracts.Logger, provider contracts.PortProvider) *Listener {
	return &Listener{
		logger:   logger,
		provider: provider,
	}
}

// SetTarget points the listener at an event sink.
// Rejected while the worker is running.
func (l *Listener) SetTarget(sink contracts.EventSink) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return contracts.ErrAlreadyRunning
	}
	l.sink = sink
	return nil
}

// SetFilter installs a status byte filter. A nil filter, or one with no
// commands, forwards every message. Rejected while the worker is running.
func (l *Listener) SetFilter(filter *contracts.MIDIEventFilter) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return contracts.ErrAlreadyRunning
	}
	l.filter = filter
	return nil
}

// BindDevice selects the input device the next Start will open. The index is
// validated when the connection opens. Rejected while the worker is running.
func (l *Listener) BindDevice(deviceID int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return contracts.ErrAlreadyRunning
	}
	l.deviceID = deviceID
	l.bound = true
	return nil
}

// Running reports whether the worker goroutine is live.
func (l *Listener) Running() bool {
	return l.running.Load()
}

// Start opens the device connection and launches the worker. A failed open
// aborts the start, so a running listener always has a live connection.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running.Load() {
		return contracts.ErrAlreadyRunning
	}
	if l.sink == nil || !l.bound {
		return contracts.ErrNotConfigured
	}

	conn, err := l.provider.OpenInput(l.deviceID)
	if err != nil {
		return fmt.Errorf("opening input device %d: %w", l.deviceID, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.conn = conn
	l.cancel = cancel
	l.running.Store(true)

	l.wg.Add(1)
	go l.run(ctx, conn, l.sink, l.filter)

	l.logger.Info("Listener started", l.logger.Field().Int("deviceID", l.deviceID))
	return nil
}

// Stop cancels the worker, closes the connection and waits for the worker to
// exit. After Stop returns no further events reach the sink. Stopping a
// listener that is not running is a no-op.
func (l *Listener) Stop() error {
	l.mu.Lock()
	cancel := l.cancel
	conn := l.conn
	l.cancel = nil
	l.conn = nil
	l.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	if err := conn.Close(); err != nil {
		l.logger.Warn("Closing input connection", l.logger.Field().Error("error", err))
	}
	l.wg.Wait()
	l.running.Store(false)

	l.logger.Info("Listener stopped")
	return nil
}

// run is the worker loop. The sink and filter are snapshotted at Start, so
// the loop never touches fields that a reconfigure could move under it.
func (l *Listener) run(ctx context.Context, conn contracts.InputConnection, sink contracts.EventSink, filter *contracts.MIDIEventFilter) {
	defer l.wg.Done()

	messages := conn.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				// Device stream ended; park until Stop is called.
				messages = nil
				continue
			}
			l.dispatch(msg, sink, filter)
		}
	}
}

// dispatch filters, classifies and forwards one raw message. Forwarding
// keeps the device's delivery order; a full sink drops the event and the
// loop carries on.
func (l *Listener) dispatch(msg []byte, sink contracts.EventSink, filter *contracts.MIDIEventFilter) {
	if len(msg) == 0 {
		return
	}
	if filter != nil && len(filter.Commands) > 0 && !isCommandAllowed(msg[0], filter.Commands) {
		return
	}

	event, err := contracts.ParseMessage(msg)
	if err != nil {
		l.logger.Warn("Discarding undecodable message", l.logger.Field().Error("error", err))
		return
	}
	event.Timestamp = uint64(time.Now().UTC().UnixNano())

	if err := sink.Post(event); err != nil {
		l.logger.Warn("Event buffer full; dropping MIDI event", l.logger.Field().Error("error", err))
	}
}

// isCommandAllowed verifies if a status byte is allowed by the event filter.
func isCommandAllowed(status byte, allowedCommands []contracts.MIDICommand) bool {
	for _, allowedCommand := range allowedCommands {
		if status == byte(allowedCommand) {
			return true
		}
	}
	return false
}
