package listener

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/midihost/internal/device"
	"github.com/leandrodaf/midihost/internal/logger"
	"github.com/leandrodaf/midihost/sdk/contracts"
)

type captureSink struct {
	mu     sync.Mutex
	events []contracts.LiveEvent
}

func (s *captureSink) Post(event contracts.LiveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) snapshot() []contracts.LiveEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contracts.LiveEvent(nil), s.events...)
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type failingSink struct {
	attempts int
	mu       sync.Mutex
}

func (s *failingSink) Post(contracts.LiveEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	return contracts.ErrCapacityExceeded
}

func (s *failingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func newLoopbackListener(t *testing.T) (*Listener, contracts.OutputConnection) {
	t.Helper()

	lb := device.NewLoopback(logger.NewNopLogger(), 16, "virtual-0")
	out, err := lb.OpenOutput(0)
	require.NoError(t, err)

	return New(logger.NewNopLogger(), lb), out
}

func TestStartRequiresConfiguration(t *testing.T) {
	l, _ := newLoopbackListener(t)

	err := l.Start()
	assert.ErrorIs(t, err, contracts.ErrNotConfigured)

	require.NoError(t, l.SetTarget(&captureSink{}))
	err = l.Start()
	assert.ErrorIs(t, err, contracts.ErrNotConfigured, "device must be bound before Start")
	assert.False(t, l.Running())
}

func TestStartFailsWhenDeviceUnavailable(t *testing.T) {
	l, _ := newLoopbackListener(t)

	require.NoError(t, l.SetTarget(&captureSink{}))
	require.NoError(t, l.BindDevice(7))

	err := l.Start()
	assert.ErrorIs(t, err, contracts.ErrDeviceUnavailable)
	assert.False(t, l.Running())
}

func TestForwardsInDeliveryOrder(t *testing.T) {
	l, out := newLoopbackListener(t)
	sink := &captureSink{}

	require.NoError(t, l.SetTarget(sink))
	require.NoError(t, l.BindDevice(0))
	require.NoError(t, l.Start())
	defer l.Stop()

	require.True(t, l.Running())

	require.NoError(t, out.Send([]byte{0x90, 0x3C, 0x64}))
	require.NoError(t, out.Send([]byte{0x90, 0x3E, 0x64}))
	require.NoError(t, out.Send([]byte{0x80, 0x3C, 0x00}))

	assert.Eventually(t, func() bool { return sink.count() == 3 }, 2*time.Second, 10*time.Millisecond)

	events := sink.snapshot()
	assert.Equal(t, contracts.EventNoteOn, events[0].Type)
	assert.Equal(t, uint8(0x3C), events[0].Data1)
	assert.Equal(t, contracts.EventNoteOn, events[1].Type)
	assert.Equal(t, uint8(0x3E), events[1].Data1)
	assert.Equal(t, contracts.EventNoteOff, events[2].Type)
	for _, event := range events {
		assert.NotZero(t, event.Timestamp)
	}
}

func TestFilterMatchesRawStatusByte(t *testing.T) {
	l, out := newLoopbackListener(t)
	sink := &captureSink{}

	require.NoError(t, l.SetTarget(sink))
	require.NoError(t, l.SetFilter(&contracts.MIDIEventFilter{
		Commands: []contracts.MIDICommand{contracts.NoteOn},
	}))
	require.NoError(t, l.BindDevice(0))
	require.NoError(t, l.Start())
	defer l.Stop()

	// Only the channel 0 Note On carries status 0x90; the channel 1 Note On
	// and the Control Change must be filtered out.
	require.NoError(t, out.Send([]byte{0x91, 0x3C, 0x64}))
	require.NoError(t, out.Send([]byte{0xB0, 0x07, 0x40}))
	require.NoError(t, out.Send([]byte{0x90, 0x3C, 0x64}))

	assert.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	events := sink.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, contracts.EventNoteOn, events[0].Type)
	assert.Equal(t, uint8(0), events[0].Channel)

	assert.Never(t, func() bool { return sink.count() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestEmptyFilterForwardsEverything(t *testing.T) {
	l, out := newLoopbackListener(t)
	sink := &captureSink{}

	require.NoError(t, l.SetTarget(sink))
	require.NoError(t, l.SetFilter(&contracts.MIDIEventFilter{}))
	require.NoError(t, l.BindDevice(0))
	require.NoError(t, l.Start())
	defer l.Stop()

	require.NoError(t, out.Send([]byte{0x91, 0x3C, 0x64}))
	require.NoError(t, out.Send([]byte{0xC5, 0x0A}))

	assert.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	events := sink.snapshot()
	assert.Equal(t, contracts.EventNoteOn, events[0].Type)
	assert.Equal(t, contracts.EventProgramChange, events[1].Type)
	assert.Equal(t, uint8(5), events[1].Channel)
}

func TestVelocityZeroNoteOnArrivesAsNoteOff(t *testing.T) {
	l, out := newLoopbackListener(t)
	sink := &captureSink{}

	require.NoError(t, l.SetTarget(sink))
	require.NoError(t, l.BindDevice(0))
	require.NoError(t, l.Start())
	defer l.Stop()

	require.NoError(t, out.Send([]byte{0x90, 0x3C, 0x00}))

	assert.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, contracts.EventNoteOff, sink.snapshot()[0].Type)
}

func TestConfigureWhileRunningRejected(t *testing.T) {
	l, _ := newLoopbackListener(t)
	sink := &captureSink{}

	require.NoError(t, l.SetTarget(sink))
	require.NoError(t, l.BindDevice(0))
	require.NoError(t, l.Start())
	defer l.Stop()

	assert.ErrorIs(t, l.SetTarget(&captureSink{}), contracts.ErrAlreadyRunning)
	assert.ErrorIs(t, l.SetFilter(&contracts.MIDIEventFilter{}), contracts.ErrAlreadyRunning)
	assert.ErrorIs(t, l.BindDevice(0), contracts.ErrAlreadyRunning)
	assert.ErrorIs(t, l.Start(), contracts.ErrAlreadyRunning)
}

func TestStopPreventsFurtherDelivery(t *testing.T) {
	l, out := newLoopbackListener(t)
	sink := &captureSink{}

	require.NoError(t, l.SetTarget(sink))
	require.NoError(t, l.BindDevice(0))
	require.NoError(t, l.Start())

	require.NoError(t, out.Send([]byte{0x90, 0x3C, 0x64}))
	assert.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, l.Stop())
	assert.False(t, l.Running())

	require.NoError(t, out.Send([]byte{0x90, 0x3E, 0x64}))
	assert.Never(t, func() bool { return sink.count() > 1 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestStopIsIdempotent(t *testing.T) {
	l, _ := newLoopbackListener(t)

	require.NoError(t, l.Stop())

	require.NoError(t, l.SetTarget(&captureSink{}))
	require.NoError(t, l.BindDevice(0))
	require.NoError(t, l.Start())

	require.NoError(t, l.Stop())
	require.NoError(t, l.Stop())
	assert.False(t, l.Running())
}

func TestRestartKeepsConfiguration(t *testing.T) {
	l, out := newLoopbackListener(t)
	sink := &captureSink{}

	require.NoError(t, l.SetTarget(sink))
	require.NoError(t, l.BindDevice(0))

	require.NoError(t, l.Start())
	require.NoError(t, out.Send([]byte{0x90, 0x3C, 0x64}))
	assert.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, l.Stop())

	require.NoError(t, l.Start())
	require.True(t, l.Running())
	require.NoError(t, out.Send([]byte{0x80, 0x3C, 0x00}))
	assert.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, l.Stop())

	events := sink.snapshot()
	assert.Equal(t, contracts.EventNoteOn, events[0].Type)
	assert.Equal(t, contracts.EventNoteOff, events[1].Type)
}

func TestSinkErrorsDoNotStopTheWorker(t *testing.T) {
	l, out := newLoopbackListener(t)
	sink := &failingSink{}

	require.NoError(t, l.SetTarget(sink))
	require.NoError(t, l.BindDevice(0))
	require.NoError(t, l.Start())
	defer l.Stop()

	require.NoError(t, out.Send([]byte{0x90, 0x3C, 0x64}))
	require.NoError(t, out.Send([]byte{0x90, 0x3E, 0x64}))

	assert.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, l.Running())
}
