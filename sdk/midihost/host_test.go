package midihost

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/leandrodaf/midihost/internal/device"
	"github.com/leandrodaf/midihost/internal/logger"
	"github.com/leandrodaf/midihost/sdk/contracts"
)

// newLoopbackHost builds a host over an in-memory provider with one virtual
// device, so the full facade runs without hardware.
func newLoopbackHost(t *testing.T) (*Host, *device.Loopback) {
	t.Helper()

	lb := device.NewLoopback(logger.NewNopLogger(), 16, "virtual-0")
	host, err := New(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithPortProvider(lb),
	)
	require.NoError(t, err)
	return host, lb
}

// trackName builds a raw Track Name meta message.
func trackName(name string) smf.Message {
	return smf.Message(append([]byte{0xFF, 0x03, byte(len(name))}, []byte(name)...))
}

// fixtureBytes serializes a two-track metric file with a couple of note
// events and an explicit track name.
func fixtureBytes(t *testing.T) []byte {
	t.Helper()

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)

	var first smf.Track
	first.Add(0, trackName("Lead"))
	first.Add(0, smf.MetaInstrument("Synth Lead"))
	first.Add(0, midi.NoteOn(0, 60, 100))
	first.Add(480, midi.NoteOff(0, 60))
	first.Close(0)
	require.NoError(t, s.Add(first))

	var second smf.Track
	second.Add(0, midi.NoteOn(9, 36, 120))
	second.Add(240, midi.NoteOff(9, 36))
	second.Close(0)
	require.NoError(t, s.Add(second))

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestOpenBytesAndQuery(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	handle, err := host.OpenBytes(fixtureBytes(t))
	require.NoError(t, err)

	info, err := host.FileInfo(handle)
	require.NoError(t, err)
	assert.Equal(t, 2, info.TrackCount)
	assert.Equal(t, contracts.TimingMetrical, info.Timing)
	assert.Equal(t, uint16(480), info.TicksPerQuarter)

	name, err := host.TrackName(handle, 0)
	require.NoError(t, err)
	assert.Equal(t, "Lead", name)

	name, err = host.TrackName(handle, 1)
	require.NoError(t, err)
	assert.Equal(t, "Track 2", name)

	instrument, err := host.TrackInstrument(handle, 0)
	require.NoError(t, err)
	assert.Equal(t, "Synth Lead", instrument)

	_, err = host.TrackInstrument(handle, 1)
	assert.ErrorIs(t, err, contracts.ErrNotPresent, "second track carries no instrument meta")

	count, err := host.EventCount(handle, 0)
	require.NoError(t, err)
	assert.Greater(t, count, 2)

	// The quarter note at 120 BPM lands exactly on half a second.
	ms, err := host.TicksToMS(handle, 480, 0)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, ms, 1e-9)

	duration, err := host.DurationTicks(handle)
	require.NoError(t, err)
	assert.Equal(t, uint32(480), duration)
}

func TestFileEventQueries(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	handle, err := host.OpenBytes(fixtureBytes(t))
	require.NoError(t, err)

	event, err := host.Event(handle, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, contracts.EventNoteOn, event.Type)
	assert.Equal(t, uint8(9), event.Channel)
	assert.Equal(t, uint8(36), event.Data1)
	assert.False(t, event.HasText)

	_, err = host.Event(handle, 1, 9000)
	assert.ErrorIs(t, err, contracts.ErrIndexOutOfRange)

	_, err = host.Event(handle, 5, 0)
	assert.ErrorIs(t, err, contracts.ErrIndexOutOfRange)

	_, err = host.EventText(handle, 1, 0)
	assert.ErrorIs(t, err, contracts.ErrNotPresent, "note events carry no text")

	window, err := host.EventsInRange(handle, 1, 0, 241)
	require.NoError(t, err)
	require.Len(t, window, 3) // both notes plus End of Track at tick 240
	assert.Equal(t, contracts.EventMetaEndOfTrack, window[2].Type)

	window, err = host.EventsInRange(handle, 1, 0, 240)
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestCloseFileInvalidatesHandle(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	handle, err := host.OpenBytes(fixtureBytes(t))
	require.NoError(t, err)

	require.NoError(t, host.CloseFile(handle))

	_, err = host.FileInfo(handle)
	assert.ErrorIs(t, err, contracts.ErrInvalidHandle)
	assert.ErrorIs(t, host.CloseFile(handle), contracts.ErrInvalidHandle)
}

func TestOpenBytesRejectsGarbage(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	_, err := host.OpenBytes([]byte("not a MIDI file"))
	assert.ErrorIs(t, err, contracts.ErrDecodeFailure)
}

func TestOpenBytesTimecode(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	s := smf.New()
	s.TimeFormat = smf.TimeCode{FramesPerSecond: 25, SubFrames: 40}
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Add(1000, midi.NoteOff(0, 60))
	track.Close(0)
	require.NoError(t, s.Add(track))
	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)

	handle, err := host.OpenBytes(buf.Bytes())
	require.NoError(t, err)

	info, err := host.FileInfo(handle)
	require.NoError(t, err)
	assert.Equal(t, contracts.TimingTimecode, info.Timing)
	assert.Equal(t, 25.0, info.FramesPerSecond)
	assert.Equal(t, uint16(40), info.TicksPerFrame)

	// 25 fps at 40 ticks per frame puts one tick on exactly one millisecond.
	ms, err := host.TicksToMS(handle, 1000, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, ms, 1e-9)

	duration, err := host.DurationTicks(handle)
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), duration)
}

func TestFileAndManagerHandleSpacesAreIndependent(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	fileHandle, err := host.OpenBytes(fixtureBytes(t))
	require.NoError(t, err)
	managerHandle := host.CreateManager()

	// Both spaces start at 1; the same number addresses different objects.
	assert.Equal(t, fileHandle, managerHandle)

	_, err = host.FileInfo(fileHandle)
	assert.NoError(t, err)
	err = host.SendMessage(managerHandle, NoteOn(0, 60, 100))
	assert.ErrorIs(t, err, contracts.ErrDeviceUnavailable,
		"the manager handle resolves to a manager even though it equals the file handle")

	listenerHandle := host.CreateListener()
	assert.NotEqual(t, managerHandle, listenerHandle, "managers and listeners share a handle space")
}

func TestManagerRoundTripThroughFacade(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	handle := host.CreateManager()
	require.NoError(t, host.ConnectInput(handle, 0))
	require.NoError(t, host.ConnectOutput(handle, 0))

	require.NoError(t, host.SendMessage(handle, NoteOn(1, 64, 90)))

	msg, ok, err := host.ReceiveMessage(handle)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0x91, 64, 90}, msg)

	_, ok, err = host.ReceiveMessage(handle)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerErrors(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	handle := host.CreateManager()

	err := host.SendMessage(handle, NoteOn(0, 60, 100))
	assert.ErrorIs(t, err, contracts.ErrDeviceUnavailable, "no output connected yet")

	assert.ErrorIs(t, host.ConnectInput(handle, 9), contracts.ErrDeviceUnavailable)
	assert.ErrorIs(t, host.ConnectOutput(handle, -2), contracts.ErrDeviceUnavailable)

	require.NoError(t, host.DestroyManager(handle))
	assert.ErrorIs(t, host.DestroyManager(handle), contracts.ErrInvalidHandle)
	assert.ErrorIs(t, host.SendMessage(handle, nil), contracts.ErrInvalidHandle)
}

func TestListenerLifecycleThroughFacade(t *testing.T) {
	host, lb := newLoopbackHost(t)
	defer host.Shutdown()

	out, err := lb.OpenOutput(0)
	require.NoError(t, err)

	sink := NewChannelSink(8)
	handle := host.CreateListener()

	require.NoError(t, host.SetTarget(handle, sink))
	require.NoError(t, host.BindDevice(handle, 0))
	require.NoError(t, host.StartListener(handle))

	running, err := host.ListenerRunning(handle)
	require.NoError(t, err)
	assert.True(t, running)

	assert.ErrorIs(t, host.SetTarget(handle, sink), contracts.ErrAlreadyRunning)
	assert.ErrorIs(t, host.BindDevice(handle, 0), contracts.ErrAlreadyRunning)

	require.NoError(t, out.Send([]byte{0x90, 0x3C, 0x64}))

	select {
	case event := <-sink.C:
		assert.Equal(t, contracts.EventNoteOn, event.Type)
		assert.Equal(t, uint8(0x3C), event.Data1)
		assert.Equal(t, byte(0x90), event.Status)
		assert.NotZero(t, event.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a forwarded event")
	}

	require.NoError(t, host.StopListener(handle))
	running, err = host.ListenerRunning(handle)
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, host.DestroyListener(handle))
	assert.ErrorIs(t, host.DestroyListener(handle), contracts.ErrInvalidHandle)
	_, err = host.ListenerRunning(handle)
	assert.ErrorIs(t, err, contracts.ErrInvalidHandle)
}

func TestStartListenerUnconfigured(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	handle := host.CreateListener()
	assert.ErrorIs(t, host.StartListener(handle), contracts.ErrNotConfigured)
}

func TestOpenListenerConvenience(t *testing.T) {
	host, lb := newLoopbackHost(t)
	defer host.Shutdown()

	out, err := lb.OpenOutput(0)
	require.NoError(t, err)

	sink := NewChannelSink(8)
	handle, err := host.OpenListener(sink, 0, contracts.NoteOn)
	require.NoError(t, err)

	running, err := host.ListenerRunning(handle)
	require.NoError(t, err)
	assert.True(t, running)

	// The Control Change is filtered; only the Note On comes through.
	require.NoError(t, out.Send([]byte{0xB0, 0x07, 0x40}))
	require.NoError(t, out.Send([]byte{0x90, 0x40, 0x7F}))

	select {
	case event := <-sink.C:
		assert.Equal(t, contracts.EventNoteOn, event.Type)
		assert.Equal(t, uint8(0x40), event.Data1)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a forwarded event")
	}

	require.NoError(t, host.DestroyListener(handle))
}

func TestOpenListenerBadDeviceLeavesNoHandle(t *testing.T) {
	host, _ := newLoopbackHost(t)
	defer host.Shutdown()

	sink := NewChannelSink(8)
	before := host.CreateListener()

	_, err := host.OpenListener(sink, 42)
	assert.ErrorIs(t, err, contracts.ErrDeviceUnavailable)
	_, err = host.ListenerRunning(before + 1)
	assert.ErrorIs(t, err, contracts.ErrInvalidHandle, "the rolled-back handle is released")

	_, err = host.OpenListener(nil, 0)
	assert.ErrorIs(t, err, contracts.ErrNotConfigured, "a nil sink never starts")

	next := host.CreateListener()
	assert.Equal(t, before+3, next, "rolled-back handles are not reused")
}

func TestChannelSinkCapacity(t *testing.T) {
	sink := NewChannelSink(1)

	require.NoError(t, sink.Post(contracts.LiveEvent{Type: contracts.EventNoteOn}))
	assert.ErrorIs(t, sink.Post(contracts.LiveEvent{Type: contracts.EventNoteOn}), contracts.ErrCapacityExceeded)

	<-sink.C
	assert.NoError(t, sink.Post(contracts.LiveEvent{Type: contracts.EventNoteOff}))
}

func TestMessageBuilders(t *testing.T) {
	assert.Equal(t, []byte{0x91, 60, 100}, NoteOn(1, 60, 100))
	assert.Equal(t, []byte{0x80, 60, 0}, NoteOff(0, 60))
	assert.Equal(t, []byte{0xB2, 7, 0x40}, ControlChange(2, 7, 0x40))
}

func TestShutdownReleasesEverything(t *testing.T) {
	host, _ := newLoopbackHost(t)

	fileHandle, err := host.OpenBytes(fixtureBytes(t))
	require.NoError(t, err)
	managerHandle := host.CreateManager()
	require.NoError(t, host.ConnectInput(managerHandle, 0))

	sink := NewChannelSink(8)
	listenerHandle, err := host.OpenListener(sink, 0)
	require.NoError(t, err)

	require.NoError(t, host.Shutdown())

	_, err = host.FileInfo(fileHandle)
	assert.ErrorIs(t, err, contracts.ErrInvalidHandle)
	_, _, err = host.ReceiveMessage(managerHandle)
	assert.ErrorIs(t, err, contracts.ErrInvalidHandle)
	_, err = host.ListenerRunning(listenerHandle)
	assert.ErrorIs(t, err, contracts.ErrInvalidHandle)
}
