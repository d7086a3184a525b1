package midifile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

func TestTicksToMSDefaultTempo(t *testing.T) {
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Add(768, midi.NoteOff(0, 60))
	track.Close(0)

	f := metricFixture(t, 384, track)

	assert.InDelta(t, 500.0, f.TicksToMS(384, 0), 1e-9)
	assert.InDelta(t, 1000.0, f.TicksToMS(768, 0), 1e-9)
	assert.InDelta(t, 0.0, f.TicksToMS(0, 0), 1e-9)
}

func TestTicksToMSWithMidFileChange(t *testing.T) {
	var track smf.Track
	track.Add(384, rawTempo(600000))
	track.Close(0)

	f := metricFixture(t, 384, track)

	assert.InDelta(t, 1100.0, f.TicksToMS(768, 0), 1e-9)
	// The change sits exactly at tick 384 and must not affect that point.
	assert.InDelta(t, 500.0, f.TicksToMS(384, 0), 1e-9)
}

func TestTicksToMSWithTwoChanges(t *testing.T) {
	var track smf.Track
	track.Add(192, rawTempo(400000))
	track.Add(384, rawTempo(800000)) // lands at absolute tick 576
	track.Close(0)

	f := metricFixture(t, 384, track)

	assert.InDelta(t, 250.0, f.TicksToMS(192, 0), 1e-9)
	assert.InDelta(t, 650.0, f.TicksToMS(576, 0), 1e-9)
	assert.InDelta(t, 1050.0, f.TicksToMS(768, 0), 1e-9)
}

func TestTicksToMSOverride(t *testing.T) {
	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Close(0)

	f := metricFixture(t, 384, track)

	assert.InDelta(t, 1000.0, f.TicksToMS(384, 1000000), 1e-9)
}

func TestTimecodeBypassesTempoMap(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.TimeCode{FramesPerSecond: 25, SubFrames: 40}
	var track smf.Track
	track.Add(0, rawTempo(600000)) // tempo means nothing under timecode timing
	track.Close(0)
	require.NoError(t, s.Add(track))

	f, err := Parse(writeSMF(t, s))
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, f.TicksToMS(1000, 0), 1e-9)
}

func TestTempoMapSortedAcrossTracks(t *testing.T) {
	var first, second smf.Track
	first.Add(600, rawTempo(300000))
	first.Close(0)
	second.Add(100, rawTempo(200000))
	second.Close(0)

	f := metricFixture(t, 384, first, second)
	tm := f.TempoChanges()

	require.Len(t, tm, 2)
	assert.Equal(t, uint32(100), tm[0].Tick)
	assert.Equal(t, uint32(200000), tm[0].Micros)
	assert.Equal(t, uint32(600), tm[1].Tick)
	assert.Equal(t, uint32(300000), tm[1].Micros)
}

func TestTempoEventCarriesNumericValue(t *testing.T) {
	var track smf.Track
	track.Add(0, rawTempo(500000))
	track.Close(0)

	f := metricFixture(t, 96, track)
	ev := f.Tracks[0].Events[0]

	assert.Equal(t, contracts.EventMetaSetTempo, ev.Type)
	assert.Equal(t, uint32(500000), ev.TempoMicros)
	assert.Equal(t, "Tempo: 500000 µs/quarter", ev.Text)
}
