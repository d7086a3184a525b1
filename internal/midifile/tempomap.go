package midifile

import (
	"sort"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

// DefaultTempoMicros is the MIDI default tempo (120 BPM) in µs per quarter.
const DefaultTempoMicros = 500000

// TempoChange is one tempo map entry: from Tick on, a quarter note lasts
// Micros microseconds.
type TempoChange struct {
	Tick   uint32
	Micros uint32
}

// TempoMap is the file-wide list of tempo changes sorted by tick.
type TempoMap []TempoChange

// buildTempoMap collects Set Tempo events across all tracks. The sort is
// stable, so changes at the same tick keep stream order and the last one
// takes effect.
func buildTempoMap(tracks []Track) TempoMap {
	var tm TempoMap
	for _, track := range tracks {
		for _, ev := range track.Events {
			if ev.Type == contracts.EventMetaSetTempo {
				tm = append(tm, TempoChange{Tick: ev.Tick, Micros: ev.TempoMicros})
			}
		}
	}
	sort.SliceStable(tm, func(i, j int) bool { return tm[i].Tick < tm[j].Tick })
	return tm
}

// TempoChanges returns the tempo map of the file.
func (f *File) TempoChanges() TempoMap {
	return f.tempoMap
}

// TicksToMS converts an absolute tick position to milliseconds. Timecode
// files convert directly from the frame rate and ignore tempo entirely.
// Metrical files integrate the tempo map segment by segment; defaultTempo
// (µs per quarter) applies before the first change, and 0 selects the MIDI
// default of 500000. A change exactly at the target tick does not apply.
func (f *File) TicksToMS(ticks uint32, defaultTempo uint32) float64 {
	if f.Timing.Type == contracts.TimingTimecode {
		ticksPerSecond := f.Timing.FramesPerSecond * float64(f.Timing.TicksPerFrame)
		if ticksPerSecond == 0 {
			return 0
		}
		return float64(ticks) / ticksPerSecond * 1000.0
	}

	tpq := float64(f.Timing.TicksPerQuarter)
	if tpq == 0 {
		return 0
	}
	if defaultTempo == 0 {
		defaultTempo = DefaultTempoMicros
	}

	tempo := float64(defaultTempo)
	var ms float64
	var prev uint32
	for _, change := range f.tempoMap {
		if change.Tick >= ticks {
			break
		}
		ms += float64(change.Tick-prev) / tpq * tempo / 1000.0
		tempo = float64(change.Micros)
		prev = change.Tick
	}
	ms += float64(ticks-prev) / tpq * tempo / 1000.0
	return ms
}
