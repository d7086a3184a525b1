package midifile

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

// maxRangeEvents bounds one EventsInRange batch.
const maxRangeEvents = 4096

// Event is one normalized track event with absolute timing.
type Event struct {
	Tick        uint32              // Absolute time in ticks since track start.
	Type        contracts.EventType // Taxonomy classification.
	Channel     uint8               // MIDI channel for channel-voice events.
	Data1       uint8               // First data byte.
	Data2       uint8               // Second data byte.
	Text        string              // Text payload for meta and SysEx events.
	TempoMicros uint32              // µs per quarter, set only on Set Tempo events.
}

// Track holds the normalized events of one SMF track plus the metadata
// collected from them.
type Track struct {
	Events        []Event
	Name          string // Track Name meta, or "Track N" when none appeared.
	Instrument    string
	ChannelMask   uint16 // Bit N is set when channel N appears in the track.
	HasName       bool
	HasInstrument bool
}

// Timing is the timing variant of the file header.
type Timing struct {
	Type            contracts.TimingType
	TicksPerQuarter uint16  // Metrical resolution.
	FramesPerSecond float64 // SMPTE frame rate.
	TicksPerFrame   uint16
}

// File is a fully normalized MIDI file.
type File struct {
	Format   uint16
	Timing   Timing
	Tracks   []Track
	tempoMap TempoMap
}

// Load reads and normalizes the MIDI file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MIDI file: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw SMF data and normalizes every track: deltas become
// saturating absolute ticks and each message is classified into the event
// taxonomy.
func Parse(data []byte) (*File, error) {
	timing, timecode := readTimecode(data)
	body := data
	if timecode {
		body = withMetricDivision(data)
	}

	s, err := readSMF(body)
	if err != nil {
		return nil, err
	}
	if !timecode {
		tf, ok := s.TimeFormat.(smf.MetricTicks)
		if !ok {
			return nil, fmt.Errorf("%w: unrecognized time format %v", contracts.ErrDecodeFailure, s.TimeFormat)
		}
		timing = Timing{
			Type:            contracts.TimingMetrical,
			TicksPerQuarter: tf.Resolution(),
		}
	}

	tracks := make([]Track, len(s.Tracks))
	for i, track := range s.Tracks {
		tracks[i] = normalizeTrack(track, i)
	}

	file := &File{
		Format: s.Format(),
		Timing: timing,
		Tracks: tracks,
	}
	file.tempoMap = buildTempoMap(tracks)
	return file, nil
}

// headerDivision is the offset of the division word inside the MThd chunk.
const headerDivision = 12

// readTimecode inspects the header division word. Bit 15 set means SMPTE
// timing: the high byte carries the negated frame rate and the low byte the
// ticks per frame.
func readTimecode(data []byte) (Timing, bool) {
	if len(data) < headerDivision+2 || !bytes.HasPrefix(data, []byte("MThd")) {
		return Timing{}, false
	}
	hi, lo := data[headerDivision], data[headerDivision+1]
	if hi&0x80 == 0 {
		return Timing{}, false
	}
	return Timing{
		Type:            contracts.TimingTimecode,
		FramesPerSecond: smpteRate(uint8(-int8(hi))),
		TicksPerFrame:   uint16(lo),
	}, true
}

// withMetricDivision clones the data with the division word rewritten to a
// metric resolution. Deltas are stored per event, so the decoded tracks come
// out identical; only the header word changes.
func withMetricDivision(data []byte) []byte {
	clone := append([]byte(nil), data...)
	clone[headerDivision] = 0x01 // 480 ticks per quarter
	clone[headerDivision+1] = 0xE0
	return clone
}

// readSMF decodes through gomidi. Its reader precomputes absolute times
// assuming a metric division and panics on anything else, so SMPTE input
// must be rewritten first and stray panics surface as decode failures.
func readSMF(data []byte) (s *smf.SMF, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, fmt.Errorf("%w: %v", contracts.ErrDecodeFailure, r)
		}
	}()
	s, err = smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrDecodeFailure, err)
	}
	return s, nil
}

// smpteRate maps the header frame-rate byte to frames per second. 29 encodes
// the NTSC drop-frame rate.
func smpteRate(fps uint8) float64 {
	if fps == 29 {
		return 29.97
	}
	return float64(fps)
}

// normalizeTrack walks one track accumulating absolute time and classifying
// each message, then derives the track metadata in a second pass.
func normalizeTrack(track smf.Track, index int) Track {
	events := make([]Event, 0, len(track))
	var tick uint32
	for _, ev := range track {
		tick = saturatingAdd(tick, ev.Delta)
		events = append(events, classify(tick, ev.Message))
	}
	return finalizeTrack(events, index)
}

// saturatingAdd accumulates deltas without wrapping past the uint32 range.
func saturatingAdd(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// classify maps one raw SMF message to a normalized event.
func classify(tick uint32, raw []byte) Event {
	ev := Event{Tick: tick, Type: contracts.EventUnknown}
	if len(raw) == 0 {
		return ev
	}

	switch status := raw[0]; {
	case status == 0xFF:
		classifyMeta(&ev, raw)
	case status == 0xF0:
		ev.Type = contracts.EventSystemExclusive
		ev.Text = fmt.Sprintf("SysEx: %d bytes", len(raw)-1)
	case status == 0xF7:
		ev.Type = contracts.EventSystemExclusive
		ev.Text = "Escape Sequence"
	case status >= 0x80:
		// Channel-voice messages share the live classification rule.
		live, err := contracts.ParseMessage(raw)
		if err == nil {
			ev.Type = live.Type
			ev.Channel = live.Channel
			ev.Data1 = live.Data1
			ev.Data2 = live.Data2
		}
	}
	return ev
}

// classifyMeta maps a meta message laid out as FF <type> <varlen> <payload>.
// Malformed payloads fall through as Unknown.
func classifyMeta(ev *Event, raw []byte) {
	ev.Text = "Unknown Meta Event"
	if len(raw) < 2 {
		return
	}
	payload := metaPayload(raw)

	switch raw[1] {
	case 0x00:
		if len(payload) >= 2 {
			ev.Type = contracts.EventMetaSequenceNumber
			ev.Text = fmt.Sprintf("Sequence Number: %d", uint16(payload[0])<<8|uint16(payload[1]))
		}
	case 0x01:
		ev.Type = contracts.EventMetaText
		ev.Text = string(payload)
	case 0x02:
		ev.Type = contracts.EventMetaCopyright
		ev.Text = string(payload)
	case 0x03:
		ev.Type = contracts.EventMetaTrackName
		ev.Text = string(payload)
	case 0x04:
		ev.Type = contracts.EventMetaInstrumentName
		ev.Text = string(payload)
	case 0x05:
		ev.Type = contracts.EventMetaLyric
		ev.Text = string(payload)
	case 0x06:
		ev.Type = contracts.EventMetaMarker
		ev.Text = string(payload)
	case 0x07:
		ev.Type = contracts.EventMetaCuePoint
		ev.Text = string(payload)
	case 0x20:
		if len(payload) >= 1 {
			ev.Type = contracts.EventMetaChannelPrefix
			ev.Text = fmt.Sprintf("Channel Prefix: %d", payload[0])
		}
	case 0x2F:
		ev.Type = contracts.EventMetaEndOfTrack
		ev.Text = "End of Track"
	case 0x51:
		if len(payload) == 3 {
			micros := uint32(payload[0])<<16 | uint32(payload[1])<<8 | uint32(payload[2])
			ev.Type = contracts.EventMetaSetTempo
			ev.TempoMicros = micros
			ev.Text = fmt.Sprintf("Tempo: %d µs/quarter", micros)
		}
	case 0x54:
		if len(payload) >= 5 {
			ev.Type = contracts.EventMetaSmpteOffset
			ev.Text = fmt.Sprintf("SMPTE Offset: %02d:%02d:%02d:%02d.%02d",
				payload[0], payload[1], payload[2], payload[3], payload[4])
		}
	case 0x58:
		if len(payload) >= 3 {
			ev.Type = contracts.EventMetaTimeSignature
			ev.Text = fmt.Sprintf("Time Sig: %d/%d (%d)", payload[0], 1<<payload[1], payload[2])
		}
	case 0x59:
		if len(payload) >= 2 {
			ev.Type = contracts.EventMetaKeySignature
			mode := "major"
			if payload[1] != 0 {
				mode = "minor"
			}
			ev.Text = fmt.Sprintf("Key Sig: %d %s", int8(payload[0]), mode)
		}
	case 0x7F:
		ev.Type = contracts.EventMetaSequencerSpecific
		ev.Text = fmt.Sprintf("Sequencer Specific: %d bytes", len(payload))
	}
}

// metaPayload extracts the payload bytes of a meta message, nil when the
// declared length does not fit the message.
func metaPayload(raw []byte) []byte {
	if len(raw) < 3 {
		return nil
	}
	length, n := readVarLen(raw[2:])
	if n == 0 {
		return nil
	}
	start := 2 + n
	end := start + int(length)
	if end > len(raw) {
		return nil
	}
	return raw[start:end]
}

// readVarLen decodes a variable-length quantity, returning the value and the
// number of bytes consumed (0 when the field is unterminated).
func readVarLen(data []byte) (uint32, int) {
	var value uint32
	for i, b := range data {
		value = value<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return value, i + 1
		}
		if i == 3 {
			break
		}
	}
	return 0, 0
}

// finalizeTrack derives track metadata from the classified events: channel
// usage, and the last Track Name / Instrument Name metas win.
func finalizeTrack(events []Event, index int) Track {
	track := Track{
		Events: events,
		Name:   fmt.Sprintf("Track %d", index+1),
	}
	for _, ev := range events {
		switch {
		case ev.Type.IsChannelVoice():
			track.ChannelMask |= 1 << ev.Channel
		case ev.Type == contracts.EventMetaTrackName:
			track.Name = ev.Text
			track.HasName = true
		case ev.Type == contracts.EventMetaInstrumentName:
			track.Instrument = ev.Text
			track.HasInstrument = true
		}
	}
	return track
}

// DurationTicks returns the largest last-event tick across all tracks.
func (f *File) DurationTicks() uint32 {
	var max uint32
	for _, track := range f.Tracks {
		if n := len(track.Events); n > 0 {
			if tick := track.Events[n-1].Tick; tick > max {
				max = tick
			}
		}
	}
	return max
}

// Info summarizes the file for the query surface.
func (f *File) Info() contracts.FileInfo {
	return contracts.FileInfo{
		Format:          f.Format,
		TrackCount:      len(f.Tracks),
		Timing:          f.Timing.Type,
		TicksPerQuarter: f.Timing.TicksPerQuarter,
		FramesPerSecond: f.Timing.FramesPerSecond,
		TicksPerFrame:   f.Timing.TicksPerFrame,
		DurationTicks:   f.DurationTicks(),
	}
}

// Track returns the normalized track at index.
func (f *File) Track(index int) (*Track, error) {
	if index < 0 || index >= len(f.Tracks) {
		return nil, fmt.Errorf("%w: track %d of %d", contracts.ErrIndexOutOfRange, index, len(f.Tracks))
	}
	return &f.Tracks[index], nil
}

// TrackInfo summarizes the track at index.
func (f *File) TrackInfo(index int) (contracts.TrackInfo, error) {
	track, err := f.Track(index)
	if err != nil {
		return contracts.TrackInfo{}, err
	}
	return contracts.TrackInfo{
		EventCount:    len(track.Events),
		ChannelMask:   track.ChannelMask,
		HasName:       track.HasName,
		HasInstrument: track.HasInstrument,
	}, nil
}

// Event returns the event at (track, index) with its position converted
// through the tempo map.
func (f *File) Event(track, index int, defaultTempo uint32) (contracts.EventInfo, error) {
	tr, err := f.Track(track)
	if err != nil {
		return contracts.EventInfo{}, err
	}
	if index < 0 || index >= len(tr.Events) {
		return contracts.EventInfo{}, fmt.Errorf("%w: event %d of %d", contracts.ErrIndexOutOfRange, index, len(tr.Events))
	}
	return f.eventInfo(tr.Events[index], defaultTempo), nil
}

// EventText returns the text carried by the event at (track, index).
func (f *File) EventText(track, index int) (string, error) {
	tr, err := f.Track(track)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(tr.Events) {
		return "", fmt.Errorf("%w: event %d of %d", contracts.ErrIndexOutOfRange, index, len(tr.Events))
	}
	if tr.Events[index].Text == "" {
		return "", fmt.Errorf("%w: event carries no text", contracts.ErrNotPresent)
	}
	return tr.Events[index].Text, nil
}

// EventsInRange returns the events of a track with fromTick <= tick < toTick.
// Batches are bounded; ranges spanning more than maxRangeEvents events fail
// with ErrCapacityExceeded.
func (f *File) EventsInRange(track int, fromTick, toTick uint32, defaultTempo uint32) ([]contracts.EventInfo, error) {
	tr, err := f.Track(track)
	if err != nil {
		return nil, err
	}
	start := sort.Search(len(tr.Events), func(i int) bool {
		return tr.Events[i].Tick >= fromTick
	})
	var out []contracts.EventInfo
	for i := start; i < len(tr.Events) && tr.Events[i].Tick < toTick; i++ {
		if len(out) == maxRangeEvents {
			return nil, fmt.Errorf("%w: more than %d events in range", contracts.ErrCapacityExceeded, maxRangeEvents)
		}
		out = append(out, f.eventInfo(tr.Events[i], defaultTempo))
	}
	return out, nil
}

func (f *File) eventInfo(ev Event, defaultTempo uint32) contracts.EventInfo {
	return contracts.EventInfo{
		Tick:    ev.Tick,
		MS:      f.TicksToMS(ev.Tick, defaultTempo),
		Type:    ev.Type,
		Channel: ev.Channel,
		Data1:   ev.Data1,
		Data2:   ev.Data2,
		HasText: ev.Text != "",
	}
}
