package contracts

// TimingType discriminates the two SMF timing variants.
type TimingType int

const (
	// TimingMetrical measures time in ticks per quarter note.
	TimingMetrical TimingType = iota
	// TimingTimecode measures time in SMPTE frames and ticks per frame.
	TimingTimecode
)

// FileInfo summarizes a loaded MIDI file.
type FileInfo struct {
	Format          uint16     // SMF format (0, 1 or 2).
	TrackCount      int        // Number of tracks in the file.
	Timing          TimingType // Timing variant of the header.
	TicksPerQuarter uint16     // Metrical resolution; 0 for timecode files.
	FramesPerSecond float64    // SMPTE frame rate; 0 for metrical files.
	TicksPerFrame   uint16     // Ticks per SMPTE frame; 0 for metrical files.
	DurationTicks   uint32     // Largest last-event tick across all tracks.
}

// TrackInfo summarizes one track of a loaded file.
type TrackInfo struct {
	EventCount    int    // Number of normalized events in the track.
	ChannelMask   uint16 // Bit N is set when channel N appears in the track.
	HasName       bool   // True when the track carried a Track Name meta.
	HasInstrument bool   // True when the track carried an Instrument Name meta.
}

// EventInfo describes one normalized track event.
type EventInfo struct {
	Tick    uint32    // Absolute time in ticks since track start.
	MS      float64   // Tick position converted through the file's tempo map.
	Type    EventType // Taxonomy classification.
	Channel uint8     // MIDI channel, meaningless for meta and SysEx events.
	Data1   uint8     // First data byte.
	Data2   uint8     // Second data byte.
	HasText bool      // True when the event carries text (fetch with EventText).
}
