package contracts

import "fmt"

// EventType classifies every track or live MIDI message into a closed set.
// Channel-voice types come first, followed by the meta family; Unknown is the
// catch-all for anything outside the set.
type EventType int32

const (
	// EventNoteOff is a Note Off message, including Note On with velocity 0.
	EventNoteOff EventType = iota
	// EventNoteOn is a Note On message with non-zero velocity.
	EventNoteOn
	// EventPolyphonicAftertouch is per-key pressure.
	EventPolyphonicAftertouch
	// EventControlChange is a controller value change.
	EventControlChange
	// EventProgramChange is a program (patch) selection.
	EventProgramChange
	// EventChannelAftertouch is channel-wide pressure.
	EventChannelAftertouch
	// EventPitchBend is a pitch wheel move; data1/data2 carry the 7-bit halves.
	EventPitchBend
	// EventSystemExclusive is a SysEx or escape sequence.
	EventSystemExclusive
	// EventMetaSequenceNumber through EventMetaSequencerSpecific are the SMF
	// meta events.
	EventMetaSequenceNumber
	EventMetaText
	EventMetaCopyright
	EventMetaTrackName
	EventMetaInstrumentName
	EventMetaLyric
	EventMetaMarker
	EventMetaCuePoint
	EventMetaChannelPrefix
	EventMetaEndOfTrack
	EventMetaSetTempo
	EventMetaSmpteOffset
	EventMetaTimeSignature
	EventMetaKeySignature
	EventMetaSequencerSpecific
	// EventUnknown covers everything the taxonomy does not name.
	EventUnknown
)

var eventTypeNames = map[EventType]string{
	EventNoteOff:               "Note Off",
	EventNoteOn:                "Note On",
	EventPolyphonicAftertouch:  "Polyphonic Aftertouch",
	EventControlChange:         "Control Change",
	EventProgramChange:         "Program Change",
	EventChannelAftertouch:     "Channel Aftertouch",
	EventPitchBend:             "Pitch Bend",
	EventSystemExclusive:       "System Exclusive",
	EventMetaSequenceNumber:    "Meta: Sequence Number",
	EventMetaText:              "Meta: Text",
	EventMetaCopyright:         "Meta: Copyright",
	EventMetaTrackName:         "Meta: Track Name",
	EventMetaInstrumentName:    "Meta: Instrument Name",
	EventMetaLyric:             "Meta: Lyric",
	EventMetaMarker:            "Meta: Marker",
	EventMetaCuePoint:          "Meta: Cue Point",
	EventMetaChannelPrefix:     "Meta: Channel Prefix",
	EventMetaEndOfTrack:        "Meta: End of Track",
	EventMetaSetTempo:          "Meta: Set Tempo",
	EventMetaSmpteOffset:       "Meta: SMPTE Offset",
	EventMetaTimeSignature:     "Meta: Time Signature",
	EventMetaKeySignature:      "Meta: Key Signature",
	EventMetaSequencerSpecific: "Meta: Sequencer Specific",
}

// String returns a display name for the event type.
func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// IsChannelVoice reports whether the event type carries a MIDI channel.
func (t EventType) IsChannelVoice() bool {
	return t >= EventNoteOff && t <= EventPitchBend
}

// IsMeta reports whether the event type belongs to the SMF meta family.
func (t EventType) IsMeta() bool {
	return t >= EventMetaSequenceNumber && t <= EventMetaSequencerSpecific
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName converts a MIDI note number to its name, e.g. 60 -> "C4".
// Note 0 maps to "C-1".
func NoteName(note uint8) string {
	if note > 127 {
		return ""
	}
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}

// ControllerName returns the common name for a Control Change controller
// number, or "Other" for controllers without one.
func ControllerName(controller uint8) string {
	switch controller {
	case 1:
		return "Modulation"
	case 7:
		return "Volume"
	case 10:
		return "Pan"
	case 11:
		return "Expression"
	case 64:
		return "Sustain"
	case 65:
		return "Portamento"
	case 66:
		return "Sostenuto"
	case 67:
		return "Soft Pedal"
	default:
		return "Other"
	}
}
