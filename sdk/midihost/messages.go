package midihost

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

// ParseMessage classifies one raw MIDI message into a LiveEvent, without a
// timestamp. Listeners apply the same rule to every forwarded message.
func ParseMessage(msg []byte) (contracts.LiveEvent, error) {
	return contracts.ParseMessage(msg)
}

// Raw message builders for SendMessage. They delegate to the gomidi
// constructors, which clamp data bytes to 7 bits.

// NoteOn builds a raw Note On message.
func NoteOn(channel, key, velocity uint8) []byte {
	return midi.NoteOn(channel, key, velocity).Bytes()
}

// NoteOff builds a raw Note Off message.
func NoteOff(channel, key uint8) []byte {
	return midi.NoteOff(channel, key).Bytes()
}

// ControlChange builds a raw Control Change message.
func ControlChange(channel, controller, value uint8) []byte {
	return midi.ControlChange(channel, controller, value).Bytes()
}

// ProgramChange builds a raw Program Change message.
func ProgramChange(channel, program uint8) []byte {
	return midi.ProgramChange(channel, program).Bytes()
}

// Pitchbend builds a raw Pitch Bend message from a signed bend relative to
// center.
func Pitchbend(channel uint8, value int16) []byte {
	return midi.Pitchbend(channel, value).Bytes()
}
