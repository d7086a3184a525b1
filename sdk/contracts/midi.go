package contracts

import "fmt"

// Handle identifies a file, manager or listener issued by the host. Handles
// are positive and never reused within a process; zero and negative values are
// always invalid.
type Handle int32

// LiveEvent represents a classified MIDI event captured from a device.
type LiveEvent struct {
	Timestamp uint64    // Timestamp indicates the time the event occurred (UTC nanoseconds).
	Type      EventType // Type is the taxonomy classification of the message.
	Status    byte      // Status is the raw status byte, channel nibble included.
	Channel   uint8     // Channel is the MIDI channel (0-15), 0 for system messages.
	Data1     uint8     // Data1 is the first data byte (note, controller, program...).
	Data2     uint8     // Data2 is the second data byte (velocity, value...).
}

// EventSink receives events forwarded by a listener worker. Post is called
// from the worker goroutine and must not block; a sink that cannot accept an
// event returns ErrCapacityExceeded and the worker drops it.
type EventSink interface {
	Post(event LiveEvent) error
}

// ParseMessage classifies a single raw MIDI message with the same rule used
// for file events. A Note On with velocity 0 comes back as EventNoteOff with
// the velocity byte preserved. The Timestamp field is left to the caller.
func ParseMessage(msg []byte) (LiveEvent, error) {
	if len(msg) == 0 {
		return LiveEvent{}, fmt.Errorf("%w: empty message", ErrDecodeFailure)
	}

	status := msg[0]
	event := LiveEvent{Status: status, Type: EventUnknown}

	if status >= 0xF0 {
		if status == 0xF0 || status == 0xF7 {
			event.Type = EventSystemExclusive
		}
		return event, nil
	}
	if status < 0x80 {
		// Data byte without a status byte; nothing to classify.
		return event, nil
	}

	event.Channel = status & 0x0F
	if len(msg) > 1 {
		event.Data1 = msg[1] & 0x7F
	}
	if len(msg) > 2 {
		event.Data2 = msg[2] & 0x7F
	}

	switch status & 0xF0 {
	case 0x80:
		event.Type = EventNoteOff
	case 0x90:
		if event.Data2 == 0 {
			event.Type = EventNoteOff
		} else {
			event.Type = EventNoteOn
		}
	case 0xA0:
		event.Type = EventPolyphonicAftertouch
	case 0xB0:
		event.Type = EventControlChange
	case 0xC0:
		event.Type = EventProgramChange
	case 0xD0:
		event.Type = EventChannelAftertouch
	case 0xE0:
		event.Type = EventPitchBend
	}
	return event, nil
}
