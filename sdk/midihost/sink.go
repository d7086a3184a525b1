package midihost

import (
	"github.com/leandrodaf/midihost/sdk/contracts"
)

// ChannelSink adapts a buffered channel to the EventSink interface. Hosts
// read from C; a full buffer rejects the post so listener workers never
// block on a slow consumer.
type ChannelSink struct {
	C chan contracts.LiveEvent
}

// NewChannelSink creates a sink with the given buffer depth. Sizes below 1
// fall back to the host default.
func NewChannelSink(size int) *ChannelSink {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &ChannelSink{C: make(chan contracts.LiveEvent, size)}
}

// Post queues the event without blocking.
func (s *ChannelSink) Post(event contracts.LiveEvent) error {
	select {
	case s.C <- event:
		return nil
	default:
		return contracts.ErrCapacityExceeded
	}
}
