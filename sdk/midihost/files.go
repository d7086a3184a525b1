package midihost

import (
	"fmt"

	"github.com/leandrodaf/midihost/internal/midifile"
	"github.com/leandrodaf/midihost/sdk/contracts"
)

// Open reads a standard MIDI file from disk, normalizes it and returns a
// handle for the query surface.
func (h *Host) Open(path string) (contracts.Handle, error) {
	file, err := midifile.Load(path)
	if err != nil {
		return 0, err
	}

	handle := h.files.Insert(file)
	h.logger.Info("MIDI file loaded",
		h.logger.Field().String("path", path),
		h.logger.Field().Int("handle", int(handle)),
		h.logger.Field().Int("tracks", len(file.Tracks)))
	return handle, nil
}

// OpenBytes normalizes an in-memory standard MIDI file and returns a handle
// for the query surface.
func (h *Host) OpenBytes(data []byte) (contracts.Handle, error) {
	file, err := midifile.Parse(data)
	if err != nil {
		return 0, err
	}

	handle := h.files.Insert(file)
	h.logger.Info("MIDI file loaded from memory",
		h.logger.Field().Int("handle", int(handle)),
		h.logger.Field().Int("tracks", len(file.Tracks)))
	return handle, nil
}

// CloseFile releases the file behind the handle. The handle is never reused.
func (h *Host) CloseFile(handle contracts.Handle) error {
	if _, ok := h.files.Remove(handle); !ok {
		return invalidHandle("file", handle)
	}
	return nil
}

// FileInfo returns the format, timing and duration summary of the file.
func (h *Host) FileInfo(handle contracts.Handle) (contracts.FileInfo, error) {
	file, err := h.file(handle)
	if err != nil {
		return contracts.FileInfo{}, err
	}
	return file.Info(), nil
}

// TrackInfo returns the per-track summary: event count, channel mask and
// whether the track carried explicit name or instrument metas.
func (h *Host) TrackInfo(handle contracts.Handle, track int) (contracts.TrackInfo, error) {
	file, err := h.file(handle)
	if err != nil {
		return contracts.TrackInfo{}, err
	}
	return file.TrackInfo(track)
}

// TrackName returns the resolved track name. Tracks without a name meta get
// a positional fallback assigned at load time.
func (h *Host) TrackName(handle contracts.Handle, track int) (string, error) {
	file, err := h.file(handle)
	if err != nil {
		return "", err
	}
	t, err := file.Track(track)
	if err != nil {
		return "", err
	}
	return t.Name, nil
}

// TrackInstrument returns the instrument name meta of the track. Tracks
// without one report ErrNotPresent.
func (h *Host) TrackInstrument(handle contracts.Handle, track int) (string, error) {
	file, err := h.file(handle)
	if err != nil {
		return "", err
	}
	t, err := file.Track(track)
	if err != nil {
		return "", err
	}
	if !t.HasInstrument {
		return "", fmt.Errorf("%w: track carries no instrument name", contracts.ErrNotPresent)
	}
	return t.Instrument, nil
}

// EventCount returns the number of normalized events in the track.
func (h *Host) EventCount(handle contracts.Handle, track int) (int, error) {
	file, err := h.file(handle)
	if err != nil {
		return 0, err
	}
	t, err := file.Track(track)
	if err != nil {
		return 0, err
	}
	return len(t.Events), nil
}

// Event returns one normalized event with its millisecond timestamp computed
// through the tempo map.
func (h *Host) Event(handle contracts.Handle, track, index int) (contracts.EventInfo, error) {
	file, err := h.file(handle)
	if err != nil {
		return contracts.EventInfo{}, err
	}
	return file.Event(track, index, h.defaultTempo)
}

// EventText returns the textual payload of a meta or system exclusive event.
// Events without text report ErrNotPresent.
func (h *Host) EventText(handle contracts.Handle, track, index int) (string, error) {
	file, err := h.file(handle)
	if err != nil {
		return "", err
	}
	return file.EventText(track, index)
}

// EventsInRange returns the events whose ticks fall in the half-open window
// [fromTick, toTick). Windows holding more than the batch cap report
// ErrCapacityExceeded; narrow the window and retry.
func (h *Host) EventsInRange(handle contracts.Handle, track int, fromTick, toTick uint32) ([]contracts.EventInfo, error) {
	file, err := h.file(handle)
	if err != nil {
		return nil, err
	}
	return file.EventsInRange(track, fromTick, toTick, h.defaultTempo)
}

// TicksToMS converts an absolute tick position of the file to milliseconds.
// defaultTempo (µs per quarter) applies before the first tempo change; 0
// selects the host's configured default.
func (h *Host) TicksToMS(handle contracts.Handle, ticks uint32, defaultTempo uint32) (float64, error) {
	file, err := h.file(handle)
	if err != nil {
		return 0, err
	}
	if defaultTempo == 0 {
		defaultTempo = h.defaultTempo
	}
	return file.TicksToMS(ticks, defaultTempo), nil
}

// DurationTicks returns the tick of the last event across all tracks.
func (h *Host) DurationTicks(handle contracts.Handle) (uint32, error) {
	file, err := h.file(handle)
	if err != nil {
		return 0, err
	}
	return file.DurationTicks(), nil
}
