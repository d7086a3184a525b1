package contracts

// MIDICommand represents a raw MIDI status byte used for event filtering.
// The channel nibble is part of the value: 0x90 matches Note On only on
// channel 0, 0x93 matches Note On on channel 3.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// PolyphonicAftertouch is the MIDI command for per-key pressure (0xA0).
	PolyphonicAftertouch MIDICommand = 0xA0
	// ControlChange is the MIDI command for a controller change (0xB0).
	ControlChange MIDICommand = 0xB0
	// ProgramChange is the MIDI command for a program change (0xC0).
	ProgramChange MIDICommand = 0xC0
	// ChannelAftertouch is the MIDI command for channel pressure (0xD0).
	ChannelAftertouch MIDICommand = 0xD0
	// PitchBend is the MIDI command for a pitch wheel move (0xE0).
	PitchBend MIDICommand = 0xE0
)

// MIDIEventFilter selects which status bytes a listener forwards. An empty
// command list forwards everything.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of status bytes to let through.
}

// ClientOptions defines the configuration options for the MIDI host.
type ClientOptions struct {
	Logger            Logger       // Logger for logging events and errors.
	LogLevel          LogLevel     // Level of logging to use.
	LogFilePath       string       // File path for logging if file logging is enabled.
	ClientName        string       // Name under which the host registers with the OS MIDI system.
	PortProvider      PortProvider // Device port provider; nil selects the platform default.
	ChannelBufferSize int          // Depth of per-connection message buffers.
	DefaultTempo      uint32       // Tempo in µs per quarter used when a file has no tempo events.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI host.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI host.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFilePath routes log output to the given file instead of stdout.
func WithLogFilePath(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithClientName sets the name the host registers with the OS MIDI system.
func WithClientName(name string) Option {
	return func(opts *ClientOptions) {
		opts.ClientName = name
	}
}

// WithPortProvider sets the device port provider, replacing the platform
// default.
func WithPortProvider(p PortProvider) Option {
	return func(opts *ClientOptions) {
		opts.PortProvider = p
	}
}

// WithChannelBufferSize sets the depth of per-connection message buffers.
func WithChannelBufferSize(size int) Option {
	return func(opts *ClientOptions) {
		opts.ChannelBufferSize = size
	}
}

// WithDefaultTempo sets the tempo, in microseconds per quarter note, assumed
// for files that carry no tempo events.
func WithDefaultTempo(microsPerQuarter uint32) Option {
	return func(opts *ClientOptions) {
		opts.DefaultTempo = microsPerQuarter
	}
}
