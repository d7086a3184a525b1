package midihost

import (
	"github.com/leandrodaf/midihost/internal/logger"
	"github.com/leandrodaf/midihost/sdk/contracts"
)

const (
	defaultClientName  = "GO MIDI Host"
	defaultBufferSize  = 100
	defaultTempoMicros = 500000
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if there was an issue applying the options.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger() // Default to a standard logger
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel // Default log level to InfoLevel
	}
	if options.ClientName == "" {
		options.ClientName = defaultClientName // Name registered with the OS MIDI system
	}
	if options.ChannelBufferSize <= 0 {
		options.ChannelBufferSize = defaultBufferSize
	}
	if options.DefaultTempo == 0 {
		options.DefaultTempo = defaultTempoMicros // 120 BPM in µs per quarter note
	}

	options.Logger.SetLevel(options.LogLevel) // Set the logger to the specified log level
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	return *options, nil
}
