package midihost

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midihost/internal/device/mididarwin"
	"github.com/leandrodaf/midihost/internal/device/midirt"
	"github.com/leandrodaf/midihost/internal/device/midiwindows"
	"github.com/leandrodaf/midihost/sdk/contracts"
)

// ErrUnsupportedOS is returned when no port provider can serve the operating system.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// providerInitializers maps OS names to corresponding port provider initializers.
var providerInitializers = map[string]func(*contracts.ClientOptions) (contracts.PortProvider, error){
	"darwin":  mididarwin.NewProvider,  // macOS (Darwin) CoreMIDI provider.
	"windows": midiwindows.NewProvider, // Windows winmm provider.
	"linux":   midirt.NewProvider,      // Linux ALSA provider through rtmidi.
}

// newPlatformProvider initializes a port provider based on the current
// operating system, returning ErrUnsupportedOS if the OS is unsupported.
//
// opts *contracts.ClientOptions: Configuration options for the provider.
//
// Returns:
//   - contracts.PortProvider: An instance of the platform port provider.
//   - error: An error if the operating system is unsupported or if initialization fails.
func newPlatformProvider(opts *contracts.ClientOptions) (contracts.PortProvider, error) {
	if initializer, exists := providerInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
