//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

type DummyProvider struct {
	logger contracts.Logger
}

func NewProvider(options *contracts.ClientOptions) (contracts.PortProvider, error) {
	options.Logger.Info("Using dummy CoreMIDI provider for non-macOS system")
	return &DummyProvider{
		logger: options.Logger,
	}, nil
}

func (p *DummyProvider) InputDevices() ([]contracts.DeviceInfo, error) {
	p.logger.Warn("InputDevices called on dummy CoreMIDI provider")
	return nil, fmt.Errorf("CoreMIDI is not available on this platform")
}

func (p *DummyProvider) OutputDevices() ([]contracts.DeviceInfo, error) {
	p.logger.Warn("OutputDevices called on dummy CoreMIDI provider")
	return nil, fmt.Errorf("CoreMIDI is not available on this platform")
}

func (p *DummyProvider) OpenInput(deviceID int) (contracts.InputConnection, error) {
	p.logger.Warn("OpenInput called on dummy CoreMIDI provider")
	return nil, fmt.Errorf("CoreMIDI is not available on this platform")
}

func (p *DummyProvider) OpenOutput(deviceID int) (contracts.OutputConnection, error) {
	p.logger.Warn("OpenOutput called on dummy CoreMIDI provider")
	return nil, fmt.Errorf("CoreMIDI is not available on this platform")
}

func (p *DummyProvider) Close() error {
	p.logger.Warn("Close called on dummy CoreMIDI provider")
	return nil
}
