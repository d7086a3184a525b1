//go:build !cgo
// +build !cgo

package midirt

import (
	"fmt"

	"github.com/leandrodaf/midihost/sdk/contracts"
)

type DummyProvider struct {
	logger contracts.Logger
}

func NewProvider(options *contracts.ClientOptions) (contracts.PortProvider, error) {
	options.Logger.Info("Using dummy rtmidi provider for non-cgo build")
	return &DummyProvider{
		logger: options.Logger,
	}, nil
}

func (p *DummyProvider) InputDevices() ([]contracts.DeviceInfo, error) {
	p.logger.Warn("InputDevices called on dummy rtmidi provider")
	return nil, fmt.Errorf("rtmidi is not available without cgo")
}

func (p *DummyProvider) OutputDevices() ([]contracts.DeviceInfo, error) {
	p.logger.Warn("OutputDevices called on dummy rtmidi provider")
	return nil, fmt.Errorf("rtmidi is not available without cgo")
}

func (p *DummyProvider) OpenInput(deviceID int) (contracts.InputConnection, error) {
	p.logger.Warn("OpenInput called on dummy rtmidi provider")
	return nil, fmt.Errorf("rtmidi is not available without cgo")
}

func (p *DummyProvider) OpenOutput(deviceID int) (contracts.OutputConnection, error) {
	p.logger.Warn("OpenOutput called on dummy rtmidi provider")
	return nil, fmt.Errorf("rtmidi is not available without cgo")
}

func (p *DummyProvider) Close() error {
	p.logger.Warn("Close called on dummy rtmidi provider")
	return nil
}
