package main

import (
	"fmt"

	"github.com/leandrodaf/midihost/internal/logger"
	"github.com/leandrodaf/midihost/sdk/contracts"
	"github.com/leandrodaf/midihost/sdk/midihost"
)

func main() {
	log := logger.NewZapLogger()

	host, err := midihost.New(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI host", log.Field().Error("error", err))
		return
	}
	defer host.Shutdown()

	devices, err := host.InputDevices()
	if err != nil || len(devices) == 0 {
		log.Error("No MIDI devices found or error listing devices", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI devices:", devices)

	sink := midihost.NewChannelSink(100)
	go func() {
		for event := range sink.C {
			log.Info("MIDI Event",
				log.Field().Uint64("Timestamp", event.Timestamp),
				log.Field().String("Type", event.Type.String()),
				log.Field().String("Note", contracts.NoteName(event.Data1)),
				log.Field().Int("Velocity", int(event.Data2)),
			)
		}
	}()

	listener, err := host.OpenListener(sink, 0, contracts.NoteOn, contracts.NoteOff)
	if err != nil {
		log.Error("Failed to start listener", log.Field().Error("error", err))
		return
	}
	defer host.DestroyListener(listener)

	fmt.Println("Capturing MIDI events... Press Ctrl+C to exit.")
	select {} // Run indefinitely
}
