//go:build cgo

package midiin

import (
	"context"
	"fmt"
	"log/slog"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

func Ports() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midiin: %w", err)
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("midiin: %w", err)
	}
	return portNames(ins), nil
}

func portNames(ins []drivers.In) []string {
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names
}

// Listen opens the named port (see pickPort) and calls handle for every
// note and pitch bend message until ctx is done.
func Listen(ctx context.Context, port string, handle Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("midiin: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("midiin: %w", err)
	}
	idx, err := pickPort(portNames(ins), port)
	if err != nil {
		return err
	}
	in := ins[idx]
	if err := in.Open(); err != nil {
		return fmt.Errorf("midiin: opening %s: %w", in.String(), err)
	}
	defer in.Close()

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		if ev, ok := Decode(msg); ok {
			handle(ev)
		}
	})
	if err != nil {
		return fmt.Errorf("midiin: listening on %s: %w", in.String(), err)
	}
	defer stop()
	logger.Info("listening for MIDI input", "port", in.String())
	<-ctx.Done()
	return nil
}
