//go:build linux && !tinygo

package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/sweeney/mh106/internal/signal"
)

// PeriphBoard drives the pins through periph's host drivers.
type PeriphBoard struct {
	pins  []pgpio.PinIO
	lines Lines
}

// OpenPeriph initialises the periph host and looks the pins up by their
// GPIO names.
func OpenPeriph() (*PeriphBoard, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	b := &PeriphBoard{}

	for _, in := range signal.Inputs() {
		p, err := periphPin(in.Pin())
		if err != nil {
			return nil, err
		}
		if err := p.In(pgpio.Float, pgpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure %s pin %d: %w", in, in.Pin(), err)
		}
		b.pins = append(b.pins, p)
		b.lines.Inputs = append(b.lines.Inputs, p)
	}

	outs := []struct {
		pin int
		dst *OutputLine
	}{
		{signal.PinData, &b.lines.Data},
		{signal.PinShiftClock, &b.lines.Clock},
		{signal.PinLatch, &b.lines.Latch},
		{signal.PinCAL, &b.lines.CAL},
		{signal.PinStrobeOut, &b.lines.Strobe},
	}
	for _, o := range outs {
		p, err := periphPin(o.pin)
		if err != nil {
			return nil, err
		}
		if err := p.Out(pgpio.Low); err != nil {
			return nil, fmt.Errorf("configure output pin %d: %w", o.pin, err)
		}
		b.pins = append(b.pins, p)
		*o.dst = p
	}

	return b, nil
}

func periphPin(n int) (pgpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, fmt.Errorf("gpio pin %d not found", n)
	}
	return p, nil
}

// Lines returns the configured pin set.
func (b *PeriphBoard) Lines() Lines {
	return b.lines
}

// Close halts every pin.
func (b *PeriphBoard) Close() error {
	var errs []error
	for _, p := range b.pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %s: %w", p, err))
		}
	}
	b.pins = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
