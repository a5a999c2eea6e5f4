//go:build linux && !tinygo

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/mh106/internal/signal"
)

// DefaultChip is the GPIO character device holding the header pins.
const DefaultChip = "gpiochip0"

// CdevBoard drives the pins through the Linux GPIO character device.
type CdevBoard struct {
	chip    *gpiocdev.Chip
	inputs  []*gpiocdev.Line
	outputs []*gpiocdev.Line
	lines   Lines
}

// OpenCdev requests the 12 input and 5 output lines on the named chip.
// Outputs start low.
func OpenCdev(chipName string) (*CdevBoard, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	b := &CdevBoard{chip: chip}

	for _, in := range signal.Inputs() {
		// No bias: a floating input reads whatever the hardware presents.
		l, err := chip.RequestLine(in.Pin(), gpiocdev.AsInput)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", in, in.Pin(), err)
		}
		b.inputs = append(b.inputs, l)
		b.lines.Inputs = append(b.lines.Inputs, cdevLine{l})
	}

	outs := []struct {
		name string
		pin  int
		dst  *OutputLine
	}{
		{"data", signal.PinData, &b.lines.Data},
		{"shift clock", signal.PinShiftClock, &b.lines.Clock},
		{"latch", signal.PinLatch, &b.lines.Latch},
		{"CAL", signal.PinCAL, &b.lines.CAL},
		{"STROBE_OUT", signal.PinStrobeOut, &b.lines.Strobe},
	}
	for _, o := range outs {
		l, err := chip.RequestLine(o.pin, gpiocdev.AsOutput(0))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", o.name, o.pin, err)
		}
		b.outputs = append(b.outputs, l)
		*o.dst = cdevLine{l}
	}

	return b, nil
}

// Lines returns the requested pin set.
func (b *CdevBoard) Lines() Lines {
	return b.lines
}

// Close releases GPIO resources.
// Outputs are reconfigured to input with pull-down (matching Pi boot
// defaults) before closing, so the FETs and registers are not left driven.
func (b *CdevBoard) Close() error {
	var errs []error

	for _, l := range b.outputs {
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	for _, l := range b.inputs {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line %d: %w", l.Offset(), err))
		}
	}
	b.outputs, b.inputs = nil, nil

	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		b.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

type cdevLine struct {
	l *gpiocdev.Line
}

// Read returns the line level. A failed read presents as low, the same as an
// undriven input.
func (c cdevLine) Read() Level {
	v, err := c.l.Value()
	return Level(err == nil && v == 1)
}

func (c cdevLine) Out(l Level) error {
	v := 0
	if l == High {
		v = 1
	}
	if err := c.l.SetValue(v); err != nil {
		return fmt.Errorf("set line %d: %w", c.l.Offset(), err)
	}
	return nil
}
