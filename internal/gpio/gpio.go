// Package gpio provides pin access with hardware abstraction.
// Lines are expressed with periph's Level type, so any periph pin can be
// used directly. Real backends use the Linux GPIO character device, periph
// host drivers, or TinyGo's machine package; the fake backend allows
// testing without hardware.
package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"

	"github.com/sweeney/mh106/internal/signal"
)

// Level is an electrical pin level.
type Level = pgpio.Level

// Pin levels.
const (
	Low  = pgpio.Low
	High = pgpio.High
)

// InputLine reads the live level of one input pin.
type InputLine interface {
	Read() Level
}

// OutputLine drives one output pin.
type OutputLine interface {
	Out(l Level) error
}

// Lines is the full pin set the emulator owns.
type Lines struct {
	Inputs []InputLine // catalog order, GPIO2..GPIO13

	Data   OutputLine
	Clock  OutputLine
	Latch  OutputLine
	CAL    OutputLine
	Strobe OutputLine
}

// Board is an opened backend. Close releases the pins.
type Board interface {
	Lines() Lines
	Close() error
}

// Sampler reads the control inputs.
type Sampler struct {
	lines [signal.NumInputs]InputLine
}

// NewSampler binds a sampler to the input lines, given in catalog order.
func NewSampler(lines []InputLine) (*Sampler, error) {
	if len(lines) != signal.NumInputs {
		return nil, fmt.Errorf("sampler: got %d input lines, want %d", len(lines), signal.NumInputs)
	}
	s := &Sampler{}
	for i, l := range lines {
		if l == nil {
			return nil, fmt.Errorf("sampler: no line for %s", signal.Input(i))
		}
		s.lines[i] = l
	}
	return s, nil
}

// Sample reads every input once. High reads as true. There is no filtering:
// a floating pin reports whatever level the hardware presents.
func (s *Sampler) Sample() signal.InputSnapshot {
	var snap signal.InputSnapshot
	for i, l := range s.lines {
		snap.Set(signal.Input(i), l.Read() == High)
	}
	return snap
}
