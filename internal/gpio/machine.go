//go:build tinygo

package gpio

import (
	"machine"

	"github.com/sweeney/mh106/internal/signal"
)

// MachineBoard drives the RP2040 pins directly.
type MachineBoard struct {
	lines Lines
}

type machineLine machine.Pin

func (m machineLine) Read() Level { return Level(machine.Pin(m).Get()) }

func (m machineLine) Out(l Level) error {
	machine.Pin(m).Set(bool(l))
	return nil
}

// OpenMachine configures the input pins as floating inputs and the output
// pins as outputs driven low.
func OpenMachine() *MachineBoard {
	b := &MachineBoard{}
	for _, in := range signal.Inputs() {
		p := machine.Pin(in.Pin())
		p.Configure(machine.PinConfig{Mode: machine.PinInput})
		b.lines.Inputs = append(b.lines.Inputs, machineLine(p))
	}
	out := func(n int) OutputLine {
		p := machine.Pin(n)
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
		return machineLine(p)
	}
	b.lines.Data = out(signal.PinData)
	b.lines.Clock = out(signal.PinShiftClock)
	b.lines.Latch = out(signal.PinLatch)
	b.lines.CAL = out(signal.PinCAL)
	b.lines.Strobe = out(signal.PinStrobeOut)
	return b
}

// Lines returns the configured pin set.
func (b *MachineBoard) Lines() Lines {
	return b.lines
}

// Close is a no-op; the pins stay configured until reset.
func (b *MachineBoard) Close() error {
	return nil
}
