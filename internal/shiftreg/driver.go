package shiftreg

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sweeney/mh106/internal/gpio"
)

// Driver bit-bangs frames into the register cascade.
//
// Each bit is placed on the data line before a rising shift-clock edge and
// held until the clock falls again. The latch line pulses once per frame,
// after the last bit, so the register outputs only ever change to a complete
// frame.
type Driver struct {
	mu     sync.Mutex
	data   gpio.OutputLine
	clock  gpio.OutputLine
	latch  gpio.OutputLine
	cal    gpio.OutputLine
	strobe gpio.OutputLine
}

// NewDriver creates a driver that owns the given output lines exclusively.
func NewDriver(lines gpio.Lines) (*Driver, error) {
	if lines.Data == nil || lines.Clock == nil || lines.Latch == nil {
		return nil, errors.New("shiftreg: missing data, clock or latch line")
	}
	if lines.CAL == nil || lines.Strobe == nil {
		return nil, errors.New("shiftreg: missing CAL or STROBE_OUT line")
	}
	return &Driver{
		data:   lines.Data,
		clock:  lines.Clock,
		latch:  lines.Latch,
		cal:    lines.CAL,
		strobe: lines.Strobe,
	}, nil
}

// ShiftOut shifts f into the cascade, first bit first, and latches it.
func (d *Driver) ShiftOut(f Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shiftOut(f)
}

// Clear latches an all-zero frame and drives both FET outputs low.
// It is safe to call repeatedly.
func (d *Driver) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.shiftOut(Frame{}); err != nil {
		return err
	}
	return d.setDirect(false, false)
}

// SetDirect drives the CAL and STROBE_OUT FETs.
func (d *Driver) SetDirect(cal, strobe bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setDirect(cal, strobe)
}

func (d *Driver) shiftOut(f Frame) error {
	state := enterCritical()
	defer exitCritical(state)

	for i, bit := range f {
		if err := d.data.Out(gpio.Level(bit)); err != nil {
			return fmt.Errorf("shift bit %d: data: %w", i, err)
		}
		if err := pulse(d.clock); err != nil {
			return fmt.Errorf("shift bit %d: clock: %w", i, err)
		}
	}
	if err := pulse(d.latch); err != nil {
		return fmt.Errorf("latch: %w", err)
	}
	return nil
}

func (d *Driver) setDirect(cal, strobe bool) error {
	if err := d.cal.Out(gpio.Level(cal)); err != nil {
		return fmt.Errorf("set CAL: %w", err)
	}
	if err := d.strobe.Out(gpio.Level(strobe)); err != nil {
		return fmt.Errorf("set STROBE_OUT: %w", err)
	}
	return nil
}

// pulse drives l high then low.
func pulse(l gpio.OutputLine) error {
	if err := l.Out(gpio.High); err != nil {
		return err
	}
	return l.Out(gpio.Low)
}
