package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sweeney/mh106/internal/shiftreg"
	"github.com/sweeney/mh106/internal/signal"
)

// ErrUndefinedOutput is returned when the application logic left an output
// unset. Undefined outputs are never shown as dark segments.
var ErrUndefinedOutput = errors.New("undefined output")

// Driver is the part of shiftreg.Driver the composer uses.
type Driver interface {
	Clear() error
	ShiftOut(f shiftreg.Frame) error
	SetDirect(cal, strobe bool) error
}

// Composer turns output snapshots into frames and pushes them to the driver.
type Composer struct {
	wiring *Wiring
	driver Driver
}

// New creates a Composer.
func New(w *Wiring, d Driver) *Composer {
	return &Composer{wiring: w, driver: d}
}

// Wiring returns the table in use.
func (c *Composer) Wiring() *Wiring { return c.wiring }

// Frame maps outs onto a frame. It has no side effects.
func (c *Composer) Frame(outs signal.OutputSnapshot) (shiftreg.Frame, error) {
	var f shiftreg.Frame
	if missing := outs.Undefined(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = m.String()
		}
		return f, fmt.Errorf("%w: %s", ErrUndefinedOutput, strings.Join(names, ", "))
	}
	for i := range f {
		f[i], _ = outs.Get(c.wiring.At(i))
	}
	return f, nil
}

// Compose blanks the registers, shifts in the new frame and sets the two
// FET outputs. The register outputs change only at the latch edges.
func (c *Composer) Compose(outs signal.OutputSnapshot) (shiftreg.Frame, error) {
	f, err := c.Frame(outs)
	if err != nil {
		return f, err
	}
	if err := c.driver.Clear(); err != nil {
		return f, fmt.Errorf("clear: %w", err)
	}
	if err := c.driver.ShiftOut(f); err != nil {
		return f, fmt.Errorf("shift out: %w", err)
	}
	cal, _ := outs.Get(signal.CAL)
	strobe, _ := outs.Get(signal.StrobeOut)
	if err := c.driver.SetDirect(cal, strobe); err != nil {
		return f, err
	}
	return f, nil
}
