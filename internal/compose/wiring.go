// Package compose maps the logical output signals onto the serial frame and
// pushes the result to the shift-register driver.
package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sweeney/mh106/internal/shiftreg"
	"github.com/sweeney/mh106/internal/signal"
)

// Wiring binds every frame position, in shift order, to one output signal.
// A Wiring is immutable once built.
type Wiring struct {
	name      string
	positions [shiftreg.FrameBits]signal.Output
	byOutput  map[signal.Output][]int
}

type wiringOptions struct {
	duplicates map[signal.Output]bool
	omitted    map[signal.Output]bool
}

// Option declares an intentional deviation from a one-to-one table.
type Option func(*wiringOptions)

// AllowDuplicates permits the given outputs to occupy more than one position.
func AllowDuplicates(outs ...signal.Output) Option {
	return func(o *wiringOptions) {
		for _, out := range outs {
			o.duplicates[out] = true
		}
	}
}

// AllowOmitted permits the given outputs to be absent from the frame.
func AllowOmitted(outs ...signal.Output) Option {
	return func(o *wiringOptions) {
		for _, out := range outs {
			o.omitted[out] = true
		}
	}
}

// NewWiring validates a table given in shift order. It rejects a wrong
// length, unknown or direct-pin signals, undeclared duplicates and
// undeclared omissions.
func NewWiring(name string, positions []signal.Output, opts ...Option) (*Wiring, error) {
	o := wiringOptions{
		duplicates: make(map[signal.Output]bool),
		omitted:    make(map[signal.Output]bool),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(positions) != shiftreg.FrameBits {
		return nil, fmt.Errorf("wiring %s: %d positions, want %d", name, len(positions), shiftreg.FrameBits)
	}

	w := &Wiring{name: name, byOutput: make(map[signal.Output][]int)}
	for i, out := range positions {
		if !out.Valid() {
			return nil, fmt.Errorf("wiring %s: position %d: unknown signal %v", name, i, out)
		}
		if out.Direct() {
			return nil, fmt.Errorf("wiring %s: position %d: %s drives its own pin", name, i, out)
		}
		if prev := w.byOutput[out]; len(prev) > 0 && !o.duplicates[out] {
			return nil, fmt.Errorf("wiring %s: %s at positions %d and %d", name, out, prev[0], i)
		}
		w.positions[i] = out
		w.byOutput[out] = append(w.byOutput[out], i)
	}

	var missing []string
	for _, out := range signal.Outputs() {
		if out.Direct() || o.omitted[out] {
			continue
		}
		if len(w.byOutput[out]) == 0 {
			missing = append(missing, out.String())
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("wiring %s: not wired: %s", name, strings.Join(missing, ", "))
	}

	return w, nil
}

// MustWiring is like NewWiring but panics on a malformed table.
func MustWiring(name string, positions []signal.Output, opts ...Option) *Wiring {
	w, err := NewWiring(name, positions, opts...)
	if err != nil {
		panic(err)
	}
	return w
}

// Name returns the table name.
func (w *Wiring) Name() string { return w.name }

// At returns the signal bound to frame position i.
func (w *Wiring) At(i int) signal.Output { return w.positions[i] }

// Positions returns every frame position bound to out.
func (w *Wiring) Positions(out signal.Output) []int {
	return append([]int(nil), w.byOutput[out]...)
}

// Duplicated returns the outputs bound to more than one position.
func (w *Wiring) Duplicated() []signal.Output {
	var dup []signal.Output
	for out, pos := range w.byOutput {
		if len(pos) > 1 {
			dup = append(dup, out)
		}
	}
	sort.Slice(dup, func(i, j int) bool { return dup[i] < dup[j] })
	return dup
}

// Unwired returns the non-direct outputs with no frame position.
func (w *Wiring) Unwired() []signal.Output {
	var un []signal.Output
	for _, out := range signal.Outputs() {
		if !out.Direct() && len(w.byOutput[out]) == 0 {
			un = append(un, out)
		}
	}
	return un
}

func (w *Wiring) String() string {
	var sb strings.Builder
	for i, out := range w.positions {
		if i > 0 {
			if i%8 == 0 {
				sb.WriteString(" | ")
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(out.String())
	}
	return sb.String()
}

// Schematic follows the register pin labels on the board. Register 3
// (digit selects) is shifted first and register 1 last; within a register
// Q7 is shifted first.
//
//	register 1 Q0..Q7: SEG_F SEG_A BCD_D BCD_B BCD_A BCD_C SEG_G !ALARM
//	register 2 Q0..Q7: SEG_D SEG_C SEG_B SEG_E !LMS !LML !LSS !LSL
//	register 3 Q0..Q7: !DMX8 !DMX6 !DMX4 !DMX2 !DMX1 !DMX3 !DMX5 !DMX7
var Schematic = MustWiring("schematic", []signal.Output{
	signal.DMX7, signal.DMX5, signal.DMX3, signal.DMX1,
	signal.DMX2, signal.DMX4, signal.DMX6, signal.DMX8,

	signal.LSL, signal.LSS, signal.LML, signal.LMS,
	signal.SEGE, signal.SEGB, signal.SEGC, signal.SEGD,

	signal.ALARM, signal.SEGG, signal.BCDC, signal.BCDA,
	signal.BCDB, signal.BCDD, signal.SEGA, signal.SEGF,
})

// Firmware is the sequence shifted by firmware 0.1. Its register 1 slots
// labelled BCD C, A, B, D carry SEG_C, SEG_A, SEG_B, SEG_D instead, so those
// segments appear twice and the BCD outputs never reach the board. Kept as
// an electrical contract for boards flashed with that firmware.
var Firmware = MustWiring("firmware", []signal.Output{
	signal.DMX7, signal.DMX5, signal.DMX3, signal.DMX1,
	signal.DMX2, signal.DMX4, signal.DMX6, signal.DMX8,

	signal.LSL, signal.LSS, signal.LML, signal.LMS,
	signal.SEGE, signal.SEGB, signal.SEGC, signal.SEGD,

	signal.ALARM, signal.SEGG, signal.SEGC, signal.SEGA,
	signal.SEGB, signal.SEGD, signal.SEGA, signal.SEGF,
},
	AllowDuplicates(signal.SEGA, signal.SEGB, signal.SEGC, signal.SEGD),
	AllowOmitted(signal.BCDA, signal.BCDB, signal.BCDC, signal.BCDD),
)

var tables = map[string]*Wiring{
	Schematic.Name(): Schematic,
	Firmware.Name():  Firmware,
}

// Lookup returns a built-in table by name.
func Lookup(name string) (*Wiring, error) {
	w, ok := tables[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown wiring %q (want schematic or firmware)", name)
	}
	return w, nil
}
