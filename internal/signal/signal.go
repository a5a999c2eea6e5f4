// Package signal names the logical inputs and outputs of the MH106 clock IC
// and binds them to physical pins.
package signal

import (
	"fmt"
	"strings"
)

// Input identifies one of the 12 control inputs.
type Input int

// Inputs in pin order. GR is bound to GPIO2, STROBE_IN to GPIO13.
const (
	GR Input = iota
	EOSC
	Z
	LSTLSP
	DORY
	MC0
	MC1
	SSTSSP
	NULLAP
	CHODFO
	PHASE
	StrobeIn

	NumInputs = int(iota)
)

var inputNames = [NumInputs]string{
	"GR", "EOSC", "Z", "LST_LSP", "DO_RY", "MC0",
	"MC1", "SST_SSP", "NUL_LAP", "CHOD_FO", "PHASE", "STROBE_IN",
}

// FirstInputPin is the GPIO bound to GR; the rest follow sequentially.
const FirstInputPin = 2

// Valid reports whether i names a catalog input.
func (i Input) Valid() bool { return i >= 0 && int(i) < NumInputs }

// Pin returns the GPIO number the input is wired to.
func (i Input) Pin() int { return FirstInputPin + int(i) }

func (i Input) String() string {
	if !i.Valid() {
		return fmt.Sprintf("Input(%d)", int(i))
	}
	return inputNames[i]
}

// Inputs returns every input in pin order.
func Inputs() []Input {
	in := make([]Input, NumInputs)
	for i := range in {
		in[i] = Input(i)
	}
	return in
}

// ParseInput looks an input up by name, case-insensitively.
func ParseInput(name string) (Input, error) {
	for i, n := range inputNames {
		if strings.EqualFold(n, name) {
			return Input(i), nil
		}
	}
	return 0, fmt.Errorf("unknown input %q", name)
}

// Output identifies one of the 26 logical outputs.
type Output int

// Outputs. All but CAL and STROBE_OUT travel through the shift-register chain.
const (
	ALARM Output = iota
	BCDA
	BCDB
	BCDC
	BCDD
	SEGA
	SEGB
	SEGC
	SEGD
	SEGE
	SEGF
	SEGG
	CAL
	LSS
	LSL
	LMS
	LML
	StrobeOut
	DMX1
	DMX2
	DMX3
	DMX4
	DMX5
	DMX6
	DMX7
	DMX8

	NumOutputs = int(iota)
)

var outputNames = [NumOutputs]string{
	"ALARM", "BCD_A", "BCD_B", "BCD_C", "BCD_D",
	"SEG_A", "SEG_B", "SEG_C", "SEG_D", "SEG_E", "SEG_F", "SEG_G",
	"CAL", "LSS", "LSL", "LMS", "LML", "STROBE_OUT",
	"DMX1", "DMX2", "DMX3", "DMX4", "DMX5", "DMX6", "DMX7", "DMX8",
}

// Valid reports whether o names a catalog output.
func (o Output) Valid() bool { return o >= 0 && int(o) < NumOutputs }

// Direct reports whether o bypasses the shift registers and drives a FET pin.
func (o Output) Direct() bool { return o == CAL || o == StrobeOut }

func (o Output) String() string {
	if !o.Valid() {
		return fmt.Sprintf("Output(%d)", int(o))
	}
	return outputNames[o]
}

// Outputs returns every output in catalog order.
func Outputs() []Output {
	out := make([]Output, NumOutputs)
	for i := range out {
		out[i] = Output(i)
	}
	return out
}

// ParseOutput looks an output up by name, case-insensitively.
func ParseOutput(name string) (Output, error) {
	for i, n := range outputNames {
		if strings.EqualFold(n, name) {
			return Output(i), nil
		}
	}
	return 0, fmt.Errorf("unknown output %q", name)
}

// Output pin definitions (RP2040 GPIO numbering).
const (
	PinLatch      = 16 // shift register latch (register) clock
	PinShiftClock = 15 // shift register clock
	PinData       = 17 // shift register serial data
	PinCAL        = 18 // FET1, !CAL
	PinStrobeOut  = 14 // FET2, !STROBE out
)

// Two-wire bus pins reserved for a real-time-clock peripheral. Not driven.
const (
	PinSDA = 20
	PinSCL = 21
)

// InputPins returns the GPIO numbers of the 12 inputs in catalog order.
func InputPins() []int {
	pins := make([]int, NumInputs)
	for i := range pins {
		pins[i] = Input(i).Pin()
	}
	return pins
}
