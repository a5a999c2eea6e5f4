// Package logic is the seam between the pin layer and the clock's
// application logic. Timekeeping, stopwatch, alarm and mode selection live
// behind the Logic interface; the built-ins here exist for bring-up.
package logic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sweeney/mh106/internal/signal"
)

// Logic computes the output signals from one input sample.
// An error aborts the cycle before anything reaches the pins.
type Logic interface {
	Evaluate(in signal.InputSnapshot) (signal.OutputSnapshot, error)
}

// Func adapts a plain function to Logic.
type Func func(in signal.InputSnapshot) (signal.OutputSnapshot, error)

// Evaluate calls f(in).
func (f Func) Evaluate(in signal.InputSnapshot) (signal.OutputSnapshot, error) {
	return f(in)
}

// Blank drives every output off.
var Blank = Func(func(signal.InputSnapshot) (signal.OutputSnapshot, error) {
	return signal.AllOutputs(false), nil
})

// LampTest drives every output on, lighting all segments, digits and
// indicators at once.
var LampTest = Func(func(signal.InputSnapshot) (signal.OutputSnapshot, error) {
	return signal.AllOutputs(true), nil
})

var builtins = map[string]Logic{
	"blank":    Blank,
	"lamptest": LampTest,
}

// Names lists the built-in logic names.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a built-in by name.
func Lookup(name string) (Logic, error) {
	l, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown logic %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return l, nil
}
