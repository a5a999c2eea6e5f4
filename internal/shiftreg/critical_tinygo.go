//go:build tinygo

package shiftreg

import "runtime/interrupt"

type criticalState = interrupt.State

// enterCritical disables interrupts so no handler can touch the data or
// clock lines between a data write and its clock pulse.
func enterCritical() criticalState {
	return interrupt.Disable()
}

func exitCritical(state criticalState) {
	interrupt.Restore(state)
}
