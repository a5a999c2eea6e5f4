//go:build !tinygo

package shiftreg

// criticalState is a placeholder for interrupt state on regular Go.
type criticalState uintptr

// enterCritical is a no-op on regular Go; the driver mutex already excludes
// other goroutines from the shared lines.
func enterCritical() criticalState {
	return 0
}

func exitCritical(criticalState) {}
