//go:build !linux && !tinygo

package gpio

import "errors"

// DefaultChip is the GPIO character device holding the header pins.
const DefaultChip = "gpiochip0"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// CdevBoard is not available on non-Linux platforms.
type CdevBoard struct{}

// OpenCdev returns an error on non-Linux platforms.
func OpenCdev(chipName string) (*CdevBoard, error) {
	return nil, errUnsupported
}

// Lines returns an empty pin set.
func (b *CdevBoard) Lines() Lines { return Lines{} }

// Close is a no-op on non-Linux platforms.
func (b *CdevBoard) Close() error { return nil }

// PeriphBoard is not available on non-Linux platforms.
type PeriphBoard struct{}

// OpenPeriph returns an error on non-Linux platforms.
func OpenPeriph() (*PeriphBoard, error) {
	return nil, errUnsupported
}

// Lines returns an empty pin set.
func (b *PeriphBoard) Lines() Lines { return Lines{} }

// Close is a no-op on non-Linux platforms.
func (b *PeriphBoard) Close() error { return nil }
