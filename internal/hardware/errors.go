package hardware

import "errors"

// Domain errors for the hardware package.
var (
	// ErrDeviceNotFound is returned when no device matches a physical path.
	ErrDeviceNotFound = errors.New("hardware: device not found")

	// ErrUnsupported is returned on platforms without an input backend.
	ErrUnsupported = errors.New("hardware: input devices not supported on this platform")

	// ErrClosed is returned by operations on a closed device or stream.
	ErrClosed = errors.New("hardware: closed")
)
