package input

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

// Domain errors for the input bridge package.
var (
	// ErrMissingAttribute is returned when a node lacks a property needed to
	// attach (physical path, discriminator, observed property).
	ErrMissingAttribute = errors.New("input: missing attribute")

	// ErrDeviceNotFound is returned when no present device matches a node's
	// physical path. It wraps hardware.ErrDeviceNotFound.
	ErrDeviceNotFound = fmt.Errorf("input: %w", hardware.ErrDeviceNotFound)

	// ErrMalformedPayload is returned when a property value does not have the
	// shape of an event descriptor or command.
	ErrMalformedPayload = errors.New("input: malformed payload")

	// ErrUnknownBehaviour is returned when a type name maps to no behaviour.
	ErrUnknownBehaviour = errors.New("input: unknown behaviour")
)
