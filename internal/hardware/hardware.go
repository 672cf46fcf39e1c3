package hardware

import (
	"errors"
	"fmt"
)

// EventType is the hardware event category code.
type EventType uint16

// Event categories as defined by the Linux input subsystem.
const (
	EventSync         EventType = 0x00
	EventKey          EventType = 0x01
	EventRelativeAxis EventType = 0x02
	EventAbsoluteAxis EventType = 0x03
	EventMisc         EventType = 0x04
	EventSwitch       EventType = 0x05
	EventLED          EventType = 0x11
)

// String returns the kernel name of the category.
func (t EventType) String() string {
	switch t {
	case EventSync:
		return "EV_SYN"
	case EventKey:
		return "EV_KEY"
	case EventRelativeAxis:
		return "EV_REL"
	case EventAbsoluteAxis:
		return "EV_ABS"
	case EventMisc:
		return "EV_MSC"
	case EventSwitch:
		return "EV_SW"
	case EventLED:
		return "EV_LED"
	default:
		return fmt.Sprintf("EV_0x%02x", uint16(t))
	}
}

// Event is a single input or output event.
type Event struct {
	Type  EventType
	Code  uint16
	Value int32
}

// InputID is the bus/vendor/product/version quadruple of a device.
type InputID struct {
	BusType uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// DriverVersion is the evdev driver version of a device.
type DriverVersion struct {
	Major, Minor, Patch int
}

// String formats the version as "major.minor.patch".
func (v DriverVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Capability is one supported code within a category, with its symbolic name.
type Capability struct {
	Code uint16
	Name string
}

// EventStream yields events from one device.
type EventStream interface {
	// Next blocks until an event arrives. It returns io.EOF once the stream
	// has ended (device gone or stream closed); any other error is transient.
	Next() (Event, error)

	// Close releases the stream and unblocks a pending Next.
	Close() error
}

// Device is an open input device.
type Device interface {
	Name() string
	PhysicalPath() string
	DriverVersion() DriverVersion
	InputID() InputID

	// Supported lists the codes the device reports for a category.
	Supported(t EventType) []Capability

	// EventStream starts reading events. The stream takes ownership of the
	// device: closing the stream closes the device.
	EventStream() (EventStream, error)

	// SendEvents writes events to the device.
	SendEvents(events []Event) error

	Close() error
}

// Adapter enumerates and opens devices.
type Adapter interface {
	// Enumerate opens every available device. Devices that fail to open are skipped.
	Enumerate() ([]Device, error)

	// Open opens the device node at path.
	Open(path string) (Device, error)
}

// FindByPhysicalPath enumerates devices and returns the first whose physical
// path matches. All other enumerated devices are closed.
func FindByPhysicalPath(a Adapter, physicalPath string) (Device, error) {
	devices, err := a.Enumerate()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}

	var found Device
	var closeErrs []error
	for _, d := range devices {
		if found == nil && d.PhysicalPath() == physicalPath {
			found = d
			continue
		}
		if err := d.Close(); err != nil {
			closeErrs = append(closeErrs, err)
		}
	}

	if found == nil {
		if len(closeErrs) > 0 {
			return nil, fmt.Errorf("%w: %s (%w)", ErrDeviceNotFound, physicalPath, errors.Join(closeErrs...))
		}
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, physicalPath)
	}
	return found, nil
}
