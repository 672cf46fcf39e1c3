//go:build linux

package hardware

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"

	evdev "github.com/holoplot/go-evdev"
)

// EvdevAdapter reads devices from the Linux input subsystem.
type EvdevAdapter struct{}

// NewEvdevAdapter returns the Linux evdev adapter.
func NewEvdevAdapter() *EvdevAdapter {
	return &EvdevAdapter{}
}

// Enumerate opens every /dev/input/event* node that can be opened.
// Permission errors on individual nodes are skipped.
func (a *EvdevAdapter) Enumerate() ([]Device, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("listing input devices: %w", err)
	}

	devices := make([]Device, 0, len(paths))
	for _, p := range paths {
		d, err := a.Open(p.Path)
		if err != nil {
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Open opens the device node at path and reads its identity.
func (a *EvdevAdapter) Open(path string) (Device, error) {
	raw, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	d := &evdevDevice{dev: raw, path: path}

	// Identity lookups are best-effort; missing values stay empty like the kernel reports them.
	if name, err := raw.Name(); err == nil {
		d.name = name
	}
	if phys, err := raw.PhysicalLocation(); err == nil {
		d.phys = phys
	}
	major, minor, patch := raw.DriverVersion()
	d.driver = DriverVersion{Major: major, Minor: minor, Patch: patch}
	if id, err := raw.InputID(); err == nil {
		d.id = InputID{BusType: id.BusType, Vendor: id.Vendor, Product: id.Product, Version: id.Version}
	}
	return d, nil
}

type evdevDevice struct {
	dev    *evdev.InputDevice
	path   string
	name   string
	phys   string
	driver DriverVersion
	id     InputID

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (d *evdevDevice) Name() string                 { return d.name }
func (d *evdevDevice) PhysicalPath() string         { return d.phys }
func (d *evdevDevice) DriverVersion() DriverVersion { return d.driver }
func (d *evdevDevice) InputID() InputID             { return d.id }

func (d *evdevDevice) Supported(t EventType) []Capability {
	codes := d.dev.CapableEvents(evdev.EvType(t))
	caps := make([]Capability, 0, len(codes))
	for _, c := range codes {
		caps = append(caps, Capability{
			Code: uint16(c),
			Name: evdev.CodeName(evdev.EvType(t), c),
		})
	}
	return caps
}

func (d *evdevDevice) EventStream() (EventStream, error) {
	return &evdevStream{dev: d}, nil
}

// SendEvents writes each event in order. Writes are serialised per handle.
func (d *evdevDevice) SendEvents(events []Event) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	for _, ev := range events {
		err := d.dev.WriteOne(&evdev.InputEvent{
			Type:  evdev.EvType(ev.Type),
			Code:  evdev.EvCode(ev.Code),
			Value: ev.Value,
		})
		if err != nil {
			return fmt.Errorf("writing %s code %d to %s: %w", ev.Type, ev.Code, d.path, err)
		}
	}
	return nil
}

func (d *evdevDevice) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.dev.Close()
	})
	return d.closeErr
}

type evdevStream struct {
	dev *evdevDevice
}

// Next reads one event. A closed file or a vanished device ends the stream.
func (s *evdevStream) Next() (Event, error) {
	ev, err := s.dev.dev.ReadOne()
	if err != nil {
		if errors.Is(err, os.ErrClosed) || errors.Is(err, syscall.ENODEV) || errors.Is(err, io.EOF) {
			return Event{}, io.EOF
		}
		return Event{}, err
	}
	return Event{Type: EventType(ev.Type), Code: uint16(ev.Code), Value: ev.Value}, nil
}

func (s *evdevStream) Close() error {
	return s.dev.Close()
}
