// Package hardwaretest provides an in-memory hardware.Adapter.
//
// A Device is the simulated physical device. Every Enumerate or Open hands
// out a fresh handle onto it, so closing one handle never affects another,
// matching how file descriptors on a real event node behave.
package hardwaretest

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

const streamBuffer = 1024

// Adapter is a fake hardware.Adapter over a fixed set of devices.
type Adapter struct {
	mu           sync.Mutex
	devices      []*Device
	enumerateErr error
	enumerations int
}

// NewAdapter returns an adapter exposing the given devices.
func NewAdapter(devices ...*Device) *Adapter {
	return &Adapter{devices: devices}
}

// Add plugs in another device.
func (a *Adapter) Add(d *Device) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.devices = append(a.devices, d)
}

// FailEnumerate makes every following Enumerate return err.
func (a *Adapter) FailEnumerate(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enumerateErr = err
}

// Enumerations returns how many times Enumerate has been called.
func (a *Adapter) Enumerations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enumerations
}

func (a *Adapter) Enumerate() ([]hardware.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.enumerations++
	if a.enumerateErr != nil {
		return nil, a.enumerateErr
	}

	out := make([]hardware.Device, 0, len(a.devices))
	for _, d := range a.devices {
		out = append(out, d.open())
	}
	return out, nil
}

func (a *Adapter) Open(path string) (hardware.Device, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, d := range a.devices {
		if d.Path == path {
			return d.open(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", hardware.ErrDeviceNotFound, path)
}

type item struct {
	event hardware.Event
	err   error
}

// Device is a simulated input device.
type Device struct {
	Path          string
	Name          string
	PhysicalPath  string
	DriverVersion hardware.DriverVersion
	InputID       hardware.InputID

	mu       sync.Mutex
	caps     map[hardware.EventType][]hardware.Capability
	streams  []*stream
	pending  []item
	ended    bool
	sent     []hardware.Event
	sendErr  error
	handles  int
	sendHook func([]hardware.Event)
}

// NewDevice returns a device with no capabilities and driver version 1.0.0.
func NewDevice(path, name, physicalPath string) *Device {
	return &Device{
		Path:          path,
		Name:          name,
		PhysicalPath:  physicalPath,
		DriverVersion: hardware.DriverVersion{Major: 1},
		caps:          make(map[hardware.EventType][]hardware.Capability),
	}
}

// Keyboard returns a device with a few keys and the three lock LEDs.
func Keyboard(path, name, physicalPath string) *Device {
	d := NewDevice(path, name, physicalPath)
	d.InputID = hardware.InputID{BusType: 0x03, Vendor: 0x046d, Product: 0xc52b, Version: 0x0111}
	d.WithCapabilities(hardware.EventKey,
		hardware.Capability{Code: 28, Name: "KEY_ENTER"},
		hardware.Capability{Code: 30, Name: "KEY_A"},
		hardware.Capability{Code: 48, Name: "KEY_B"},
	)
	d.WithCapabilities(hardware.EventLED,
		hardware.Capability{Code: 0, Name: "LED_NUML"},
		hardware.Capability{Code: 1, Name: "LED_CAPSL"},
		hardware.Capability{Code: 2, Name: "LED_SCROLLL"},
	)
	return d
}

// WithCapabilities adds supported codes for a category.
func (d *Device) WithCapabilities(t hardware.EventType, caps ...hardware.Capability) *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.caps[t] = append(d.caps[t], caps...)
	return d
}

// Emit delivers events to every open stream. With no stream open the events
// are queued for the next one.
func (d *Device) Emit(events ...hardware.Event) {
	for _, ev := range events {
		d.push(item{event: ev})
	}
}

// Fail delivers a transient read error.
func (d *Device) Fail(err error) {
	d.push(item{err: err})
}

func (d *Device) push(it item) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ended {
		return
	}
	if len(d.streams) == 0 {
		d.pending = append(d.pending, it)
		return
	}
	for _, s := range d.streams {
		select {
		case s.items <- it:
		case <-s.done:
		}
	}
}

// End terminates every open stream with io.EOF, as if the device vanished.
func (d *Device) End() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ended = true
	for _, s := range d.streams {
		s.end()
	}
	d.streams = nil
}

// Sent returns a copy of every event written to the device.
func (d *Device) Sent() []hardware.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sent)
}

// FailSend makes following writes return err.
func (d *Device) FailSend(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sendErr = err
}

// OnSend registers a hook called after each successful write.
func (d *Device) OnSend(fn func([]hardware.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sendHook = fn
}

// StreamCount returns the number of open event streams.
func (d *Device) StreamCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.streams)
}

// OpenHandles returns the number of handles not yet closed.
func (d *Device) OpenHandles() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handles
}

func (d *Device) open() *handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handles++
	return &handle{dev: d}
}

func (d *Device) removeStream(s *stream) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streams = slices.DeleteFunc(d.streams, func(other *stream) bool { return other == s })
}

// handle is one open file onto a Device.
type handle struct {
	dev *Device

	mu     sync.Mutex
	closed bool
}

func (h *handle) Name() string                          { return h.dev.Name }
func (h *handle) PhysicalPath() string                  { return h.dev.PhysicalPath }
func (h *handle) DriverVersion() hardware.DriverVersion { return h.dev.DriverVersion }
func (h *handle) InputID() hardware.InputID             { return h.dev.InputID }

func (h *handle) Supported(t hardware.EventType) []hardware.Capability {
	h.dev.mu.Lock()
	defer h.dev.mu.Unlock()
	return slices.Clone(h.dev.caps[t])
}

func (h *handle) EventStream() (hardware.EventStream, error) {
	if h.isClosed() {
		return nil, hardware.ErrClosed
	}

	s := &stream{
		h:     h,
		items: make(chan item, streamBuffer),
		done:  make(chan struct{}),
	}

	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ended {
		s.end()
		return s, nil
	}
	for _, it := range d.pending {
		s.items <- it
	}
	d.pending = nil
	d.streams = append(d.streams, s)
	return s, nil
}

func (h *handle) SendEvents(events []hardware.Event) error {
	if h.isClosed() {
		return hardware.ErrClosed
	}

	d := h.dev
	d.mu.Lock()
	if d.sendErr != nil {
		err := d.sendErr
		d.mu.Unlock()
		return err
	}
	d.sent = append(d.sent, events...)
	hook := d.sendHook
	d.mu.Unlock()

	if hook != nil {
		hook(slices.Clone(events))
	}
	return nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	h.dev.mu.Lock()
	h.dev.handles--
	h.dev.mu.Unlock()
	return nil
}

func (h *handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

type stream struct {
	h     *handle
	items chan item
	done  chan struct{}

	endOnce   sync.Once
	closeOnce sync.Once
}

// end marks the stream finished; Next drains what is buffered then
// returns io.EOF. Called with the device lock held.
func (s *stream) end() {
	s.endOnce.Do(func() { close(s.items) })
}

func (s *stream) Next() (hardware.Event, error) {
	select {
	case it, ok := <-s.items:
		if !ok {
			return hardware.Event{}, io.EOF
		}
		return it.event, it.err
	case <-s.done:
		return hardware.Event{}, io.EOF
	}
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.h.dev.removeStream(s)
	})
	return s.h.Close()
}
