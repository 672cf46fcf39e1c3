// Package hardware abstracts access to human-input devices.
//
// An Adapter enumerates and opens devices. A Device reports its identity
// and capabilities, yields a blocking EventStream of typed events, and
// accepts output events (LED changes, synthesized key presses).
//
// On Linux the EvdevAdapter reads /dev/input/event* through
// github.com/holoplot/go-evdev. Other platforms get an adapter whose every
// call fails with ErrUnsupported. Tests use package hardwaretest.
//
// Device write paths may be called concurrently from several goroutines;
// implementations must tolerate that.
package hardware
