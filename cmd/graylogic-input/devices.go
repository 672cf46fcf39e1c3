package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/nerrad567/gray-logic-input/internal/bridges/input"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

var (
	deviceName = color.New(color.FgCyan, color.Bold)
	dimText    = color.New(color.Faint)
	warnText   = color.New(color.FgYellow)
)

// listDevices prints every enumerable device with a count per feature category.
func listDevices(w io.Writer, adapter hardware.Adapter) error {
	devices, err := adapter.Enumerate()
	if err != nil {
		return fmt.Errorf("enumerating devices: %w", err)
	}
	defer func() {
		for _, d := range devices {
			d.Close() //nolint:errcheck // read-only listing
		}
	}()

	if len(devices) == 0 {
		warnText.Fprintln(w, "no input devices found (is the user in the input group?)")
		return nil
	}

	for _, d := range devices {
		deviceName.Fprintf(w, "%s\n", d.Name())
		dimText.Fprintf(w, "  phys:   %s\n", d.PhysicalPath())
		id := d.InputID()
		dimText.Fprintf(w, "  id:     bus=%04x vendor=%04x product=%04x version=%04x\n", id.BusType, id.Vendor, id.Product, id.Version)
		dimText.Fprintf(w, "  driver: %s\n", d.DriverVersion())
		for _, c := range input.Categories {
			if n := len(d.Supported(c.EventType())); n > 0 {
				fmt.Fprintf(w, "  %-14s %d\n", c.String()+":", n)
			}
		}
	}
	return nil
}
