package input

import (
	"context"
	"fmt"
	"slices"

	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

// DeviceConfig selects one device by path and the categories to materialize.
type DeviceConfig struct {
	Name       string
	Path       string
	Active     bool
	Categories []Category
}

// DiscoveryOptions holds configuration for discovery.
type DiscoveryOptions struct {
	// Adapter enumerates and opens devices.
	Adapter hardware.Adapter

	// Materializer creates the nodes and edges.
	Materializer *Materializer

	// Autodetect binds every enumerable device with all categories.
	// Devices is ignored when set.
	Autodetect bool

	// Devices lists configured devices.
	Devices []DeviceConfig

	// Logger is optional.
	Logger Logger
}

// Discovery turns present hardware into graph nodes.
type Discovery struct {
	adapter      hardware.Adapter
	materializer *Materializer
	autodetect   bool
	devices      []DeviceConfig
	logger       Logger
}

// DiscoveryReport summarises one discovery run.
type DiscoveryReport struct {
	DevicesFound   int `json:"devices_found"`
	DevicesCreated int `json:"devices_created"`
	DevicesSkipped int `json:"devices_skipped"`
	NodesCreated   int `json:"nodes_created"`
	EdgesCreated   int `json:"edges_created"`
	Conflicts      int `json:"conflicts"`
}

// NewDiscovery creates a discovery run.
func NewDiscovery(opts DiscoveryOptions) (*Discovery, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("adapter is required")
	}
	if opts.Materializer == nil {
		return nil, fmt.Errorf("materializer is required")
	}
	return &Discovery{
		adapter:      opts.Adapter,
		materializer: opts.Materializer,
		autodetect:   opts.Autodetect,
		devices:      opts.Devices,
		logger:       orNoop(opts.Logger),
	}, nil
}

// Run materializes every selected device. A device that cannot be opened is
// logged and skipped. Running again against the same hardware creates no new
// nodes; the repeated creations show up as conflicts.
func (d *Discovery) Run(ctx context.Context) (DiscoveryReport, error) {
	var report DiscoveryReport

	if d.autodetect {
		devices, err := d.adapter.Enumerate()
		if err != nil {
			return report, fmt.Errorf("enumerating devices: %w", err)
		}
		for i, dev := range devices {
			if err := ctx.Err(); err != nil {
				closeAll(devices[i:])
				return report, err
			}
			report.DevicesFound++
			d.materialize(ctx, dev, Categories, &report)
		}
		d.logReport(report)
		return report, nil
	}

	for _, cfg := range d.devices {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !cfg.Active {
			continue
		}

		dev, err := d.adapter.Open(cfg.Path)
		if err != nil {
			d.logger.Error("failed to open input device", "name", cfg.Name, "path", cfg.Path, "error", err)
			report.DevicesSkipped++
			continue
		}
		report.DevicesFound++
		d.materialize(ctx, dev, cfg.Categories, &report)
	}
	d.logReport(report)
	return report, nil
}

func (d *Discovery) materialize(ctx context.Context, dev hardware.Device, categories []Category, report *DiscoveryReport) {
	defer dev.Close() //nolint:errcheck // bindings open their own handle

	node, created, err := d.materializer.EnsureDevice(ctx, dev)
	if err != nil {
		d.logger.Error("failed to create input device node", "name", dev.Name(), "error", err)
		report.DevicesSkipped++
		return
	}
	if created {
		report.DevicesCreated++
		report.NodesCreated++
	}

	for _, c := range Categories {
		if !slices.Contains(categories, c) {
			continue
		}
		for _, capability := range dev.Supported(c.EventType()) {
			res := d.materializer.Materialize(ctx, node, Feature{
				Category: c,
				Code:     capability.Code,
				Name:     FeatureName(c, capability),
			})
			report.NodesCreated += res.NodesCreated
			report.EdgesCreated += res.EdgesCreated
			report.Conflicts += res.Conflicts
		}
	}

	d.logger.Debug("input device materialized", "name", dev.Name(), "physical_path", dev.PhysicalPath(), "node_id", node.ID)
}

func (d *Discovery) logReport(r DiscoveryReport) {
	d.logger.Info("input discovery complete",
		"devices", r.DevicesFound,
		"devices_created", r.DevicesCreated,
		"skipped", r.DevicesSkipped,
		"nodes_created", r.NodesCreated,
		"edges_created", r.EdgesCreated,
		"conflicts", r.Conflicts)
}

func closeAll(devices []hardware.Device) {
	for _, d := range devices {
		d.Close() //nolint:errcheck // abandoning
	}
}
