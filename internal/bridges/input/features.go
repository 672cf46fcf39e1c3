package input

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
	"github.com/nerrad567/gray-logic-input/internal/identity"
)

// labelRoot prefixes every node label.
const labelRoot = "/org/inexor/input"

// unnamedDevice is used when the kernel reports no device name.
const unnamedDevice = "Unnamed Device"

// Materializer creates device and feature nodes and the edges between them.
type Materializer struct {
	store      *graph.Store
	aggregates bool
	logger     Logger
}

// NewMaterializer creates a materializer on store. With aggregates set every
// feature is also attached to its device-agnostic "any-device" node.
func NewMaterializer(store *graph.Store, aggregates bool, logger Logger) *Materializer {
	return &Materializer{store: store, aggregates: aggregates, logger: orNoop(logger)}
}

// Feature names one capability of a device.
type Feature struct {
	Category Category
	Code     uint16
	Name     string
}

// FeatureResult reports what materializing one feature did.
type FeatureResult struct {
	// Scoped is the device-scoped node, nil if its creation failed.
	Scoped *graph.Node
	// Aggregate is the any-device node, nil if disabled or its creation failed.
	Aggregate *graph.Node

	NodesCreated int
	EdgesCreated int
	Conflicts    int
}

func (r *FeatureResult) add(o FeatureResult) {
	r.NodesCreated += o.NodesCreated
	r.EdgesCreated += o.EdgesCreated
	r.Conflicts += o.Conflicts
}

// Slug lower-cases s and replaces dashes and spaces with underscores.
func Slug(s string) string {
	return strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(s))
}

// DeviceLabel returns the label of a device node.
func DeviceLabel(deviceName string) string {
	return labelRoot + "/" + Slug(deviceName)
}

// FeatureLabel returns the label of a feature node.
func FeatureLabel(deviceName string, c Category, featureName string) string {
	return DeviceLabel(deviceName) + "/" + c.String() + "/" + Slug(featureName)
}

// FeatureName returns the symbolic name of a capability, falling back to
// "<EV_TYPE>_<code>" when the code has no name. Lookup tables report an
// unnamed code as "unknown" in either case.
func FeatureName(c Category, capability hardware.Capability) string {
	if capability.Name != "" && !strings.EqualFold(capability.Name, "unknown") {
		return capability.Name
	}
	return fmt.Sprintf("%s_%d", c.EventType(), capability.Code)
}

// DeviceSpec builds the node spec for a device.
func DeviceSpec(dev hardware.Device) graph.NodeSpec {
	name := dev.Name()
	if name == "" {
		name = unnamedDevice
	}
	phys := dev.PhysicalPath()
	id := dev.InputID()

	return graph.NodeSpec{
		ID:   identity.DeviceID(name, phys),
		Type: DeviceNodeType,
		Properties: map[string]any{
			PropName:          name,
			PropLabel:         DeviceLabel(name),
			PropPhysicalPath:  phys,
			PropDriverVersion: dev.DriverVersion().String(),
			PropVendor:        int64(id.Vendor),
			PropProduct:       int64(id.Product),
			PropVersion:       int64(id.Version),
			PropEvent:         map[string]any{},
			PropSendEvent:     map[string]any{},
		},
	}
}

// EnsureDevice creates the device node, or returns the existing node with
// the same identity. created reports which.
func (m *Materializer) EnsureDevice(ctx context.Context, dev hardware.Device) (node *graph.Node, created bool, err error) {
	spec := DeviceSpec(dev)
	if existing, ok := m.store.Node(spec.ID); ok {
		return existing, false, nil
	}

	node, err = m.store.CreateNode(ctx, spec)
	if errors.Is(err, graph.ErrCreationConflict) {
		// Lost a race with another creator.
		if existing, ok := m.store.Node(spec.ID); ok {
			return existing, false, nil
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("creating device node %s: %w", spec.ID, err)
	}
	return node, true, nil
}

// Materialize creates the device-scoped node for f with its routing edges,
// and the aggregate node and edges if enabled. Failures are logged and
// counted; one failing feature never stops the others.
func (m *Materializer) Materialize(ctx context.Context, device *graph.Node, f Feature) FeatureResult {
	var res FeatureResult

	deviceName, _ := device.GetString(PropName)
	phys, _ := device.GetString(PropPhysicalPath)

	scopedName := identity.UniqueName(deviceName, phys, f.Name)
	scoped, err := m.store.CreateNode(ctx, m.featureSpec(
		identity.FeatureID(deviceName, phys, f.Name),
		scopedName,
		FeatureLabel(deviceName, f.Category, f.Name),
		f,
	))
	if err != nil {
		m.logger.Warn("feature node creation failed", "feature", scopedName, "error", err)
		res.Conflicts++
	} else {
		res.Scoped = scoped
		res.NodesCreated++
		res.add(m.connect(ctx, device, scoped, f.Category))
	}

	if m.aggregates {
		agg, aggRes := m.materializeAggregate(ctx, device, f)
		res.Aggregate = agg
		res.add(aggRes)
	}
	return res
}

// materializeAggregate reuses the any-device node if it exists and only adds
// this device's edges to it.
func (m *Materializer) materializeAggregate(ctx context.Context, device *graph.Node, f Feature) (*graph.Node, FeatureResult) {
	var out FeatureResult

	id := identity.AggregateID(f.Name)
	agg, ok := m.store.Node(id)
	if !ok {
		name := identity.UniqueName(identity.AnyDevice, f.Name)
		created, err := m.store.CreateNode(ctx, m.featureSpec(
			id,
			name,
			FeatureLabel(identity.AnyDevice, f.Category, f.Name),
			f,
		))
		if err != nil {
			m.logger.Warn("aggregate node creation failed", "feature", name, "error", err)
			out.Conflicts++
			return nil, out
		}
		agg = created
		out.NodesCreated++
	}

	out.add(m.connect(ctx, device, agg, f.Category))
	return agg, out
}

func (m *Materializer) featureSpec(id uuid.UUID, name, label string, f Feature) graph.NodeSpec {
	c := f.Category
	props := map[string]any{
		PropName:          name,
		PropLabel:         label,
		c.String():        f.Name,
		c.Discriminator(): int64(f.Code),
		PropState:         c.ZeroState(),
	}
	if c.Writable() {
		props[c.Command()] = false
	}
	return graph.NodeSpec{ID: id, Type: c.NodeType(), Properties: props}
}

// connect creates the read edge device -> feature and, for writable
// categories, the write edge feature -> device.
func (m *Materializer) connect(ctx context.Context, device, feature *graph.Node, c Category) FeatureResult {
	var res FeatureResult

	keys := []graph.EdgeKey{{Outbound: device.ID, Type: c.EventKind(), Inbound: feature.ID}}
	if c.Writable() {
		keys = append(keys, graph.EdgeKey{Outbound: feature.ID, Type: c.SendKind(), Inbound: device.ID})
	}

	for _, key := range keys {
		if _, err := m.store.CreateEdge(ctx, key); err != nil {
			m.logger.Warn("edge creation failed", "edge", key.String(), "error", err)
			res.Conflicts++
			continue
		}
		res.EdgesCreated++
	}
	return res
}
