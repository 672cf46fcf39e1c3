package input

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

// Managers owns every live DeviceBinding and RoutingBehaviour.
//
// It implements graph.Listener: register it on the store and nodes and
// edges are attached as they appear and detached as they go.
//
// Thread Safety: All methods are safe for concurrent use.
type Managers struct {
	adapter      hardware.Adapter
	pollInterval time.Duration

	devices    *registry[uuid.UUID, *DeviceBinding]
	behaviours map[BehaviourKind]*registry[graph.EdgeKey, *RoutingBehaviour]

	// Tracks device goroutines so shutdown can wait for them.
	wg sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex
}

// ManagersOptions holds configuration for creating the managers.
type ManagersOptions struct {
	// Adapter is the hardware adapter device bindings resolve against.
	Adapter hardware.Adapter

	// PollInterval is passed to every DeviceBinding.
	PollInterval time.Duration

	// Logger is optional.
	Logger Logger
}

var _ graph.Listener = (*Managers)(nil)

// NewManagers creates empty managers.
func NewManagers(opts ManagersOptions) (*Managers, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("adapter is required")
	}

	m := &Managers{
		adapter:      opts.Adapter,
		pollInterval: opts.PollInterval,
		devices:      newRegistry[uuid.UUID, *DeviceBinding](),
		behaviours:   make(map[BehaviourKind]*registry[graph.EdgeKey, *RoutingBehaviour], len(RoutingKinds)),
		logger:       orNoop(opts.Logger),
	}
	for _, k := range RoutingKinds {
		m.behaviours[k] = newRegistry[graph.EdgeKey, *RoutingBehaviour]()
	}
	return m, nil
}

// SetLogger sets the logger for the managers.
func (m *Managers) SetLogger(logger Logger) {
	m.loggerMu.Lock()
	m.logger = orNoop(logger)
	m.loggerMu.Unlock()
}

func (m *Managers) log() Logger {
	m.loggerMu.RLock()
	defer m.loggerMu.RUnlock()
	return m.logger
}

// AttachDevice binds node to its hardware. Any live binding for the same
// node is detached first. On failure nothing is registered.
func (m *Managers) AttachDevice(node *graph.Node) error {
	if m.DetachDevice(node.ID) {
		m.log().Debug("replacing device binding", "node_id", node.ID)
	}

	b, err := Bind(node, BindOptions{
		Adapter:      m.adapter,
		PollInterval: m.pollInterval,
		Logger:       m.log(),
	})
	if err != nil {
		m.log().Warn("device bind failed", "node_id", node.ID, "error", err)
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		<-b.Done()
	}()

	if old, had := m.devices.put(node.ID, b); had {
		old.Close()
	}
	m.log().Info("device bound", "node_id", node.ID, "physical_path", b.PhysicalPath())
	return nil
}

// DetachDevice closes and removes the binding for id. Returns false if none
// was live.
func (m *Managers) DetachDevice(id uuid.UUID) bool {
	b, ok := m.devices.take(id)
	if !ok {
		return false
	}
	b.Close()
	m.log().Info("device unbound", "node_id", id, "physical_path", b.PhysicalPath())
	return true
}

// AttachBehaviour attaches the routing behaviour for edge. Any live behaviour
// for the same edge key is detached first.
func (m *Managers) AttachBehaviour(edge *graph.Edge) error {
	kind := ParseBehaviourKind(edge.Type())
	reg, ok := m.behaviours[kind]
	if !ok {
		return fmt.Errorf("%w: edge type %q", ErrUnknownBehaviour, edge.Type())
	}

	if old, had := reg.take(edge.Key); had {
		old.Close()
	}

	r, err := Attach(edge, m.log())
	if err != nil {
		m.log().Warn("behaviour attach failed", "edge", edge.Key.String(), "error", err)
		return err
	}

	if old, had := reg.put(edge.Key, r); had {
		old.Close()
	}
	m.log().Debug("behaviour attached", "kind", kind.String(), "edge", edge.Key.String())
	return nil
}

// DetachBehaviour removes the behaviour for key from the registry of its
// kind. Returns false if none was live.
func (m *Managers) DetachBehaviour(key graph.EdgeKey) bool {
	reg, ok := m.behaviours[ParseBehaviourKind(key.Type)]
	if !ok {
		return false
	}
	r, ok := reg.take(key)
	if !ok {
		return false
	}
	r.Close()
	m.log().Debug("behaviour detached", "edge", key.String())
	return true
}

// DetachAllForKey removes the behaviour for key from every kind's registry.
func (m *Managers) DetachAllForKey(key graph.EdgeKey) int {
	n := 0
	for _, kind := range RoutingKinds {
		if r, ok := m.behaviours[kind].take(key); ok {
			r.Close()
			n++
		}
	}
	return n
}

// DetachAllForID removes the device binding for id and every behaviour on an
// edge touching id.
func (m *Managers) DetachAllForID(id uuid.UUID) int {
	n := 0
	for _, kind := range RoutingKinds {
		reg := m.behaviours[kind]
		for _, r := range reg.values() {
			k := r.Key()
			if k.Outbound != id && k.Inbound != id {
				continue
			}
			if r, ok := reg.take(k); ok {
				r.Close()
				n++
			}
		}
	}
	if m.DetachDevice(id) {
		n++
	}
	return n
}

// Close detaches everything. Behaviours go first so no routing runs against
// a stopping device.
func (m *Managers) Close() {
	for _, kind := range RoutingKinds {
		for _, r := range m.behaviours[kind].takeAll() {
			r.Close()
		}
	}
	for _, b := range m.devices.takeAll() {
		b.Close()
	}
}

// Wait blocks until every device goroutine started by the managers has
// exited, or the timeout passes. Returns false on timeout.
func (m *Managers) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// IsDeviceBound reports whether a binding is live for id.
func (m *Managers) IsDeviceBound(id uuid.UUID) bool {
	return m.devices.has(id)
}

// IsBehaviourAttached reports whether a behaviour is live for key.
func (m *Managers) IsBehaviourAttached(key graph.EdgeKey) bool {
	reg, ok := m.behaviours[ParseBehaviourKind(key.Type)]
	return ok && reg.has(key)
}

// DeviceCount returns the number of live device bindings.
func (m *Managers) DeviceCount() int {
	return m.devices.len()
}

// BehaviourCount returns the number of live routing behaviours.
func (m *Managers) BehaviourCount() int {
	n := 0
	for _, reg := range m.behaviours {
		n += reg.len()
	}
	return n
}

// DeviceBindingInfo describes a live device binding.
type DeviceBindingInfo struct {
	NodeID       uuid.UUID `json:"node_id"`
	PhysicalPath string    `json:"physical_path"`
	EventsRouted uint64    `json:"events_routed"`
	CommandsSent uint64    `json:"commands_sent"`
}

// BehaviourInfo describes a live routing behaviour.
type BehaviourInfo struct {
	Kind     string    `json:"kind"`
	Outbound uuid.UUID `json:"outbound"`
	Inbound  uuid.UUID `json:"inbound"`
}

// Bindings is a point-in-time listing of everything attached.
type Bindings struct {
	Devices    []DeviceBindingInfo `json:"devices"`
	Behaviours []BehaviourInfo     `json:"behaviours"`
}

// Snapshot lists live bindings, sorted for stable output.
func (m *Managers) Snapshot() Bindings {
	var out Bindings

	for _, b := range m.devices.values() {
		out.Devices = append(out.Devices, DeviceBindingInfo{
			NodeID:       b.NodeID(),
			PhysicalPath: b.PhysicalPath(),
			EventsRouted: b.EventsRouted(),
			CommandsSent: b.CommandsSent(),
		})
	}
	slices.SortFunc(out.Devices, func(a, b DeviceBindingInfo) int {
		return cmp.Compare(a.NodeID.String(), b.NodeID.String())
	})

	for _, kind := range RoutingKinds {
		for _, r := range m.behaviours[kind].values() {
			out.Behaviours = append(out.Behaviours, BehaviourInfo{
				Kind:     kind.String(),
				Outbound: r.Key().Outbound,
				Inbound:  r.Key().Inbound,
			})
		}
	}
	slices.SortFunc(out.Behaviours, func(a, b BehaviourInfo) int {
		return cmp.Or(
			cmp.Compare(a.Kind, b.Kind),
			cmp.Compare(a.Outbound.String(), b.Outbound.String()),
			cmp.Compare(a.Inbound.String(), b.Inbound.String()),
		)
	})
	return out
}

// NodeAdded binds input_device nodes.
func (m *Managers) NodeAdded(n *graph.Node) {
	switch ParseBehaviourKind(n.Type) {
	case BehaviourDeviceBridge:
		m.AttachDevice(n) //nolint:errcheck // logged by AttachDevice
	case BehaviourUnknown, BehaviourKeyEvent, BehaviourLEDEvent, BehaviourRelativeAxisEvent,
		BehaviourAbsoluteAxisEvent, BehaviourSwitchEvent, BehaviourSendKeyEvent, BehaviourSendLEDEvent:
	}
}

// NodeRemoved unbinds input_device nodes.
func (m *Managers) NodeRemoved(n *graph.Node) {
	switch ParseBehaviourKind(n.Type) {
	case BehaviourDeviceBridge:
		m.DetachDevice(n.ID)
	case BehaviourUnknown, BehaviourKeyEvent, BehaviourLEDEvent, BehaviourRelativeAxisEvent,
		BehaviourAbsoluteAxisEvent, BehaviourSwitchEvent, BehaviourSendKeyEvent, BehaviourSendLEDEvent:
	}
}

// NodeRemovedByID detaches everything tied to id.
func (m *Managers) NodeRemovedByID(id uuid.UUID) {
	m.DetachAllForID(id)
}

// EdgeAdded attaches the routing behaviour for e.
func (m *Managers) EdgeAdded(e *graph.Edge) {
	switch ParseBehaviourKind(e.Type()) {
	case BehaviourKeyEvent, BehaviourLEDEvent, BehaviourRelativeAxisEvent, BehaviourAbsoluteAxisEvent,
		BehaviourSwitchEvent, BehaviourSendKeyEvent, BehaviourSendLEDEvent:
		m.AttachBehaviour(e) //nolint:errcheck // logged by AttachBehaviour
	case BehaviourUnknown, BehaviourDeviceBridge:
	}
}

// EdgeRemoved detaches the routing behaviour for e.
func (m *Managers) EdgeRemoved(e *graph.Edge) {
	switch ParseBehaviourKind(e.Type()) {
	case BehaviourKeyEvent, BehaviourLEDEvent, BehaviourRelativeAxisEvent, BehaviourAbsoluteAxisEvent,
		BehaviourSwitchEvent, BehaviourSendKeyEvent, BehaviourSendLEDEvent:
		m.DetachBehaviour(e.Key)
	case BehaviourUnknown, BehaviourDeviceBridge:
	}
}

// EdgeRemovedByKey detaches every behaviour registered under key.
func (m *Managers) EdgeRemovedByKey(key graph.EdgeKey) {
	m.DetachAllForKey(key)
}
