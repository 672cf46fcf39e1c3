package input

import (
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-input/internal/graph"
)

// RoutingBehaviour moves values along one routing edge.
//
// Read-path behaviours observe the outbound device's "event" property and
// update the inbound feature's state. Write-path behaviours observe the
// outbound feature's command property and write a send_event command to the
// inbound device.
type RoutingBehaviour struct {
	kind          BehaviourKind
	key           graph.EdgeKey
	device        *graph.Node
	feature       *graph.Node
	discriminator int64
	logger        Logger

	observed  *graph.Node
	property  string
	handle    graph.Handle
	closeOnce sync.Once
}

// Attach builds the behaviour for edge and subscribes it.
//
// Returns ErrUnknownBehaviour for a non-routing edge type and
// ErrMissingAttribute if the feature lacks its discriminator or the observed
// property does not exist.
func Attach(edge *graph.Edge, logger Logger) (*RoutingBehaviour, error) {
	kind := ParseBehaviourKind(edge.Type())
	if !kind.IsRouting() {
		return nil, fmt.Errorf("%w: edge type %q", ErrUnknownBehaviour, edge.Type())
	}
	c := kind.Category()

	r := &RoutingBehaviour{
		kind:   kind,
		key:    edge.Key,
		logger: orNoop(logger),
	}

	var observer graph.Observer
	if kind.Outbound() {
		r.feature, r.device = edge.Outbound, edge.Inbound
		r.observed, r.property = r.feature, c.Command()
		observer = r.handleCommand
	} else {
		r.device, r.feature = edge.Outbound, edge.Inbound
		r.observed, r.property = r.device, PropEvent
		observer = r.handleEvent
	}

	disc, ok := r.feature.GetInt(c.Discriminator())
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrMissingAttribute, c.Discriminator(), r.feature.ID)
	}
	r.discriminator = disc

	handle, ok := r.observed.Subscribe(r.property, observer)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrMissingAttribute, r.property, r.observed.ID)
	}
	r.handle = handle

	return r, nil
}

// Kind returns the behaviour kind.
func (r *RoutingBehaviour) Kind() BehaviourKind { return r.kind }

// Key returns the edge the behaviour is attached to.
func (r *RoutingBehaviour) Key() graph.EdgeKey { return r.key }

// Close removes the subscription. Safe to call multiple times.
func (r *RoutingBehaviour) Close() {
	r.closeOnce.Do(func() {
		r.observed.Unsubscribe(r.property, r.handle)
	})
}

func (r *RoutingBehaviour) handleEvent(v any) {
	desc, err := ParseEventDescriptor(v)
	if err != nil {
		return
	}
	if desc.Category != r.kind.Category() || desc.Code != r.discriminator {
		return
	}

	switch r.kind {
	case BehaviourKeyEvent:
		// 0 up, 1 down, 2 hold
		r.transition(desc.Value == 0, desc.Value == 1 || desc.Value == 2)
	case BehaviourLEDEvent:
		r.transition(desc.Value == 0, desc.Value == 1)
	case BehaviourRelativeAxisEvent, BehaviourAbsoluteAxisEvent, BehaviourSwitchEvent:
		r.feature.Set(PropState, desc.Value)
	case BehaviourUnknown, BehaviourDeviceBridge, BehaviourSendKeyEvent, BehaviourSendLEDEvent:
	}
}

// transition writes state only when it actually changes.
func (r *RoutingBehaviour) transition(off, on bool) {
	current, _ := r.feature.Get(PropState)
	state, _ := current.(bool)

	switch {
	case off && state:
		r.feature.Set(PropState, false)
	case on && !state:
		r.feature.Set(PropState, true)
	}
}

func (r *RoutingBehaviour) handleCommand(v any) {
	value, ok := v.(bool)
	if !ok {
		return
	}
	if r.discriminator < 0 || r.discriminator > 0xffff {
		r.logger.Warn("discriminator out of range", "edge", r.key.String(), "code", r.discriminator)
		return
	}

	cmd := SendCommand{
		EventType: r.kind.Category().EventType(),
		Code:      uint16(r.discriminator),
		Value:     value,
	}
	r.device.Set(PropSendEvent, cmd.Map())
}
