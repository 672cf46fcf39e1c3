package input

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/mqtt"
)

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// Unsubscribe removes a subscription.
	Unsubscribe(topic string) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// StateMessage is published whenever a mirrored property changes.
type StateMessage struct {
	NodeID    string    `json:"node_id" cbor:"node_id"`
	Type      string    `json:"type" cbor:"type"`
	Property  string    `json:"property" cbor:"property"`
	Value     any       `json:"value" cbor:"value"`
	Timestamp time.Time `json:"timestamp" cbor:"timestamp"`
}

// CommandMessage sets a property on a node.
type CommandMessage struct {
	Property string `json:"property" cbor:"property"`
	Value    any    `json:"value" cbor:"value"`
}

type watch struct {
	node     *graph.Node
	property string
	handle   graph.Handle
}

// MQTTMirror publishes feature state and device events to MQTT and applies
// commands received from it.
//
// Feature "state" changes are published retained with QoS 1. Device "event"
// changes are published with QoS 0 and not retained.
type MQTTMirror struct {
	client MQTTClient
	store  *graph.Store
	codec  PayloadCodec
	topics mqtt.Topics

	mu   sync.Mutex
	subs map[uuid.UUID]watch

	logger Logger
}

var _ graph.Listener = (*MQTTMirror)(nil)

// MQTTMirrorOptions holds configuration for the mirror.
type MQTTMirrorOptions struct {
	Client MQTTClient
	Store  *graph.Store
	Codec  PayloadCodec
	Logger Logger
}

// NewMQTTMirror creates a mirror. Register it as a store listener and call
// Start to accept commands.
func NewMQTTMirror(opts MQTTMirrorOptions) (*MQTTMirror, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	codec := opts.Codec
	if codec == nil {
		codec = jsonCodec{}
	}
	return &MQTTMirror{
		client: opts.Client,
		store:  opts.Store,
		codec:  codec,
		subs:   make(map[uuid.UUID]watch),
		logger: orNoop(opts.Logger),
	}, nil
}

// Start subscribes to the command topic and mirrors nodes already in the store.
func (m *MQTTMirror) Start() error {
	topic := m.topics.AllInputCommands()
	if err := m.client.Subscribe(topic, 1, m.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	m.logger.Info("subscribed to commands", "topic", topic)

	for _, n := range m.store.Nodes() {
		m.NodeAdded(n)
	}
	return nil
}

// Stop unsubscribes from the command topic and drops every property
// subscription.
func (m *MQTTMirror) Stop() {
	if err := m.client.Unsubscribe(m.topics.AllInputCommands()); err != nil {
		m.logger.Debug("command unsubscribe failed", "error", err)
	}

	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.unwatch(id)
	}
}

// mirroredProperty returns the property mirrored for a node type.
func mirroredProperty(nodeType string) (string, bool) {
	if nodeType == DeviceNodeType {
		return PropEvent, true
	}
	if _, ok := CategoryForNodeType(nodeType); ok {
		return PropState, true
	}
	return "", false
}

// NodeAdded starts mirroring the node.
func (m *MQTTMirror) NodeAdded(n *graph.Node) {
	prop, ok := mirroredProperty(n.Type)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, watching := m.subs[n.ID]; watching {
		return
	}

	id, typ := n.ID, n.Type
	handle, ok := n.Subscribe(prop, func(v any) {
		m.publish(id, typ, prop, v)
	})
	if !ok {
		return
	}
	m.subs[n.ID] = watch{node: n, property: prop, handle: handle}
}

// NodeRemoved stops mirroring the node.
func (m *MQTTMirror) NodeRemoved(n *graph.Node) { m.unwatch(n.ID) }

// NodeRemovedByID stops mirroring the node.
func (m *MQTTMirror) NodeRemovedByID(id uuid.UUID) { m.unwatch(id) }

func (m *MQTTMirror) EdgeAdded(*graph.Edge)          {}
func (m *MQTTMirror) EdgeRemoved(*graph.Edge)        {}
func (m *MQTTMirror) EdgeRemovedByKey(graph.EdgeKey) {}

func (m *MQTTMirror) unwatch(id uuid.UUID) {
	m.mu.Lock()
	w, ok := m.subs[id]
	delete(m.subs, id)
	m.mu.Unlock()

	if ok {
		w.node.Unsubscribe(w.property, w.handle)
	}
}

// Watching returns the number of mirrored nodes.
func (m *MQTTMirror) Watching() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *MQTTMirror) publish(id uuid.UUID, nodeType, prop string, v any) {
	if !m.client.IsConnected() {
		return
	}

	payload, err := m.codec.Marshal(StateMessage{
		NodeID:    id.String(),
		Type:      nodeType,
		Property:  prop,
		Value:     v,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		m.logger.Error("failed to encode state", "node_id", id, "error", err)
		return
	}

	qos, retained := byte(1), true
	if prop == PropEvent {
		qos, retained = 0, false
	}
	if err := m.client.Publish(m.topics.InputState(id.String()), payload, qos, retained); err != nil {
		m.logger.Warn("failed to publish state", "node_id", id, "error", err)
	}
}

// handleCommand applies a CommandMessage to the node named by the topic.
func (m *MQTTMirror) handleCommand(topic string, payload []byte) error {
	idPart, ok := m.topics.NodeIDFromTopic(topic)
	if !ok {
		return fmt.Errorf("%w: topic %s", ErrMalformedPayload, topic)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return fmt.Errorf("%w: topic %s", ErrMalformedPayload, topic)
	}

	var cmd CommandMessage
	if err := m.codec.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if cmd.Property == "" {
		return fmt.Errorf("%w: missing property", ErrMalformedPayload)
	}

	n, ok := m.store.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
	}
	if _, ok := n.Property(cmd.Property); !ok {
		return fmt.Errorf("%w: %s on %s", ErrMissingAttribute, cmd.Property, id)
	}
	if !WritableProperty(n.Type, cmd.Property) {
		return fmt.Errorf("%w: %s is read-only on %s", ErrMalformedPayload, cmd.Property, n.Type)
	}
	if !n.Set(cmd.Property, cmd.Value) {
		return fmt.Errorf("%w: %s on %s", ErrMissingAttribute, cmd.Property, id)
	}

	m.logger.Debug("command applied", "node_id", id, "property", cmd.Property)
	return nil
}
