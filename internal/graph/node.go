package graph

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// NodeSpec describes a node to create: its id, type name and the initial
// value of every property it will carry.
type NodeSpec struct {
	ID         uuid.UUID
	Type       string
	Properties map[string]any
}

// Node is a typed entity with a fixed set of observable properties.
// The property set is decided at creation and never changes.
type Node struct {
	ID   uuid.UUID
	Type string

	properties map[string]*Property
}

func newNode(spec NodeSpec) *Node {
	n := &Node{
		ID:         spec.ID,
		Type:       spec.Type,
		properties: make(map[string]*Property, len(spec.Properties)),
	}
	for name, value := range spec.Properties {
		n.properties[name] = newProperty(name, value)
	}
	return n
}

// Property returns the named property.
func (n *Node) Property(name string) (*Property, bool) {
	p, ok := n.properties[name]
	return p, ok
}

// Get returns the value of the named property.
func (n *Node) Get(name string) (any, bool) {
	p, ok := n.properties[name]
	if !ok {
		return nil, false
	}
	return p.Get(), true
}

// Set writes the named property. Returns false if the node has no such property.
func (n *Node) Set(name string, value any) bool {
	p, ok := n.properties[name]
	if !ok {
		return false
	}
	p.Set(value)
	return true
}

// Subscribe observes the named property.
func (n *Node) Subscribe(name string, fn Observer) (Handle, bool) {
	p, ok := n.properties[name]
	if !ok {
		return 0, false
	}
	return p.Subscribe(fn), true
}

// Unsubscribe removes a subscription from the named property.
func (n *Node) Unsubscribe(name string, h Handle) bool {
	p, ok := n.properties[name]
	if !ok {
		return false
	}
	return p.Unsubscribe(h)
}

// GetString returns the named property if it holds a string.
func (n *Node) GetString(name string) (string, bool) {
	v, ok := n.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt returns the named property if it holds an integral number.
func (n *Node) GetInt(name string) (int64, bool) {
	v, ok := n.Get(name)
	if !ok {
		return 0, false
	}
	return AsInt64(v)
}

// PropertyNames returns the property names in sorted order.
func (n *Node) PropertyNames() []string {
	return slices.Sorted(maps.Keys(n.properties))
}

// Snapshot returns the current value of every property.
func (n *Node) Snapshot() map[string]any {
	out := make(map[string]any, len(n.properties))
	for name, p := range n.properties {
		out[name] = p.Get()
	}
	return out
}

// Spec returns a spec that would recreate this node with its current values.
func (n *Node) Spec() NodeSpec {
	return NodeSpec{ID: n.ID, Type: n.Type, Properties: n.Snapshot()}
}
