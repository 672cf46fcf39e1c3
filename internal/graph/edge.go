package graph

import (
	"fmt"

	"github.com/google/uuid"
)

// EdgeKey is the composite identity of a directed, typed edge.
type EdgeKey struct {
	Outbound uuid.UUID
	Type     string
	Inbound  uuid.UUID
}

// String renders the key as "outbound--type->inbound".
func (k EdgeKey) String() string {
	return fmt.Sprintf("%s--%s->%s", k.Outbound, k.Type, k.Inbound)
}

// Edge connects two nodes. Outbound is the source, Inbound the target.
type Edge struct {
	Key      EdgeKey
	Outbound *Node
	Inbound  *Node
}

// Type returns the edge type name.
func (e *Edge) Type() string {
	return e.Key.Type
}
