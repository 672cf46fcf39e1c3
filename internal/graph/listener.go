package graph

import "github.com/google/uuid"

// Listener receives structural changes from a Store.
//
// Hooks run on the goroutine that made the change, after the store lock is
// released, so a listener may read the store from inside a hook.
type Listener interface {
	NodeAdded(n *Node)
	NodeRemoved(n *Node)
	NodeRemovedByID(id uuid.UUID)
	EdgeAdded(e *Edge)
	EdgeRemoved(e *Edge)
	EdgeRemovedByKey(key EdgeKey)
}

// NopListener implements Listener with empty hooks. Embed it to handle
// only the events you care about.
type NopListener struct{}

func (NopListener) NodeAdded(*Node)           {}
func (NopListener) NodeRemoved(*Node)         {}
func (NopListener) NodeRemovedByID(uuid.UUID) {}
func (NopListener) EdgeAdded(*Edge)           {}
func (NopListener) EdgeRemoved(*Edge)         {}
func (NopListener) EdgeRemovedByKey(EdgeKey)  {}
