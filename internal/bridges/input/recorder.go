package input

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-input/internal/graph"
)

// EventWriter stores one point per routed input event.
// This interface is satisfied by *influxdb.Client.
type EventWriter interface {
	WriteInputEvent(deviceID, device, kind string, code, value int64, ts time.Time)
}

// Recorder writes every device event to a time-series store.
type Recorder struct {
	graph.NopListener

	writer EventWriter

	mu      sync.Mutex
	watches map[uuid.UUID]watch
}

// NewRecorder creates a recorder. Register it as a store listener.
func NewRecorder(writer EventWriter) (*Recorder, error) {
	if writer == nil {
		return nil, fmt.Errorf("event writer is required")
	}
	return &Recorder{writer: writer, watches: make(map[uuid.UUID]watch)}, nil
}

// NodeAdded starts recording events of input_device nodes.
func (r *Recorder) NodeAdded(n *graph.Node) {
	if n.Type != DeviceNodeType {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.watches[n.ID]; ok {
		return
	}

	deviceID := n.ID.String()
	name, _ := n.GetString(PropName)
	handle, ok := n.Subscribe(PropEvent, func(v any) {
		desc, err := ParseEventDescriptor(v)
		if err != nil {
			return
		}
		r.writer.WriteInputEvent(deviceID, name, desc.Category.EventKind(), desc.Code, desc.Value, time.Now())
	})
	if !ok {
		return
	}
	r.watches[n.ID] = watch{node: n, property: PropEvent, handle: handle}
}

// NodeRemoved stops recording the node.
func (r *Recorder) NodeRemoved(n *graph.Node) { r.unwatch(n.ID) }

// NodeRemovedByID stops recording the node.
func (r *Recorder) NodeRemovedByID(id uuid.UUID) { r.unwatch(id) }

func (r *Recorder) unwatch(id uuid.UUID) {
	r.mu.Lock()
	w, ok := r.watches[id]
	delete(r.watches, id)
	r.mu.Unlock()

	if ok {
		w.node.Unsubscribe(w.property, w.handle)
	}
}
