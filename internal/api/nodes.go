package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-input/internal/bridges/input"
	"github.com/nerrad567/gray-logic-input/internal/graph"
)

// NodeView is the JSON form of a node.
type NodeView struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// EdgeView is the JSON form of an edge.
type EdgeView struct {
	Outbound string `json:"outbound"`
	Type     string `json:"type"`
	Inbound  string `json:"inbound"`
}

// SetPropertyRequest is the body of PUT /nodes/{id}/properties/{name}.
type SetPropertyRequest struct {
	Value any `json:"value"`
}

func nodeView(n *graph.Node) NodeView {
	return NodeView{ID: n.ID.String(), Type: n.Type, Properties: n.Snapshot()}
}

// handleListNodes returns all nodes, optionally filtered by ?type=.
func (s *Server) handleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes := s.store.Nodes()
	if t := r.URL.Query().Get("type"); t != "" {
		nodes = s.store.NodesOfType(t)
	}

	views := make([]NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, nodeView(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": views, "count": len(views)})
}

// handleGetNode returns a single node.
func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.nodeFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, nodeView(n))
}

// handleSetProperty writes a property. Observers run before the response
// is written, so a 200 means routing has already happened. Properties fixed
// at node creation answer 403.
func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	n, ok := s.nodeFromPath(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if _, ok := n.Property(name); !ok {
		writeNotFound(w, "property not found")
		return
	}
	if !input.WritableProperty(n.Type, name) {
		writeForbidden(w, "property "+name+" is read-only on "+n.Type)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "failed to read body")
		return
	}
	value, err := decodePropertyValue(body)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if !n.Set(name, value) {
		writeNotFound(w, "property not found")
		return
	}

	s.logger.Debug("property set via API", "node_id", n.ID, "property", name)
	writeJSON(w, http.StatusOK, map[string]any{
		"node_id":  n.ID.String(),
		"property": name,
		"value":    value,
	})
}

// handleListEdges returns all edges.
func (s *Server) handleListEdges(w http.ResponseWriter, _ *http.Request) {
	edges := s.store.Edges()
	views := make([]EdgeView, 0, len(edges))
	for _, e := range edges {
		views = append(views, EdgeView{
			Outbound: e.Key.Outbound.String(),
			Type:     e.Key.Type,
			Inbound:  e.Key.Inbound.String(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"edges": views, "count": len(views)})
}

// nodeFromPath resolves {id}, writing a 400 or 404 when it cannot.
func (s *Server) nodeFromPath(w http.ResponseWriter, r *http.Request) (*graph.Node, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid node id")
		return nil, false
	}
	n, ok := s.store.Node(id)
	if !ok {
		writeNotFound(w, graph.ErrNodeNotFound.Error())
		return nil, false
	}
	return n, true
}

// decodePropertyValue parses {"value": ...}. Integral numbers become
// int64 so they compare equal to values produced by the bridge.
func decodePropertyValue(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var req SetPropertyRequest
	if err := dec.Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if req.Value == nil {
		return nil, errors.New("value is required")
	}
	return normalizeNumbers(req.Value), nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumbers(inner)
		}
		return t
	default:
		return v
	}
}
