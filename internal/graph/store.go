package graph

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Store holds nodes and edges and notifies listeners of structural changes.
type Store struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]*Node
	edges map[EdgeKey]*Edge

	repo Repository // optional write-through persistence

	listeners   []Listener
	listenersMu sync.RWMutex
}

// NewStore creates an empty store. repo may be nil for a purely in-memory graph.
func NewStore(repo Repository) *Store {
	return &Store{
		nodes: make(map[uuid.UUID]*Node),
		edges: make(map[EdgeKey]*Edge),
		repo:  repo,
	}
}

// AddListener registers l for all subsequent structural changes.
func (s *Store) AddListener(l Listener) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenersMu.Unlock()
}

func (s *Store) snapshotListeners() []Listener {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	return slices.Clone(s.listeners)
}

// CreateNode adds a node built from spec.
// Returns ErrCreationConflict if a node with spec.ID already exists.
func (s *Store) CreateNode(ctx context.Context, spec NodeSpec) (*Node, error) {
	if spec.ID == uuid.Nil || spec.Type == "" {
		return nil, fmt.Errorf("%w: id and type are required", ErrInvalidSpec)
	}

	s.mu.Lock()
	if _, exists := s.nodes[spec.ID]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: node %s (%s)", ErrCreationConflict, spec.ID, spec.Type)
	}
	if s.repo != nil {
		if err := s.repo.SaveNode(ctx, spec); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("persisting node %s: %w", spec.ID, err)
		}
	}
	n := newNode(spec)
	s.nodes[n.ID] = n
	s.mu.Unlock()

	for _, l := range s.snapshotListeners() {
		l.NodeAdded(n)
	}
	return n, nil
}

// HasNode reports whether a node with id exists.
func (s *Store) HasNode(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nodes[id]
	return ok
}

// Node returns the node with id.
func (s *Store) Node(id uuid.UUID) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all nodes ordered by type then id.
func (s *Store) Nodes() []*Node {
	s.mu.RLock()
	out := slices.Collect(maps.Values(s.nodes))
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Node) int {
		if c := cmp.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// NodesOfType returns all nodes with the given type name.
func (s *Store) NodesOfType(typeName string) []*Node {
	var out []*Node
	for _, n := range s.Nodes() {
		if n.Type == typeName {
			out = append(out, n)
		}
	}
	return out
}

// CreateEdge adds an edge between two existing nodes.
// Returns ErrNodeNotFound if either endpoint is missing and
// ErrCreationConflict if the key is already present.
func (s *Store) CreateEdge(ctx context.Context, key EdgeKey) (*Edge, error) {
	s.mu.Lock()
	if _, exists := s.edges[key]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: edge %s", ErrCreationConflict, key)
	}
	out, ok := s.nodes[key.Outbound]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: outbound %s", ErrNodeNotFound, key.Outbound)
	}
	in, ok := s.nodes[key.Inbound]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: inbound %s", ErrNodeNotFound, key.Inbound)
	}
	if s.repo != nil {
		if err := s.repo.SaveEdge(ctx, key); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("persisting edge %s: %w", key, err)
		}
	}
	e := &Edge{Key: key, Outbound: out, Inbound: in}
	s.edges[key] = e
	s.mu.Unlock()

	for _, l := range s.snapshotListeners() {
		l.EdgeAdded(e)
	}
	return e, nil
}

// HasEdge reports whether an edge with key exists.
func (s *Store) HasEdge(key EdgeKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[key]
	return ok
}

// Edge returns the edge with key.
func (s *Store) Edge(key EdgeKey) (*Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.edges[key]
	return e, ok
}

// Edges returns all edges ordered by type then key.
func (s *Store) Edges() []*Edge {
	s.mu.RLock()
	out := slices.Collect(maps.Values(s.edges))
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Edge) int {
		if c := cmp.Compare(a.Key.Type, b.Key.Type); c != 0 {
			return c
		}
		return cmp.Compare(a.Key.String(), b.Key.String())
	})
	return out
}

// EdgesOf returns every edge with id as either endpoint.
func (s *Store) EdgesOf(id uuid.UUID) []*Edge {
	var out []*Edge
	for _, e := range s.Edges() {
		if e.Key.Outbound == id || e.Key.Inbound == id {
			out = append(out, e)
		}
	}
	return out
}

// RemoveEdge deletes one edge and reports it through EdgeRemoved.
func (s *Store) RemoveEdge(ctx context.Context, key EdgeKey) error {
	s.mu.Lock()
	e, ok := s.edges[key]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, key)
	}
	if s.repo != nil {
		if err := s.repo.DeleteEdge(ctx, key); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("deleting persisted edge %s: %w", key, err)
		}
	}
	delete(s.edges, key)
	s.mu.Unlock()

	for _, l := range s.snapshotListeners() {
		l.EdgeRemoved(e)
	}
	return nil
}

// RemoveNode deletes a node and every incident edge. Edge removals are
// reported before the node removal.
func (s *Store) RemoveNode(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	var incident []*Edge
	for key, e := range s.edges {
		if key.Outbound == id || key.Inbound == id {
			incident = append(incident, e)
		}
	}
	if s.repo != nil {
		for _, e := range incident {
			if err := s.repo.DeleteEdge(ctx, e.Key); err != nil {
				s.mu.Unlock()
				return fmt.Errorf("deleting persisted edge %s: %w", e.Key, err)
			}
		}
		if err := s.repo.DeleteNode(ctx, id); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("deleting persisted node %s: %w", id, err)
		}
	}
	for _, e := range incident {
		delete(s.edges, e.Key)
	}
	delete(s.nodes, id)
	s.mu.Unlock()

	listeners := s.snapshotListeners()
	for _, e := range incident {
		for _, l := range listeners {
			l.EdgeRemoved(e)
		}
	}
	for _, l := range listeners {
		l.NodeRemoved(n)
	}
	return nil
}

// Teardown empties the in-memory graph and reports every edge by key and
// then every node by id. Persisted specs are kept so the next Load can
// restore the same graph.
func (s *Store) Teardown() {
	s.mu.Lock()
	edgeKeys := slices.Collect(maps.Keys(s.edges))
	nodeIDs := slices.Collect(maps.Keys(s.nodes))
	s.edges = make(map[EdgeKey]*Edge)
	s.nodes = make(map[uuid.UUID]*Node)
	s.mu.Unlock()

	listeners := s.snapshotListeners()
	for _, key := range edgeKeys {
		for _, l := range listeners {
			l.EdgeRemovedByKey(key)
		}
	}
	for _, id := range nodeIDs {
		for _, l := range listeners {
			l.NodeRemovedByID(id)
		}
	}
}

// Load restores persisted nodes and edges, reporting each through the add
// hooks. Entries already present in memory are skipped. Nodes are all
// restored before any edge. Returns the number of nodes and edges restored.
func (s *Store) Load(ctx context.Context) (nodes int, edges int, err error) {
	if s.repo == nil {
		return 0, 0, nil
	}

	specs, err := s.repo.ListNodes(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading nodes: %w", err)
	}
	keys, err := s.repo.ListEdges(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("loading edges: %w", err)
	}

	var added []*Node
	s.mu.Lock()
	for _, spec := range specs {
		if _, exists := s.nodes[spec.ID]; exists {
			continue
		}
		n := newNode(spec)
		s.nodes[n.ID] = n
		added = append(added, n)
	}
	s.mu.Unlock()

	listeners := s.snapshotListeners()
	for _, n := range added {
		for _, l := range listeners {
			l.NodeAdded(n)
		}
	}

	var addedEdges []*Edge
	s.mu.Lock()
	for _, key := range keys {
		if _, exists := s.edges[key]; exists {
			continue
		}
		out, okOut := s.nodes[key.Outbound]
		in, okIn := s.nodes[key.Inbound]
		if !okOut || !okIn {
			continue
		}
		e := &Edge{Key: key, Outbound: out, Inbound: in}
		s.edges[key] = e
		addedEdges = append(addedEdges, e)
	}
	s.mu.Unlock()

	for _, e := range addedEdges {
		for _, l := range listeners {
			l.EdgeAdded(e)
		}
	}

	return len(added), len(addedEdges), nil
}
