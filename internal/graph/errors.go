package graph

import "errors"

// Domain errors for the graph package.
var (
	// ErrCreationConflict is returned when a node id or edge key is already present.
	ErrCreationConflict = errors.New("graph: creation conflict")

	// ErrNodeNotFound is returned when a referenced node does not exist.
	ErrNodeNotFound = errors.New("graph: node not found")

	// ErrEdgeNotFound is returned when an edge key does not exist.
	ErrEdgeNotFound = errors.New("graph: edge not found")

	// ErrInvalidSpec is returned for a node spec without id or type.
	ErrInvalidSpec = errors.New("graph: invalid spec")
)
