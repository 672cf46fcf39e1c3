package graph

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository persists node creation specs and edge keys.
// This abstraction allows the store to run with or without a database.
type Repository interface {
	// SaveNode inserts or replaces a node spec.
	SaveNode(ctx context.Context, spec NodeSpec) error

	// DeleteNode removes a node spec. Missing ids are not an error.
	DeleteNode(ctx context.Context, id uuid.UUID) error

	// ListNodes returns every persisted node spec in creation order.
	ListNodes(ctx context.Context) ([]NodeSpec, error)

	// SaveEdge inserts an edge key. Existing keys are left untouched.
	SaveEdge(ctx context.Context, key EdgeKey) error

	// DeleteEdge removes an edge key. Missing keys are not an error.
	DeleteEdge(ctx context.Context, key EdgeKey) error

	// ListEdges returns every persisted edge key in creation order.
	ListEdges(ctx context.Context) ([]EdgeKey, error)
}

// SQLiteRepository implements Repository on the graph_nodes and graph_edges tables.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveNode inserts or replaces a node spec.
func (r *SQLiteRepository) SaveNode(ctx context.Context, spec NodeSpec) error {
	props, err := json.Marshal(spec.Properties)
	if err != nil {
		return fmt.Errorf("encoding properties: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO graph_nodes (id, type, properties, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET type = excluded.type, properties = excluded.properties`,
		spec.ID.String(), spec.Type, string(props), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving node: %w", err)
	}
	return nil
}

// DeleteNode removes a node spec and, through the foreign keys, its edges.
func (r *SQLiteRepository) DeleteNode(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM graph_nodes WHERE id = ?", id.String()); err != nil {
		return fmt.Errorf("deleting node: %w", err)
	}
	return nil
}

// ListNodes returns every persisted node spec.
// Numbers in properties decode as json.Number so integers survive the round trip.
func (r *SQLiteRepository) ListNodes(ctx context.Context) ([]NodeSpec, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, type, properties FROM graph_nodes ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var specs []NodeSpec
	for rows.Next() {
		var idStr, typeName, propsJSON string
		if err := rows.Scan(&idStr, &typeName, &propsJSON); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parsing node id %q: %w", idStr, err)
		}

		props := make(map[string]any)
		dec := json.NewDecoder(bytes.NewReader([]byte(propsJSON)))
		dec.UseNumber()
		if err := dec.Decode(&props); err != nil {
			return nil, fmt.Errorf("decoding properties of %s: %w", id, err)
		}

		specs = append(specs, NodeSpec{ID: id, Type: typeName, Properties: props})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nodes: %w", err)
	}
	return specs, nil
}

// SaveEdge inserts an edge key.
func (r *SQLiteRepository) SaveEdge(ctx context.Context, key EdgeKey) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO graph_edges (outbound_id, type, inbound_id, created_at)
		VALUES (?, ?, ?, ?)`,
		key.Outbound.String(), key.Type, key.Inbound.String(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving edge: %w", err)
	}
	return nil
}

// DeleteEdge removes an edge key.
func (r *SQLiteRepository) DeleteEdge(ctx context.Context, key EdgeKey) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM graph_edges WHERE outbound_id = ? AND type = ? AND inbound_id = ?",
		key.Outbound.String(), key.Type, key.Inbound.String(),
	)
	if err != nil {
		return fmt.Errorf("deleting edge: %w", err)
	}
	return nil
}

// ListEdges returns every persisted edge key.
func (r *SQLiteRepository) ListEdges(ctx context.Context) ([]EdgeKey, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT outbound_id, type, inbound_id FROM graph_edges ORDER BY created_at, type")
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()

	var keys []EdgeKey
	for rows.Next() {
		var outStr, typeName, inStr string
		if err := rows.Scan(&outStr, &typeName, &inStr); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		out, err := uuid.Parse(outStr)
		if err != nil {
			return nil, fmt.Errorf("parsing outbound id %q: %w", outStr, err)
		}
		in, err := uuid.Parse(inStr)
		if err != nil {
			return nil, fmt.Errorf("parsing inbound id %q: %w", inStr, err)
		}
		keys = append(keys, EdgeKey{Outbound: out, Type: typeName, Inbound: in})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}
	return keys, nil
}
