package graph_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/database"
	_ "github.com/nerrad567/gray-logic-input/migrations"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "graph.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestSQLiteRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := graph.NewSQLiteRepository(db.DB)
	ctx := context.Background()

	store := graph.NewStore(repo)
	device, err := store.CreateNode(ctx, graph.NodeSpec{
		ID:   uuid.New(),
		Type: "input_device",
		Properties: map[string]any{
			"name":          "kbd",
			"physical_path": "phys0",
			"event":         map[string]any{},
		},
	})
	require.NoError(t, err)
	key, err := store.CreateNode(ctx, graph.NodeSpec{
		ID:         uuid.New(),
		Type:       "input_device_key",
		Properties: map[string]any{"key_code": 30, "state": false},
	})
	require.NoError(t, err)
	ek := graph.EdgeKey{Outbound: device.ID, Type: "key_event", Inbound: key.ID}
	_, err = store.CreateEdge(ctx, ek)
	require.NoError(t, err)

	// A fresh store over the same database sees the same graph.
	restored := graph.NewStore(repo)
	nodes, edges, err := restored.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)

	n, ok := restored.Node(key.ID)
	require.True(t, ok)
	code, ok := n.GetInt("key_code")
	require.True(t, ok)
	assert.EqualValues(t, 30, code)
	assert.True(t, restored.HasEdge(ek))

	// Loading twice does not duplicate.
	nodes, edges, err = restored.Load(ctx)
	require.NoError(t, err)
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}

func TestSQLiteRepository_RemoveNodeCascades(t *testing.T) {
	db := openTestDB(t)
	repo := graph.NewSQLiteRepository(db.DB)
	ctx := context.Background()

	store := graph.NewStore(repo)
	a, err := store.CreateNode(ctx, graph.NodeSpec{ID: uuid.New(), Type: "input_device"})
	require.NoError(t, err)
	b, err := store.CreateNode(ctx, graph.NodeSpec{ID: uuid.New(), Type: "input_device_led"})
	require.NoError(t, err)
	_, err = store.CreateEdge(ctx, graph.EdgeKey{Outbound: a.ID, Type: "led_event", Inbound: b.ID})
	require.NoError(t, err)

	require.NoError(t, store.RemoveNode(ctx, a.ID))

	specs, err := repo.ListNodes(ctx)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, b.ID, specs[0].ID)

	keys, err := repo.ListEdges(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSQLiteRepository_TeardownKeepsPersisted(t *testing.T) {
	db := openTestDB(t)
	repo := graph.NewSQLiteRepository(db.DB)
	ctx := context.Background()

	store := graph.NewStore(repo)
	_, err := store.CreateNode(ctx, graph.NodeSpec{ID: uuid.New(), Type: "input_device"})
	require.NoError(t, err)

	store.Teardown()

	specs, err := repo.ListNodes(ctx)
	require.NoError(t, err)
	assert.Len(t, specs, 1)
}
