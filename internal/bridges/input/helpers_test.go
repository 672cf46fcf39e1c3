package input

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
	"github.com/nerrad567/gray-logic-input/internal/hardware/hardwaretest"
	"github.com/nerrad567/gray-logic-input/internal/identity"
)

const (
	testPoll    = 20 * time.Millisecond
	waitFor     = 2 * time.Second
	tick        = 5 * time.Millisecond
	keyA        = 30
	kbdPath     = "/dev/input/event3"
	kbdPhys     = "usb-0000:00:14.0-1/input0"
	kbdName     = "Test Keyboard"
	kbd2Path    = "/dev/input/event7"
	kbd2Phys    = "usb-0000:00:14.0-4/input0"
	kbd2Name    = "Other Keyboard"
	switchPath  = "/dev/input/event9"
	switchPhys  = "PNP0C0D/button/input0"
	switchName  = "Lid Switch"
	switchLidSW = 0
)

type harness struct {
	ctx      context.Context
	store    *graph.Store
	adapter  *hardwaretest.Adapter
	managers *Managers
	mat      *Materializer
}

func newHarness(t *testing.T, devices ...*hardwaretest.Device) *harness {
	t.Helper()

	adapter := hardwaretest.NewAdapter(devices...)
	store := graph.NewStore(nil)
	managers, err := NewManagers(ManagersOptions{Adapter: adapter, PollInterval: testPoll})
	require.NoError(t, err)
	store.AddListener(managers)

	t.Cleanup(func() {
		store.Teardown()
		managers.Wait(waitFor)
	})

	return &harness{
		ctx:      context.Background(),
		store:    store,
		adapter:  adapter,
		managers: managers,
		mat:      NewMaterializer(store, true, nil),
	}
}

func (h *harness) discover(t *testing.T) DiscoveryReport {
	t.Helper()
	d, err := NewDiscovery(DiscoveryOptions{Adapter: h.adapter, Materializer: h.mat, Autodetect: true})
	require.NoError(t, err)
	report, err := d.Run(h.ctx)
	require.NoError(t, err)
	return report
}

func testKeyboard() *hardwaretest.Device {
	return hardwaretest.Keyboard(kbdPath, kbdName, kbdPhys)
}

func testKeyboard2() *hardwaretest.Device {
	return hardwaretest.Keyboard(kbd2Path, kbd2Name, kbd2Phys)
}

func testLidSwitch() *hardwaretest.Device {
	d := hardwaretest.NewDevice(switchPath, switchName, switchPhys)
	d.WithCapabilities(hardware.EventSwitch, hardware.Capability{Code: switchLidSW, Name: "SW_LID"})
	return d
}

func keyEvent(code uint16, value int32) hardware.Event {
	return hardware.Event{Type: hardware.EventKey, Code: code, Value: value}
}

// valueRecorder collects every value written to a property.
type valueRecorder struct {
	mu     sync.Mutex
	values []any
}

func (r *valueRecorder) observe(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *valueRecorder) snapshot() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.values...)
}

func (r *valueRecorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

func record(t *testing.T, n *graph.Node, prop string) *valueRecorder {
	t.Helper()
	rec := &valueRecorder{}
	_, ok := n.Subscribe(prop, rec.observe)
	require.True(t, ok, "node %s has no property %s", n.Type, prop)
	return rec
}

// createDeviceNode creates a bare input_device node without any hardware.
func createDeviceNode(t *testing.T, store *graph.Store, name, phys string) *graph.Node {
	t.Helper()
	n, err := store.CreateNode(context.Background(), graph.NodeSpec{
		ID:   identity.DeviceID(name, phys),
		Type: DeviceNodeType,
		Properties: map[string]any{
			PropName:         name,
			PropPhysicalPath: phys,
			PropEvent:        map[string]any{},
			PropSendEvent:    map[string]any{},
		},
	})
	require.NoError(t, err)
	return n
}

// createFeatureNode creates a feature node for category c with the given code.
func createFeatureNode(t *testing.T, store *graph.Store, c Category, code int64) *graph.Node {
	t.Helper()
	props := map[string]any{
		PropName:          "feature",
		c.Discriminator(): code,
		PropState:         c.ZeroState(),
	}
	if c.Writable() {
		props[c.Command()] = false
	}
	n, err := store.CreateNode(context.Background(), graph.NodeSpec{
		ID:         uuid.New(),
		Type:       c.NodeType(),
		Properties: props,
	})
	require.NoError(t, err)
	return n
}

func createEdge(t *testing.T, store *graph.Store, out uuid.UUID, typ string, in uuid.UUID) *graph.Edge {
	t.Helper()
	e, err := store.CreateEdge(context.Background(), graph.EdgeKey{Outbound: out, Type: typ, Inbound: in})
	require.NoError(t, err)
	return e
}
