package input

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
	"github.com/nerrad567/gray-logic-input/internal/hardware/hardwaretest"
)

func bindTest(t *testing.T, dev *hardwaretest.Device) (*graph.Node, *DeviceBinding) {
	t.Helper()
	store := graph.NewStore(nil)
	node := createDeviceNode(t, store, dev.Name, dev.PhysicalPath)

	b, err := Bind(node, BindOptions{Adapter: hardwaretest.NewAdapter(dev), PollInterval: testPoll})
	require.NoError(t, err)
	t.Cleanup(func() {
		b.Close()
		<-b.Done()
	})
	return node, b
}

func TestBind_MissingPhysicalPath(t *testing.T) {
	store := graph.NewStore(nil)
	node, err := store.CreateNode(t.Context(), graph.NodeSpec{
		ID:         uuid.New(),
		Type:       DeviceNodeType,
		Properties: map[string]any{PropEvent: map[string]any{}, PropSendEvent: map[string]any{}},
	})
	require.NoError(t, err)

	_, err = Bind(node, BindOptions{Adapter: hardwaretest.NewAdapter(testKeyboard())})
	assert.ErrorIs(t, err, ErrMissingAttribute)
}

func TestBind_DeviceNotFound(t *testing.T) {
	store := graph.NewStore(nil)
	node := createDeviceNode(t, store, kbdName, "usb-not-plugged-in")
	kbd := testKeyboard()

	_, err := Bind(node, BindOptions{Adapter: hardwaretest.NewAdapter(kbd)})
	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.ErrorIs(t, err, hardware.ErrDeviceNotFound)
	assert.Equal(t, 0, kbd.OpenHandles())

	p, _ := node.Property(PropSendEvent)
	assert.Equal(t, 0, p.SubscriberCount())
}

func TestBind_RoutesEvents(t *testing.T) {
	kbd := testKeyboard()
	node, b := bindTest(t, kbd)
	events := record(t, node, PropEvent)

	kbd.Emit(
		keyEvent(keyA, 1),
		hardware.Event{Type: hardware.EventSync}, // dropped
		hardware.Event{Type: hardware.EventLED, Code: 1, Value: 1},
	)

	require.Eventually(t, func() bool { return events.len() == 2 }, waitFor, tick)

	got := events.snapshot()
	assert.Equal(t, map[string]any{
		"input_event_kind":   "key_event",
		"key_event_key_code": int64(keyA),
		"input_event_value":  int64(1),
	}, got[0])
	assert.Equal(t, map[string]any{
		"input_event_kind":   "led_event",
		"led_event_led_type": int64(1),
		"input_event_value":  int64(1),
	}, got[1])
	assert.Equal(t, uint64(2), b.EventsRouted())
}

func TestBind_TransientErrorKeepsLooping(t *testing.T) {
	kbd := testKeyboard()
	node, b := bindTest(t, kbd)
	events := record(t, node, PropEvent)

	kbd.Fail(errors.New("EAGAIN"))
	kbd.Emit(keyEvent(keyA, 1))

	require.Eventually(t, func() bool { return events.len() == 1 }, waitFor, tick)
	select {
	case <-b.Done():
		t.Fatal("binding stopped on a transient error")
	default:
	}
}

func TestBind_EndOfStreamStops(t *testing.T) {
	kbd := testKeyboard()
	_, b := bindTest(t, kbd)

	kbd.End()

	select {
	case <-b.Done():
	case <-time.After(waitFor):
		t.Fatal("binding did not stop at end of stream")
	}
	assert.Eventually(t, func() bool { return kbd.OpenHandles() == 0 }, waitFor, tick)
}

func TestBind_CancellationBound(t *testing.T) {
	kbd := testKeyboard()
	node, b := bindTest(t, kbd)
	sendEvent, _ := node.Property(PropSendEvent)
	require.Equal(t, 1, sendEvent.SubscriberCount())

	// Keep the stream busy so only the ticker can stop the loop.
	stopTraffic := make(chan struct{})
	go func() {
		for {
			select {
			case <-stopTraffic:
				return
			default:
				kbd.Emit(keyEvent(keyA, 2))
				time.Sleep(time.Millisecond)
			}
		}
	}()
	defer close(stopTraffic)

	start := time.Now()
	b.Close()
	assert.Equal(t, 0, sendEvent.SubscriberCount(), "send_event observer must be gone before the task ends")

	select {
	case <-b.Done():
	case <-time.After(testPoll + time.Second):
		t.Fatal("binding outlived the poll interval")
	}
	assert.Less(t, time.Since(start), testPoll+time.Second)

	events := record(t, node, PropEvent)
	time.Sleep(3 * testPoll)
	assert.Equal(t, 0, events.len(), "no event writes after the binding stopped")
}

func TestBind_SendEventWritesHardware(t *testing.T) {
	kbd := testKeyboard()
	node, b := bindTest(t, kbd)

	node.Set(PropSendEvent, SendCommand{EventType: hardware.EventKey, Code: keyA, Value: true}.Map())
	// Missing value, then an event type outside 16 bits.
	node.Set(PropSendEvent, map[string]any{"event_type": int64(1), "code": int64(keyA)})
	node.Set(PropSendEvent, map[string]any{"event_type": int64(70000), "code": int64(1), "value": true})

	assert.Equal(t, []hardware.Event{{Type: hardware.EventKey, Code: keyA, Value: math.MaxInt32}}, kbd.Sent())
	assert.Equal(t, uint64(1), b.CommandsSent())
	assert.Equal(t, 1, kbd.OpenHandles(), "per-write handles are closed")
}

func TestBind_SendEventFailureSwallowed(t *testing.T) {
	kbd := testKeyboard()
	node, b := bindTest(t, kbd)
	kbd.FailSend(errors.New("EIO"))

	assert.NotPanics(t, func() {
		node.Set(PropSendEvent, SendCommand{EventType: hardware.EventLED, Code: 1, Value: false}.Map())
	})
	assert.Empty(t, kbd.Sent())
	assert.Equal(t, uint64(0), b.CommandsSent())
}

func TestBind_CloseIsIdempotent(t *testing.T) {
	_, b := bindTest(t, testKeyboard())
	b.Close()
	b.Close()
	<-b.Done()
}
