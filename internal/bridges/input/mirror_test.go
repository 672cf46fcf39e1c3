package input

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakeMQTT struct {
	mu        sync.Mutex
	connected bool
	messages  []published
	handlers  map[string]mqtt.MessageHandler
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (f *fakeMQTT) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{topic, payload, qos, retained})
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) Unsubscribe(topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)
	return nil
}

func (f *fakeMQTT) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeMQTT) sent() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.messages...)
}

func (f *fakeMQTT) deliver(topic string, payload []byte) error {
	f.mu.Lock()
	h := f.handlers[mqtt.Topics{}.AllInputCommands()]
	f.mu.Unlock()
	if h == nil {
		return errors.New("not subscribed")
	}
	return h(topic, payload)
}

func newMirrorTest(t *testing.T, format string) (*graph.Store, *fakeMQTT, *MQTTMirror) {
	t.Helper()
	store := graph.NewStore(nil)
	client := newFakeMQTT()
	codec, err := NewPayloadCodec(format)
	require.NoError(t, err)

	m, err := NewMQTTMirror(MQTTMirrorOptions{Client: client, Store: store, Codec: codec})
	require.NoError(t, err)
	store.AddListener(m)
	require.NoError(t, m.Start())
	t.Cleanup(m.Stop)
	return store, client, m
}

func TestMQTTMirror_PublishesState(t *testing.T) {
	store, client, _ := newMirrorTest(t, FormatJSON)
	feature := createFeatureNode(t, store, CategoryKey, keyA)

	feature.Set(PropState, true)

	msgs := client.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, "graylogic/input/state/"+feature.ID.String(), msgs[0].topic)
	assert.True(t, msgs[0].retained)
	assert.Equal(t, byte(1), msgs[0].qos)

	var got StateMessage
	require.NoError(t, json.Unmarshal(msgs[0].payload, &got))
	assert.Equal(t, feature.ID.String(), got.NodeID)
	assert.Equal(t, "input_device_key", got.Type)
	assert.Equal(t, PropState, got.Property)
	assert.Equal(t, true, got.Value)
}

func TestMQTTMirror_DeviceEventsNotRetained(t *testing.T) {
	store, client, _ := newMirrorTest(t, FormatJSON)
	device := createDeviceNode(t, store, kbdName, kbdPhys)

	setEvent(device, CategoryKey, keyA, 1)

	msgs := client.sent()
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].retained)
	assert.Equal(t, byte(0), msgs[0].qos)
}

func TestMQTTMirror_SkipsWhenDisconnected(t *testing.T) {
	store, client, _ := newMirrorTest(t, FormatJSON)
	feature := createFeatureNode(t, store, CategoryKey, keyA)
	client.mu.Lock()
	client.connected = false
	client.mu.Unlock()

	feature.Set(PropState, true)
	assert.Empty(t, client.sent())
}

func TestMQTTMirror_CommandJSON(t *testing.T) {
	store, client, _ := newMirrorTest(t, FormatJSON)
	feature := createFeatureNode(t, store, CategoryKey, keyA)

	err := client.deliver(mqtt.Topics{}.InputCommand(feature.ID.String()), []byte(`{"property":"set_key_down","value":true}`))
	require.NoError(t, err)

	v, _ := feature.Get("set_key_down")
	assert.Equal(t, true, v)
}

func TestMQTTMirror_CommandCBOR(t *testing.T) {
	store, client, _ := newMirrorTest(t, FormatCBOR)
	device := createDeviceNode(t, store, kbdName, kbdPhys)
	codec, err := NewPayloadCodec(FormatCBOR)
	require.NoError(t, err)

	payload, err := codec.Marshal(CommandMessage{
		Property: PropSendEvent,
		Value:    map[string]any{"event_type": 17, "code": 1, "value": true},
	})
	require.NoError(t, err)
	require.NoError(t, client.deliver(mqtt.Topics{}.InputCommand(device.ID.String()), payload))

	v, _ := device.Get(PropSendEvent)
	cmd, err := ParseSendCommand(v)
	require.NoError(t, err, "cbor maps must decode to map[string]any")
	assert.True(t, cmd.Value)
	assert.Equal(t, uint16(1), cmd.Code)
}

func TestMQTTMirror_CommandErrors(t *testing.T) {
	store, client, _ := newMirrorTest(t, FormatJSON)
	feature := createFeatureNode(t, store, CategoryKey, keyA)
	topic := mqtt.Topics{}.InputCommand(feature.ID.String())

	assert.ErrorIs(t, client.deliver("graylogic/input/command/not-a-uuid", []byte(`{}`)), ErrMalformedPayload)
	assert.ErrorIs(t, client.deliver(topic, []byte(`{`)), ErrMalformedPayload)
	assert.ErrorIs(t, client.deliver(topic, []byte(`{"value":true}`)), ErrMalformedPayload)
	assert.ErrorIs(t, client.deliver(topic, []byte(`{"property":"nope","value":true}`)), ErrMissingAttribute)
	assert.ErrorIs(t, client.deliver(mqtt.Topics{}.InputCommand("6f1c9a8e-0000-4000-8000-000000000000"), []byte(`{"property":"state","value":1}`)), graph.ErrNodeNotFound)
}

func TestMQTTMirror_RejectsImmutableProperties(t *testing.T) {
	store, client, _ := newMirrorTest(t, FormatJSON)
	device := createDeviceNode(t, store, kbdName, kbdPhys)
	feature := createFeatureNode(t, store, CategoryKey, keyA)

	err := client.deliver(mqtt.Topics{}.InputCommand(device.ID.String()), []byte(`{"property":"physical_path","value":"hijacked"}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
	phys, _ := device.GetString(PropPhysicalPath)
	assert.Equal(t, kbdPhys, phys)

	err = client.deliver(mqtt.Topics{}.InputCommand(feature.ID.String()), []byte(`{"property":"key_code","value":31}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
	code, _ := feature.Get("key_code")
	assert.Equal(t, int64(keyA), code)
}

func TestMQTTMirror_StopsOnRemoval(t *testing.T) {
	store, client, m := newMirrorTest(t, FormatJSON)
	feature := createFeatureNode(t, store, CategoryKey, keyA)
	assert.Equal(t, 1, m.Watching())

	require.NoError(t, store.RemoveNode(t.Context(), feature.ID))
	assert.Equal(t, 0, m.Watching())

	feature.Set(PropState, true)
	assert.Empty(t, client.sent())
}

func TestNewPayloadCodec_Unknown(t *testing.T) {
	_, err := NewPayloadCodec("xml")
	assert.Error(t, err)
}
