package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

func TestParseBehaviourKind(t *testing.T) {
	tests := []struct {
		typeName string
		want     BehaviourKind
	}{
		{"input_device", BehaviourDeviceBridge},
		{"key_event", BehaviourKeyEvent},
		{"led_event", BehaviourLEDEvent},
		{"relative_axis_event", BehaviourRelativeAxisEvent},
		{"absolute_axis_event", BehaviourAbsoluteAxisEvent},
		{"switch_event", BehaviourSwitchEvent},
		{"send_key_event", BehaviourSendKeyEvent},
		{"send_led_event", BehaviourSendLEDEvent},
		{"input_device_key", BehaviourUnknown},
		{"", BehaviourUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got := ParseBehaviourKind(tt.typeName)
			assert.Equal(t, tt.want, got)
			if got != BehaviourUnknown {
				assert.Equal(t, tt.typeName, got.String())
			}
		})
	}
}

func TestBehaviourKind_Direction(t *testing.T) {
	for _, k := range RoutingKinds {
		assert.True(t, k.IsRouting(), k.String())
	}
	assert.False(t, BehaviourDeviceBridge.IsRouting())
	assert.False(t, BehaviourUnknown.IsRouting())

	assert.True(t, BehaviourSendKeyEvent.Outbound())
	assert.True(t, BehaviourSendLEDEvent.Outbound())
	assert.False(t, BehaviourKeyEvent.Outbound())
}

func TestCategoryNames(t *testing.T) {
	assert.Equal(t, "input_device_relative_axis", CategoryRelativeAxis.NodeType())
	assert.Equal(t, "absolute_axis_event_absolute_axis_type", CategoryAbsoluteAxis.CodeField())
	assert.Equal(t, "set_key_down", CategoryKey.Command())
	assert.Equal(t, "send_led_event", CategoryLED.SendKind())
	assert.False(t, CategorySwitch.Writable())
	assert.Equal(t, int64(0), CategorySwitch.ZeroState())
	assert.Equal(t, false, CategoryKey.ZeroState())
	assert.Equal(t, "category(9)", Category(9).String())

	c, ok := CategoryForEventType(hardware.EventLED)
	assert.True(t, ok)
	assert.Equal(t, CategoryLED, c)
	_, ok = CategoryForEventType(hardware.EventSync)
	assert.False(t, ok)
}

func TestWritableProperty(t *testing.T) {
	tests := []struct {
		nodeType string
		prop     string
		want     bool
	}{
		{DeviceNodeType, PropEvent, true},
		{DeviceNodeType, PropSendEvent, true},
		{DeviceNodeType, PropPhysicalPath, false},
		{DeviceNodeType, PropName, false},
		{DeviceNodeType, PropLabel, false},
		{DeviceNodeType, PropVendor, false},
		{DeviceNodeType, PropDriverVersion, false},
		{"input_device_key", PropState, true},
		{"input_device_key", "set_key_down", true},
		{"input_device_key", "key_code", false},
		{"input_device_key", "key", false},
		{"input_device_key", "set_state", false},
		{"input_device_led", "set_state", true},
		{"input_device_led", "led_type", false},
		{"input_device_switch", PropState, true},
		{"input_device_switch", "switch_type", false},
		{"input_device_relative_axis", "set_state", false},
		{"lamp", PropState, false},
	}

	for _, tt := range tests {
		t.Run(tt.nodeType+"/"+tt.prop, func(t *testing.T) {
			assert.Equal(t, tt.want, WritableProperty(tt.nodeType, tt.prop))
		})
	}
}
