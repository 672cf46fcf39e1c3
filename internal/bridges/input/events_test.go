package input

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

func TestDescriptorFor(t *testing.T) {
	tests := []struct {
		name  string
		event hardware.Event
		field string
		kind  string
		ok    bool
	}{
		{"key", hardware.Event{Type: hardware.EventKey, Code: 30, Value: 1}, "key_event_key_code", "key_event", true},
		{"led", hardware.Event{Type: hardware.EventLED, Code: 1, Value: 0}, "led_event_led_type", "led_event", true},
		{"rel", hardware.Event{Type: hardware.EventRelativeAxis, Code: 0, Value: -3}, "relative_axis_event_relative_axis_type", "relative_axis_event", true},
		{"abs", hardware.Event{Type: hardware.EventAbsoluteAxis, Code: 1, Value: 512}, "absolute_axis_event_absolute_axis_type", "absolute_axis_event", true},
		{"switch", hardware.Event{Type: hardware.EventSwitch, Code: 0, Value: 1}, "switch_event_switch_type", "switch_event", true},
		{"sync", hardware.Event{Type: hardware.EventSync}, "", "", false},
		{"misc", hardware.Event{Type: hardware.EventMisc, Code: 4, Value: 458756}, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := DescriptorFor(tt.event)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			m := d.Map()
			assert.Equal(t, tt.kind, m[FieldEventKind])
			assert.Equal(t, int64(tt.event.Code), m[tt.field])
			assert.Equal(t, int64(tt.event.Value), m[FieldEventValue])
		})
	}
}

func TestParseEventDescriptor_FromJSON(t *testing.T) {
	// Values that crossed JSON arrive as float64.
	var v any
	require.NoError(t, json.Unmarshal([]byte(`{"input_event_kind":"key_event","key_event_key_code":30,"input_event_value":2}`), &v))

	d, err := ParseEventDescriptor(v)
	require.NoError(t, err)
	assert.Equal(t, EventDescriptor{Category: CategoryKey, Code: 30, Value: 2}, d)
}

func TestParseEventDescriptor_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"not a map", 42},
		{"empty", map[string]any{}},
		{"unknown kind", map[string]any{FieldEventKind: "touch_event"}},
		{"missing code", map[string]any{FieldEventKind: "key_event", FieldEventValue: int64(1)}},
		{"wrong code field", map[string]any{FieldEventKind: "key_event", "led_event_led_type": int64(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEventDescriptor(tt.in)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestParseEventDescriptor_MissingValue(t *testing.T) {
	d, err := ParseEventDescriptor(map[string]any{FieldEventKind: "switch_event", "switch_event_switch_type": int64(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(-1), d.Value)
}

func TestParseSendCommand(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    SendCommand
		wantErr bool
	}{
		{
			name: "valid",
			in:   map[string]any{"event_type": int64(1), "code": int64(30), "value": true},
			want: SendCommand{EventType: hardware.EventKey, Code: 30, Value: true},
		},
		{
			name: "json numbers",
			in:   map[string]any{"event_type": json.Number("17"), "code": json.Number("0"), "value": false},
			want: SendCommand{EventType: hardware.EventLED, Code: 0, Value: false},
		},
		{name: "not a map", in: "x", wantErr: true},
		{name: "missing value", in: map[string]any{"event_type": int64(1), "code": int64(30)}, wantErr: true},
		{name: "value not bool", in: map[string]any{"event_type": int64(1), "code": int64(30), "value": 1}, wantErr: true},
		{name: "negative code", in: map[string]any{"event_type": int64(1), "code": int64(-1), "value": true}, wantErr: true},
		{name: "type too large", in: map[string]any{"event_type": int64(math.MaxUint16 + 1), "code": int64(1), "value": true}, wantErr: true},
		{name: "fractional code", in: map[string]any{"event_type": int64(1), "code": 1.5, "value": true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSendCommand(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendCommand_Event(t *testing.T) {
	on := SendCommand{EventType: hardware.EventLED, Code: 1, Value: true}.Event()
	assert.Equal(t, hardware.Event{Type: hardware.EventLED, Code: 1, Value: math.MaxInt32}, on)

	off := SendCommand{EventType: hardware.EventLED, Code: 1}.Event()
	assert.Equal(t, int32(0), off.Value)
}
