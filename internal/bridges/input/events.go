package input

import (
	"fmt"
	"math"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

// Event descriptor fields.
const (
	FieldEventKind  = "input_event_kind"
	FieldEventValue = "input_event_value"
)

// Command descriptor fields.
const (
	FieldEventType = "event_type"
	FieldCode      = "code"
	FieldValue     = "value"
)

// noValue is used when a descriptor carries no value. No transition matches it.
const noValue = -1

// EventDescriptor is the canonical form of a hardware event as written to a
// device node's "event" property.
type EventDescriptor struct {
	Category Category
	Code     int64
	Value    int64
}

// DescriptorFor classifies a hardware event. Categories without a feature
// kind (sync, misc, ...) return false.
func DescriptorFor(ev hardware.Event) (EventDescriptor, bool) {
	c, ok := CategoryForEventType(ev.Type)
	if !ok {
		return EventDescriptor{}, false
	}
	return EventDescriptor{Category: c, Code: int64(ev.Code), Value: int64(ev.Value)}, true
}

// Map returns the property value, e.g.
//
//	{"input_event_kind": "key_event", "key_event_key_code": 30, "input_event_value": 1}
func (d EventDescriptor) Map() map[string]any {
	return map[string]any{
		FieldEventKind:         d.Category.EventKind(),
		d.Category.CodeField(): d.Code,
		FieldEventValue:        d.Value,
	}
}

// ParseEventDescriptor reads a descriptor back from a property value.
// A missing value is reported as -1.
func ParseEventDescriptor(v any) (EventDescriptor, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return EventDescriptor{}, fmt.Errorf("%w: event is %T", ErrMalformedPayload, v)
	}

	kind, _ := m[FieldEventKind].(string)
	c, ok := categoryForEventKind(kind)
	if !ok {
		return EventDescriptor{}, fmt.Errorf("%w: event kind %q", ErrMalformedPayload, kind)
	}

	code, ok := graph.AsInt64(m[c.CodeField()])
	if !ok {
		return EventDescriptor{}, fmt.Errorf("%w: missing %s", ErrMalformedPayload, c.CodeField())
	}

	value, ok := graph.AsInt64(m[FieldEventValue])
	if !ok {
		value = noValue
	}

	return EventDescriptor{Category: c, Code: code, Value: value}, nil
}

// SendCommand is an outbound write as carried by a device node's
// "send_event" property.
type SendCommand struct {
	EventType hardware.EventType
	Code      uint16
	Value     bool
}

// Map returns the property value, e.g.
//
//	{"event_type": 1, "code": 30, "value": true}
func (c SendCommand) Map() map[string]any {
	return map[string]any{
		FieldEventType: int64(c.EventType),
		FieldCode:      int64(c.Code),
		FieldValue:     c.Value,
	}
}

// Event converts the command into a hardware event. true maps to the largest
// positive event value, false to 0.
func (c SendCommand) Event() hardware.Event {
	var value int32
	if c.Value {
		value = math.MaxInt32
	}
	return hardware.Event{Type: c.EventType, Code: c.Code, Value: value}
}

// ParseSendCommand validates a send_event payload. event_type and code must
// be integers in the 16-bit unsigned range and value must be a boolean.
func ParseSendCommand(v any) (SendCommand, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return SendCommand{}, fmt.Errorf("%w: command is %T", ErrMalformedPayload, v)
	}

	eventType, err := uint16Field(m, FieldEventType)
	if err != nil {
		return SendCommand{}, err
	}
	code, err := uint16Field(m, FieldCode)
	if err != nil {
		return SendCommand{}, err
	}
	value, ok := m[FieldValue].(bool)
	if !ok {
		return SendCommand{}, fmt.Errorf("%w: %s is not a boolean", ErrMalformedPayload, FieldValue)
	}

	return SendCommand{EventType: hardware.EventType(eventType), Code: code, Value: value}, nil
}

func uint16Field(m map[string]any, field string) (uint16, error) {
	n, ok := graph.AsInt64(m[field])
	if !ok || n < 0 || n > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %s is not a 16-bit code", ErrMalformedPayload, field)
	}
	return uint16(n), nil
}
