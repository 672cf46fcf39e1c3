package input

import (
	"fmt"

	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

// DeviceNodeType is the node type of a bound input device.
const DeviceNodeType = "input_device"

// Device node property names.
const (
	PropName          = "name"
	PropLabel         = "label"
	PropPhysicalPath  = "physical_path"
	PropDriverVersion = "driver_version"
	PropVendor        = "vendor"
	PropProduct       = "product"
	PropVersion       = "version"
	PropEvent         = "event"
	PropSendEvent     = "send_event"

	// PropState is the materialized value of a feature node.
	PropState = "state"
)

// Category is one of the feature categories an input device can expose.
type Category int

// Feature categories.
const (
	CategoryKey Category = iota
	CategoryLED
	CategoryRelativeAxis
	CategoryAbsoluteAxis
	CategorySwitch
)

// Categories lists every category in materialization order.
var Categories = []Category{
	CategoryKey,
	CategoryLED,
	CategoryRelativeAxis,
	CategoryAbsoluteAxis,
	CategorySwitch,
}

type categoryInfo struct {
	name          string
	eventType     hardware.EventType
	eventKind     string
	discriminator string
	command       string
	sendKind      string
	zero          any
}

var categoryTable = [...]categoryInfo{
	CategoryKey: {
		name:          "key",
		eventType:     hardware.EventKey,
		eventKind:     "key_event",
		discriminator: "key_code",
		command:       "set_key_down",
		sendKind:      "send_key_event",
		zero:          false,
	},
	CategoryLED: {
		name:          "led",
		eventType:     hardware.EventLED,
		eventKind:     "led_event",
		discriminator: "led_type",
		command:       "set_state",
		sendKind:      "send_led_event",
		zero:          false,
	},
	CategoryRelativeAxis: {
		name:          "relative_axis",
		eventType:     hardware.EventRelativeAxis,
		eventKind:     "relative_axis_event",
		discriminator: "relative_axis_type",
		zero:          int64(0),
	},
	CategoryAbsoluteAxis: {
		name:          "absolute_axis",
		eventType:     hardware.EventAbsoluteAxis,
		eventKind:     "absolute_axis_event",
		discriminator: "absolute_axis_type",
		zero:          int64(0),
	},
	CategorySwitch: {
		name:          "switch",
		eventType:     hardware.EventSwitch,
		eventKind:     "switch_event",
		discriminator: "switch_type",
		zero:          int64(0),
	},
}

func (c Category) info() categoryInfo {
	if c < 0 || int(c) >= len(categoryTable) {
		return categoryInfo{}
	}
	return categoryTable[c]
}

// String returns the category name ("key", "relative_axis", ...). It is also
// the name of the feature property holding the symbolic code name.
func (c Category) String() string {
	if name := c.info().name; name != "" {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// EventType returns the hardware event category code.
func (c Category) EventType() hardware.EventType { return c.info().eventType }

// EventKind returns the descriptor kind, which is also the read edge type.
func (c Category) EventKind() string { return c.info().eventKind }

// CodeField returns the descriptor field carrying the discriminator,
// e.g. "key_event_key_code".
func (c Category) CodeField() string {
	info := c.info()
	return info.eventKind + "_" + info.discriminator
}

// NodeType returns the feature node type, e.g. "input_device_key".
func (c Category) NodeType() string { return DeviceNodeType + "_" + c.info().name }

// Discriminator returns the feature property holding the hardware code.
func (c Category) Discriminator() string { return c.info().discriminator }

// Command returns the writable command property, or "" if the category is
// read-only.
func (c Category) Command() string { return c.info().command }

// SendKind returns the write edge type, or "" if the category is read-only.
func (c Category) SendKind() string { return c.info().sendKind }

// Writable reports whether the category has a write path.
func (c Category) Writable() bool { return c.info().command != "" }

// ZeroState returns the initial value of a feature's state.
func (c Category) ZeroState() any { return c.info().zero }

// CategoryForEventType maps a hardware event category to a feature category.
func CategoryForEventType(t hardware.EventType) (Category, bool) {
	for _, c := range Categories {
		if c.EventType() == t {
			return c, true
		}
	}
	return 0, false
}

// CategoryForNodeType maps a feature node type to its category.
func CategoryForNodeType(nodeType string) (Category, bool) {
	for _, c := range Categories {
		if c.NodeType() == nodeType {
			return c, true
		}
	}
	return 0, false
}

// WritableProperty reports whether prop may be set from outside the engine on
// a node of nodeType. Device identity, labels and feature discriminators are
// fixed at creation; only the event, state and command properties change.
func WritableProperty(nodeType, prop string) bool {
	if nodeType == DeviceNodeType {
		return prop == PropEvent || prop == PropSendEvent
	}
	c, ok := CategoryForNodeType(nodeType)
	if !ok {
		return false
	}
	return prop == PropState || (c.Writable() && prop == c.Command())
}

func categoryForEventKind(kind string) (Category, bool) {
	for _, c := range Categories {
		if c.EventKind() == kind {
			return c, true
		}
	}
	return 0, false
}

// BehaviourKind is the closed set of behaviours the managers attach.
type BehaviourKind int

// Behaviour kinds.
const (
	BehaviourUnknown BehaviourKind = iota
	BehaviourDeviceBridge
	BehaviourKeyEvent
	BehaviourLEDEvent
	BehaviourRelativeAxisEvent
	BehaviourAbsoluteAxisEvent
	BehaviourSwitchEvent
	BehaviourSendKeyEvent
	BehaviourSendLEDEvent
)

// RoutingKinds lists the seven edge behaviours.
var RoutingKinds = []BehaviourKind{
	BehaviourKeyEvent,
	BehaviourLEDEvent,
	BehaviourRelativeAxisEvent,
	BehaviourAbsoluteAxisEvent,
	BehaviourSwitchEvent,
	BehaviourSendKeyEvent,
	BehaviourSendLEDEvent,
}

// ParseBehaviourKind maps a node or edge type name to its behaviour.
// Unrecognised names return BehaviourUnknown.
func ParseBehaviourKind(typeName string) BehaviourKind {
	switch typeName {
	case DeviceNodeType:
		return BehaviourDeviceBridge
	case "key_event":
		return BehaviourKeyEvent
	case "led_event":
		return BehaviourLEDEvent
	case "relative_axis_event":
		return BehaviourRelativeAxisEvent
	case "absolute_axis_event":
		return BehaviourAbsoluteAxisEvent
	case "switch_event":
		return BehaviourSwitchEvent
	case "send_key_event":
		return BehaviourSendKeyEvent
	case "send_led_event":
		return BehaviourSendLEDEvent
	default:
		return BehaviourUnknown
	}
}

// String returns the node or edge type name the behaviour is bound to.
func (k BehaviourKind) String() string {
	switch k {
	case BehaviourDeviceBridge:
		return DeviceNodeType
	case BehaviourKeyEvent, BehaviourLEDEvent, BehaviourRelativeAxisEvent,
		BehaviourAbsoluteAxisEvent, BehaviourSwitchEvent:
		return k.Category().EventKind()
	case BehaviourSendKeyEvent, BehaviourSendLEDEvent:
		return k.Category().SendKind()
	default:
		return "unknown"
	}
}

// Category returns the feature category a routing behaviour serves.
func (k BehaviourKind) Category() Category {
	switch k {
	case BehaviourKeyEvent, BehaviourSendKeyEvent:
		return CategoryKey
	case BehaviourLEDEvent, BehaviourSendLEDEvent:
		return CategoryLED
	case BehaviourRelativeAxisEvent:
		return CategoryRelativeAxis
	case BehaviourAbsoluteAxisEvent:
		return CategoryAbsoluteAxis
	case BehaviourSwitchEvent:
		return CategorySwitch
	default:
		return -1
	}
}

// IsRouting reports whether k is one of the seven edge behaviours.
func (k BehaviourKind) IsRouting() bool {
	return k >= BehaviourKeyEvent && k <= BehaviourSendLEDEvent
}

// Outbound reports whether k is a write-path behaviour
// (feature -> device).
func (k BehaviourKind) Outbound() bool {
	return k == BehaviourSendKeyEvent || k == BehaviourSendLEDEvent
}
