// Package input binds Linux input devices into the node graph.
//
// Every bound device is an input_device node. A DeviceBinding runs one
// goroutine per device that reads hardware events and writes a canonical
// descriptor to the node's "event" property, and watches "send_event" to
// write commands back to the hardware.
//
// Feature nodes (keys, LEDs, axes, switches) hang off the device node via
// typed edges. A RoutingBehaviour is attached to each edge:
//
//	┌──────────────┐ key_event, led_event, ...  ┌──────────────────┐
//	│ input_device │──────────────────────────►│ input_device_key │
//	│   (event)    │                            │     (state)      │
//	│ (send_event) │◄──────────────────────────│  (set_key_down)  │
//	└──────────────┘ send_key_event             └──────────────────┘
//
// Read-path behaviours filter the device's event stream by category and code
// and update the feature's "state". Key and LED states only change on an
// actual transition; axes and switches copy every value.
//
// Write-path behaviours watch the feature's command property and turn a
// boolean write into a send_event command on the device.
//
// # Aggregates
//
// Besides the per-device feature nodes, the Materializer can create one
// device-agnostic "any-device" node per feature. Every device exposing the
// feature adds its own edge to that node, so it reflects the feature
// regardless of which device raised it.
//
// # Lifecycle
//
// Managers implements graph.Listener. Adding an input_device node binds the
// device; adding a routing edge attaches its behaviour. Removing them, or
// tearing down the store, detaches. Attaching over a live entry detaches the
// old one first.
//
// # Thread Safety
//
// Property observers run synchronously on the goroutine that wrote the
// property. Event routing therefore runs on the device goroutine, while
// outbound writes run on whichever goroutine set the command property.
package input
