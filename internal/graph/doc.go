// Package graph is the in-process store of typed nodes and directed edges
// that the input bridge publishes hardware state into.
//
// # Model
//
// A Node has a fixed set of named, observable properties. Each Property
// supports Get/Set and Subscribe/Unsubscribe by Handle. Edges are keyed by
// (outbound id, type, inbound id) and reference both endpoint nodes.
//
//	┌──────────────┐  key_event   ┌──────────────────┐
//	│ input_device │─────────────►│ input_device_key │
//	│   event      │              │   state          │
//	│   send_event │◄─────────────│   set_key_down   │
//	└──────────────┘ send_key_event└──────────────────┘
//
// # Observation
//
// Property.Set stores the value and then calls every subscriber
// synchronously on the calling goroutine, in subscription order. Callers
// that write from a background goroutine therefore drive all downstream
// reactions on that goroutine.
//
// # Lifecycle hooks
//
// Listeners registered with Store.AddListener are told about every node and
// edge added or removed. Teardown reports removals by id/key only, which is
// the bulk path used at shutdown.
//
// # Persistence
//
// With a Repository attached, creation specs are written through to SQLite
// and Store.Load replays them (through the add hooks) on the next start.
//
// # Thread Safety
//
// All exported types are safe for concurrent use.
package graph
