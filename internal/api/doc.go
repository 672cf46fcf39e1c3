// Package api serves the node graph over HTTP.
//
// Routes live under /api/v1:
//
//	GET  /health                                  service status and graph counts
//	GET  /nodes?type=                             list nodes
//	GET  /nodes/{id}                              one node with its properties
//	PUT  /nodes/{id}/properties/{name}            write a property ({"value": ...})
//	GET  /nodes/{id}/properties/{name}/stream     WebSocket of property values
//	GET  /edges                                   list edges
//	GET  /bindings                                live device bindings and behaviours
//
// A property write runs every observer before the response is sent, so
// a PUT to an input device's send_event property reaches the device
// before the call returns. Only event, state and command properties are
// writable; identity and discriminator properties answer 403. Streams
// receive the current value first and then every later write. When mDNS
// is enabled the server advertises itself as _graylogic-input._tcp.
package api
