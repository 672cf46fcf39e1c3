// Package mqtt provides the broker connection used to mirror the input
// node graph.
//
// This package manages:
//   - Connection with auto-reconnect and subscription restore
//   - Publishing with QoS and retention
//   - Wildcard subscriptions
//   - Last Will and Testament on graylogic/system/status
//
// # Topics
//
//	graylogic/input/state/<node-id>    retained node state, or device events
//	graylogic/input/command/<node-id>  property writes from other services
//	graylogic/input/health             retained service health
//	graylogic/system/status            online/offline and LWT
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllInputCommands(), 1, handler)
//
// TLS should be enabled (cfg.Broker.TLS) whenever the broker is not on
// the same host.
package mqtt
