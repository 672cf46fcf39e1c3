// Package influxdb records input events in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every event routed
// by a device binding becomes one "input_event" point:
//
//	input_event,device_id=<uuid>,device=<name>,kind=key,code=30 value=1i
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // recording switched off
//	}
//	defer client.Close()
//
//	client.WriteInputEvent(id, "Keyboard", "key", 30, 1, time.Now())
//
// Writes are non-blocking and batched per batch_size and flush_interval.
// Async failures are delivered to the SetOnError callback.
package influxdb
