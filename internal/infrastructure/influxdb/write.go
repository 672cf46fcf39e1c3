package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementInputEvent holds one point per hardware event routed by a
// device binding.
const MeasurementInputEvent = "input_event"

// WriteInputEvent records a single hardware event.
//
// deviceID is the device node's UUID and device its name; kind is the
// event category ("key", "led", ...). Tags stay low-cardinality: code is a
// small integer per category.
func (c *Client) WriteInputEvent(deviceID, device, kind string, code, value int64, ts time.Time) {
	c.WritePointWithTime(MeasurementInputEvent,
		map[string]string{
			"device_id": deviceID,
			"device":    device,
			"kind":      kind,
			"code":      strconv.FormatInt(code, 10),
		},
		map[string]any{
			"value": value,
		},
		ts,
	)
}

// WritePoint writes a point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp.
// Points written while disconnected are dropped.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
