package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when event recording is switched off.
	ErrDisabled = errors.New("influxdb: event recording disabled")

	// ErrConnectionFailed wraps a failed or unhealthy ping at Connect.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck after Close.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrWriteFailed wraps batch write errors passed to the SetOnError callback.
	ErrWriteFailed = errors.New("influxdb: event batch write failed")
)
