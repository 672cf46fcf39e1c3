package input

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-input/internal/infrastructure/mqtt"
)

// DefaultHealthInterval is used when no interval is configured.
const DefaultHealthInterval = 30 * time.Second

// HealthStatus represents the operational status of the input bridge.
type HealthStatus string

const (
	// HealthHealthy indicates devices are bound and MQTT is connected.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge runs with no bound device.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is published on the input health topic.
type HealthMessage struct {
	Bridge         string       `json:"bridge"`
	Timestamp      time.Time    `json:"timestamp"`
	Status         HealthStatus `json:"status"`
	Version        string       `json:"version"`
	UptimeSeconds  int64        `json:"uptime_seconds"`
	DevicesBound   int          `json:"devices_bound"`
	BehavioursLive int          `json:"behaviours_live"`
	Reason         string       `json:"reason,omitempty"`
}

// HealthPublisher is the interface for publishing health messages.
// This is typically implemented by an MQTT client.
type HealthPublisher interface {
	// Publish sends a message to a topic with the specified QoS and retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// BindingCounter reports live binding counts. *Managers satisfies it.
type BindingCounter interface {
	DeviceCount() int
	BehaviourCount() int
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	// Version is the software version.
	Version string

	// Interval is how often to publish. Default: 30 seconds.
	Interval time.Duration

	// Publisher is the MQTT client for publishing messages.
	Publisher HealthPublisher

	// Counter supplies the bound device and behaviour counts.
	Counter BindingCounter
}

// HealthReporter publishes the bridge status to MQTT at a fixed interval.
type HealthReporter struct {
	version   string
	startTime time.Time
	interval  time.Duration
	publisher HealthPublisher
	counter   BindingCounter

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewHealthReporter creates a health reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultHealthInterval
	}

	return &HealthReporter{
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		counter:   cfg.Counter,
		done:      make(chan struct{}),
	}
}

// SetLogger sets the logger for this reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// Start publishes "starting" and then reports periodically until ctx is
// cancelled or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	if err := h.publishStatus(HealthStarting, "bridge starting"); err != nil {
		h.logError("failed to publish starting status", err)
	}

	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // Best-effort during shutdown
		h.publishStatus(HealthStopping, "")
	})
}

// PublishNow publishes the current status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	if h.counter == nil || h.counter.DeviceCount() == 0 {
		return HealthDegraded, "no device bound"
	}
	return HealthHealthy, ""
}

// Message builds the health message for status.
func (h *HealthReporter) Message(status HealthStatus, reason string) HealthMessage {
	msg := HealthMessage{
		Bridge:        "input",
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Reason:        reason,
	}
	if h.counter != nil {
		msg.DevicesBound = h.counter.DeviceCount()
		msg.BehavioursLive = h.counter.BehaviourCount()
	}
	return msg
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.publisher == nil || !h.publisher.IsConnected() {
		return nil
	}

	payload, err := json.Marshal(h.Message(status, reason))
	if err != nil {
		return err
	}
	return h.publisher.Publish(mqtt.Topics{}.InputHealth(), payload, 1, true)
}

func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
