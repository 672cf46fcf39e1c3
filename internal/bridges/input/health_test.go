package input

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter struct{ devices, behaviours int }

func (c fixedCounter) DeviceCount() int    { return c.devices }
func (c fixedCounter) BehaviourCount() int { return c.behaviours }

func TestHealthReporter_Status(t *testing.T) {
	tests := []struct {
		name    string
		counter BindingCounter
		want    HealthStatus
	}{
		{"no counter", nil, HealthDegraded},
		{"no devices", fixedCounter{}, HealthDegraded},
		{"bound", fixedCounter{devices: 2, behaviours: 48}, HealthHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeMQTT()
			h := NewHealthReporter(HealthReporterConfig{Version: "test", Publisher: client, Counter: tt.counter})
			require.NoError(t, h.PublishNow())

			msgs := client.sent()
			require.Len(t, msgs, 1)
			assert.Equal(t, "graylogic/input/health", msgs[0].topic)
			assert.True(t, msgs[0].retained)

			var got HealthMessage
			require.NoError(t, json.Unmarshal(msgs[0].payload, &got))
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, "input", got.Bridge)
		})
	}
}

func TestHealthReporter_StartStop(t *testing.T) {
	client := newFakeMQTT()
	h := NewHealthReporter(HealthReporterConfig{
		Version:   "test",
		Interval:  10 * time.Millisecond,
		Publisher: client,
		Counter:   fixedCounter{devices: 1},
	})

	h.Start(t.Context())
	require.Eventually(t, func() bool { return len(client.sent()) >= 3 }, waitFor, tick)
	h.Stop()
	h.Stop()

	msgs := client.sent()
	var first, last HealthMessage
	require.NoError(t, json.Unmarshal(msgs[0].payload, &first))
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].payload, &last))
	assert.Equal(t, HealthStarting, first.Status)
	assert.Equal(t, HealthStopping, last.Status)
	assert.Equal(t, 1, last.DevicesBound)
}

func TestHealthReporter_DisconnectedPublishesNothing(t *testing.T) {
	client := newFakeMQTT()
	client.connected = false
	h := NewHealthReporter(HealthReporterConfig{Publisher: client})
	require.NoError(t, h.PublishNow())
	assert.Empty(t, client.sent())
}
