//go:build integration

package mqtt

import (
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-input/internal/infrastructure/config"
)

// These tests require a running MQTT broker at 127.0.0.1:1883.
//
//	go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestIntegration_CommandRoundtrip(t *testing.T) {
	pub, err := Connect(integrationConfig("graylogic-input-int-pub"))
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	sub, err := Connect(integrationConfig("graylogic-input-int-sub"))
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	received := make(chan string, 1)
	err = sub.Subscribe(Topics{}.AllInputCommands(), 1, func(topic string, _ []byte) error {
		if id, ok := (Topics{}).NodeIDFromTopic(topic); ok {
			select {
			case received <- id:
			default:
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := pub.Publish(Topics{}.InputCommand("node-1"), []byte(`{"property":"state","value":1}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case id := <-received:
		if id != "node-1" {
			t.Errorf("received id %q, want node-1", id)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for command")
	}
}

func TestIntegration_RetainedState(t *testing.T) {
	pub, err := Connect(integrationConfig("graylogic-input-int-retain"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer pub.Close()

	topic := Topics{}.InputState("node-retained")
	if err := pub.Publish(topic, []byte(`{"value":true}`), 1, true); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	late, err := Connect(integrationConfig("graylogic-input-int-late"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer late.Close()

	got := make(chan []byte, 1)
	if err := late.Subscribe(topic, 1, func(_ string, p []byte) error {
		select {
		case got <- p:
		default:
		}
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case p := <-got:
		if string(p) != `{"value":true}` {
			t.Errorf("retained payload = %s", p)
		}
	case <-time.After(5 * time.Second):
		t.Error("late subscriber did not receive retained state")
	}

	// Clear the retained message.
	_ = pub.Publish(topic, nil, 1, true) //nolint:errcheck // Best-effort cleanup
}
