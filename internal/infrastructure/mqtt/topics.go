package mqtt

import (
	"fmt"
	"strings"
)

const (
	// TopicPrefixInput is the base for all input service topics.
	TopicPrefixInput = "graylogic/input"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for the input service's MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.InputState("6f1c...") // "graylogic/input/state/6f1c..."
type Topics struct{}

// InputState is where a node's observed value is mirrored: the "event"
// property for device nodes, "state" for feature nodes.
//
// Example: graylogic/input/state/6f1c2a3e-...
func (Topics) InputState(nodeID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefixInput, nodeID)
}

// InputCommand is where external writers set a property on a node.
//
// Example: graylogic/input/command/6f1c2a3e-...
func (Topics) InputCommand(nodeID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefixInput, nodeID)
}

// InputHealth carries the retained service health message.
//
// Example: graylogic/input/health
func (Topics) InputHealth() string {
	return TopicPrefixInput + "/health"
}

// SystemStatus carries the retained online/offline status and the LWT.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllInputStates matches every mirrored node state.
//
// Pattern: graylogic/input/state/+
func (Topics) AllInputStates() string {
	return TopicPrefixInput + "/state/+"
}

// AllInputCommands matches commands for every node.
//
// Pattern: graylogic/input/command/+
func (Topics) AllInputCommands() string {
	return TopicPrefixInput + "/command/+"
}

// AllTopics matches all input service traffic.
//
// Pattern: graylogic/input/#
func (Topics) AllTopics() string {
	return TopicPrefixInput + "/#"
}

// NodeIDFromTopic returns the trailing node id of a state or command
// topic. ok is false for any other topic.
func (Topics) NodeIDFromTopic(topic string) (id string, ok bool) {
	rest, found := strings.CutPrefix(topic, TopicPrefixInput+"/")
	if !found {
		return "", false
	}
	kind, id, found := strings.Cut(rest, "/")
	if !found || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	if kind != "state" && kind != "command" {
		return "", false
	}
	return id, true
}
