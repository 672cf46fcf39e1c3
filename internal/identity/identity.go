// Package identity derives stable node identifiers for the input graph.
//
// Identifiers are name-based (version 5) UUIDs in a fixed input-device
// namespace, computed over the components of a human-readable tuple joined
// with "-". The same
// tuple always yields the same id, across processes and restarts, so a
// re-run of device discovery lands on the nodes it created last time.
//
//	id := identity.DeterministicID("AT Translated Set 2 keyboard", "isa0060/serio0/input0")
//	agg := identity.DeterministicID(identity.AnyDevice, "KEY_A")
package identity

import (
	"strings"

	"github.com/google/uuid"
)

// Delimiter joins tuple components before hashing.
const Delimiter = "-"

// AnyDevice is the leading component of every aggregate feature tuple.
const AnyDevice = "any-device"

// Namespace is the UUID namespace all input identities are hashed under.
var Namespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd530c7")

// UniqueName joins components into the name that is hashed and also stored
// as the node's "name" property.
func UniqueName(components ...string) string {
	return strings.Join(components, Delimiter)
}

// DeterministicID returns the name-based id for the given tuple.
func DeterministicID(components ...string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(UniqueName(components...)))
}

// DeviceID identifies a device node.
func DeviceID(name, physicalPath string) uuid.UUID {
	return DeterministicID(name, physicalPath)
}

// FeatureID identifies a device-scoped feature node.
func FeatureID(deviceName, physicalPath, featureName string) uuid.UUID {
	return DeterministicID(deviceName, physicalPath, featureName)
}

// AggregateID identifies the device-agnostic node for a feature.
func AggregateID(featureName string) uuid.UUID {
	return DeterministicID(AnyDevice, featureName)
}
