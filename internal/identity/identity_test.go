package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDeterministicID_Stable(t *testing.T) {
	tuples := [][]string{
		{"AT Translated Set 2 keyboard", "isa0060/serio0/input0"},
		{"AT Translated Set 2 keyboard", "isa0060/serio0/input0", "KEY_A"},
		{AnyDevice, "KEY_A"},
		{""},
		{"ünïcode", "päth"},
	}

	for _, tuple := range tuples {
		first := DeterministicID(tuple...)
		second := DeterministicID(tuple...)
		assert.Equal(t, first, second, "tuple %v", tuple)
		assert.Equal(t, uuid.Version(5), first.Version())
	}
}

func TestDeterministicID_MatchesNameBasedUUID(t *testing.T) {
	ns := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd530c7")
	want := uuid.NewSHA1(ns, []byte("Logitech USB Receiver-usb-0000:00:14.0-2/input0-KEY_A"))

	got := FeatureID("Logitech USB Receiver", "usb-0000:00:14.0-2/input0", "KEY_A")

	assert.Equal(t, want, got)
	assert.Equal(t, "95ef2479-4ab0-5205-9fee-1d91fe6eea5a", got.String())
}

// Ids are shared with other nodes on the same graph, so the values are fixed.
func TestDeterministicID_PinnedValues(t *testing.T) {
	assert.Equal(t, "3dde296d-0596-5bd2-8886-f7b8c6875be3", AggregateID("KEY_A").String())
	assert.NotEqual(t, uuid.NewSHA1(uuid.NameSpaceDNS, []byte("any-device-KEY_A")), AggregateID("KEY_A"))
}

func TestDeterministicID_Distinct(t *testing.T) {
	device := DeviceID("kbd", "phys0")
	scoped := FeatureID("kbd", "phys0", "KEY_A")
	otherDevice := FeatureID("kbd", "phys1", "KEY_A")
	aggregate := AggregateID("KEY_A")

	ids := map[uuid.UUID]string{}
	for name, id := range map[string]uuid.UUID{
		"device":       device,
		"scoped":       scoped,
		"other device": otherDevice,
		"aggregate":    aggregate,
	} {
		if prev, dup := ids[id]; dup {
			t.Fatalf("%s and %s share id %s", name, prev, id)
		}
		ids[id] = name
	}
}

func TestAggregateID_IndependentOfDevice(t *testing.T) {
	assert.Equal(t, DeterministicID("any-device", "KEY_A"), AggregateID("KEY_A"))
	assert.Equal(t, "any-device-KEY_A", UniqueName(AnyDevice, "KEY_A"))
}
