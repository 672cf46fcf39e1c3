//go:build linux

package hardware

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Adapter = (*EvdevAdapter)(nil)

func TestEvdevAdapter_OpenMissing(t *testing.T) {
	_, err := NewEvdevAdapter().Open("/dev/input/event-missing")
	assert.Error(t, err)
}

// Runs against whatever input devices the host exposes; none is fine.
func TestEvdevAdapter_EnumerateReadsIdentity(t *testing.T) {
	if _, err := os.Stat("/dev/input"); err != nil {
		t.Skip("no /dev/input on this host")
	}
	devices, err := NewEvdevAdapter().Enumerate()
	require.NoError(t, err)
	for _, d := range devices {
		v := d.DriverVersion()
		assert.GreaterOrEqual(t, v.Major, 0)
		assert.NoError(t, d.Close())
	}
}
