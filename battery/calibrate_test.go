package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentConversion(t *testing.T) {
	assert.Equal(t, int64(0), CurrentMicroAmps(0))
	assert.Equal(t, int64(20000), CurrentMicroAmps(15))
	assert.Equal(t, int64(40000), CurrentMicroAmps(30))
	assert.Equal(t, int64(5460000), CurrentMicroAmps(4095))

	// Division truncates, it never rounds.
	assert.Equal(t, int64(1333), CurrentMicroAmps(1))
	assert.Equal(t, int64(21333), CurrentMicroAmps(16))
}

func TestShuntDropConversion(t *testing.T) {
	assert.Equal(t, int64(0), ShuntDropMicroVolts(0))
	assert.Equal(t, int64(1000), ShuntDropMicroVolts(15))
	assert.Equal(t, int64(66), ShuntDropMicroVolts(1))
	assert.Equal(t, int64(1066), ShuntDropMicroVolts(16))
	assert.Equal(t, int64(273000), ShuntDropMicroVolts(4095))
}

func TestVoltageConversion(t *testing.T) {
	// Divider, transistor drop and shunt correction added together.
	assert.Equal(t, int64(2201000), VoltageMicroVolts(1000, 15))

	// No input still reports the fixed transistor drop offset.
	assert.Equal(t, int64(200000), VoltageMicroVolts(0, 0))

	// Full-scale on both channels.
	assert.Equal(t, int64(8663000), VoltageMicroVolts(4095, 4095))

	// Shunt correction truncates independently of the divider term.
	assert.Equal(t, int64(2201066), VoltageMicroVolts(1000, 16))
}
