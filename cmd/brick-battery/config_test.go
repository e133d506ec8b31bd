package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	conf, err := ParseConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)

	assert.Equal(t, "SPI0.1", conf.SPIPort)
	assert.Equal(t, "GPIO8", conf.StrapPin)
	assert.Equal(t, 100*time.Millisecond, conf.SampleInterval)
	assert.Equal(t, time.Minute, conf.SignalInterval)
	assert.Equal(t, "/var/log/brick-battery-readings.csv", conf.ReadingsFile)
	assert.Equal(t, 20000, conf.ReadingsMaxLines)
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
spi-port: SPI1.0
strap-pin: GPIO17
sample-interval: 250ms
signal-interval: 30s
readings-max-lines: 100
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))

	conf, err := ParseConfig(path)
	assert.NoError(t, err)

	assert.Equal(t, "SPI1.0", conf.SPIPort)
	assert.Equal(t, "GPIO17", conf.StrapPin)
	assert.Equal(t, 250*time.Millisecond, conf.SampleInterval)
	assert.Equal(t, 30*time.Second, conf.SignalInterval)
	assert.Equal(t, 100, conf.ReadingsMaxLines)

	// Keys not present in the file keep their defaults.
	assert.Equal(t, "/var/log/brick-battery-readings.csv", conf.ReadingsFile)
}
