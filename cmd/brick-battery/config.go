package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const defaultConfigFile = "/etc/brick-battery/config.yaml"

type Config struct {
	SPIPort          string        `mapstructure:"spi-port"`
	StrapPin         string        `mapstructure:"strap-pin"`
	SampleInterval   time.Duration `mapstructure:"sample-interval"`
	SignalInterval   time.Duration `mapstructure:"signal-interval"`
	ReadingsFile     string        `mapstructure:"readings-file"`
	ReadingsMaxLines int           `mapstructure:"readings-max-lines"`
}

// ParseConfig loads the service configuration, falling back to defaults
// when no config file is present.
func ParseConfig(file string) (*Config, error) {
	v := viper.New()
	v.SetDefault("spi-port", "SPI0.1")
	v.SetDefault("strap-pin", "GPIO8")
	v.SetDefault("sample-interval", 100*time.Millisecond)
	v.SetDefault("signal-interval", time.Minute)
	v.SetDefault("readings-file", "/var/log/brick-battery-readings.csv")
	v.SetDefault("readings-max-lines", 20000)

	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "read config %q", file)
		}
		log.Printf("no config file at %s, using defaults", file)
	}

	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	return conf, nil
}
