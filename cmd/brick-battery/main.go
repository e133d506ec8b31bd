/*
brick-battery - Battery monitoring service for the programmable brick
Copyright (C) 2026, The OpenBrick Project

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenBrickProject/brick-battery/adc"
	"github.com/OpenBrickProject/brick-battery/battery"
	arg "github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	maxAttachRetries    = 10
	attachRetryInterval = 3 * time.Second
)

var (
	version = "<not set>"
	log     = logrus.New()
)

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"configuration file"`
	LogLevel   string `arg:"--log-level" default:"info" help:"log level (debug, info, warn, error)"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	args := Args{
		ConfigFile: defaultConfigFile,
	}
	arg.MustParse(&args)
	return args
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

func main() {
	if err := runMain(); err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()
	setLogLevel(args.LogLevel)

	log.Printf("running version: %s", version)

	conf, err := ParseConfig(args.ConfigFile)
	if err != nil {
		return err
	}

	if _, err := host.Init(); err != nil {
		return err
	}

	batt, acq, err := attachWithRetries(conf, maxAttachRetries)
	if err != nil {
		return err
	}
	defer acq.Close()

	svc, err := startService(batt)
	if err != nil {
		return err
	}

	// Samples only start flowing once the reporting interface is up, and
	// stop before the port is released.
	acq.Start(batt.HandleSample)
	defer acq.Stop()

	go monitorLoop(batt, svc, conf)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Printf("received %v, shutting down", sig)
	return nil
}

// attach resolves the hardware this service depends on. Dependencies that
// can show up later (SPI driver still loading, strap pin not yet
// exported) report battery.ErrNotReady so attachWithRetries tries again
// instead of failing the service permanently. Nothing is registered on
// the bus until attach has fully succeeded.
func attach(conf *Config) (*battery.Battery, *adc.ADS7957, error) {
	strap := gpioreg.ByName(conf.StrapPin)
	if strap == nil {
		return nil, nil, errors.Wrapf(battery.ErrNotReady, "strap pin %q not found", conf.StrapPin)
	}
	if err := strap.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, nil, errors.Wrapf(err, "configure strap pin %q", conf.StrapPin)
	}

	acq, err := adc.Open(conf.SPIPort, conf.SampleInterval)
	if err != nil {
		return nil, nil, err
	}

	// The strap cannot change without removing the battery, so one read
	// at attach is enough.
	rechargeable := strap.Read() == gpio.High
	batt := battery.New(acq, rechargeable)
	log.Printf("battery pack: technology=%s, design bounds %d/%d uV",
		batt.Technology(), batt.VoltageMaxDesign(), batt.VoltageMinDesign())

	return batt, acq, nil
}

func attachWithRetries(conf *Config, retries int) (*battery.Battery, *adc.ADS7957, error) {
	attempt := 0
	for {
		batt, acq, err := attach(conf)
		if err == nil {
			return batt, acq, nil
		}
		if !errors.Is(err, battery.ErrNotReady) || attempt >= retries {
			return nil, nil, err
		}
		log.Printf("hardware not ready: %v, trying %d more times", err, retries-attempt)
		time.Sleep(attachRetryInterval)
		attempt++
	}
}
