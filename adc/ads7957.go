// Package adc reads the brick's battery sense channels from the ADS7957
// analog front end over SPI and feeds them to the battery state manager.
package adc

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/OpenBrickProject/brick-battery/battery"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

var log = logrus.New()

// Battery sense channel assignments on the brick's analog front end.
const (
	currentChannel = 3
	voltageChannel = 4
)

// Manual-mode command frame layout: mode in the top four bits, a
// programming-enable bit, the channel address and the input range select.
// Conversion results come back with the channel address in the top four
// bits and the 12-bit result below it.
const (
	manualMode  = 0x1 << 12
	programBits = 1 << 11
	range2x     = 1 << 6
	dataMask    = 0xfff
)

// manualFrame builds one command frame selecting a channel for the next
// conversion.
func manualFrame(channel uint16) uint16 {
	return manualMode | programBits | channel<<7 | range2x
}

// decodeFrame splits an output frame into the echoed channel address and
// the 12-bit conversion result.
func decodeFrame(w uint16) (channel, raw uint16) {
	return w >> 12, w & dataMask
}

// ADS7957 is the acquisition source for the battery sense channels. It
// implements battery.SampleSource for on-demand reads and runs an
// optional background loop pushing conversion pairs to a handler.
type ADS7957 struct {
	interval time.Duration

	mu      sync.Mutex // serializes bus bursts; contended reads report busy
	port    spi.PortCloser
	conn    spi.Conn
	started bool
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// Open connects to the ADC on the named SPI port. A port that cannot be
// resolved yet maps to battery.ErrNotReady so attach can be retried once
// the SPI driver has finished loading.
func Open(portName string, interval time.Duration) (*ADS7957, error) {
	port, err := spireg.Open(portName)
	if err != nil {
		return nil, errors.Wrapf(battery.ErrNotReady, "open spi port %q: %v", portName, err)
	}
	conn, err := port.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, errors.Wrap(err, "configure spi connection")
	}
	return &ADS7957{port: port, conn: conn, interval: interval}, nil
}

// Read returns a fresh conversion pair. It never waits behind the
// acquisition loop: a read that collides with an in-flight burst reports
// battery.ErrBusy so the state manager falls back to its stored values.
func (a *ADS7957) Read() (battery.RawSample, error) {
	if !a.mu.TryLock() {
		return battery.RawSample{}, battery.ErrBusy
	}
	defer a.mu.Unlock()
	if a.closed {
		return battery.RawSample{}, battery.ErrNotPresent
	}
	if !a.started {
		// The channel sequence is programmed when the acquisition loop
		// starts; a conversion before that would read whatever channel the
		// mux was left on.
		return battery.RawSample{}, battery.ErrRetryLater
	}
	return a.readPair()
}

// readPair runs one four-frame burst: program the current channel, then
// the voltage channel, then keep reprogramming the same sequence while
// the two results clock out. Results lag the channel select by two
// frames.
//
// This assumes the ADS7957 manual-mode framing with the conversion pair
// coming back current-first and the result in the low 12 bits. It is not
// robust to other analog front ends; the echoed channel addresses are
// checked so a different backend fails the read instead of feeding
// garbage into calibration.
func (a *ADS7957) readPair() (battery.RawSample, error) {
	var tx, rx [8]byte
	binary.BigEndian.PutUint16(tx[0:], manualFrame(currentChannel))
	binary.BigEndian.PutUint16(tx[2:], manualFrame(voltageChannel))
	binary.BigEndian.PutUint16(tx[4:], manualFrame(currentChannel))
	binary.BigEndian.PutUint16(tx[6:], manualFrame(voltageChannel))

	if err := a.conn.Tx(tx[:], rx[:]); err != nil {
		return battery.RawSample{}, errors.Wrap(err, "adc transfer")
	}

	chI, rawI := decodeFrame(binary.BigEndian.Uint16(rx[4:]))
	chV, rawV := decodeFrame(binary.BigEndian.Uint16(rx[6:]))
	if chI != currentChannel || chV != voltageChannel {
		return battery.RawSample{}, errors.Errorf("unexpected channel sequence %d,%d", chI, chV)
	}
	return battery.RawSample{Current: rawI, Voltage: rawV}, nil
}

// Start begins converting the channel pair at the configured interval,
// pushing each result to onSample. onSample must not block.
func (a *ADS7957) Start(onSample func(battery.RawSample)) {
	a.mu.Lock()
	if a.started || a.closed {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	a.mu.Unlock()

	go a.run(onSample)
}

func (a *ADS7957) run(onSample func(battery.RawSample)) {
	defer close(a.done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.mu.Lock()
			if a.closed {
				a.mu.Unlock()
				return
			}
			s, err := a.readPair()
			a.mu.Unlock()
			if err != nil {
				log.Debugf("sample read failed: %v", err)
				continue
			}
			onSample(s)
		}
	}
}

// Stop halts the background loop and waits for it to finish. The loop
// must be stopped before Close releases the port.
func (a *ADS7957) Stop() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.started = false
	stop := a.stop
	a.mu.Unlock()

	close(stop)
	<-a.done
}

// Close releases the SPI port. Reads after Close report the device as not
// present.
func (a *ADS7957) Close() error {
	a.Stop()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.port.Close()
}
