package adc

import (
	"encoding/binary"
	"testing"

	"github.com/OpenBrickProject/brick-battery/battery"
	"github.com/stretchr/testify/assert"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
)

type fakeConn struct {
	rx  []byte
	err error
	tx  []byte
}

func (f *fakeConn) String() string { return "fake" }

func (f *fakeConn) Duplex() conn.Duplex { return conn.Full }

func (f *fakeConn) TxPackets(p []spi.Packet) error { return nil }

func (f *fakeConn) Tx(w, r []byte) error {
	f.tx = append([]byte(nil), w...)
	if f.err != nil {
		return f.err
	}
	copy(r, f.rx)
	return nil
}

// frames packs 16-bit output frames into a response buffer.
func frames(ws ...uint16) []byte {
	buf := make([]byte, 2*len(ws))
	for i, w := range ws {
		binary.BigEndian.PutUint16(buf[2*i:], w)
	}
	return buf
}

func TestManualFrame(t *testing.T) {
	assert.Equal(t, uint16(0x19c0), manualFrame(currentChannel))
	assert.Equal(t, uint16(0x1a40), manualFrame(voltageChannel))
}

func TestDecodeFrame(t *testing.T) {
	ch, raw := decodeFrame(0x3fff)
	assert.Equal(t, uint16(3), ch)
	assert.Equal(t, uint16(0xfff), raw)

	ch, raw = decodeFrame(0x4064)
	assert.Equal(t, uint16(4), ch)
	assert.Equal(t, uint16(100), raw)
}

func TestReadPair(t *testing.T) {
	fake := &fakeConn{rx: frames(0, 0, 3<<12|100, 4<<12|2000)}
	a := &ADS7957{conn: fake, started: true}

	s, err := a.Read()
	assert.NoError(t, err)
	assert.Equal(t, battery.RawSample{Current: 100, Voltage: 2000}, s)

	// The burst keeps the current/voltage sequence programmed throughout.
	assert.Equal(t, frames(
		manualFrame(currentChannel), manualFrame(voltageChannel),
		manualFrame(currentChannel), manualFrame(voltageChannel)), fake.tx)
}

func TestReadPairRejectsWrongChannelOrder(t *testing.T) {
	fake := &fakeConn{rx: frames(0, 0, 4<<12|2000, 3<<12|100)}
	a := &ADS7957{conn: fake, started: true}

	_, err := a.Read()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, battery.ErrBusy)
	assert.NotErrorIs(t, err, battery.ErrNotPresent)
	assert.NotErrorIs(t, err, battery.ErrRetryLater)
}

func TestReadBeforeStartRetriesLater(t *testing.T) {
	a := &ADS7957{conn: &fakeConn{}}

	_, err := a.Read()
	assert.ErrorIs(t, err, battery.ErrRetryLater)
}

func TestReadWhileBurstInFlightIsBusy(t *testing.T) {
	a := &ADS7957{conn: &fakeConn{}, started: true}
	a.mu.Lock()
	defer a.mu.Unlock()

	_, err := a.Read()
	assert.ErrorIs(t, err, battery.ErrBusy)
}

func TestReadAfterCloseNotPresent(t *testing.T) {
	a := &ADS7957{conn: &fakeConn{}, closed: true}

	_, err := a.Read()
	assert.ErrorIs(t, err, battery.ErrNotPresent)
}
