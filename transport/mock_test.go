package transport

import (
	"errors"
	"sync"

	proto "github.com/ystepanoff/e012tx/protocol"
)

// sentFrame is one payload as the mock saw it go out.
type sentFrame struct {
	Channel uint8
	Power   proto.Power
	Data    []byte
}

// MockDriver implements the Transceiver interface for testing
type MockDriver struct {
	mutex sync.Mutex

	regs     map[byte][]byte
	channel  uint8
	power    proto.Power
	powerLog []proto.Power
	bitrate  proto.Bitrate
	mode     proto.Mode
	txLog    []sentFrame
	activate []byte

	status    byte // value returned for STATUS reads
	resetErr  error
	initErr   error
	writeErr  error
	initCount int
}

func NewMockDriver() *MockDriver {
	return &MockDriver{
		regs:   make(map[byte][]byte),
		status: 0x0E,
	}
}

func (d *MockDriver) Initialize() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.initCount++
	return d.initErr
}

func (d *MockDriver) Reset() error { return d.resetErr }

func (d *MockDriver) FlushTx() error { return nil }
func (d *MockDriver) FlushRx() error { return nil }

func (d *MockDriver) WriteReg(reg, value byte) error {
	return d.WriteRegMulti(reg, []byte{value})
}

func (d *MockDriver) WriteRegMulti(reg byte, data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	// Make a copy to avoid aliasing the caller's buffer
	d.regs[reg] = append([]byte(nil), data...)
	return d.writeErr
}

func (d *MockDriver) ReadReg(reg byte) (byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if reg == proto.RegStatus {
		return d.status, nil
	}
	if v, ok := d.regs[reg]; ok && len(v) > 0 {
		return v[0], nil
	}
	return 0, nil
}

func (d *MockDriver) Activate(code byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.activate = append(d.activate, code)
	return nil
}

func (d *MockDriver) WritePayload(data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if len(data) > proto.MaxFrameSize {
		return errors.New("payload exceeds fifo")
	}
	d.txLog = append(d.txLog, sentFrame{
		Channel: d.channel,
		Power:   d.power,
		Data:    append([]byte(nil), data...),
	})
	return nil
}

func (d *MockDriver) SetChannel(ch uint8) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.channel = ch
	return nil
}

func (d *MockDriver) SetBitrate(br proto.Bitrate) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.bitrate = br
	return nil
}

func (d *MockDriver) SetPower(p proto.Power) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.power = p
	d.powerLog = append(d.powerLog, p)
	return nil
}

func (d *MockDriver) SetTxRxMode(m proto.Mode) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.mode = m
	return nil
}

// Test helper methods
func (d *MockDriver) GetTxLog() []sentFrame {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]sentFrame(nil), d.txLog...)
}

func (d *MockDriver) ClearTxLog() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.txLog = d.txLog[:0]
}

func (d *MockDriver) Reg(reg byte) []byte {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]byte(nil), d.regs[reg]...)
}

func (d *MockDriver) PowerLog() []proto.Power {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]proto.Power(nil), d.powerLog...)
}

// staticChannels is a fixed ChannelSource keyed by 1-based channel number.
type staticChannels map[int]int32

func (c staticChannels) Channel(n int) int32 { return c[n] }
