package stub

import (
	"sync"

	proto "github.com/ystepanoff/e012tx/protocol"
	"github.com/ystepanoff/e012tx/transport"
)

// Frame is one payload handed to the stub, with the RF settings in effect.
type Frame struct {
	Channel uint8
	Power   proto.Power
	Data    []byte
}

// Driver implements a fake nRF24L01 for host-side runs and tests. It keeps a
// register file and a bounded log of transmitted payloads.
type Driver struct {
	mu      sync.Mutex
	regs    [0x20][]byte
	channel uint8
	power   proto.Power
	bitrate proto.Bitrate
	mode    proto.Mode
	txBuf   ringBuffer
	sent    uint64

	// FailReset makes Reset report a failure.
	FailReset bool
}

func New() *Driver { return &Driver{} }

var _ transport.Transceiver = (*Driver)(nil)

func (d *Driver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.regs {
		d.regs[i] = nil
	}
	d.regs[proto.RegStatus] = []byte{0x0E}
	return nil
}

func (d *Driver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = proto.ModeOff
	if d.FailReset {
		return errResetFailed
	}
	return nil
}

func (d *Driver) FlushTx() error { return nil }
func (d *Driver) FlushRx() error { return nil }

func (d *Driver) WriteReg(reg, value byte) error {
	return d.WriteRegMulti(reg, []byte{value})
}

func (d *Driver) WriteRegMulti(reg byte, data []byte) error {
	if int(reg) >= len(d.regs) {
		return errInvalidRegister
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v := make([]byte, len(data))
	copy(v, data)
	if reg == proto.RegStatus && len(v) > 0 {
		// write-1-to-clear interrupt flags
		cur := d.regByte(reg)
		v[0] = cur &^ (v[0] & proto.StatusClearIRQ)
	}
	d.regs[reg] = v
	return nil
}

func (d *Driver) ReadReg(reg byte) (byte, error) {
	if int(reg) >= len(d.regs) {
		return 0, errInvalidRegister
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regByte(reg), nil
}

func (d *Driver) regByte(reg byte) byte {
	if len(d.regs[reg]) == 0 {
		return 0
	}
	return d.regs[reg][0]
}

func (d *Driver) Activate(code byte) error { return nil }

func (d *Driver) WritePayload(data []byte) error {
	if len(data) > proto.MaxFrameSize {
		return errPayloadTooLong
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	frame := make([]byte, len(data))
	copy(frame, data)
	d.txBuf.push(Frame{Channel: d.channel, Power: d.power, Data: frame})
	d.sent++
	return nil
}

func (d *Driver) SetChannel(ch uint8) error {
	if ch > proto.MaxRFChannel {
		return proto.ErrInvalidChannel
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.channel = ch
	return nil
}

func (d *Driver) SetBitrate(br proto.Bitrate) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bitrate = br
	return nil
}

func (d *Driver) SetPower(p proto.Power) error {
	if !p.Valid() {
		return proto.ErrInvalidPower
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.power = p
	return nil
}

func (d *Driver) SetTxRxMode(m proto.Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = m
	return nil
}

// GetTxLog returns the most recent transmitted frames, oldest first.
func (d *Driver) GetTxLog() []Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txBuf.snapshot()
}

// Sent counts every payload written since creation.
func (d *Driver) Sent() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent
}

func (d *Driver) Power() proto.Power {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.power
}

func (d *Driver) Register(reg byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(reg) >= len(d.regs) {
		return nil
	}
	return append([]byte(nil), d.regs[reg]...)
}

const ringCapacity = 64

type ringBuffer struct {
	data       [ringCapacity]Frame
	head, tail int // head = oldest, tail = next push
	count      int
}

func (rb *ringBuffer) push(f Frame) {
	if rb.count == ringCapacity {
		// Overwrite the oldest when buffer is full to keep memory bounded
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = f
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) snapshot() []Frame {
	out := make([]Frame, rb.count)
	i := rb.head
	for c := 0; c < rb.count; c++ {
		f := rb.data[i]
		f.Data = append([]byte(nil), f.Data...)
		out[c] = f
		i = (i + 1) % ringCapacity
	}
	return out
}
