package transport

import (
	"bytes"
	"testing"
	"time"

	proto "github.com/ystepanoff/e012tx/protocol"
)

var mcuSerial = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C}

// decodePayload undoes the bit shift and whitening of a physical frame.
func decodePayload(frame []byte) []byte {
	n := int(frame[2] >> 2)
	out := make([]byte, n)
	const off = proto.GuardSize*8 + proto.ControlSize*8 + 1
	for i := range out {
		var b byte
		for j := 0; j < 8; j++ {
			pos := off + i*8 + j
			b = b<<1 | frame[pos/8]>>(7-uint(pos%8))&1
		}
		out[i] = b ^ proto.Scramble(i)
	}
	return out
}

type bindRecorder struct {
	calls []time.Duration
}

func (r *bindRecorder) record(d time.Duration) { r.calls = append(r.calls, d) }

func (r *bindRecorder) zeros() int {
	n := 0
	for _, d := range r.calls {
		if d == 0 {
			n++
		}
	}
	return n
}

func newTestSession(t *testing.T, cfg Config, ch ChannelSource, power proto.Power) (*Session, *MockDriver, *bindRecorder) {
	t.Helper()
	if ch == nil {
		ch = staticChannels{}
	}
	d := NewMockDriver()
	rec := &bindRecorder{}
	s := NewSession(d, ch, NewInputs(power), cfg, rec.record)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return s, d, rec
}

func TestSessionStart(t *testing.T) {
	s, d, rec := newTestSession(t, Config{Serial: mcuSerial, BindCount: 4}, nil, proto.Power1mW)

	st := s.Status()
	if st.Phase != PhaseBinding || st.BindRemaining != 4 || st.Cursor != 0 {
		t.Errorf("initial status = %+v", st)
	}
	if st.Address != proto.BindAddress {
		t.Errorf("active address = % X, want bind address", st.Address[:])
	}
	if got := d.Reg(proto.RegTxAddr); !bytes.Equal(got, proto.BindAddress[:]) {
		t.Errorf("TX_ADDR = % X, want % X", got, proto.BindAddress[:])
	}
	if len(rec.calls) != 1 || rec.calls[0] != 4*proto.PacketPeriod {
		t.Errorf("bind observer calls = %v, want [%v]", rec.calls, 4*proto.PacketPeriod)
	}
	if d.bitrate != proto.Bitrate1M || d.mode != proto.ModeTx {
		t.Errorf("bitrate = %v, mode = %v", d.bitrate, d.mode)
	}
	if got := d.Reg(proto.RegEnAA); !bytes.Equal(got, []byte{0x00}) {
		t.Errorf("EN_AA = % X, want 00", got)
	}
	if st.Chip != ChipNRF24L01 {
		t.Errorf("chip = %v, want nRF24L01", st.Chip)
	}
}

func TestSessionDefaultBindCount(t *testing.T) {
	s, _, _ := newTestSession(t, Config{}, nil, proto.Power1mW)
	if got := s.Status().BindRemaining; got != proto.DefaultBindCount {
		t.Errorf("BindRemaining = %d, want %d", got, proto.DefaultBindCount)
	}
}

func TestSessionBindCountdown(t *testing.T) {
	const n = 5
	s, d, rec := newTestSession(t, Config{Serial: mcuSerial, BindCount: n}, nil, proto.Power1mW)
	id := s.Identity()

	for i := 0; i < n; i++ {
		if s.Phase() != PhaseBinding {
			t.Fatalf("tick %d: phase = %v, want binding", i, s.Phase())
		}
		if got := s.Tick(); got != proto.PacketPeriod {
			t.Errorf("Tick() = %v, want %v", got, proto.PacketPeriod)
		}
	}

	if s.Phase() != PhaseLive {
		t.Fatalf("phase after %d ticks = %v, want live", n, s.Phase())
	}
	if rec.zeros() != 1 {
		t.Errorf("completion signalled %d times, want 1", rec.zeros())
	}
	if got := d.Reg(proto.RegTxAddr); !bytes.Equal(got, id.Address[:]) {
		t.Errorf("TX_ADDR = % X, want derived % X", got, id.Address[:])
	}

	for i := 0; i < 10; i++ {
		s.Tick()
	}
	if rec.zeros() != 1 || s.Phase() != PhaseLive {
		t.Errorf("completion signalled %d times after live ticks, phase %v", rec.zeros(), s.Phase())
	}

	sent := d.GetTxLog()
	if len(sent) != n+10 {
		t.Fatalf("sent %d frames, want %d", len(sent), n+10)
	}
	for i, f := range sent[:n] {
		if f.Channel != proto.RFBindChannel {
			t.Errorf("bind frame %d on channel %02X, want %02X", i, f.Channel, proto.RFBindChannel)
		}
		if f.Data[0] != proto.BindAddress[0] {
			t.Errorf("bind frame %d guard = %02X", i, f.Data[0])
		}
	}
	for i, f := range sent[n:] {
		if f.Data[0] != id.Address[0] || f.Data[1] != id.Address[0] {
			t.Errorf("live frame %d guard = %02X %02X, want %02X", i, f.Data[0], f.Data[1], id.Address[0])
		}
	}
}

func TestSessionBindFrame(t *testing.T) {
	s, d, _ := newTestSession(t, Config{Serial: mcuSerial, BindCount: 2}, nil, proto.Power1mW)
	s.Tick()

	want := []byte{0xA9, 0xAA, 0x06, 0x06, 0x06, 0x06, 0xE2, 0xA9, 0x11, 0xC7, 0xA9, 0x00, 0x00, 0x56, 0x11}
	frame := d.GetTxLog()[0].Data
	if got := decodePayload(frame); !bytes.Equal(got, want) {
		t.Errorf("bind payload = % X, want % X", got, want)
	}

	// Same bytes as the codec produces on its own for the bind address.
	ref, err := proto.NewCodec(proto.BindAddress).Encode(want)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(frame, ref) {
		t.Errorf("bind frame = % X, want % X", frame, ref)
	}

	// CRC is emulated; the nRF24L01 itself must not add one.
	if got := d.Reg(proto.RegConfig); !bytes.Equal(got, []byte{proto.BV(proto.BitPwrUp)}) {
		t.Errorf("CONFIG = % X, want %02X", got, proto.BV(proto.BitPwrUp))
	}
	if got := d.Reg(proto.RegStatus); !bytes.Equal(got, []byte{proto.StatusClearIRQ}) {
		t.Errorf("STATUS = % X, want 70", got)
	}
}

func TestSessionChannelHopping(t *testing.T) {
	s, d, _ := newTestSession(t, Config{Serial: mcuSerial, HopPolicy: proto.HopSpread, BindCount: 1}, nil, proto.Power1mW)
	s.Tick() // bind
	d.ClearTxLog()

	hops := []uint8{0x06, 0x3B, 0x4D, 0x07}
	for i := 0; i < 9; i++ {
		s.Tick()
		if c := s.Status().Cursor; c < 0 || c >= proto.NumRFChannels {
			t.Fatalf("cursor %d out of range", c)
		}
	}
	for i, f := range d.GetTxLog() {
		if want := hops[i%len(hops)]; f.Channel != want {
			t.Errorf("live frame %d on channel %02X, want %02X", i, f.Channel, want)
		}
	}
}

func TestSessionLiveFrame(t *testing.T) {
	tests := []struct {
		name     string
		channels staticChannels
		want     []byte // bytes 1..7
	}{
		{
			name:     "centered",
			channels: staticChannels{},
			want:     []byte{0x01, 0x64, 0x64, 0x64, 0x64, 0xAA, 0x02},
		},
		{
			name: "full deflection",
			channels: staticChannels{
				ChannelAileron:  ChanMaxValue,
				ChannelElevator: ChanMaxValue,
				ChannelThrottle: ChanMinValue,
				ChannelRudder:   ChanMinValue,
			},
			want: []byte{0x01, 0x00, 0xC8, 0xC8, 0x00, 0xAA, 0x02},
		},
		{
			name: "all flags",
			channels: staticChannels{
				ChannelFlip:     1,
				ChannelHeadless: 10000,
				ChannelRTH:      500,
			},
			want: []byte{0x55, 0x64, 0x64, 0x64, 0x64, 0xAA, 0x02},
		},
		{
			name: "flags need positive values",
			channels: staticChannels{
				ChannelFlip:     0,
				ChannelHeadless: -10000,
				ChannelRTH:      20000,
			},
			want: []byte{0x05, 0x64, 0x64, 0x64, 0x64, 0xAA, 0x02},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d, _ := newTestSession(t, Config{Serial: mcuSerial, BindCount: 1}, tt.channels, proto.Power1mW)
			s.Tick()
			s.Tick()

			got := decodePayload(d.GetTxLog()[1].Data)
			if len(got) != proto.PacketSize {
				t.Fatalf("payload length %d", len(got))
			}
			if !bytes.Equal(got[1:8], tt.want) {
				t.Errorf("payload[1:8] = % X, want % X", got[1:8], tt.want)
			}
			id := s.Identity()
			tail := []byte{0, 0, 0, 0, 0, 0x56, id.Address[2]}
			if got[0] != id.Address[1] || !bytes.Equal(got[8:], tail) {
				t.Errorf("payload = % X", got)
			}
		})
	}
}

func TestSessionPowerClamp(t *testing.T) {
	d := NewMockDriver()
	in := NewInputs(proto.Power150mW)
	s := NewSession(d, staticChannels{}, in, Config{Serial: mcuSerial, BindCount: 2}, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	if got := d.PowerLog(); len(got) != 1 || got[0] != proto.PowerCeiling {
		t.Fatalf("power log after start = %v, want [%v]", got, proto.PowerCeiling)
	}

	in.SetTxPower(proto.Power3mW)
	s.Tick()
	// The frame goes out before the new level is applied.
	if f := d.GetTxLog()[0]; f.Power != proto.PowerCeiling {
		t.Errorf("frame sent at %v, want %v", f.Power, proto.PowerCeiling)
	}
	in.SetTxPower(proto.Power100mW)
	s.Tick()
	s.Tick()
	in.SetTxPower(proto.Power30mW)
	s.Tick()

	want := []proto.Power{proto.PowerCeiling, proto.Power3mW, proto.PowerCeiling}
	got := d.PowerLog()
	if len(got) != len(want) {
		t.Fatalf("power log = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("power log[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	for _, f := range d.GetTxLog() {
		if f.Power > proto.PowerCeiling {
			t.Errorf("frame sent above ceiling: %v", f.Power)
		}
	}
}

func TestSessionBekenBringUp(t *testing.T) {
	d := NewMockDriver()
	d.status = 0x8E
	s := NewSession(d, staticChannels{}, NewInputs(proto.Power1mW), Config{}, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if s.Status().Chip != ChipBK2421 {
		t.Errorf("chip = %v, want BK2421", s.Status().Chip)
	}
	if got := d.Reg(0x0D); !bytes.Equal(got, []byte{0x46, 0xB4, 0x80, 0x00}) {
		t.Errorf("bank1 reg 0D = % X", got)
	}
	wantAct := []byte{proto.ActivateFeatures, proto.ActivateFeatures, proto.ActivateBank, proto.ActivateBank}
	if !bytes.Equal(d.activate, wantAct) {
		t.Errorf("activate sequence = % X, want % X", d.activate, wantAct)
	}
}

func TestSessionStartFailure(t *testing.T) {
	d := NewMockDriver()
	d.initErr = ErrResetFailed
	s := NewSession(d, staticChannels{}, NewInputs(proto.Power1mW), Config{}, nil)
	if err := s.Start(); err == nil {
		t.Fatal("Start() succeeded with a failing driver")
	}
}

func TestSessionTickBeforeStart(t *testing.T) {
	d := NewMockDriver()
	s := NewSession(d, staticChannels{}, NewInputs(proto.Power1mW), Config{}, nil)
	if got := s.Tick(); got != proto.PacketPeriod {
		t.Errorf("Tick() = %v", got)
	}
	if len(d.GetTxLog()) != 0 {
		t.Error("unstarted session transmitted")
	}
}

func TestSessionCountsWriteErrors(t *testing.T) {
	s, d, _ := newTestSession(t, Config{BindCount: 3}, nil, proto.Power1mW)
	d.writeErr = ErrResetFailed
	s.Tick()
	st := s.Status()
	if st.Errors == 0 {
		t.Error("write errors were not counted")
	}
	if st.BindRemaining != 2 {
		t.Errorf("BindRemaining = %d, want 2", st.BindRemaining)
	}
}
