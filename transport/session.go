package transport

import (
	"time"

	"github.com/sirupsen/logrus"

	proto "github.com/ystepanoff/e012tx/protocol"
)

var log = logrus.WithField("component", "transport")

// Phase of a session. Binding always comes first and Live is terminal.
type Phase uint8

const (
	PhaseBinding Phase = iota
	PhaseLive
)

func (p Phase) String() string {
	if p == PhaseLive {
		return "live"
	}
	return "binding"
}

// BindStateFunc is told how long binding still takes, and 0 once it is done.
type BindStateFunc func(remaining time.Duration)

// Config selects the link identity inputs and the bind length.
type Config struct {
	Serial    []byte // MCU serial number, may be empty
	FixedID   uint32 // user fixed id, 0 when unset
	HopPolicy proto.HopPolicy
	BindCount int // bind packets sent before going live; <= 0 selects the default
}

func (c Config) bindCount() int {
	if c.BindCount <= 0 {
		return proto.DefaultBindCount
	}
	return c.BindCount
}

// Flag bits of live packet byte 1
const (
	flagBase     = 0x01
	flagRTH      = 0x04
	flagHeadless = 0x10
	flagFlip     = 0x40
)

// Session runs the E012 bind/data state machine on top of a Transceiver.
// It is driven by a single scheduler goroutine and does no locking itself.
type Session struct {
	driver   Transceiver
	channels ChannelSource
	power    PowerSource
	cfg      Config
	onBind   BindStateFunc

	codec       *proto.Codec
	identity    proto.LinkIdentity
	chip        Chip
	phase       Phase
	bindCounter int
	cursor      int
	txPower     proto.Power
	packet      [proto.PacketSize]byte

	sent   uint64
	errors uint64
}

func NewSession(d Transceiver, ch ChannelSource, pw PowerSource, cfg Config, onBind BindStateFunc) *Session {
	return &Session{
		driver:   d,
		channels: ch,
		power:    pw,
		cfg:      cfg,
		onBind:   onBind,
	}
}

// Start derives the link identity, brings the transceiver up on the bind
// address and arms the bind countdown.
func (s *Session) Start() error {
	s.txPower = s.power.TxPower().Clamp()
	s.identity = proto.DeriveIdentity(s.cfg.Serial, s.cfg.FixedID, s.cfg.HopPolicy)
	s.codec = proto.NewCodec(proto.BindAddress)

	chip, err := bringUp(s.driver, s.txPower)
	s.chip = chip
	if err != nil {
		return err
	}
	s.setAddress(proto.BindAddress)

	s.bindCounter = s.cfg.bindCount()
	s.cursor = 0
	s.phase = PhaseBinding
	s.sent, s.errors = 0, 0

	log.WithFields(logrus.Fields{
		"chip":     chip,
		"identity": s.identity,
		"power":    s.txPower,
		"bind":     s.bindCounter,
	}).Info("session started")

	s.notify(time.Duration(s.bindCounter) * proto.PacketPeriod)
	return nil
}

// Tick emits one packet and returns the delay until the next tick.
func (s *Session) Tick() time.Duration {
	if s.codec == nil {
		return proto.PacketPeriod
	}

	switch s.phase {
	case PhaseBinding:
		s.sendPacket(true)
		s.bindCounter--
		if s.bindCounter == 0 {
			s.enterLive()
		}
	case PhaseLive:
		s.sendPacket(false)
	}
	return proto.PacketPeriod
}

func (s *Session) enterLive() {
	s.setAddress(s.identity.Address)
	s.phase = PhaseLive
	log.WithField("identity", s.identity).Info("bind complete")
	s.notify(0)
}

func (s *Session) setAddress(addr [proto.AddressLength]byte) {
	s.check("tx address", s.driver.WriteRegMulti(proto.RegTxAddr, addr[:]))
	s.codec.SetAddress(addr)
}

func (s *Session) notify(remaining time.Duration) {
	if s.onBind != nil {
		s.onBind(remaining)
	}
}

func (s *Session) flag(ch int, mask byte) byte {
	if s.channels.Channel(ch) > 0 {
		return mask
	}
	return 0
}

func (s *Session) buildPacket(bind bool) {
	p := &s.packet
	addr := s.identity.Address

	p[0] = addr[1]
	if bind {
		p[1] = 0xAA
		copy(p[2:6], s.identity.Channels[:])
		copy(p[6:11], addr[:])
	} else {
		p[1] = flagBase |
			s.flag(ChannelRTH, flagRTH) |
			s.flag(ChannelHeadless, flagHeadless) |
			s.flag(ChannelFlip, flagFlip)
		p[2] = ScaleChannel(s.channels.Channel(ChannelAileron), 0xC8, 0x00)
		p[3] = ScaleChannel(s.channels.Channel(ChannelElevator), 0x00, 0xC8)
		p[4] = ScaleChannel(s.channels.Channel(ChannelRudder), 0xC8, 0x00)
		p[5] = ScaleChannel(s.channels.Channel(ChannelThrottle), 0x00, 0xC8)
		p[6] = 0xAA
		p[7] = 0x02 // rate (0-2)
		p[8], p[9], p[10] = 0, 0, 0
	}
	p[11] = 0x00
	p[12] = 0x00
	p[13] = 0x56
	p[14] = addr[2]
}

func (s *Session) sendPacket(bind bool) {
	s.buildPacket(bind)

	// Power on, TX mode, CRC enabled (emulated, not by the nRF24L01)
	cfg := s.codec.Configure(proto.BV(proto.BitEnCRC) | proto.BV(proto.BitCRCO) | proto.BV(proto.BitPwrUp))
	s.check("config", s.driver.WriteReg(proto.RegConfig, cfg))

	ch := uint8(proto.RFBindChannel)
	if !bind {
		ch = s.identity.Channels[s.cursor]
		s.cursor = (s.cursor + 1) % proto.NumRFChannels
	}
	s.check("channel", s.driver.SetChannel(ch))
	s.check("status", s.driver.WriteReg(proto.RegStatus, proto.StatusClearIRQ))
	s.check("flush tx", s.driver.FlushTx())

	frame, err := s.codec.Encode(s.packet[:])
	s.check("encode", err)
	if err == nil {
		s.check("payload", s.driver.WritePayload(frame))
		s.sent++
	}

	// Power changes are applied after the payload went out so they never
	// disturb a transmission; there is a whole period until the next one.
	s.updatePower()
}

func (s *Session) updatePower() {
	want := s.power.TxPower().Clamp()
	if want == s.txPower {
		return
	}
	s.txPower = want
	s.check("power", s.driver.SetPower(want))
	log.WithField("power", want).Debug("tx power changed")
}

func (s *Session) check(op string, err error) {
	if err != nil {
		s.errors++
		log.WithError(err).WithField("op", op).Warn("transceiver write failed")
	}
}

// Status is a snapshot of a session.
type Status struct {
	Phase         Phase
	BindRemaining int
	Cursor        int
	TxPower       proto.Power
	Identity      proto.LinkIdentity
	Address       [proto.AddressLength]byte // currently active address
	Chip          Chip
	Sent          uint64
	Errors        uint64
}

func (s *Session) Status() Status {
	st := Status{
		Phase:         s.phase,
		BindRemaining: s.bindCounter,
		Cursor:        s.cursor,
		TxPower:       s.txPower,
		Identity:      s.identity,
		Chip:          s.chip,
		Sent:          s.sent,
		Errors:        s.errors,
	}
	if s.codec != nil {
		st.Address = s.codec.Address()
	}
	return st
}

func (s *Session) Identity() proto.LinkIdentity { return s.identity }

func (s *Session) Phase() Phase { return s.phase }
