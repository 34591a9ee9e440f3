package transport

import (
	"sync/atomic"

	proto "github.com/ystepanoff/e012tx/protocol"
)

// Logical channel range used by the host mixer.
const (
	ChanMinValue int32 = -10000
	ChanMaxValue int32 = 10000
	chanRange          = ChanMaxValue - ChanMinValue
)

// 1-based channel numbers of the E012 mapping:
// A, E, T, R, n/a, flip, n/a, n/a, headless, RTH.
const (
	ChannelAileron  = 1
	ChannelElevator = 2
	ChannelThrottle = 3
	ChannelRudder   = 4
	ChannelFlip     = 6
	ChannelHeadless = 9
	ChannelRTH      = 10
)

// ChannelSource supplies live control values by 1-based channel number.
type ChannelSource interface {
	Channel(n int) int32
}

// PowerSource supplies the requested transmitter power. It is read once per
// transmission.
type PowerSource interface {
	TxPower() proto.Power
}

// ScaleChannel clamps v to the logical range and maps it linearly onto
// [destMin, destMax]. destMin may exceed destMax to invert the axis.
func ScaleChannel(v int32, destMin, destMax uint8) uint8 {
	if v < ChanMinValue {
		v = ChanMinValue
	} else if v > ChanMaxValue {
		v = ChanMaxValue
	}
	span := int32(destMax) - int32(destMin)
	return uint8(span*(v-ChanMinValue)/chanRange + int32(destMin))
}

// Inputs is a ChannelSource and PowerSource that other goroutines can update
// while the session is running.
type Inputs struct {
	channels [proto.NumChannels]atomic.Int32
	power    atomic.Uint32
}

func NewInputs(power proto.Power) *Inputs {
	in := &Inputs{}
	in.power.Store(uint32(power))
	return in
}

// Channel returns the value of channel n, or 0 when n is out of range.
func (in *Inputs) Channel(n int) int32 {
	if n < 1 || n > proto.NumChannels {
		return 0
	}
	return in.channels[n-1].Load()
}

// SetChannel stores v for channel n. Values are not range checked; the
// session clamps them.
func (in *Inputs) SetChannel(n int, v int32) error {
	if n < 1 || n > proto.NumChannels {
		return ErrInvalidChannelNumber
	}
	in.channels[n-1].Store(v)
	return nil
}

func (in *Inputs) TxPower() proto.Power { return proto.Power(in.power.Load()) }

func (in *Inputs) SetTxPower(p proto.Power) error {
	if !p.Valid() {
		return proto.ErrInvalidPower
	}
	in.power.Store(uint32(p))
	return nil
}

// Snapshot copies all channel values.
func (in *Inputs) Snapshot() [proto.NumChannels]int32 {
	var out [proto.NumChannels]int32
	for i := range in.channels {
		out[i] = in.channels[i].Load()
	}
	return out
}
