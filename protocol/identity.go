package protocol

import "fmt"

// HopPolicy selects how the hop table is filled from the derivation register.
type HopPolicy uint8

const (
	// HopSingle repeats one channel in all four slots. HS6200 receivers lose
	// packets from an nRF24L01 too often when it actually hops.
	HopSingle HopPolicy = iota
	// HopSpread draws a fresh register value for each slot.
	HopSpread
)

func (p HopPolicy) String() string {
	if p == HopSpread {
		return "spread"
	}
	return "single"
}

// ParseHopPolicy accepts "single" (or "") and "spread".
func ParseHopPolicy(s string) (HopPolicy, error) {
	switch s {
	case "", "single":
		return HopSingle, nil
	case "spread":
		return HopSpread, nil
	}
	return HopSingle, fmt.Errorf("unknown hop policy %q", s)
}

// LinkIdentity is the per-session address and hop table a receiver learns
// while binding.
type LinkIdentity struct {
	Address  [AddressLength]byte
	Channels [NumRFChannels]uint8
}

func (id LinkIdentity) String() string {
	return fmt.Sprintf("addr=% X chans=% X", id.Address[:], id.Channels[:])
}

// DeriveIdentity seeds the derivation register with the MCU serial number and
// the user fixed id (ignored when zero), then extracts address and channels.
// Equal inputs always produce the same identity; with neither input the
// seed-only identity is returned.
func DeriveIdentity(serial []byte, fixedID uint32, policy HopPolicy) LinkIdentity {
	lfsr := NewLFSR()
	lfsr.FoldAll(serial)

	if fixedID != 0 {
		for j := 0; j < 32; j += 8 {
			lfsr.Fold(byte(fixedID >> uint(j)))
		}
	}
	// Pump zero bytes so short inputs still diverge.
	for i := 0; i < 4; i++ {
		lfsr.Fold(0)
	}

	var id LinkIdentity
	s := uint32(lfsr)
	for i := 0; i < 4; i++ {
		id.Address[i] = byte(s >> uint(i*8))
	}
	id.Address[4] = byte(lfsr.Fold(0))

	s = lfsr.Fold(0)
	for i := range id.Channels {
		if policy == HopSpread && i > 0 {
			s = lfsr.Fold(0)
		}
		id.Channels[i] = uint8(s % NumChannelSlots)
	}

	return id
}
