package protocol

const (
	lfsrSeed     uint32 = 0xB2C54A2F
	lfsrFeedback uint32 = 0x80200003
	lfsrInTap           = 32 - 1
)

// LFSR is the 32-bit Galois register used to derive link identities. Each
// input byte is shifted in LSB first, one register step per bit.
type LFSR uint32

func NewLFSR() LFSR { return LFSR(lfsrSeed) }

// Fold shifts b into the register and returns the new state.
func (l *LFSR) Fold(b byte) uint32 {
	s := uint32(*l)
	for i := 0; i < 8; i++ {
		s = s>>1 ^ (-(s & 1) & lfsrFeedback) ^ ^(uint32(b&1) << lfsrInTap)
		b >>= 1
	}
	*l = LFSR(s)
	return s
}

// FoldAll folds every byte of data in order.
func (l *LFSR) FoldAll(data []byte) uint32 {
	for _, b := range data {
		l.Fold(b)
	}
	return uint32(*l)
}
