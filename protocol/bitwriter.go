package protocol

// BitWriter accumulates an MSB-first bit stream into bytes. The trailing
// partial byte is zero padded.
type BitWriter struct {
	buf  []byte
	acc  byte
	nacc int // bits held in acc
	bits int // total bits written
}

func NewBitWriter(capacity int) *BitWriter {
	return &BitWriter{buf: make([]byte, 0, capacity)}
}

// WriteBits appends the low n bits of v, most significant first.
func (w *BitWriter) WriteBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		w.acc = w.acc<<1 | byte(v>>uint(i)&1)
		w.nacc++
		w.bits++
		if w.nacc == 8 {
			w.buf = append(w.buf, w.acc)
			w.acc, w.nacc = 0, 0
		}
	}
}

func (w *BitWriter) WriteByte(b byte) error {
	w.WriteBits(uint32(b), 8)
	return nil
}

// Len reports the number of bits written so far.
func (w *BitWriter) Len() int { return w.bits }

// Bytes returns the stream with any partial byte flushed. It does not reset
// the writer.
func (w *BitWriter) Bytes() []byte {
	out := make([]byte, len(w.buf), len(w.buf)+1)
	copy(out, w.buf)
	if w.nacc > 0 {
		out = append(out, w.acc<<uint(8-w.nacc))
	}
	return out
}
