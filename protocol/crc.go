package protocol

// CRCUpdate folds the top `bits` bits of b into a CRC-16 (poly 0x1021, MSB
// first). Passing bits < 8 folds a partial trailing byte.
func CRCUpdate(crc uint16, b byte, bits int) uint16 {
	crc ^= uint16(b) << 8
	for ; bits > 0; bits-- {
		if crc&0x8000 != 0 {
			crc = crc<<1 ^ crcPoly
		} else {
			crc <<= 1
		}
	}
	return crc
}

// AddressSeed precomputes the HS6200 CRC state for an address. The chip
// covers the address LSB-byte-last, so the bytes are folded in reverse.
func AddressSeed(addr []byte) uint16 {
	crc := uint16(crcInit)
	for i := len(addr) - 1; i >= 0; i-- {
		crc = CRCUpdate(crc, addr[i], 8)
	}
	return crc
}

// crcBits runs the CRC over the first n bits of data, starting from seed.
func crcBits(seed uint16, data []byte, n int) uint16 {
	crc := seed
	full := n / 8
	for _, b := range data[:full] {
		crc = CRCUpdate(crc, b, 8)
	}
	if rem := n % 8; rem > 0 {
		crc = CRCUpdate(crc, data[full], rem)
	}
	return crc
}
