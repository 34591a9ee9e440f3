package protocol

// nRF24L01 register map (the subset the E012 link touches).
const (
	RegConfig    byte = 0x00
	RegEnAA      byte = 0x01
	RegEnRxAddr  byte = 0x02
	RegSetupAW   byte = 0x03
	RegSetupRetr byte = 0x04
	RegRFCh      byte = 0x05
	RegRFSetup   byte = 0x06
	RegStatus    byte = 0x07
	RegTxAddr    byte = 0x10
	RegFIFO      byte = 0x17
	RegDynPD     byte = 0x1C
	RegFeature   byte = 0x1D
)

// CONFIG register bits
const (
	BitPrimRx  = 0
	BitPwrUp   = 1
	BitCRCO    = 2
	BitEnCRC   = 3
	BitMaskMax = 4
	BitMaskTx  = 5
	BitMaskRx  = 6
)

// RF_SETUP register bits
const (
	BitRFPower  = 1 // two bits
	BitRFDrHigh = 3
	BitRFDrLow  = 5
)

// STATUS register: write 1s to clear RX_DR, TX_DS and MAX_RT.
const StatusClearIRQ byte = 0x70

// Activate command arguments
const (
	ActivateFeatures byte = 0x73
	ActivateBank     byte = 0x53 // Beken BK242x bank switch
)

// BV returns the mask for a register bit.
func BV(bit uint) byte { return 1 << bit }

type Bitrate uint8

const (
	Bitrate1M Bitrate = iota
	Bitrate2M
	Bitrate250K
)

func (b Bitrate) String() string {
	switch b {
	case Bitrate2M:
		return "2Mbps"
	case Bitrate250K:
		return "250kbps"
	default:
		return "1Mbps"
	}
}

type Mode uint8

const (
	ModeOff Mode = iota
	ModeTx
	ModeRx
)

// Power is a transmitter power level as the host configures it.
type Power uint8

const (
	Power100uW Power = iota
	Power300uW
	Power1mW
	Power3mW
	Power10mW
	Power30mW
	Power100mW
	Power150mW
)

// PowerCeiling is the highest level an HS6200 decodes reliably when fed by an
// nRF24L01.
const PowerCeiling = Power10mW

var powerNames = [...]string{"100uW", "300uW", "1mW", "3mW", "10mW", "30mW", "100mW", "150mW"}

func (p Power) String() string {
	if int(p) < len(powerNames) {
		return powerNames[p]
	}
	return "invalid"
}

func (p Power) Valid() bool { return p <= Power150mW }

// Clamp caps p at PowerCeiling.
func (p Power) Clamp() Power {
	if p > PowerCeiling {
		return PowerCeiling
	}
	return p
}

// RFSetupBits maps a power level onto the nRF24L01 RF_PWR field
// (0: -18dBm ... 3: 0dBm), already shifted into place.
func (p Power) RFSetupBits() byte {
	var lvl byte
	switch {
	case p <= Power1mW:
		lvl = 0
	case p <= Power10mW:
		lvl = 1
	case p == Power30mW:
		lvl = 2
	default:
		lvl = 3
	}
	return lvl << BitRFPower
}
