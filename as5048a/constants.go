package as5048a

// Register addresses (14-bit address space)
const (
	RegClearErrorFlag uint16 = 0x0001
	RegProgrammingCtl uint16 = 0x0003
	RegOTPZeroPosHigh uint16 = 0x0016
	RegOTPZeroPosLow  uint16 = 0x0017
	RegDiagAGC        uint16 = 0x3FFD
	RegMagnitude      uint16 = 0x3FFE
	RegAngle          uint16 = 0x3FFF
)

// Command/response word layout: bit 15 carries even parity over the low 15
// bits, bit 14 is the read selector on commands and the error indicator on
// responses, bits 13..0 are address or data.
const (
	cmdRead    uint16 = 0x4000
	respError  uint16 = 0x4000
	parityMask uint16 = 0x8000
	dataMask   uint16 = 0x3FFF
	addrMask   uint16 = 0x3FFF
)

// Diagnostic register (RegDiagAGC) fields
const (
	agcMask      uint16 = 0x00FF
	diagOCF      uint16 = 0x0400
	diagCOF      uint16 = 0x0800
	diagCompLow  uint16 = 0x1000
	diagCompHigh uint16 = 0x2000
)

// Error register (RegClearErrorFlag) flags
const (
	errFraming        uint16 = 0x0001
	errCommandInvalid uint16 = 0x0002
	errParity         uint16 = 0x0004
)

// Angle scale. The encoder reports 14-bit positions, so one revolution is
// 16384 counts (1 LSB is roughly 0.022 degrees).
const (
	fullScale int32   = 16384
	halfScale int32   = 8192
	maxValue  float64 = 8191.0
)
