package cdc

import "fmt"

// LineCodingSize is the wire size of a line coding block (PSTN120 6.3.11).
const LineCodingSize = 7

// Stop bit encodings (bCharFormat).
const (
	StopBits1   uint8 = 0
	StopBits1_5 uint8 = 1
	StopBits2   uint8 = 2
)

// Parity encodings (bParityType).
const (
	ParityNone  uint8 = 0
	ParityOdd   uint8 = 1
	ParityEven  uint8 = 2
	ParityMark  uint8 = 3
	ParitySpace uint8 = 4
)

// LineCoding is the serial framing requested by the host through
// SET_LINE_CODING and reported through GET_LINE_CODING.
type LineCoding struct {
	BaudRate uint32
	StopBits uint8
	Parity   uint8
	DataBits uint8
}

// DefaultLineCoding is 115200 8N1.
var DefaultLineCoding = LineCoding{
	BaudRate: 115200,
	StopBits: StopBits1,
	Parity:   ParityNone,
	DataBits: 8,
}

// ParseLineCoding decodes the 7-byte wire format into out.
// Returns false if data is too short.
func ParseLineCoding(data []byte, out *LineCoding) bool {
	if len(data) < LineCodingSize {
		return false
	}
	out.BaudRate = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	out.StopBits = data[4]
	out.Parity = data[5]
	out.DataBits = data[6]
	return true
}

// MarshalTo encodes the line coding into buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (coding *LineCoding) MarshalTo(buf []byte) int {
	if len(buf) < LineCodingSize {
		return 0
	}
	buf[0] = byte(coding.BaudRate)
	buf[1] = byte(coding.BaudRate >> 8)
	buf[2] = byte(coding.BaudRate >> 16)
	buf[3] = byte(coding.BaudRate >> 24)
	buf[4] = coding.StopBits
	buf[5] = coding.Parity
	buf[6] = coding.DataBits
	return LineCodingSize
}

func (coding LineCoding) String() string {
	parity := "N"
	switch coding.Parity {
	case ParityOdd:
		parity = "O"
	case ParityEven:
		parity = "E"
	case ParityMark:
		parity = "M"
	case ParitySpace:
		parity = "S"
	}
	stop := "1"
	switch coding.StopBits {
	case StopBits1_5:
		stop = "1.5"
	case StopBits2:
		stop = "2"
	}
	return fmt.Sprintf("%d %d%s%s", coding.BaudRate, coding.DataBits, parity, stop)
}
