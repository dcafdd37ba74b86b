package cdc

import "fmt"

// NumPorts is the number of logical serial ports multiplexed over the device.
const NumPorts = 2

// instanceEndpointBit is the reserved address bit that distinguishes port 1's
// endpoints from port 0's. It is the sole discriminant used when classifying
// an endpoint address.
const instanceEndpointBit uint8 = 0x04

// Port 0 endpoint addresses.
const (
	DataInEndpoint  uint8 = 0x81 // Bulk IN, device to host
	DataOutEndpoint uint8 = 0x01 // Bulk OUT, host to device
	CommandEndpoint uint8 = 0x82 // Interrupt IN, notifications
)

// Port 1 endpoint addresses: port 0's with the instance bit set.
const (
	DataInEndpoint2  uint8 = DataInEndpoint | instanceEndpointBit
	DataOutEndpoint2 uint8 = DataOutEndpoint | instanceEndpointBit
	CommandEndpoint2 uint8 = CommandEndpoint | instanceEndpointBit
)

// Interface numbers inside the configuration. Each port owns an association
// of one control interface and one data interface.
const (
	ControlInterfaceNum  uint8 = 0
	DataInterfaceNum     uint8 = 1
	ControlInterfaceNum2 uint8 = 2
	DataInterfaceNum2    uint8 = 3
)

const (
	FullSpeedMaxPacketSize uint16 = 64
	HighSpeedMaxPacketSize uint16 = 512
	CommandPacketSize      uint16 = 8
)

// controlStagingSize is the size of the shared EP0 staging buffer. Large
// enough for any class request payload at either speed.
const controlStagingSize = 512

type Speed uint8

const (
	SpeedFull Speed = 0
	SpeedHigh Speed = 1
)

func (speed Speed) MaxPacketSize() uint16 {
	if speed == SpeedHigh {
		return HighSpeedMaxPacketSize
	}
	return FullSpeedMaxPacketSize
}

func (speed Speed) String() string {
	if speed == SpeedHigh {
		return "SpeedHigh"
	}
	return "SpeedFull"
}

type Request uint8

// CDC PSTN class request codes (CDC120 6.2, PSTN120 6.3).
const (
	RequestSendEncapsulatedCommand Request = 0x00
	RequestGetEncapsulatedResponse Request = 0x01
	RequestSetCommFeature          Request = 0x02
	RequestGetCommFeature          Request = 0x03
	RequestClearCommFeature        Request = 0x04
	RequestSetLineCoding           Request = 0x20
	RequestGetLineCoding           Request = 0x21
	RequestSetControlLineState     Request = 0x22
	RequestSendBreak               Request = 0x23
)

var requestDescriptions = map[Request]string{
	RequestSendEncapsulatedCommand: "RequestSendEncapsulatedCommand",
	RequestGetEncapsulatedResponse: "RequestGetEncapsulatedResponse",
	RequestSetCommFeature:          "RequestSetCommFeature",
	RequestGetCommFeature:          "RequestGetCommFeature",
	RequestClearCommFeature:        "RequestClearCommFeature",
	RequestSetLineCoding:           "RequestSetLineCoding",
	RequestGetLineCoding:           "RequestGetLineCoding",
	RequestSetControlLineState:     "RequestSetControlLineState",
	RequestSendBreak:               "RequestSendBreak",
}

func (request Request) String() string {
	if s, ok := requestDescriptions[request]; ok {
		return s
	}
	return fmt.Sprintf("0x%x", uint8(request))
}

// requestNone is the staging sentinel: no class data phase is pending.
const requestNone Request = 0xFF

// SET_CONTROL_LINE_STATE wValue bits.
const (
	ControlLineDTR uint16 = 0x01
	ControlLineRTS uint16 = 0x02
)
