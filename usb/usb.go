package usb

import "fmt"

type RequestType uint8

const (
	RequestGetStatus        RequestType = 0
	RequestClearFeature     RequestType = 1
	RequestSetFeature       RequestType = 3
	RequestSetAddress       RequestType = 5
	RequestGetDescriptor    RequestType = 6
	RequestSetDescriptor    RequestType = 7
	RequestGetConfiguration RequestType = 8
	RequestSetConfiguration RequestType = 9
	RequestGetInterface     RequestType = 10
	RequestSetInterface     RequestType = 11
	RequestSynchFrame       RequestType = 12
)

var standardRequestDescriptions = map[RequestType]string{
	RequestGetStatus:        "RequestGetStatus",
	RequestClearFeature:     "RequestClearFeature",
	RequestSetFeature:       "RequestSetFeature",
	RequestSetAddress:       "RequestSetAddress",
	RequestGetDescriptor:    "RequestGetDescriptor",
	RequestSetDescriptor:    "RequestSetDescriptor",
	RequestGetConfiguration: "RequestGetConfiguration",
	RequestSetConfiguration: "RequestSetConfiguration",
	RequestGetInterface:     "RequestGetInterface",
	RequestSetInterface:     "RequestSetInterface",
	RequestSynchFrame:       "RequestSynchFrame",
}

type DescriptorType uint8

const (
	DescriptorDevice                  DescriptorType = 1
	DescriptorConfiguration           DescriptorType = 2
	DescriptorString                  DescriptorType = 3
	DescriptorInterface               DescriptorType = 4
	DescriptorEndpoint                DescriptorType = 5
	DescriptorDeviceQualifier         DescriptorType = 6
	DescriptorOtherSpeedConfiguration DescriptorType = 7
	DescriptorInterfacePower          DescriptorType = 8
	DescriptorInterfaceAssociation    DescriptorType = 11
	DescriptorCDCInterface            DescriptorType = 36
	DescriptorCDCEndpoint             DescriptorType = 37
)

var descriptorTypeDescriptions = map[DescriptorType]string{
	DescriptorDevice:                  "DescriptorDevice",
	DescriptorConfiguration:           "DescriptorConfiguration",
	DescriptorString:                  "DescriptorString",
	DescriptorInterface:               "DescriptorInterface",
	DescriptorEndpoint:                "DescriptorEndpoint",
	DescriptorDeviceQualifier:         "DescriptorDeviceQualifier",
	DescriptorOtherSpeedConfiguration: "DescriptorOtherSpeedConfiguration",
	DescriptorInterfacePower:          "DescriptorInterfacePower",
	DescriptorInterfaceAssociation:    "DescriptorInterfaceAssociation",
	DescriptorCDCInterface:            "DescriptorCDCInterface",
	DescriptorCDCEndpoint:             "DescriptorCDCEndpoint",
}

func (descriptor DescriptorType) String() string {
	if s, ok := descriptorTypeDescriptions[descriptor]; ok {
		return s
	}
	return "Invalid"
}

type Direction uint8

const (
	HostToDevice Direction = 0
	DeviceToHost Direction = 1
)

var directionDescriptions = map[Direction]string{
	HostToDevice: "HostToDevice",
	DeviceToHost: "DeviceToHost",
}

type RequestClass uint8

const (
	RequestClassStandard RequestClass = 0
	RequestClassClass    RequestClass = 1
	RequestClassVendor   RequestClass = 2
	RequestClassReserved RequestClass = 3
)

var requestClassDescriptions = map[RequestClass]string{
	RequestClassStandard: "RequestClassStandard",
	RequestClassClass:    "RequestClassClass",
	RequestClassVendor:   "RequestClassVendor",
	RequestClassReserved: "RequestClassReserved",
}

type RequestRecipient uint8

const (
	RequestRecipientDevice    RequestRecipient = 0
	RequestRecipientInterface RequestRecipient = 1
	RequestRecipientEndpoint  RequestRecipient = 2
	RequestRecipientOther     RequestRecipient = 3
)

var requestRecipientDescriptions = map[RequestRecipient]string{
	RequestRecipientDevice:    "RequestRecipientDevice",
	RequestRecipientInterface: "RequestRecipientInterface",
	RequestRecipientEndpoint:  "RequestRecipientEndpoint",
	RequestRecipientOther:     "RequestRecipientOther",
}

// Endpoint attribute transfer types (bmAttributes low bits).
const (
	EndpointTypeControl   uint8 = 0
	EndpointTypeIsoch     uint8 = 1
	EndpointTypeBulk      uint8 = 2
	EndpointTypeInterrupt uint8 = 3
)

// DirectionIn is the direction bit of an endpoint address.
const DirectionIn uint8 = 0x80

const (
	ConfigAttributeBase         = 0b10000000
	ConfigAttributeSelfPowered  = 0b01000000
	ConfigAttributeRemoteWakeup = 0b00100000

	LangIDEngUSA = 0x0409
)

// Composite device class codes used when interfaces are grouped by IADs.
const (
	DeviceClassMiscellaneous  uint8 = 0xEF
	DeviceSubclassCommon      uint8 = 0x02
	DeviceProtocolIAD         uint8 = 0x01
	InterfaceClassCDCControl  uint8 = 0x02
	InterfaceClassCDCData     uint8 = 0x0A
	InterfaceSubclassACM      uint8 = 0x02
	InterfaceProtocolATV25ter uint8 = 0x01
)

type SetupPacket struct {
	BmRequestType uint8
	BRequest      RequestType
	WValue        uint16
	WIndex        uint16
	WLength       uint16
}

func (setup SetupPacket) String() string {
	requestDescription, ok := standardRequestDescriptions[setup.BRequest]
	if !ok {
		requestDescription = fmt.Sprintf("0x%x", uint8(setup.BRequest))
	}
	return fmt.Sprintf("SetupPacket{ Direction: %s, RequestType: %s, Recipient: %s, BRequest: %s, WValue: 0x%x, WIndex: %d, WLength: %d }",
		directionDescriptions[setup.Direction()],
		requestClassDescriptions[setup.RequestClass()],
		requestRecipientDescriptions[setup.Recipient()],
		requestDescription,
		setup.WValue,
		setup.WIndex,
		setup.WLength)
}

func (setup *SetupPacket) Direction() Direction {
	return Direction((setup.BmRequestType >> 7) & 1)
}

func (setup *SetupPacket) SetDirection(direction Direction) {
	setup.BmRequestType &= ^(uint8(1) << 7)
	setup.BmRequestType |= (uint8(direction) << 7)
}

func (setup *SetupPacket) RequestClass() RequestClass {
	return RequestClass((setup.BmRequestType >> 5) & 0b11)
}

func (setup *SetupPacket) SetRequestClass(class RequestClass) {
	setup.BmRequestType &= ^(uint8(0b11) << 5)
	setup.BmRequestType |= uint8(class) << 5
}

func (setup *SetupPacket) Recipient() RequestRecipient {
	return RequestRecipient(setup.BmRequestType & 0b11111)
}

func (setup *SetupPacket) SetRecipient(recipient RequestRecipient) {
	setup.BmRequestType &= ^uint8(0b11111)
	setup.BmRequestType |= uint8(recipient)
}

type DeviceDescriptor struct {
	BLength            uint8
	BDescriptorType    DescriptorType
	BcdUSB             uint16
	BDeviceClass       uint8
	BDeviceSubclass    uint8
	BDeviceProtocol    uint8
	BMaxPacketSize     uint8
	IDVendor           uint16
	IDProduct          uint16
	BcdDevice          uint16
	IManufacturer      uint8
	IProduct           uint8
	ISerialNumber      uint8
	BNumConfigurations uint8
}

type StringDescriptorHeader struct {
	BLength         uint8
	BDescriptorType DescriptorType
}

func GetDescriptorTypeAndIndex(wValue uint16) (DescriptorType, uint8) {
	descriptorType := DescriptorType(wValue >> 8)
	descriptorIndex := uint8(wValue & 0xFF)
	return descriptorType, descriptorIndex
}
