package usbip

import (
	"bytes"
	"fmt"

	"github.com/bulwarkid/virtual-serial/cdc"
	"github.com/bulwarkid/virtual-serial/usb"
	"github.com/bulwarkid/virtual-serial/util"
)

var usbLogger = util.NewLogger("[USB] ", util.LogLevelTrace)

const (
	vendorID  uint16 = 0x0483
	productID uint16 = 0x5740
)

// pendingPacket is an OUT transfer the host submitted while the matching
// endpoint was not armed for receive.
type pendingPacket struct {
	id       uint32
	data     []byte
	onFinish func(response []byte)
}

// SerialDevice exports a dual ACM configuration over USBIP. It implements
// cdc.Transport, so endpoint traffic flows directly between the wire
// protocol and the class driver: host IN submits park in per-endpoint
// request buffers until the driver transmits, and OUT submits queue until
// the driver arms a receive.
//
// All message handling runs on the connection's goroutine. Transmit is the
// one entry point applications may call from elsewhere; it only touches the
// internally locked request buffers.
type SerialDevice struct {
	driver *cdc.Driver

	inRequests map[uint8]*util.RequestBuffer
	endpoints  map[uint8]uint16
	rxArmed    map[uint8][]byte
	rxLengths  map[uint8]uint32
	pendingOut map[uint8][]pendingPacket

	controlIn  []byte
	controlOut []byte
	configured bool
}

func NewSerialDevice(handler cdc.PortHandler) *SerialDevice {
	device := &SerialDevice{
		inRequests: make(map[uint8]*util.RequestBuffer),
		endpoints:  make(map[uint8]uint16),
		rxArmed:    make(map[uint8][]byte),
		rxLengths:  make(map[uint8]uint32),
		pendingOut: make(map[uint8][]pendingPacket),
	}
	inEndpoints := []uint8{
		cdc.DataInEndpoint, cdc.CommandEndpoint,
		cdc.DataInEndpoint2, cdc.CommandEndpoint2,
	}
	for _, address := range inEndpoints {
		device.inRequests[address] = util.MakeRequestBuffer()
	}
	device.driver = cdc.NewDriver(handler, device)
	return device
}

// Driver exposes the class driver, mainly so applications can call Transmit
// and ReceivePacket.
func (device *SerialDevice) Driver() *cdc.Driver {
	return device.driver
}

// --- cdc.Transport ---

func (device *SerialDevice) OpenEndpoint(address uint8, attributes uint8, maxPacketSize uint16) error {
	usbLogger.Printf("OPEN ENDPOINT: 0x%02x, attributes: %d, packet size: %d\n\n", address, attributes, maxPacketSize)
	device.endpoints[address] = maxPacketSize
	return nil
}

func (device *SerialDevice) CloseEndpoint(address uint8) error {
	delete(device.endpoints, address)
	delete(device.rxArmed, address)
	delete(device.pendingOut, address)
	return nil
}

func (device *SerialDevice) Transmit(address uint8, data []byte) error {
	requests, ok := device.inRequests[address]
	if !ok {
		return fmt.Errorf("transmit on unknown IN endpoint 0x%02x", address)
	}
	requests.Respond(data)
	return nil
}

func (device *SerialDevice) PrepareReceive(address uint8, buffer []byte) error {
	device.rxArmed[address] = buffer
	if pending := device.pendingOut[address]; len(pending) > 0 {
		packet := pending[0]
		device.pendingOut[address] = pending[1:]
		device.deliverOut(address, packet)
	}
	return nil
}

func (device *SerialDevice) ReceivedLength(address uint8) uint32 {
	return device.rxLengths[address]
}

func (device *SerialDevice) SendControlData(data []byte) error {
	device.controlIn = data
	return nil
}

func (device *SerialDevice) PrepareControlReceive(buffer []byte) error {
	device.controlOut = buffer
	return nil
}

func (device *SerialDevice) deliverOut(address uint8, packet pendingPacket) {
	buffer := device.rxArmed[address]
	delete(device.rxArmed, address)
	received := copy(buffer, packet.data)
	device.rxLengths[address] = uint32(received)
	if err := device.driver.DataOut(address); err != nil {
		usbLogger.Printf("DATA OUT: %v\n\n", err)
	}
	packet.onFinish(nil)
}

// --- USBIPDevice ---

func (device *SerialDevice) BusID() string {
	return "2-2"
}

func (device *SerialDevice) DeviceSummary() USBIPDeviceSummary {
	path := [256]byte{}
	copy(path[:], []byte("/device/0"))
	busID := [32]byte{}
	copy(busID[:], []byte(device.BusID()))
	return USBIPDeviceSummary{
		Header: USBIPDeviceSummaryHeader{
			Path:                path,
			BusID:               busID,
			Busnum:              2,
			Devnum:              2,
			Speed:               2,
			IdVendor:            vendorID,
			IdProduct:           productID,
			BcdDevice:           0x0100,
			BDeviceClass:        usb.DeviceClassMiscellaneous,
			BDeviceSubclass:     usb.DeviceSubclassCommon,
			BDeviceProtocol:     usb.DeviceProtocolIAD,
			BConfigurationValue: 1,
			BNumConfigurations:  1,
			BNumInterfaces:      deviceNumInterfaces,
		},
		Interfaces: [deviceNumInterfaces]USBIPDeviceInterface{
			{BInterfaceClass: usb.InterfaceClassCDCControl, BInterfaceSubclass: usb.InterfaceSubclassACM},
			{BInterfaceClass: usb.InterfaceClassCDCData},
			{BInterfaceClass: usb.InterfaceClassCDCControl, BInterfaceSubclass: usb.InterfaceSubclassACM},
			{BInterfaceClass: usb.InterfaceClassCDCData},
		},
	}
}

func (device *SerialDevice) HandleMessage(id uint32, onFinish func(response []byte), address uint8, setupBytes []byte, transferBuffer []byte) {
	usbLogger.Printf("USB MESSAGE - ENDPOINT 0x%02x\n\n", address)
	if address&^usb.DirectionIn == 0 {
		setup := util.ReadLE[usb.SetupPacket](bytes.NewBuffer(setupBytes))
		onFinish(device.handleControlMessage(&setup, transferBuffer))
	} else if address&usb.DirectionIn != 0 {
		device.handleInputMessage(id, onFinish, address)
	} else {
		device.handleOutputMessage(id, onFinish, address, transferBuffer)
	}
}

func (device *SerialDevice) handleInputMessage(id uint32, onFinish func(response []byte), address uint8) {
	requests, ok := device.inRequests[address]
	if !ok {
		usbLogger.Printf("IN submit for unknown endpoint: 0x%02x\n\n", address)
		onFinish(nil)
		return
	}
	requests.Request(id, func(data []byte) {
		onFinish(data)
		if address == cdc.DataInEndpoint || address == cdc.DataInEndpoint2 {
			if err := device.driver.DataIn(address); err != nil {
				usbLogger.Printf("DATA IN: %v\n\n", err)
			}
		}
	})
}

func (device *SerialDevice) handleOutputMessage(id uint32, onFinish func(response []byte), address uint8, transferBuffer []byte) {
	packet := pendingPacket{id: id, data: transferBuffer, onFinish: onFinish}
	if _, armed := device.rxArmed[address]; armed {
		device.deliverOut(address, packet)
	} else {
		device.pendingOut[address] = append(device.pendingOut[address], packet)
	}
}

func (device *SerialDevice) RemoveWaitingRequest(id uint32) bool {
	for _, requests := range device.inRequests {
		if requests.CancelRequest(id) {
			return true
		}
	}
	for address, pending := range device.pendingOut {
		for i, packet := range pending {
			if packet.id == id {
				device.pendingOut[address] = append(pending[:i], pending[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (device *SerialDevice) handleControlMessage(setup *usb.SetupPacket, transferBuffer []byte) []byte {
	usbLogger.Printf("CONTROL MESSAGE: %s\n\n", setup)
	switch setup.Recipient() {
	case usb.RequestRecipientDevice:
		return device.handleDeviceRequest(setup)
	case usb.RequestRecipientInterface, usb.RequestRecipientEndpoint:
		return device.handleClassRequest(setup, transferBuffer)
	default:
		usbLogger.Printf("Ignoring request for recipient: %d\n\n", setup.Recipient())
		return nil
	}
}

func (device *SerialDevice) handleDeviceRequest(setup *usb.SetupPacket) []byte {
	switch setup.BRequest {
	case usb.RequestGetDescriptor:
		descriptorType, descriptorIndex := usb.GetDescriptorTypeAndIndex(setup.WValue)
		return device.getDescriptor(descriptorType, descriptorIndex)
	case usb.RequestSetConfiguration:
		device.configure()
		return nil
	case usb.RequestGetStatus:
		return []byte{0x01, 0x00}
	default:
		usbLogger.Printf("Ignoring device request: %s\n\n", setup)
		return nil
	}
}

// configure brings the class driver up. A repeat SET_CONFIGURATION resets
// the device to a clean state first.
func (device *SerialDevice) configure() {
	if device.configured {
		if err := device.driver.DeInit(); err != nil {
			usbLogger.Printf("Class driver deinit: %v\n\n", err)
		}
		device.configured = false
	}
	if err := device.driver.Init(cdc.SpeedFull); err != nil {
		usbLogger.Printf("Class driver init failed: %v\n\n", err)
		return
	}
	device.configured = true
}

// handleClassRequest forwards interface-directed requests to the class
// driver and shepherds the control data phase in either direction.
func (device *SerialDevice) handleClassRequest(setup *usb.SetupPacket, transferBuffer []byte) []byte {
	if err := device.driver.Setup(setup); err != nil {
		usbLogger.Printf("SETUP: %v\n\n", err)
		return nil
	}
	if setup.WLength == 0 {
		return nil
	}
	if setup.Direction() == usb.DeviceToHost {
		response := device.controlIn
		device.controlIn = nil
		return response
	}
	if device.controlOut != nil {
		copy(device.controlOut, transferBuffer)
		device.controlOut = nil
		if err := device.driver.ControlDataReady(); err != nil {
			usbLogger.Printf("CONTROL DATA: %v\n\n", err)
		}
	}
	return nil
}

func (device *SerialDevice) deviceDescriptor() usb.DeviceDescriptor {
	return usb.DeviceDescriptor{
		BLength:            util.SizeOf[usb.DeviceDescriptor](),
		BDescriptorType:    usb.DescriptorDevice,
		BcdUSB:             0x0200,
		BDeviceClass:       usb.DeviceClassMiscellaneous,
		BDeviceSubclass:    usb.DeviceSubclassCommon,
		BDeviceProtocol:    usb.DeviceProtocolIAD,
		BMaxPacketSize:     64,
		IDVendor:           vendorID,
		IDProduct:          productID,
		BcdDevice:          0x0100,
		IManufacturer:      1,
		IProduct:           2,
		ISerialNumber:      3,
		BNumConfigurations: 1,
	}
}

func (device *SerialDevice) stringDescriptor(index uint8) []byte {
	switch index {
	case 1:
		return util.Utf16encode("virtual-serial")
	case 2:
		return util.Utf16encode("Dual ACM Serial Adapter")
	case 3:
		return util.Utf16encode("0001")
	default:
		usbLogger.Printf("Invalid string descriptor index: %d\n\n", index)
		return nil
	}
}

func (device *SerialDevice) getDescriptor(descriptorType usb.DescriptorType, index uint8) []byte {
	usbLogger.Printf("GET DESCRIPTOR: Type: %s Index: %d\n\n", descriptorType, index)
	switch descriptorType {
	case usb.DescriptorDevice:
		descriptor := device.deviceDescriptor()
		usbLogger.Printf("DEVICE DESCRIPTOR: %#v\n\n", descriptor)
		return util.ToLE(descriptor)
	case usb.DescriptorConfiguration:
		return device.driver.ConfigDescriptor()
	case usb.DescriptorOtherSpeedConfiguration:
		return device.driver.OtherSpeedConfigDescriptor()
	case usb.DescriptorDeviceQualifier:
		return device.driver.DeviceQualifierDescriptor()
	case usb.DescriptorString:
		var message []byte
		if index == 0 {
			message = util.ToLE[uint16](usb.LangIDEngUSA)
		} else {
			message = device.stringDescriptor(index)
		}
		header := usb.StringDescriptorHeader{
			BLength:         util.SizeOf[usb.StringDescriptorHeader]() + uint8(len(message)),
			BDescriptorType: usb.DescriptorString,
		}
		buffer := new(bytes.Buffer)
		buffer.Write(util.ToLE(header))
		buffer.Write(message)
		return buffer.Bytes()
	default:
		usbLogger.Printf("Unsupported descriptor type: %s\n\n", descriptorType)
		return nil
	}
}
