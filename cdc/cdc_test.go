package cdc

import (
	"errors"
	"testing"

	"github.com/bulwarkid/virtual-serial/test"
	"github.com/bulwarkid/virtual-serial/usb"
	"github.com/bulwarkid/virtual-serial/util"
)

type transmitRecord struct {
	address uint8
	data    []byte
}

type mockTransport struct {
	opened       map[uint8]uint16
	closed       []uint8
	transmits    []transmitRecord
	armed        map[uint8][]byte
	rxLengths    map[uint8]uint32
	controlSent  [][]byte
	controlArmed []byte
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		opened:    make(map[uint8]uint16),
		armed:     make(map[uint8][]byte),
		rxLengths: make(map[uint8]uint32),
	}
}

func (transport *mockTransport) OpenEndpoint(address uint8, attributes uint8, maxPacketSize uint16) error {
	transport.opened[address] = maxPacketSize
	return nil
}

func (transport *mockTransport) CloseEndpoint(address uint8) error {
	transport.closed = append(transport.closed, address)
	delete(transport.opened, address)
	return nil
}

func (transport *mockTransport) Transmit(address uint8, data []byte) error {
	transport.transmits = append(transport.transmits, transmitRecord{address, data})
	return nil
}

func (transport *mockTransport) PrepareReceive(address uint8, buffer []byte) error {
	transport.armed[address] = buffer
	return nil
}

func (transport *mockTransport) ReceivedLength(address uint8) uint32 {
	return transport.rxLengths[address]
}

func (transport *mockTransport) SendControlData(data []byte) error {
	sent := make([]byte, len(data))
	copy(sent, data)
	transport.controlSent = append(transport.controlSent, sent)
	return nil
}

func (transport *mockTransport) PrepareControlReceive(buffer []byte) error {
	transport.controlArmed = buffer
	return nil
}

type controlRecord struct {
	port    int
	request Request
	data    []byte
	length  int
}

type receiveRecord struct {
	port   int
	data   []byte
	length uint32
}

type portContext struct {
	port int
}

type mockHandler struct {
	initFails   bool
	initialized []int
	deinited    []int
	controls    []controlRecord
	controlRaws [][]byte
	controlFill []byte
	receives    []receiveRecord
	txCompletes []int
}

func (handler *mockHandler) Init(port int) (interface{}, error) {
	if handler.initFails {
		return nil, errors.New("init refused")
	}
	handler.initialized = append(handler.initialized, port)
	return &portContext{port: port}, nil
}

func (handler *mockHandler) DeInit(ctx interface{}) {
	handler.deinited = append(handler.deinited, ctx.(*portContext).port)
}

func (handler *mockHandler) Control(ctx interface{}, request Request, data []byte, length int) error {
	record := controlRecord{
		port:    ctx.(*portContext).port,
		request: request,
		data:    make([]byte, length),
		length:  length,
	}
	copy(record.data, data)
	handler.controls = append(handler.controls, record)
	raw := make([]byte, len(data))
	copy(raw, data)
	handler.controlRaws = append(handler.controlRaws, raw)
	if handler.controlFill != nil {
		copy(data, handler.controlFill)
	}
	return nil
}

func (handler *mockHandler) Receive(ctx interface{}, data []byte, length *uint32) {
	record := receiveRecord{
		port:   ctx.(*portContext).port,
		data:   make([]byte, *length),
		length: *length,
	}
	copy(record.data, data)
	handler.receives = append(handler.receives, record)
}

func (handler *mockHandler) TxComplete(ctx interface{}) {
	handler.txCompletes = append(handler.txCompletes, ctx.(*portContext).port)
}

func newTestDriver(t *testing.T) (*Driver, *mockHandler, *mockTransport) {
	t.Helper()
	handler := &mockHandler{}
	transport := newMockTransport()
	driver := NewDriver(handler, transport)
	test.AssertNoErr(t, driver.Init(SpeedFull), "Init failed")
	return driver, handler, transport
}

func classSetup(direction usb.Direction, request Request, index uint16, length uint16) *usb.SetupPacket {
	setup := &usb.SetupPacket{
		BRequest: usb.RequestType(request),
		WIndex:   index,
		WLength:  length,
	}
	setup.SetDirection(direction)
	setup.SetRequestClass(usb.RequestClassClass)
	setup.SetRecipient(usb.RequestRecipientInterface)
	return setup
}

func TestInitOpensAllEndpoints(t *testing.T) {
	_, handler, transport := newTestDriver(t)

	test.AssertEqual(t, len(transport.opened), 6, "Wrong endpoint count")
	for _, address := range []uint8{0x81, 0x01, 0x85, 0x05} {
		test.AssertEqual(t, transport.opened[address], FullSpeedMaxPacketSize, "Wrong bulk packet size")
	}
	for _, address := range []uint8{0x82, 0x86} {
		test.AssertEqual(t, transport.opened[address], CommandPacketSize, "Wrong command packet size")
	}
	test.AssertEqual(t, len(handler.initialized), 2, "Handler init count")

	// Both OUT endpoints armed at startup
	test.AssertNotNil(t, transport.armed[DataOutEndpoint], "Port 0 not armed")
	test.AssertNotNil(t, transport.armed[DataOutEndpoint2], "Port 1 not armed")
}

func TestInitHighSpeedPacketSize(t *testing.T) {
	handler := &mockHandler{}
	transport := newMockTransport()
	driver := NewDriver(handler, transport)
	test.AssertNoErr(t, driver.Init(SpeedHigh), "Init failed")
	test.AssertEqual(t, transport.opened[DataInEndpoint], HighSpeedMaxPacketSize, "Wrong high speed packet size")
	test.AssertEqual(t, transport.opened[CommandEndpoint], CommandPacketSize, "Command size should not scale")
	test.AssertEqual(t, len(transport.armed[DataOutEndpoint]), int(HighSpeedMaxPacketSize), "Rx buffer not sized to speed")
}

func TestInitFailureLeavesEndpointsOpen(t *testing.T) {
	handler := &mockHandler{initFails: true}
	transport := newMockTransport()
	driver := NewDriver(handler, transport)

	err := driver.Init(SpeedFull)
	test.AssertEqual(t, err != nil, true, "Init should fail")
	// Endpoints opened before the failing allocation are not rolled back.
	test.AssertEqual(t, len(transport.opened), 6, "Endpoints should stay open")
	// But the driver is unusable until a successful Init.
	test.AssertEqual(t, driver.Transmit(0, []byte{1}), ErrNotInitialized, "Expected ErrNotInitialized")
	test.AssertEqual(t, driver.DataIn(DataInEndpoint), ErrNotInitialized, "Expected ErrNotInitialized")
	test.AssertEqual(t, driver.ControlDataReady(), ErrNotInitialized, "Expected ErrNotInitialized")
}

func TestDeInitClosesAndReleases(t *testing.T) {
	driver, handler, transport := newTestDriver(t)

	test.AssertNoErr(t, driver.DeInit(), "DeInit failed")
	test.AssertEqual(t, len(transport.closed), 6, "All endpoints should close")
	test.AssertEqual(t, len(handler.deinited), 2, "Both contexts should release")

	// Double DeInit only closes endpoints again; no contexts remain.
	test.AssertNoErr(t, driver.DeInit(), "Second DeInit failed")
	test.AssertEqual(t, len(handler.deinited), 2, "Contexts released twice")
}

func TestReinitResetsTransferState(t *testing.T) {
	driver, _, transport := newTestDriver(t)

	test.AssertNoErr(t, driver.Transmit(0, []byte{1, 2, 3}), "Transmit failed")
	test.AssertEqual(t, driver.Transmit(0, []byte{4}), ErrTxBusy, "Expected busy")

	test.AssertNoErr(t, driver.DeInit(), "DeInit failed")
	transport.armed = make(map[uint8][]byte)
	test.AssertNoErr(t, driver.Init(SpeedFull), "Re-init failed")

	// Tx state is idle again and both receive buffers are re-armed.
	test.AssertNoErr(t, driver.Transmit(0, []byte{5}), "Transmit after re-init failed")
	test.AssertNotNil(t, transport.armed[DataOutEndpoint], "Port 0 not re-armed")
	test.AssertNotNil(t, transport.armed[DataOutEndpoint2], "Port 1 not re-armed")
}

func TestControlDeviceToHost(t *testing.T) {
	driver, handler, transport := newTestDriver(t)
	handler.controlFill = []byte{0x00, 0xC2, 0x01, 0x00, 0x00, 0x00, 0x08}

	setup := classSetup(usb.DeviceToHost, RequestGetLineCoding, uint16(DataInterfaceNum), 7)
	test.AssertNoErr(t, driver.Setup(setup), "Setup failed")

	test.AssertEqual(t, len(handler.controls), 1, "Control should fire once")
	test.AssertEqual(t, handler.controls[0].port, 0, "Wrong port")
	test.AssertEqual(t, handler.controls[0].request, RequestGetLineCoding, "Wrong request")
	test.AssertEqual(t, handler.controls[0].length, 7, "Wrong length")

	// Exactly the 7 handler-filled bytes go out over the control endpoint.
	test.AssertEqual(t, len(transport.controlSent), 1, "One control response expected")
	test.AssertBytesEqual(t, transport.controlSent[0], handler.controlFill, "Wrong control payload")
}

func TestControlHostToDeviceStaged(t *testing.T) {
	driver, handler, transport := newTestDriver(t)

	setup := classSetup(usb.HostToDevice, RequestSetLineCoding, uint16(ControlInterfaceNum2), 8)
	test.AssertNoErr(t, driver.Setup(setup), "Setup failed")

	// No callback yet; EP0 armed for exactly 8 bytes.
	test.AssertEqual(t, len(handler.controls), 0, "Callback must wait for data phase")
	test.AssertEqual(t, len(transport.controlArmed), 8, "Wrong staged length")

	payload := []byte{0x00, 0xE1, 0x00, 0x00, 0x00, 0x00, 0x08, 0x01}
	copy(transport.controlArmed, payload)
	test.AssertNoErr(t, driver.ControlDataReady(), "ControlDataReady failed")

	test.AssertEqual(t, len(handler.controls), 1, "Exactly one delivery")
	test.AssertEqual(t, handler.controls[0].port, 1, "Wrong port")
	test.AssertEqual(t, handler.controls[0].request, RequestSetLineCoding, "Wrong opcode")
	test.AssertBytesEqual(t, handler.controls[0].data, payload, "Wrong payload")

	// A duplicate data-ready event with no intervening setup is ignored.
	test.AssertNoErr(t, driver.ControlDataReady(), "Duplicate event failed")
	test.AssertEqual(t, len(handler.controls), 1, "Duplicate must not redeliver")
}

func TestControlNoDataPhase(t *testing.T) {
	driver, handler, _ := newTestDriver(t)

	setup := classSetup(usb.HostToDevice, RequestSetControlLineState, uint16(ControlInterfaceNum), 0)
	setup.WValue = ControlLineDTR | ControlLineRTS
	test.AssertNoErr(t, driver.Setup(setup), "Setup failed")

	test.AssertEqual(t, len(handler.controls), 1, "Control should fire immediately")
	test.AssertEqual(t, handler.controls[0].request, RequestSetControlLineState, "Wrong request")
	test.AssertEqual(t, handler.controls[0].length, 0, "Zero-length request")
}

func TestControlOversizedLengthIgnored(t *testing.T) {
	driver, handler, transport := newTestDriver(t)

	// A data phase larger than the staging buffer is ignored in both
	// directions: no callback, no EP0 activity, no staged opcode.
	staged := classSetup(usb.HostToDevice, RequestSetLineCoding, uint16(ControlInterfaceNum), controlStagingSize+88)
	test.AssertNoErr(t, driver.Setup(staged), "Oversized staged setup should fail open")
	test.AssertEqual(t, len(transport.controlArmed), 0, "EP0 must not be armed")

	read := classSetup(usb.DeviceToHost, RequestGetLineCoding, uint16(ControlInterfaceNum), controlStagingSize+1)
	test.AssertNoErr(t, driver.Setup(read), "Oversized read setup should fail open")
	test.AssertEqual(t, len(handler.controls), 0, "No callback for oversized requests")
	test.AssertEqual(t, len(transport.controlSent), 0, "No control response for oversized requests")

	test.AssertNoErr(t, driver.ControlDataReady(), "Data-ready with nothing staged failed")
	test.AssertEqual(t, len(handler.controls), 0, "Nothing staged, nothing delivered")
}

func TestControlStagingSharedLastWriterWins(t *testing.T) {
	driver, handler, transport := newTestDriver(t)

	// Two staged transfers back to back without a data phase in between:
	// the second overwrites the first, and only the second is delivered.
	first := classSetup(usb.HostToDevice, RequestSetLineCoding, uint16(ControlInterfaceNum), 7)
	second := classSetup(usb.HostToDevice, RequestSetCommFeature, uint16(ControlInterfaceNum2), 2)
	test.AssertNoErr(t, driver.Setup(first), "First setup failed")
	test.AssertNoErr(t, driver.Setup(second), "Second setup failed")

	copy(transport.controlArmed, []byte{0xAB, 0xCD})
	test.AssertNoErr(t, driver.ControlDataReady(), "ControlDataReady failed")
	test.AssertNoErr(t, driver.ControlDataReady(), "Duplicate event failed")

	test.AssertEqual(t, len(handler.controls), 1, "Only the last staged request survives")
	test.AssertEqual(t, handler.controls[0].request, RequestSetCommFeature, "Wrong surviving opcode")
	test.AssertEqual(t, handler.controls[0].port, 1, "Wrong surviving port")
}

func TestStandardGetInterface(t *testing.T) {
	driver, _, transport := newTestDriver(t)

	setup := &usb.SetupPacket{BRequest: usb.RequestGetInterface, WIndex: 0, WLength: 1}
	setup.SetDirection(usb.DeviceToHost)
	setup.SetRequestClass(usb.RequestClassStandard)
	setup.SetRecipient(usb.RequestRecipientInterface)
	test.AssertNoErr(t, driver.Setup(setup), "Setup failed")

	test.AssertEqual(t, len(transport.controlSent), 1, "One response expected")
	test.AssertBytesEqual(t, transport.controlSent[0], []byte{0}, "Alternate setting must be 0")
}

func TestStandardSetInterfaceNoOp(t *testing.T) {
	driver, handler, transport := newTestDriver(t)

	setup := &usb.SetupPacket{BRequest: usb.RequestSetInterface, WIndex: 1}
	setup.SetDirection(usb.HostToDevice)
	setup.SetRequestClass(usb.RequestClassStandard)
	setup.SetRecipient(usb.RequestRecipientInterface)
	test.AssertNoErr(t, driver.Setup(setup), "Setup failed")
	test.AssertEqual(t, len(handler.controls), 0, "No callback for SET_INTERFACE")
	test.AssertEqual(t, len(transport.controlSent), 0, "No data for SET_INTERFACE")
}

func TestVendorRequestIgnored(t *testing.T) {
	driver, handler, transport := newTestDriver(t)

	setup := &usb.SetupPacket{BRequest: 0x42, WLength: 4}
	setup.SetDirection(usb.DeviceToHost)
	setup.SetRequestClass(usb.RequestClassVendor)
	test.AssertNoErr(t, driver.Setup(setup), "Vendor request should fail open")
	test.AssertEqual(t, len(handler.controls), 0, "No callback for vendor request")
	test.AssertEqual(t, len(transport.controlSent), 0, "No data for vendor request")
}

func TestDescriptorAccessors(t *testing.T) {
	driver, _, _ := newTestDriver(t)

	config := driver.ConfigDescriptor()
	test.AssertEqual(t, len(config), 141, "Wrong configuration length")
	test.AssertEqual(t, int(config[2])|int(config[3])<<8, len(config), "wTotalLength mismatch")
	test.AssertEqual(t, config[4], 4, "Four interfaces expected")
	test.AssertBytesEqual(t, driver.OtherSpeedConfigDescriptor(), config, "Other-speed must match full-speed")
	test.AssertNil[byte](t, driver.HighSpeedConfigDescriptor(), "High-speed table must be empty")

	qualifier := driver.DeviceQualifierDescriptor()
	test.AssertEqual(t, len(qualifier), 10, "Wrong qualifier length")
	test.AssertEqual(t, qualifier[1], 0x06, "Wrong qualifier type")

	// Every endpoint descriptor inside the table belongs to the addresses
	// the driver opens.
	known := map[uint8]bool{0x81: true, 0x01: true, 0x82: true, 0x85: true, 0x05: true, 0x86: true}
	count := 0
	for i := 9; i < len(config); i += int(config[i]) {
		if config[i+1] == 0x05 {
			count++
			if !known[config[i+2]] {
				t.Fatalf("Unknown endpoint address 0x%02x in descriptor", config[i+2])
			}
		}
	}
	test.AssertEqual(t, count, 6, "Six endpoint descriptors expected")
}

func TestLineCodingRoundTrip(t *testing.T) {
	coding := LineCoding{BaudRate: 921600, StopBits: StopBits2, Parity: ParityEven, DataBits: 7}
	var buf [LineCodingSize]byte
	test.AssertEqual(t, coding.MarshalTo(buf[:]), LineCodingSize, "Marshal length")

	var decoded LineCoding
	test.AssertEqual(t, ParseLineCoding(buf[:], &decoded), true, "Parse failed")
	test.AssertEqual(t, decoded, coding, "Round trip mismatch")

	test.AssertEqual(t, ParseLineCoding(buf[:3], &decoded), false, "Short data must fail")
	test.AssertEqual(t, coding.MarshalTo(buf[:3]), 0, "Short buffer must fail")
	test.AssertEqual(t, coding.String(), "921600 7E2", "Wrong string form")
}

func TestSetupBeforeInit(t *testing.T) {
	driver := NewDriver(&mockHandler{}, newMockTransport())
	setup := classSetup(usb.HostToDevice, RequestSetLineCoding, 0, 7)
	test.AssertEqual(t, driver.Setup(setup), ErrNotInitialized, "Expected ErrNotInitialized")
}

func TestZeroLengthControlCarriesSetupBytes(t *testing.T) {
	driver, handler, _ := newTestDriver(t)

	setup := classSetup(usb.HostToDevice, RequestSetControlLineState, uint16(DataInterfaceNum2), 0)
	setup.WValue = ControlLineDTR
	test.AssertNoErr(t, driver.Setup(setup), "Setup failed")

	test.AssertEqual(t, handler.controls[0].port, 1, "Wrong port")
	test.AssertEqual(t, handler.controls[0].length, 0, "Zero length expected")
	test.AssertEqual(t, len(handler.controls), 1, "One delivery expected")
	// The raw 8-byte setup packet rides along even though length is zero.
	test.AssertBytesEqual(t, handler.controlRaws[0], util.ToLE(*setup), "Raw setup bytes expected")
}
