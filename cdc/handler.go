package cdc

// PortHandler is the application side of one virtual serial device. A single
// handler serves both ports; the driver tells it which port an event is for
// through the opaque context returned by Init.
type PortHandler interface {
	// Init is called once per port when the device is configured. The
	// returned context is passed back on every later callback for that
	// port. An error aborts driver initialization.
	Init(port int) (interface{}, error)

	// DeInit is called once per port when the device is deconfigured.
	DeInit(ctx interface{})

	// Control delivers a class request. For device-to-host requests the
	// handler fills data[:length] with the response. For host-to-device
	// requests data[:length] holds the payload. When length is zero, data
	// holds the raw 8-byte setup packet and there is no data phase.
	Control(ctx interface{}, request Request, data []byte, length int) error

	// Receive delivers data[:*length] received on the port's bulk OUT
	// endpoint. Reception stays NAKed until ReceivePacket is called again
	// for the port, so the handler controls its own backpressure.
	Receive(ctx interface{}, data []byte, length *uint32)

	// TxComplete reports that the port's in-flight transmit finished and
	// the buffer passed to Transmit may be reused.
	TxComplete(ctx interface{})
}

// Transport is the link layer underneath the class driver: the component
// that actually owns endpoints and moves bytes. The driver never inspects
// transport failures beyond logging them.
type Transport interface {
	OpenEndpoint(address uint8, attributes uint8, maxPacketSize uint16) error
	CloseEndpoint(address uint8) error

	// Transmit submits data on an IN endpoint. Completion is reported back
	// to the driver through DataIn.
	Transmit(address uint8, data []byte) error

	// PrepareReceive arms an OUT endpoint with buffer. Arrival is reported
	// back through DataOut.
	PrepareReceive(address uint8, buffer []byte) error

	// ReceivedLength returns the byte count of the most recent transfer on
	// the given OUT endpoint.
	ReceivedLength(address uint8) uint32

	// SendControlData transmits the data phase of a device-to-host control
	// transfer on EP0.
	SendControlData(data []byte) error

	// PrepareControlReceive arms EP0 to receive len(buffer) bytes of a
	// host-to-device data phase. Completion is reported back through
	// ControlDataReady.
	PrepareControlReceive(buffer []byte) error
}
