package cdc

import (
	"fmt"

	"github.com/bulwarkid/virtual-serial/usb"
	"github.com/bulwarkid/virtual-serial/util"
)

var cdcLogger = util.NewLogger("[CDC] ", util.LogLevelDebug)

// portState is the per-port transfer bookkeeping.
type portState struct {
	txBusy   bool
	txBuffer []byte // borrowed from the application while txBusy
	rxBuffer []byte // owned by the driver for the device's lifetime
	rxLength uint32
}

// controlStaging shuttles control-transfer payloads for BOTH ports through
// one buffer. At most one control transfer may be mid-flight at a time: a
// second setup before the first data phase completes overwrites opcode and
// buffer (last writer wins, see the driver doc comment).
type controlStaging struct {
	opcode Request // requestNone when no data phase is pending
	length uint16
	port   int // port addressed by the current control transfer
	buffer []byte
}

// deviceState exists from Init to DeInit. Everything that is per
// configuration lives here so a DeInit/Init cycle starts clean.
type deviceState struct {
	ports      [NumPorts]portState
	staging    controlStaging
	contexts   [NumPorts]interface{} // opaque application contexts, by port
	altSetting [1]byte               // GET_INTERFACE response byte
}

// Driver is the CDC-ACM class driver for two independent serial ports
// multiplexed over one device. The generic USB core delivers events through
// Setup, DataIn, DataOut and ControlDataReady; the application side is a
// PortHandler, the link layer a Transport.
//
// Every entry point runs on the core's single event-dispatch context. The
// driver assumes no preemption mid-handler and nothing more: back-to-back
// events for different ports are handled independently.
type Driver struct {
	handler   PortHandler
	transport Transport
	speed     Speed
	state     *deviceState
}

// NewDriver registers the application handler and link-layer transport.
// The driver is inert until Init.
func NewDriver(handler PortHandler, transport Transport) *Driver {
	return &Driver{
		handler:   handler,
		transport: transport,
	}
}

// endpoints lists the six endpoints in open order: port 0 bulk pair, port 1
// bulk pair, then the two command endpoints.
var bulkEndpoints = [...]uint8{
	DataInEndpoint, DataOutEndpoint,
	DataInEndpoint2, DataOutEndpoint2,
}

var commandEndpoints = [...]uint8{CommandEndpoint, CommandEndpoint2}

func dataInEndpoint(port int) uint8 {
	if port == 1 {
		return DataInEndpoint2
	}
	return DataInEndpoint
}

func dataOutEndpoint(port int) uint8 {
	if port == 1 {
		return DataOutEndpoint2
	}
	return DataOutEndpoint
}

// Init opens all six endpoints sized for speed, builds the device class
// state and obtains one application context per port, then arms both bulk
// OUT endpoints. Called by the core when the device is configured.
//
// If a handler Init fails the driver is left uninitialized, but endpoints
// opened before the failure stay open. Known gap, kept intentionally: the
// core closes everything on the next DeInit.
func (driver *Driver) Init(speed Speed) error {
	driver.speed = speed
	packetSize := speed.MaxPacketSize()

	for _, address := range bulkEndpoints {
		if err := driver.transport.OpenEndpoint(address, usb.EndpointTypeBulk, packetSize); err != nil {
			cdcLogger.Printf("Open endpoint 0x%02x: %v\n", address, err)
		}
	}
	for _, address := range commandEndpoints {
		if err := driver.transport.OpenEndpoint(address, usb.EndpointTypeInterrupt, CommandPacketSize); err != nil {
			cdcLogger.Printf("Open endpoint 0x%02x: %v\n", address, err)
		}
	}

	state := &deviceState{}
	state.staging.opcode = requestNone
	state.staging.buffer = make([]byte, controlStagingSize)

	for port := 0; port < NumPorts; port++ {
		state.ports[port].txBusy = false
		state.ports[port].rxBuffer = make([]byte, packetSize)
		ctx, err := driver.handler.Init(port)
		if err != nil {
			return fmt.Errorf("port %d handler init: %w", port, err)
		}
		state.contexts[port] = ctx
	}
	driver.state = state

	for port := 0; port < NumPorts; port++ {
		if err := driver.transport.PrepareReceive(dataOutEndpoint(port), state.ports[port].rxBuffer); err != nil {
			cdcLogger.Printf("Arm receive port %d: %v\n", port, err)
		}
	}

	cdcLogger.Printf("Initialized, speed: %s\n", speed)
	return nil
}

// DeInit closes all six endpoints and, if the device class state exists,
// releases both application contexts and the state itself. Called by the
// core when the device is deconfigured.
func (driver *Driver) DeInit() error {
	for _, address := range bulkEndpoints {
		if err := driver.transport.CloseEndpoint(address); err != nil {
			cdcLogger.Printf("Close endpoint 0x%02x: %v\n", address, err)
		}
	}
	for _, address := range commandEndpoints {
		if err := driver.transport.CloseEndpoint(address); err != nil {
			cdcLogger.Printf("Close endpoint 0x%02x: %v\n", address, err)
		}
	}

	if driver.state != nil {
		for port := 0; port < NumPorts; port++ {
			driver.handler.DeInit(driver.state.contexts[port])
		}
		driver.state = nil
	}
	return nil
}

// Speed returns the speed the driver was initialized with.
func (driver *Driver) Speed() Speed {
	return driver.speed
}
