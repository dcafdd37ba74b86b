package virtual_serial

import (
	"io"

	"github.com/bulwarkid/virtual-serial/cdc"
	"github.com/bulwarkid/virtual-serial/usbip"
	"github.com/bulwarkid/virtual-serial/util"
)

// NewDevice builds a dual-port virtual serial device backed by handler.
// The device's driver handles transmits and receive re-arming once a host
// attaches and configures the device.
func NewDevice(handler cdc.PortHandler) *usbip.SerialDevice {
	return usbip.NewSerialDevice(handler)
}

// StartDevice exports the device over USBIP and blocks serving connections.
func StartDevice(device *usbip.SerialDevice) {
	server := usbip.NewUSBIPServer([]usbip.USBIPDevice{device})
	server.Start()
}

// Start is the one-call version: build the device and serve it.
func Start(handler cdc.PortHandler) {
	StartDevice(NewDevice(handler))
}

func SetLogLevel(level util.LogLevel) {
	util.SetLogLevel(level)
}

func SetLogOutput(out io.Writer) {
	util.SetLogOutput(out)
}
