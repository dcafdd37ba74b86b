package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	virtual_serial "github.com/bulwarkid/virtual-serial"
	"github.com/bulwarkid/virtual-serial/cdc"
	"github.com/bulwarkid/virtual-serial/profile"
	"github.com/bulwarkid/virtual-serial/usb"
	"github.com/bulwarkid/virtual-serial/usbip"
	"github.com/bulwarkid/virtual-serial/util"
)

// echoHandler drives both ports: received bytes are transmitted straight
// back, and host port settings are mirrored into the profile file.
type echoHandler struct {
	device        *usbip.SerialDevice
	deviceProfile *profile.DeviceProfile
}

type echoPort struct {
	handler *echoHandler
	port    int
}

func (handler *echoHandler) Init(port int) (interface{}, error) {
	fmt.Printf("Port %d ('%s') up\n", port, handler.deviceProfile.Ports[port].Name)
	return &echoPort{handler: handler, port: port}, nil
}

func (handler *echoHandler) DeInit(ctx interface{}) {
	port := ctx.(*echoPort)
	fmt.Printf("Port %d down\n", port.port)
}

func (handler *echoHandler) Control(ctx interface{}, request cdc.Request, data []byte, length int) error {
	port := ctx.(*echoPort)
	deviceProfile := handler.deviceProfile
	switch request {
	case cdc.RequestSetLineCoding:
		if cdc.ParseLineCoding(data[:length], &deviceProfile.Ports[port.port].LineCoding) {
			fmt.Printf("Port %d line coding: %s\n", port.port, deviceProfile.Ports[port.port].LineCoding)
			saveProfile(deviceProfile)
		}
	case cdc.RequestGetLineCoding:
		deviceProfile.Ports[port.port].LineCoding.MarshalTo(data)
	case cdc.RequestSetControlLineState:
		setup := util.ReadLE[usb.SetupPacket](bytes.NewBuffer(data))
		deviceProfile.ApplyControlLineState(port.port, setup.WValue)
		saveProfile(deviceProfile)
	}
	return nil
}

func (handler *echoHandler) Receive(ctx interface{}, data []byte, length *uint32) {
	port := ctx.(*echoPort)
	echo := make([]byte, *length)
	copy(echo, data[:*length])
	if err := handler.device.Driver().Transmit(port.port, echo); err != nil {
		fmt.Printf("Port %d dropped %d bytes: %s\n", port.port, *length, err)
	}
	handler.device.Driver().ReceivePacket(port.port)
}

func (handler *echoHandler) TxComplete(ctx interface{}) {}

func runServer(deviceProfile *profile.DeviceProfile) {
	handler := &echoHandler{deviceProfile: deviceProfile}
	device := virtual_serial.NewDevice(handler)
	handler.device = device

	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		virtual_serial.StartDevice(device)
		wg.Done()
	}()
	go func() {
		time.Sleep(500 * time.Millisecond)
		prog := exec.Command("usbip", "attach", "-r", "127.0.0.1", "-b", "2-2")
		prog.Stdin = os.Stdin
		prog.Stdout = os.Stdout
		prog.Stderr = os.Stderr
		if err := prog.Run(); err != nil {
			fmt.Printf("Could not attach device, attach manually with 'usbip attach -r 127.0.0.1 -b 2-2': %s\n", err)
		}
		wg.Done()
	}()
	wg.Wait()
}
