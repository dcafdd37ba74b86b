package cdc

import (
	"github.com/bulwarkid/virtual-serial/usb"
	"github.com/bulwarkid/virtual-serial/util"
)

// Setup processes a control request addressed to one of the CDC interfaces.
//
// Class requests with a device-to-host data phase are answered synchronously
// from the staging buffer. Class requests with a host-to-device data phase
// are staged: the request code and length are recorded and EP0 is armed, and
// the application sees the request only when ControlDataReady fires. Class
// requests without a data phase go straight to the application with the raw
// setup bytes. Standard GET_INTERFACE answers with the stored alternate
// setting byte; SET_INTERFACE is accepted as a no-op. Anything else is
// ignored without an error (fail open).
func (driver *Driver) Setup(setup *usb.SetupPacket) error {
	state := driver.state
	if state == nil {
		return ErrNotInitialized
	}

	port := PortForRequestIndex(setup.WIndex)
	state.staging.port = port
	ctx := state.contexts[port]

	cdcLogger.Printf("SETUP port %d: %s\n", port, setup)

	switch setup.RequestClass() {
	case usb.RequestClassClass:
		request := Request(uint8(setup.BRequest))
		if setup.WLength > controlStagingSize {
			// Fail open: a data phase that cannot fit the staging buffer
			// is ignored like any other malformed request.
			cdcLogger.Printf("Ignoring %s: wLength %d exceeds staging capacity\n", request, setup.WLength)
			return nil
		}
		if setup.WLength > 0 {
			if setup.Direction() == usb.DeviceToHost {
				if err := driver.handler.Control(ctx, request, state.staging.buffer, int(setup.WLength)); err != nil {
					cdcLogger.Printf("Control %s: %v\n", request, err)
				}
				if err := driver.transport.SendControlData(state.staging.buffer[:setup.WLength]); err != nil {
					cdcLogger.Printf("Send control data: %v\n", err)
				}
			} else {
				state.staging.opcode = request
				state.staging.length = setup.WLength
				if err := driver.transport.PrepareControlReceive(state.staging.buffer[:setup.WLength]); err != nil {
					cdcLogger.Printf("Arm control receive: %v\n", err)
				}
			}
		} else {
			if err := driver.handler.Control(ctx, request, util.ToLE(*setup), 0); err != nil {
				cdcLogger.Printf("Control %s: %v\n", request, err)
			}
		}

	case usb.RequestClassStandard:
		switch setup.BRequest {
		case usb.RequestGetInterface:
			if err := driver.transport.SendControlData(state.altSetting[:]); err != nil {
				cdcLogger.Printf("Send control data: %v\n", err)
			}
		case usb.RequestSetInterface:
			// Only alternate setting 0 exists; accepted as a no-op.
		}
	}

	return nil
}

// ControlDataReady completes a staged host-to-device class request: the
// payload now sits in the staging buffer, so the application callback fires
// with the recorded opcode and length, then the staging opcode resets.
// Without a pending opcode the event is ignored, which makes duplicate
// delivery harmless.
func (driver *Driver) ControlDataReady() error {
	state := driver.state
	if state == nil {
		return ErrNotInitialized
	}

	if state.staging.opcode == requestNone {
		return nil
	}

	ctx := state.contexts[state.staging.port]
	if err := driver.handler.Control(ctx, state.staging.opcode, state.staging.buffer, int(state.staging.length)); err != nil {
		cdcLogger.Printf("Control %s: %v\n", state.staging.opcode, err)
	}
	state.staging.opcode = requestNone
	return nil
}
