package cdc

// Transmit submits data on the port's bulk IN endpoint. While a previous
// transmit is still in flight it returns ErrTxBusy and does nothing; the
// caller retries after TxComplete. The buffer is borrowed: it must stay
// valid and unmodified until TxComplete fires for this port. The call
// returns as soon as the transfer is submitted.
func (driver *Driver) Transmit(port int, data []byte) error {
	if driver.state == nil {
		return ErrNotInitialized
	}
	if port < 0 || port >= NumPorts {
		return ErrInvalidPort
	}

	state := &driver.state.ports[port]
	if state.txBusy {
		return ErrTxBusy
	}
	state.txBusy = true
	state.txBuffer = data

	if err := driver.transport.Transmit(dataInEndpoint(port), data); err != nil {
		cdcLogger.Printf("Transmit port %d: %v\n", port, err)
	}
	return nil
}

// DataIn is the transmit-complete event for a bulk IN endpoint, reported by
// the generic USB core. It frees the port for the next Transmit and informs
// the application. The driver never chains a next transmission itself.
func (driver *Driver) DataIn(endpointAddress uint8) error {
	if driver.state == nil {
		return ErrNotInitialized
	}

	port := PortForEndpoint(endpointAddress)
	state := &driver.state.ports[port]
	state.txBusy = false
	state.txBuffer = nil

	driver.handler.TxComplete(driver.state.contexts[port])
	return nil
}

// DataOut is the receive event for a bulk OUT endpoint. The received length
// is read from the transport and the application consumes the data
// synchronously; further reception on the endpoint stays NAKed until the
// application calls ReceivePacket again.
func (driver *Driver) DataOut(endpointAddress uint8) error {
	if driver.state == nil {
		return ErrNotInitialized
	}

	port := PortForEndpoint(endpointAddress)
	state := &driver.state.ports[port]
	state.rxLength = driver.transport.ReceivedLength(endpointAddress)

	driver.handler.Receive(driver.state.contexts[port], state.rxBuffer, &state.rxLength)
	return nil
}

// ReceivePacket re-arms the port's bulk OUT endpoint with its receive
// buffer at the speed's maximum packet size. Idempotent; call whenever the
// application is ready for more input.
func (driver *Driver) ReceivePacket(port int) error {
	if driver.state == nil {
		return ErrNotInitialized
	}
	if port < 0 || port >= NumPorts {
		return ErrInvalidPort
	}

	buffer := driver.state.ports[port].rxBuffer
	if err := driver.transport.PrepareReceive(dataOutEndpoint(port), buffer[:driver.speed.MaxPacketSize()]); err != nil {
		cdcLogger.Printf("Arm receive port %d: %v\n", port, err)
	}
	return nil
}
