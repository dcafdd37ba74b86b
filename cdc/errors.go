package cdc

import "errors"

var (
	// ErrTxBusy is returned by Transmit while the port's previous transmit
	// is still in flight. Retry after TxComplete.
	ErrTxBusy = errors.New("transmit already in progress")

	// ErrNotInitialized is returned when an operation needs device class
	// state but Init has not run (or failed).
	ErrNotInitialized = errors.New("device class state not initialized")

	// ErrInvalidPort is returned for port indexes outside 0..NumPorts-1.
	ErrInvalidPort = errors.New("invalid port index")
)
