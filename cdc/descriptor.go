package cdc

// configDescriptor is the full-speed configuration: two interface
// association groups, each one CDC control interface (with header, call
// management, ACM and union functional descriptors plus the interrupt
// command endpoint) and one data interface with a bulk pair.
var configDescriptor = []byte{
	// Configuration descriptor
	0x09, 0x02, 0x8D, 0x00, // bLength, bDescriptorType, wTotalLength (141)
	0x04, 0x01, 0x00, 0xC0, 0x32, // bNumInterfaces, bConfigurationValue, iConfiguration, bmAttributes, bMaxPower

	// --- Port 0 ---
	// Interface Association: interfaces 0..1, CDC ACM
	0x08, 0x0B, 0x00, 0x02, 0x02, 0x02, 0x01, 0x00,
	// Control interface 0: class CDC, subclass ACM, protocol AT commands
	0x09, 0x04, 0x00, 0x00, 0x01, 0x02, 0x02, 0x01, 0x00,
	// CDC header functional, bcdCDC 1.10
	0x05, 0x24, 0x00, 0x10, 0x01,
	// Call management functional, data interface 1
	0x05, 0x24, 0x01, 0x00, 0x01,
	// ACM functional, line coding + serial state supported
	0x04, 0x24, 0x02, 0x02,
	// Union functional, control 0 / data 1
	0x05, 0x24, 0x06, 0x00, 0x01,
	// Command endpoint 0x82: interrupt IN, 8 bytes
	0x07, 0x05, 0x82, 0x03, 0x08, 0x00, 0x10,
	// Data interface 1: class CDC data
	0x09, 0x04, 0x01, 0x00, 0x02, 0x0A, 0x00, 0x00, 0x00,
	// Data endpoint 0x01: bulk OUT, 64 bytes
	0x07, 0x05, 0x01, 0x02, 0x40, 0x00, 0x00,
	// Data endpoint 0x81: bulk IN, 64 bytes
	0x07, 0x05, 0x81, 0x02, 0x40, 0x00, 0x00,

	// --- Port 1 ---
	// Interface Association: interfaces 2..3, CDC ACM
	0x08, 0x0B, 0x02, 0x02, 0x02, 0x02, 0x01, 0x00,
	// Control interface 2
	0x09, 0x04, 0x02, 0x00, 0x01, 0x02, 0x02, 0x01, 0x00,
	// CDC header functional
	0x05, 0x24, 0x00, 0x10, 0x01,
	// Call management functional, data interface 3
	0x05, 0x24, 0x01, 0x00, 0x03,
	// ACM functional
	0x04, 0x24, 0x02, 0x02,
	// Union functional, control 2 / data 3
	0x05, 0x24, 0x06, 0x02, 0x03,
	// Command endpoint 0x86: interrupt IN, 8 bytes
	0x07, 0x05, 0x86, 0x03, 0x08, 0x00, 0x10,
	// Data interface 3
	0x09, 0x04, 0x03, 0x00, 0x02, 0x0A, 0x00, 0x00, 0x00,
	// Data endpoint 0x05: bulk OUT, 64 bytes
	0x07, 0x05, 0x05, 0x02, 0x40, 0x00, 0x00,
	// Data endpoint 0x85: bulk IN, 64 bytes
	0x07, 0x05, 0x85, 0x02, 0x40, 0x00, 0x00,
}

// deviceQualifierDescriptor is the fixed 10-byte device qualifier.
var deviceQualifierDescriptor = []byte{
	0x0A, 0x06, 0x00, 0x02, 0x00, 0x00, 0x00, 0x40, 0x01, 0x00,
}

// ConfigDescriptor returns the full-speed configuration descriptor.
func (driver *Driver) ConfigDescriptor() []byte {
	return configDescriptor
}

// HighSpeedConfigDescriptor returns nil: this configuration does not
// advertise a distinct high-speed variant.
func (driver *Driver) HighSpeedConfigDescriptor() []byte {
	return nil
}

// OtherSpeedConfigDescriptor returns the same table as the full-speed query.
func (driver *Driver) OtherSpeedConfigDescriptor() []byte {
	return configDescriptor
}

// DeviceQualifierDescriptor returns the fixed device qualifier.
func (driver *Driver) DeviceQualifierDescriptor() []byte {
	return deviceQualifierDescriptor
}
