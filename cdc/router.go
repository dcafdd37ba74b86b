package cdc

// PortForEndpoint classifies an endpoint address into a port index. Port 1
// owns every address with the reserved instance bit set; everything else,
// recognized or not, belongs to port 0.
func PortForEndpoint(address uint8) int {
	if address&instanceEndpointBit != 0 {
		return 1
	}
	return 0
}

// PortForRequestIndex classifies a control request's wIndex into a port
// index. Port 1 owns its control and data interface numbers; any other
// index defaults to port 0.
func PortForRequestIndex(index uint16) int {
	if index == uint16(ControlInterfaceNum2) || index == uint16(DataInterfaceNum2) {
		return 1
	}
	return 0
}
