package usb

import (
	"testing"

	"github.com/bulwarkid/virtual-serial/test"
)

func TestSetupPacketBitfields(t *testing.T) {
	// 0xA1 = device-to-host, class, interface
	setup := SetupPacket{BmRequestType: 0xA1}
	test.AssertEqual(t, setup.Direction(), DeviceToHost, "direction")
	test.AssertEqual(t, setup.RequestClass(), RequestClassClass, "request class")
	test.AssertEqual(t, setup.Recipient(), RequestRecipientInterface, "recipient")

	setup.SetDirection(HostToDevice)
	setup.SetRequestClass(RequestClassStandard)
	setup.SetRecipient(RequestRecipientDevice)
	test.AssertEqual(t, setup.BmRequestType, uint8(0), "all fields cleared")

	setup.SetDirection(DeviceToHost)
	setup.SetRequestClass(RequestClassVendor)
	setup.SetRecipient(RequestRecipientEndpoint)
	test.AssertEqual(t, setup.BmRequestType, uint8(0xC2), "fields recomposed")
}

func TestGetDescriptorTypeAndIndex(t *testing.T) {
	descriptorType, index := GetDescriptorTypeAndIndex(0x0302)
	test.AssertEqual(t, descriptorType, DescriptorString, "type from high byte")
	test.AssertEqual(t, index, uint8(2), "index from low byte")
}
