// Package profile persists per-port serial settings across runs of the
// virtual device, optionally sealed with a passphrase.
package profile

import (
	"fmt"

	"github.com/bulwarkid/virtual-serial/cdc"
	"github.com/bulwarkid/virtual-serial/crypto"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/scrypt"
)

// PortProfile is the saved state of one virtual serial port.
type PortProfile struct {
	Name       string         `cbor:"1,keyasint"`
	LineCoding cdc.LineCoding `cbor:"2,keyasint"`
	DTR        bool           `cbor:"3,keyasint"`
	RTS        bool           `cbor:"4,keyasint"`
}

// DeviceProfile is the saved state of the whole dual-port device.
type DeviceProfile struct {
	Ports [cdc.NumPorts]PortProfile `cbor:"1,keyasint"`
}

// DefaultProfile names the ports ttyVSP0/ttyVSP1 with 115200 8N1 framing.
func DefaultProfile() *DeviceProfile {
	profile := &DeviceProfile{}
	for port := range profile.Ports {
		profile.Ports[port] = PortProfile{
			Name:       fmt.Sprintf("ttyVSP%d", port),
			LineCoding: cdc.DefaultLineCoding,
		}
	}
	return profile
}

// ApplyControlLineState records a SET_CONTROL_LINE_STATE value on a port.
func (profile *DeviceProfile) ApplyControlLineState(port int, value uint16) {
	if port < 0 || port >= cdc.NumPorts {
		return
	}
	profile.Ports[port].DTR = value&cdc.ControlLineDTR != 0
	profile.Ports[port].RTS = value&cdc.ControlLineRTS != 0
}

func EncodeProfile(profile *DeviceProfile) ([]byte, error) {
	data, err := cbor.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("Could not encode profile: %w", err)
	}
	return data, nil
}

func DecodeProfile(data []byte) (*DeviceProfile, error) {
	profile := DeviceProfile{}
	if err := cbor.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("Could not decode profile: %w", err)
	}
	return &profile, nil
}

type passphraseEncryptedBlob struct {
	Salt          []byte              `cbor:"1,keyasint"`
	EncryptionKey crypto.EncryptedBox `cbor:"2,keyasint"`
	EncryptedData crypto.EncryptedBox `cbor:"3,keyasint"`
}

func deriveKeyEncryptionKey(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, 32768, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("Could not create key encryption key: %w", err)
	}
	return key, nil
}

// EncryptWithPassphrase seals data under a fresh symmetric key, which is in
// turn sealed under a key derived from the passphrase.
func EncryptWithPassphrase(passphrase string, data []byte) ([]byte, error) {
	salt := crypto.RandomBytes(16)
	keyEncryptionKey, err := deriveKeyEncryptionKey(passphrase, salt)
	if err != nil {
		return nil, err
	}
	encryptionKey := crypto.GenerateSymmetricKey()
	blob := passphraseEncryptedBlob{
		Salt:          salt,
		EncryptionKey: crypto.Seal(keyEncryptionKey, encryptionKey),
		EncryptedData: crypto.Seal(encryptionKey, data),
	}
	blobBytes, err := cbor.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("Could not encode encrypted blob: %w", err)
	}
	return blobBytes, nil
}

func DecryptWithPassphrase(passphrase string, data []byte) ([]byte, error) {
	blob := passphraseEncryptedBlob{}
	if err := cbor.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("Could not decode encrypted blob: %w", err)
	}
	keyEncryptionKey, err := deriveKeyEncryptionKey(passphrase, blob.Salt)
	if err != nil {
		return nil, err
	}
	encryptionKey, err := crypto.Decrypt(keyEncryptionKey, blob.EncryptionKey.Data, blob.EncryptionKey.IV)
	if err != nil {
		return nil, fmt.Errorf("Could not decrypt encryption key: %w", err)
	}
	decryptedData, err := crypto.Decrypt(encryptionKey, blob.EncryptedData.Data, blob.EncryptedData.IV)
	if err != nil {
		return nil, fmt.Errorf("Could not decrypt data: %w", err)
	}
	return decryptedData, nil
}

// EncryptProfile encodes and seals a profile for storage.
func EncryptProfile(profile *DeviceProfile, passphrase string) ([]byte, error) {
	data, err := EncodeProfile(profile)
	if err != nil {
		return nil, err
	}
	return EncryptWithPassphrase(passphrase, data)
}

// DecryptProfile unseals and decodes a stored profile.
func DecryptProfile(data []byte, passphrase string) (*DeviceProfile, error) {
	decrypted, err := DecryptWithPassphrase(passphrase, data)
	if err != nil {
		return nil, err
	}
	return DecodeProfile(decrypted)
}
