package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/bulwarkid/virtual-serial/util"
)

func GenerateSymmetricKey() []byte {
	return RandomBytes(32)
}

func Encrypt(key []byte, data []byte) ([]byte, []byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("Could not create cipher: %w", err)
	}
	nonce := RandomBytes(12)
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("Could not create GCM mode: %w", err)
	}
	encryptedData := gcm.Seal(nil, nonce, data, nil)
	return encryptedData, nonce, nil
}

func Decrypt(key []byte, data []byte, nonce []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("Could not create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("Could not create GCM mode: %w", err)
	}
	decryptedData, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, fmt.Errorf("Could not decrypt data: %w", err)
	}
	return decryptedData, nil
}

type EncryptedBox struct {
	Data []byte `cbor:"1,keyasint"`
	IV   []byte `cbor:"2,keyasint"`
}

func Seal(key []byte, data []byte) EncryptedBox {
	encryptedData, iv, err := Encrypt(key, data)
	util.CheckErr(err, "Could not seal data")
	return EncryptedBox{Data: encryptedData, IV: iv}
}

func Open(key []byte, box EncryptedBox) []byte {
	data, err := Decrypt(key, box.Data, box.IV)
	util.CheckErr(err, "Could not open data")
	return data
}

func RandomBytes(length int) []byte {
	randBytes := make([]byte, length)
	_, err := rand.Read(randBytes)
	util.CheckErr(err, "Could not generate random bytes")
	return randBytes
}
