package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// PayloadKeySize is the length of the per-session AES key and IV.
const PayloadKeySize = aes.BlockSize

// PayloadDecrypter decrypts audio payloads with AES-128-CBC. Every payload
// starts from the session IV; blocks are never chained across packets.
type PayloadDecrypter struct {
	block cipher.Block
	iv    []byte
}

// NewPayloadDecrypter validates key and iv and prepares the cipher.
// An empty key yields ErrNoKeyMaterial.
func NewPayloadDecrypter(key, iv []byte) (*PayloadDecrypter, error) {
	block, err := newPayloadBlock(key, iv)
	if err != nil {
		return nil, err
	}
	return &PayloadDecrypter{
		block: block,
		iv:    append([]byte(nil), iv...),
	}, nil
}

// Decrypt returns the plaintext of payload. Whole blocks are decrypted and a
// trailing partial block is appended unchanged. The input is not modified.
func (d *PayloadDecrypter) Decrypt(payload []byte) ([]byte, error) {
	if d == nil {
		return nil, ErrNoKeyMaterial
	}
	out := make([]byte, len(payload))
	n := wholeBlocks(len(payload))
	if n > 0 {
		cipher.NewCBCDecrypter(d.block, d.iv).CryptBlocks(out[:n], payload[:n])
	}
	copy(out[n:], payload[n:])
	return out, nil
}

// EncryptPayload is the sender-side inverse of Decrypt.
func EncryptPayload(key, iv, payload []byte) ([]byte, error) {
	block, err := newPayloadBlock(key, iv)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(payload))
	n := wholeBlocks(len(payload))
	if n > 0 {
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[:n], payload[:n])
	}
	copy(out[n:], payload[n:])
	return out, nil
}

func newPayloadBlock(key, iv []byte) (cipher.Block, error) {
	if len(key) == 0 {
		return nil, ErrNoKeyMaterial
	}
	if len(key) != PayloadKeySize {
		return nil, fmt.Errorf("%w: payload key is %d bytes, need %d", ErrInvalidKey, len(key), PayloadKeySize)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidIV, len(iv), aes.BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return block, nil
}

func wholeBlocks(n int) int {
	return n - n%aes.BlockSize
}
