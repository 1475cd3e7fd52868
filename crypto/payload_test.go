package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAESKey = []byte("fedcba9876543210")
	testAESIV  = []byte("0000111122223333")
)

func TestNewPayloadDecrypter(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
		iv   []byte
		err  error
	}{
		{name: "Valid key and IV", key: testAESKey, iv: testAESIV},
		{name: "Missing key", key: nil, iv: testAESIV, err: ErrNoKeyMaterial},
		{name: "Short key", key: []byte("short"), iv: testAESIV, err: ErrInvalidKey},
		{name: "AES-256 key", key: bytes.Repeat([]byte{1}, 32), iv: testAESIV, err: ErrInvalidKey},
		{name: "Missing IV", key: testAESKey, iv: nil, err: ErrInvalidIV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := NewPayloadDecrypter(tt.key, tt.iv)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Nil(t, dec)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, dec)
		})
	}
}

func TestPayloadDecrypter_Decrypt(t *testing.T) {
	dec, err := NewPayloadDecrypter(testAESKey, testAESIV)
	require.NoError(t, err)

	tests := []struct {
		name      string
		size      int
		decrypted int
	}{
		{name: "Two full blocks", size: 32, decrypted: 32},
		{name: "One block and a tail", size: 20, decrypted: 16},
		{name: "Tail only", size: 5, decrypted: 0},
		{name: "Empty payload", size: 0, decrypted: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain := make([]byte, tt.size)
			for i := range plain {
				plain[i] = byte(i * 7)
			}
			encrypted, err := EncryptPayload(testAESKey, testAESIV, plain)
			require.NoError(t, err)
			assert.Equal(t, plain[tt.decrypted:], encrypted[tt.decrypted:], "tail is sent in the clear")

			got, err := dec.Decrypt(encrypted)
			require.NoError(t, err)
			assert.Len(t, got, tt.size)
			assert.Equal(t, plain, got)
		})
	}
}

func TestPayloadDecrypter_IVResetPerPacket(t *testing.T) {
	dec, err := NewPayloadDecrypter(testAESKey, testAESIV)
	require.NoError(t, err)

	plain := bytes.Repeat([]byte{0xAB}, 32)
	encrypted, err := EncryptPayload(testAESKey, testAESIV, plain)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := dec.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plain, got, "packet %d", i)
	}
}

func TestPayloadDecrypter_DoesNotModifyInput(t *testing.T) {
	dec, err := NewPayloadDecrypter(testAESKey, testAESIV)
	require.NoError(t, err)

	encrypted, err := EncryptPayload(testAESKey, testAESIV, make([]byte, 48))
	require.NoError(t, err)
	snapshot := append([]byte(nil), encrypted...)

	_, err = dec.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, snapshot, encrypted)
}

func TestPayloadDecrypter_NilRejects(t *testing.T) {
	var dec *PayloadDecrypter
	_, err := dec.Decrypt([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrNoKeyMaterial)
}
