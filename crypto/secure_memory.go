package crypto

import (
	"crypto/subtle"
	"runtime"
)

// SecureWipe overwrites data with zeros. It returns ErrInvalidKey for a nil
// slice, which usually means the caller wiped the wrong variable.
func SecureWipe(data []byte) error {
	if data == nil {
		return ErrInvalidKey
	}
	subtle.XORBytes(data, data, data)
	runtime.KeepAlive(data)
	return nil
}

// ZeroBytes wipes a session key once the cipher holding its expanded form
// has been built.
func ZeroBytes(data []byte) {
	_ = SecureWipe(data)
}
