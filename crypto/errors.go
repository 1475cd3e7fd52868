package crypto

import "errors"

// Crypto failures are fatal for the session that hit them. Startup key
// loading is the only place they are returned to an outside caller.
var (
	// ErrNoKeyMaterial indicates a payload arrived before any AES key was set.
	ErrNoKeyMaterial = errors.New("no payload key material")

	// ErrInvalidKey indicates a private or payload key that cannot be used.
	ErrInvalidKey = errors.New("invalid key")

	// ErrNotRSAKey indicates a parsed private key of another algorithm.
	ErrNotRSAKey = errors.New("private key is not RSA")

	// ErrInvalidIV indicates a payload IV that is not one AES block long.
	ErrInvalidIV = errors.New("invalid payload IV")
)
