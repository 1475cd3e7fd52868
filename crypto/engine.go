package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"fmt"
)

// Engine performs the receiver's RSA operations with a fixed private key.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	key *rsa.PrivateKey
}

// NewEngine wraps key. A nil key is rejected.
func NewEngine(key *rsa.PrivateKey) (*Engine, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidKey)
	}
	return &Engine{key: key}, nil
}

// PublicKey returns the public half of the engine's key.
func (e *Engine) PublicKey() *rsa.PublicKey {
	return &e.key.PublicKey
}

// Sign signs data with PKCS#1 v1.5 type 1 padding and no digest, the form
// senders verify challenge responses with.
func (e *Engine) Sign(data []byte) ([]byte, error) {
	sig, err := rsa.SignPKCS1v15(nil, e.key, stdcrypto.Hash(0), data)
	if err != nil {
		NewLogger("Engine.Sign").
			WithError(err, "sign").
			WithFields(PreviewFields(data, "input")).
			Error("Challenge signing failed")
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}

// Decrypt unwraps an RSA-OAEP/SHA-1 ciphertext, used once per session for
// the AES payload key.
func (e *Engine) Decrypt(ciphertext []byte) ([]byte, error) {
	plaintext, err := rsa.DecryptOAEP(sha1.New(), rand.Reader, e.key, ciphertext, nil)
	if err != nil {
		NewLogger("Engine.Decrypt").
			WithError(err, "decrypt").
			WithField("ciphertext_size", len(ciphertext)).
			Error("Session key unwrap failed")
		return nil, fmt.Errorf("decrypt session key: %w", err)
	}
	return plaintext, nil
}

// WrapKey encrypts a payload key for the receiver owning pub. Senders use it
// to build the rsaaeskey SDP attribute.
func WrapKey(pub *rsa.PublicKey, key []byte) ([]byte, error) {
	wrapped, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, key, nil)
	if err != nil {
		return nil, fmt.Errorf("wrap session key: %w", err)
	}
	return wrapped, nil
}
