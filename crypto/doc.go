// Package crypto implements the cryptographic operations of an AirPlay audio
// receiver.
//
// Two keys are involved in a session. The receiver owns a long-lived RSA
// private key, loaded once at startup, that answers the sender's
// challenge-response authentication and unwraps the per-session AES key.
// The per-session AES-128 key and IV then decrypt every audio payload.
//
// # Core Types
//
//   - [Engine]: RSA sign (PKCS#1 v1.5, undigested input) and RSA-OAEP/SHA-1 decrypt
//   - [PayloadDecrypter]: AES-128-CBC payload decryption with a fresh IV per packet
//
// # Key Loading
//
// [ParsePrivateKey] accepts PEM-encoded PKCS#1, PKCS#8 and OpenSSH keys, as
// well as a bare base64 body with the marker lines stripped:
//
//	key, err := crypto.LoadPrivateKey("airport.pem")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine, err := crypto.NewEngine(key)
//
// # Payload Decryption
//
// Each packet is decrypted independently, starting from the session IV. Only
// whole 16-byte blocks are decrypted; a trailing partial block is copied
// through unchanged:
//
//	dec, err := crypto.NewPayloadDecrypter(aesKey, aesIV)
//	plaintext, err := dec.Decrypt(packet.Payload)
//
// A nil *PayloadDecrypter rejects every payload with [ErrNoKeyMaterial].
package crypto
