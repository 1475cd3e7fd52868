package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// GeneratedKeyBits is the modulus size of keys made by GeneratePrivateKey.
const GeneratedKeyBits = 2048

// LoadPrivateKey reads and parses the RSA private key at path.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key %s: %w", path, err)
	}
	key, err := ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", path, err)
	}
	return key, nil
}

// ParsePrivateKey parses an RSA private key. PEM input may hold PKCS#1,
// PKCS#8 or OpenSSH encodings. Input without a PEM block is treated as the
// base64 body of a key file, with any marker lines ignored.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		raw, err := ssh.ParseRawPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return asRSA(raw)
	}

	der, err := DecodeBase64(keyBody(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	raw, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: neither PKCS#1 nor PKCS#8", ErrInvalidKey)
	}
	return asRSA(raw)
}

// GeneratePrivateKey creates an ephemeral key for receivers started without
// a key file. Senders that verify the challenge response against the AirPort
// public key will reject it.
func GeneratePrivateKey() (*rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, GeneratedKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}
	return key, nil
}

// DecodeBase64 decodes standard base64 with or without trailing padding.
// Senders omit the padding on challenges and SDP key attributes.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(strings.TrimSpace(s), "=")
	return base64.RawStdEncoding.DecodeString(s)
}

func asRSA(raw interface{}) (*rsa.PrivateKey, error) {
	key, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotRSAKey, raw)
	}
	return key, nil
}

// keyBody drops "-----" marker lines and joins the rest.
func keyBody(text string) string {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-----") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}
