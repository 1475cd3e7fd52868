package rtsp

import (
	"encoding/base64"
	"fmt"
	"net"

	"github.com/opd-ai/airtunes/crypto"
)

// challengeSize is the minimum length of the signed challenge block.
const challengeSize = 32

// Signer produces the raw RSA signature the sender verifies.
type Signer interface {
	Sign(data []byte) ([]byte, error)
}

// ChallengeBlock builds the bytes signed in answer to an Apple-Challenge:
// the decoded challenge, the local address the sender connected to (4 bytes
// for IPv4, 16 for IPv6), the hardware address, zero padded to 32 bytes.
func ChallengeBlock(challenge string, local net.IP, hw net.HardwareAddr) ([]byte, error) {
	decoded, err := crypto.DecodeBase64(challenge)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChallenge, err)
	}

	block := append([]byte{}, decoded...)
	if v4 := local.To4(); v4 != nil {
		block = append(block, v4...)
	} else {
		block = append(block, local.To16()...)
	}
	block = append(block, hw...)
	for len(block) < challengeSize {
		block = append(block, 0)
	}
	return block, nil
}

// ChallengeResponse signs the challenge block and encodes it for the
// Apple-Response header.
func ChallengeResponse(signer Signer, challenge string, local net.IP, hw net.HardwareAddr) (string, error) {
	block, err := ChallengeBlock(challenge, local, hw)
	if err != nil {
		return "", err
	}
	sig, err := signer.Sign(block)
	if err != nil {
		return "", fmt.Errorf("sign challenge: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
