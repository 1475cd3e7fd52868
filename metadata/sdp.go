package metadata

import (
	"fmt"
	"strings"

	"github.com/opd-ai/airtunes/crypto"
	"github.com/pion/sdp/v3"
)

// SDPInfo is what the receiver needs from an ANNOUNCE session description.
type SDPInfo struct {
	// Codec is the rtpmap encoding, "AppleLossless" for ALAC.
	Codec string
	// Fmtp is the fmtp attribute value, decoder parameters included.
	Fmtp string
	// EncryptedKey is the RSA-OAEP wrapped AES key, empty for clear streams.
	EncryptedKey []byte
	// IV is the AES-CBC IV.
	IV []byte
}

// IsEncrypted reports whether the stream carries a wrapped payload key.
func (s SDPInfo) IsEncrypted() bool {
	return len(s.EncryptedKey) > 0
}

// ParseSDP reads the audio media section of a session description.
func ParseSDP(data []byte) (SDPInfo, error) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal(data); err != nil {
		return SDPInfo{}, fmt.Errorf("%w: %v", ErrMalformedSDP, err)
	}

	var media *sdp.MediaDescription
	for _, m := range desc.MediaDescriptions {
		if m.MediaName.Media == "audio" {
			media = m
			break
		}
	}
	if media == nil {
		return SDPInfo{}, fmt.Errorf("%w: no audio media", ErrMalformedSDP)
	}

	attr := func(key string) string {
		if v, ok := media.Attribute(key); ok {
			return strings.TrimSpace(v)
		}
		if v, ok := desc.Attribute(key); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}

	info := SDPInfo{Fmtp: attr("fmtp")}
	if rtpmap := attr("rtpmap"); rtpmap != "" {
		if _, codec, ok := strings.Cut(rtpmap, " "); ok {
			info.Codec = strings.TrimSpace(codec)
		}
	}

	if key := attr("rsaaeskey"); key != "" {
		b, err := crypto.DecodeBase64(key)
		if err != nil {
			return SDPInfo{}, fmt.Errorf("%w: rsaaeskey: %v", ErrMalformedSDP, err)
		}
		info.EncryptedKey = b
	}
	if iv := attr("aesiv"); iv != "" {
		b, err := crypto.DecodeBase64(iv)
		if err != nil {
			return SDPInfo{}, fmt.Errorf("%w: aesiv: %v", ErrMalformedSDP, err)
		}
		info.IV = b
	}
	return info, nil
}
