package playback

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// MagicCookieLength is the size of an encoded ALACConfig.
const MagicCookieLength = 24

// ALACConfig is the ALAC decoder configuration. Its field order matches both
// the magic cookie layout and the fmtp attribute of the session description.
type ALACConfig struct {
	FrameLength       uint32
	CompatibleVersion uint8
	BitDepth          uint8
	PB                uint8
	MB                uint8
	KB                uint8
	Channels          uint8
	MaxRun            uint16
	MaxFrameBytes     uint32
	AvgBitRate        uint32
	SampleRate        uint32
}

// DefaultALACConfig returns the configuration every AirPlay sender uses:
// 352 frames per packet, 16-bit stereo at 44.1 kHz.
func DefaultALACConfig() ALACConfig {
	return ALACConfig{
		FrameLength: 352,
		BitDepth:    16,
		PB:          40,
		MB:          10,
		KB:          14,
		Channels:    2,
		MaxRun:      255,
		SampleRate:  44100,
	}
}

// MagicCookie encodes c in the big-endian decoder layout.
func (c ALACConfig) MagicCookie() []byte {
	b := make([]byte, MagicCookieLength)
	binary.BigEndian.PutUint32(b[0:4], c.FrameLength)
	b[4] = c.CompatibleVersion
	b[5] = c.BitDepth
	b[6] = c.PB
	b[7] = c.MB
	b[8] = c.KB
	b[9] = c.Channels
	binary.BigEndian.PutUint16(b[10:12], c.MaxRun)
	binary.BigEndian.PutUint32(b[12:16], c.MaxFrameBytes)
	binary.BigEndian.PutUint32(b[16:20], c.AvgBitRate)
	binary.BigEndian.PutUint32(b[20:24], c.SampleRate)
	return b
}

// ParseMagicCookie decodes a cookie produced by MagicCookie.
func ParseMagicCookie(b []byte) (ALACConfig, error) {
	if len(b) < MagicCookieLength {
		return ALACConfig{}, fmt.Errorf("%w: cookie is %d bytes, need %d", ErrInvalidFormat, len(b), MagicCookieLength)
	}
	return ALACConfig{
		FrameLength:       binary.BigEndian.Uint32(b[0:4]),
		CompatibleVersion: b[4],
		BitDepth:          b[5],
		PB:                b[6],
		MB:                b[7],
		KB:                b[8],
		Channels:          b[9],
		MaxRun:            binary.BigEndian.Uint16(b[10:12]),
		MaxFrameBytes:     binary.BigEndian.Uint32(b[12:16]),
		AvgBitRate:        binary.BigEndian.Uint32(b[16:20]),
		SampleRate:        binary.BigEndian.Uint32(b[20:24]),
	}, nil
}

// ParseFmtp reads the value of an "fmtp" attribute, for example
// "96 352 0 16 40 10 14 2 255 0 0 44100". The leading payload type is
// optional.
func ParseFmtp(value string) (ALACConfig, error) {
	fields := strings.Fields(value)
	if len(fields) == 12 {
		fields = fields[1:]
	}
	if len(fields) != 11 {
		return ALACConfig{}, fmt.Errorf("%w: fmtp has %d parameters, need 11", ErrInvalidFormat, len(fields))
	}

	var n [11]uint64
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return ALACConfig{}, fmt.Errorf("%w: fmtp parameter %d: %v", ErrInvalidFormat, i, err)
		}
		n[i] = v
	}
	for _, i := range []int{1, 2, 3, 4, 5, 6} {
		if n[i] > 0xFF {
			return ALACConfig{}, fmt.Errorf("%w: fmtp parameter %d out of range", ErrInvalidFormat, i)
		}
	}
	if n[7] > 0xFFFF {
		return ALACConfig{}, fmt.Errorf("%w: fmtp max run out of range", ErrInvalidFormat)
	}

	return ALACConfig{
		FrameLength:       uint32(n[0]),
		CompatibleVersion: uint8(n[1]),
		BitDepth:          uint8(n[2]),
		PB:                uint8(n[3]),
		MB:                uint8(n[4]),
		KB:                uint8(n[5]),
		Channels:          uint8(n[6]),
		MaxRun:            uint16(n[7]),
		MaxFrameBytes:     uint32(n[8]),
		AvgBitRate:        uint32(n[9]),
		SampleRate:        uint32(n[10]),
	}, nil
}

// Format describes the encoded stream handed to a sink.
type Format struct {
	SampleRate      uint32
	Channels        uint8
	BitDepth        uint8
	FramesPerPacket uint32
	MagicCookie     []byte
}

// Format derives the sink format from c.
func (c ALACConfig) Format() Format {
	return Format{
		SampleRate:      c.SampleRate,
		Channels:        c.Channels,
		BitDepth:        c.BitDepth,
		FramesPerPacket: c.FrameLength,
		MagicCookie:     c.MagicCookie(),
	}
}

// DefaultFormat is the format used until a session description says
// otherwise.
func DefaultFormat() Format {
	return DefaultALACConfig().Format()
}
