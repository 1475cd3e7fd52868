package metadata

import (
	"encoding/binary"
	"fmt"
)

const daapHeaderLength = 8

// DAAP tags the receiver reads. Everything else is skipped.
const (
	tagListingItem = "mlit"
	tagAlbum       = "asal"
	tagArtist      = "asar"
	tagName        = "minm"
	tagPlayStatus  = "caps"
)

// ParseDAAP reads a DAAP item list. The mlit container is entered rather
// than skipped; album, artist, name and play status are extracted from the
// items inside it. On a truncated body the fields read so far are returned
// together with ErrMalformedDAAP.
func ParseDAAP(data []byte) (Values, error) {
	var v Values
	offset := 0

	for offset < len(data) {
		if len(data)-offset < daapHeaderLength {
			return v, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrMalformedDAAP, len(data)-offset, offset)
		}
		tag := string(data[offset : offset+4])
		length := int(binary.BigEndian.Uint32(data[offset+4 : offset+8]))
		offset += daapHeaderLength

		if tag == tagListingItem {
			continue
		}
		if length < 0 || length > len(data)-offset {
			return v, fmt.Errorf("%w: %s item of %d bytes at offset %d", ErrMalformedDAAP, tag, length, offset)
		}
		value := data[offset : offset+length]
		offset += length

		switch tag {
		case tagAlbum:
			s := string(value)
			v.Album = &s
		case tagArtist:
			s := string(value)
			v.Artist = &s
		case tagName:
			s := string(value)
			v.Name = &s
		case tagPlayStatus:
			if len(value) > 0 {
				playing := value[0] == 1
				v.IsPlaying = &playing
			}
		}
	}
	return v, nil
}

// DAAPItem encodes one tag-length-value item. Senders and tests use it to
// build bodies.
func DAAPItem(tag string, value []byte) []byte {
	out := make([]byte, daapHeaderLength+len(value))
	copy(out[0:4], tag)
	binary.BigEndian.PutUint32(out[4:8], uint32(len(value)))
	copy(out[8:], value)
	return out
}
