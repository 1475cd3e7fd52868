package metadata

import "bytes"

// Unknown is the position and duration of a track that has not reported
// progress.
const Unknown = -1.0

// TrackInfo describes the track being played.
type TrackInfo struct {
	Name        string  `json:"name"`
	Album       string  `json:"album"`
	Artist      string  `json:"artist"`
	Position    float64 `json:"position"`
	Duration    float64 `json:"duration"`
	Artwork     []byte  `json:"-"`
	ArtworkType string  `json:"artwork_type,omitempty"`
}

// NewTrackInfo returns an empty track with unknown progress.
func NewTrackInfo() TrackInfo {
	return TrackInfo{Position: Unknown, Duration: Unknown}
}

// Reset clears the track back to NewTrackInfo.
func (t *TrackInfo) Reset() {
	*t = NewTrackInfo()
}

// Clone returns a copy that shares no memory with t.
func (t TrackInfo) Clone() TrackInfo {
	if t.Artwork != nil {
		t.Artwork = append([]byte(nil), t.Artwork...)
	}
	return t
}

// HasArtwork reports whether cover art is set.
func (t TrackInfo) HasArtwork() bool {
	return len(t.Artwork) > 0
}

// Apply merges the track fields of v and reports whether any changed.
func (t *TrackInfo) Apply(v Values) bool {
	changed := false
	changed = setString(&t.Name, v.Name) || changed
	changed = setString(&t.Album, v.Album) || changed
	changed = setString(&t.Artist, v.Artist) || changed
	changed = setFloat(&t.Position, v.Position) || changed
	changed = setFloat(&t.Duration, v.Duration) || changed
	if v.Artwork != nil && (!bytes.Equal(t.Artwork, v.Artwork) || t.ArtworkType != v.ArtworkType) {
		t.Artwork = append([]byte(nil), v.Artwork...)
		t.ArtworkType = v.ArtworkType
		changed = true
	}
	return changed
}

// PlayerInfo describes the sender's playback state.
type PlayerInfo struct {
	IsPlaying bool    `json:"is_playing"`
	Volume    float64 `json:"volume"`
}

// Apply merges the player fields of v and reports whether any changed.
func (p *PlayerInfo) Apply(v Values) bool {
	changed := false
	if v.IsPlaying != nil && *v.IsPlaying != p.IsPlaying {
		p.IsPlaying = *v.IsPlaying
		changed = true
	}
	changed = setFloat(&p.Volume, v.Volume) || changed
	return changed
}

// Values is a partial update. Nil fields are absent from the parsed body.
type Values struct {
	Name        *string
	Album       *string
	Artist      *string
	Position    *float64
	Duration    *float64
	Artwork     []byte
	ArtworkType string
	IsPlaying   *bool
	Volume      *float64
}

// IsEmpty reports whether v sets nothing.
func (v Values) IsEmpty() bool {
	return v.Name == nil && v.Album == nil && v.Artist == nil &&
		v.Position == nil && v.Duration == nil && v.Artwork == nil &&
		v.IsPlaying == nil && v.Volume == nil
}

func setString(dst *string, src *string) bool {
	if src == nil || *dst == *src {
		return false
	}
	*dst = *src
	return true
}

func setFloat(dst *float64, src *float64) bool {
	if src == nil || *dst == *src {
		return false
	}
	*dst = *src
	return true
}
