package session

import (
	"time"

	"github.com/opd-ai/airtunes/metadata"
)

// EventType identifies what changed.
type EventType string

const (
	EventTrackInfo  EventType = "track_info"
	EventPlayerInfo EventType = "player_info"
)

// Event carries a snapshot of the record that changed. Track and Player are
// both set so a subscriber never needs to call back into the manager.
type Event struct {
	Type   EventType           `json:"type"`
	Track  metadata.TrackInfo  `json:"track"`
	Player metadata.PlayerInfo `json:"player"`
	Time   time.Time           `json:"time"`
}
