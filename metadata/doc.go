// Package metadata holds the track and player records a sender updates over
// the control channel, and the parsers for the bodies that carry them.
//
// # Records
//
// [TrackInfo] (name, album, artist, position, duration, artwork) and
// [PlayerInfo] (playing flag, volume) are plain values. Parsers produce a
// [Values] patch in which only the fields present in the body are set;
// Apply merges a patch into a record and reports whether anything changed.
//
// # Body Formats
//
//   - application/x-dmap-tagged: DAAP tag-length-value items, see [ParseDAAP]
//   - text/parameters: "key: value" lines, see [ParseParameters]
//   - application/sdp: the session description, see [ParseSDP]
//   - image/jpeg, image/png: cover art, see [ParseArtwork]
package metadata
