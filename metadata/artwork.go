package metadata

// ParseArtwork wraps an image body. An empty body clears the artwork.
func ParseArtwork(contentType string, data []byte) Values {
	art := make([]byte, len(data))
	copy(art, data)
	return Values{Artwork: art, ArtworkType: contentType}
}
