package metadata

import "errors"

// Parse errors. A body that fails to parse is dropped; fields decoded before
// the failure are still returned where noted.
var (
	// ErrMalformedDAAP indicates a truncated tag or an item running past
	// the end of the body.
	ErrMalformedDAAP = errors.New("malformed DAAP body")

	// ErrMalformedParameter indicates a recognized parameter with an
	// unparsable value.
	ErrMalformedParameter = errors.New("malformed parameter")

	// ErrMalformedSDP indicates a session description that cannot be parsed.
	ErrMalformedSDP = errors.New("malformed session description")
)
