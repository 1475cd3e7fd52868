package metadata

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// SampleRate converts progress sample counts to seconds.
	SampleRate = 44100.0

	// ReportedPositionOffset is subtracted from the reported position; the
	// sender counts audio still sitting in the playback buffer.
	ReportedPositionOffset = 2.0
)

// ParseParameters reads a text/parameters body of "key: value" lines.
//
//	progress: start/current/end   RTP timestamps of the track
//	volume: -12.5                 attenuation in dB
//
// Unknown keys are ignored. Recognized keys with bad values yield
// ErrMalformedParameter and no fields.
func ParseParameters(text string) (Values, error) {
	var v Values
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "progress":
			position, duration, err := parseProgress(value)
			if err != nil {
				return Values{}, err
			}
			v.Position = &position
			v.Duration = &duration
		case "volume":
			volume, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Values{}, fmt.Errorf("%w: volume %q", ErrMalformedParameter, value)
			}
			v.Volume = &volume
		}
	}
	return v, nil
}

// parseProgress converts "start/current/end" into seconds. The counters are
// 32-bit RTP timestamps, so differences wrap.
func parseProgress(value string) (position, duration float64, err error) {
	parts := strings.Split(value, "/")
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("%w: progress %q", ErrMalformedParameter, value)
	}
	var n [3]uint32
	for i, p := range parts {
		u, perr := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if perr != nil {
			return 0, 0, fmt.Errorf("%w: progress %q", ErrMalformedParameter, value)
		}
		n[i] = uint32(u)
	}
	start, current, end := n[0], n[1], n[2]

	duration = math.Round(float64(end-start) / SampleRate)
	position = math.Round(float64(current-start)/SampleRate) - ReportedPositionOffset
	return position, duration, nil
}
