package rtp

// halfRange is the distance below which a sequence number counts as newer.
const halfRange = 1 << 15

// IsNewer reports whether b is newer than a under the half-range rule.
// IsNewer(a, a) is true: a distance of zero is below the half range.
func IsNewer(b, a uint16) bool {
	return b-a < halfRange
}

// IsStrictlyNewer reports whether b is newer than a and not equal to it.
func IsStrictlyNewer(b, a uint16) bool {
	return b != a && IsNewer(b, a)
}

// Distance returns the forward distance from a to b modulo 65536.
func Distance(a, b uint16) uint16 {
	return b - a
}
