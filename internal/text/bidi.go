package text

// Direction represents text direction
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// IsRTL reports whether text contains Arabic or Hebrew characters, including the
// Arabic presentation forms used for Quranic text.
func IsRTL(text string) bool {
	for _, r := range text {
		if isRTLRune(r) {
			return true
		}
	}
	return false
}

func isRTLRune(r rune) bool {
	return (r >= 0x0590 && r <= 0x08FF) || (r >= 0xFB1D && r <= 0xFDFF) || (r >= 0xFE70 && r <= 0xFEFF)
}

// DetectDirection returns the direction of the first strong character in text.
func DetectDirection(text string) Direction {
	for _, r := range text {
		if isRTLRune(r) {
			return RightToLeft
		}
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			return LeftToRight
		}
	}
	return LeftToRight
}
