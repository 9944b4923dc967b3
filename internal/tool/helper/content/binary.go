package content

// sampleSize is the number of leading bytes scanned for NUL, as git does.
const sampleSize = 8000

// IsBinary reports whether b looks like binary data: a NUL byte within the
// first 8000 bytes. UTF-16 and UTF-32 byte order marks count as text.
func IsBinary(b []byte) bool {
	if len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		return false
	}
	if len(b) >= 4 && b[0] == 0x00 && b[1] == 0x00 && b[2] == 0xFE && b[3] == 0xFF {
		return false
	}
	for _, c := range b[:min(len(b), sampleSize)] {
		if c == 0 {
			return true
		}
	}
	return false
}
