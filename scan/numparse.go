package scan

import "bytes"

// bytesMarker locates the bytes attribute inside a <text …> tag. The leading
// space keeps it from matching inside another attribute name. Attribute order
// is not fixed across export generations, so the marker is searched for
// directly instead of assuming a token position.
var bytesMarker = []byte(` bytes="`)

// maxBeforeShift is the largest value LeadingInt can grow by another digit
// without overflowing int64.
const maxBeforeShift = (1<<63 - 1 - 9) / 10

// LeadingInt parses the integer at the start of s: optional ASCII blanks, an
// optional sign, then leading decimal digits. Trailing junk is ignored and no
// digits at all yield 0. This zero-on-failure policy is the scanner's
// deliberate stance on malformed numeric fields; anything the export gets
// wrong becomes a zero contribution, never an aborted scan. Values that would
// overflow saturate at the int64 extremes.
func LeadingInt(s []byte) int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	var n int64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n > maxBeforeShift {
			n = 1<<63 - 1
			break
		}
		n = n*10 + int64(s[i]-'0')
	}
	if i == start {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

// ByteLenAttr extracts the bytes="N" attribute value from an attribute-bearing
// <text …> line. It reports ok=false, 0 when the marker is absent or carries
// no digits — a <text> element without a usable byte length contributes
// nothing rather than failing the scan.
func ByteLenAttr(line []byte) (n int64, ok bool) {
	i := bytes.Index(line, bytesMarker)
	if i < 0 {
		return 0, false
	}
	s := line[i+len(bytesMarker):]
	j := 0
	for ; j < len(s) && s[j] >= '0' && s[j] <= '9'; j++ {
		if n > maxBeforeShift {
			n = 1<<63 - 1
			break
		}
		n = n*10 + int64(s[j]-'0')
	}
	if j == 0 {
		return 0, false
	}
	return n, true
}
