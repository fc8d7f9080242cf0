package payload

import "strings"

const upperhex = "0123456789ABCDEF"

// safeSet is a byte lookup table of characters left unescaped.
type safeSet [256]bool

// newSafeSet returns the always-safe characters (letters, digits and
// "_.-~") plus extra.
func newSafeSet(extra string) *safeSet {
	var s safeSet
	for c := 'a'; c <= 'z'; c++ {
		s[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		s[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		s[c] = true
	}
	for _, c := range []byte("_.-~" + extra) {
		s[c] = true
	}
	return &s
}

var (
	documentSafe = newSafeSet("~()*!.'")
	fragmentSafe = newSafeSet("/")
)

// quote percent-encodes every byte of b not in safe, with upper-case hex.
func quote(b []byte, safe *safeSet) string {
	n := 0
	for _, c := range b {
		if !safe[c] {
			n++
		}
	}
	if n == 0 {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + 2*n)
	for _, c := range b {
		if safe[c] {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&0x0f])
	}
	return sb.String()
}

// unquote reverses quote. Malformed escapes are kept literally.
func unquote(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return out
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
