package pathmap

import (
	"path"
	"strings"
)

// Normalize canonicalizes a resource reference (href, filename or manifest id)
// into a lookup key: percent-decoded, then lower-cased.
//
// Invalid escape sequences are copied through unchanged. Decoding is repeated
// until the string stops changing, so Normalize(Normalize(x)) == Normalize(x).
// Every PathMap key is produced by this function.
func Normalize(ref string) string {
	return strings.ToLower(Decode(ref))
}

// SourceKey is the PathMap key of a manifest href.
func SourceKey(href string) string {
	return Normalize(cleanRef(href))
}

func cleanRef(ref string) string {
	ref = strings.ReplaceAll(ref, "\\", "/")
	if ref == "" {
		return ""
	}
	return strings.TrimPrefix(path.Clean(ref), "./")
}

// Decode percent-decodes s until no valid escape sequence remains.
func Decode(s string) string {
	for {
		decoded := decodePercent(s)
		if decoded == s {
			return s
		}
		s = decoded
	}
}

// decodePercent decodes every valid %XX escape and leaves anything else as is.
func decodePercent(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
