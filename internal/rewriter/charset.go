package rewriter

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// bytes inspected for an encoding declaration
const charsetSniffLen = 2048

var (
	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	xmlEncodingRe = regexp.MustCompile(`(?i)^\s*<\?xml[^>]*encoding\s*=\s*["']([^"']+)["']`)
	metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?([^"'\s;/>]+)`)
)

// DecodeMarkup converts a content document to UTF-8 text.
// The encoding comes from the XML declaration or a meta charset; anything
// undeclared, unknown or already UTF-8 is returned as is, minus a BOM.
func DecodeMarkup(data []byte) (string, string) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(data[len(utf8BOM):]), "utf-8"
	}

	name := declaredCharset(data)
	if name == "" {
		return string(data), "utf-8"
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(data), "utf-8"
	}
	canonical, _ := htmlindex.Name(enc)
	if canonical == "utf-8" {
		return string(data), canonical
	}

	decoded, err := decodeWith(data, enc)
	if err != nil {
		return string(data), "utf-8"
	}
	return decoded, canonical
}

func declaredCharset(data []byte) string {
	head := data
	if len(head) > charsetSniffLen {
		head = head[:charsetSniffLen]
	}
	if m := xmlEncodingRe.FindSubmatch(head); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	if m := metaCharsetRe.FindSubmatch(head); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

func decodeWith(data []byte, enc encoding.Encoding) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
