package network

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var (
	reHeaderCharset = regexp.MustCompile(`(?i)charset\s*=\s*([A-Za-z0-9_\-]+)`)
	reMetaCharset   = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?\s*([A-Za-z0-9_\-]+)\s*["']?`)
	reMetaHTTPEquiv = regexp.MustCompile(`(?i)<meta[^>]+content=["'][^"']*charset\s*=\s*([A-Za-z0-9_\-]+)`)
)

// DecodeBody turns raw response bytes into text. Encoding resolution order:
// charset declared in the Content-Type header, charset sniffed from meta tags,
// UTF-8, then lossy GB18030 as last resort. This function never fails, some
// text is always returned even for garbled input.
func DecodeBody(raw []byte, contentType string) string {
	if len(raw) == 0 {
		return ""
	}

	name := charsetFromContentType(contentType)
	if name == "" {
		name = charsetFromMeta(raw)
	}
	name = normalizeCharsetName(name)

	if name != "" && name != "utf-8" {
		if enc := lookupEncoding(name); enc != nil {
			if out, err := enc.NewDecoder().Bytes(raw); err == nil {
				return normalizeText(string(out))
			}
		}
	}

	if utf8.Valid(raw) {
		return normalizeText(string(raw))
	}

	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(raw)
	if err != nil {
		return normalizeText(string(raw))
	}

	return normalizeText(string(out))
}

// Reads charset declaration from a Content-Type header value.
func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}

	m := reHeaderCharset.FindStringSubmatch(contentType)
	if m == nil {
		return ""
	}

	return m[1]
}

// Sniffs a charset declaration from meta tags in raw page bytes. Both
// <meta charset="..."> and <meta http-equiv="Content-Type" content="...">
// forms are recognized.
func charsetFromMeta(raw []byte) string {
	if m := reMetaCharset.FindSubmatch(raw); m != nil {
		return string(m[1])
	}
	if m := reMetaHTTPEquiv.FindSubmatch(raw); m != nil {
		return string(m[1])
	}

	return ""
}

// gbk and gb2312 are folded into the gb18030 superset so that rare hanzi
// outside the smaller tables still decode.
func normalizeCharsetName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	switch name {
	case "gbk", "gb2312":
		return "gb18030"
	case "utf8":
		return "utf-8"
	default:
		return name
	}
}

func lookupEncoding(name string) encoding.Encoding {
	if name == "gb18030" {
		return simplifiedchinese.GB18030
	}

	enc, _ := charset.Lookup(name)

	return enc
}

// Strips a leading byte order mark and folds CRLF/CR line endings to LF.
func normalizeText(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return text
}
