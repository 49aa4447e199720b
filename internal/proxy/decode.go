package proxy

import (
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// decodeBody converts an upstream body to a UTF-8 string using the
// charset declared in contentType. Bodies without a charset are treated
// as UTF-8.
func decodeBody(contentType string, body []byte) (string, error) {
	charset := ""
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			charset = strings.TrimSpace(params["charset"])
		}
	}

	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		if !utf8.Valid(body) {
			return "", fmt.Errorf("%w: body is not valid UTF-8", ErrUpstreamDecode)
		}
		return string(body), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("%w: unsupported charset %q", ErrUpstreamDecode, charset)
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstreamDecode, err)
	}
	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("%w: decoded body is not valid UTF-8", ErrUpstreamDecode)
	}

	return string(decoded), nil
}
