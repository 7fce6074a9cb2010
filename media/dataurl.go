package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotImageDataURL = errors.New("not an image data URL")
	ErrBadDataURL      = errors.New("data URL could not be decoded")
)

// IsImageDataURL reports whether s looks like a browser-captured image.
func IsImageDataURL(s string) bool {
	return strings.HasPrefix(s, "data:image")
}

// DecodeDataURL returns the payload of a base64 "data:image/...;base64,..." URL.
func DecodeDataURL(s string) ([]byte, error) {
	if !IsImageDataURL(s) {
		return nil, ErrNotImageDataURL
	}
	_, payload, ok := strings.Cut(s, ",")
	if !ok || payload == "" {
		return nil, fmt.Errorf("%w: missing payload", ErrBadDataURL)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some capture libraries drop the padding
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
		}
	}
	return raw, nil
}
