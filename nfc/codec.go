package nfc

import (
	"bytes"
	"strings"
)

// Encoding identifies which application last wrote a data block.
type Encoding int

const (
	EncodingEmpty Encoding = iota
	EncodingBooth
	EncodingIdentity
	EncodingUnknown
)

func (e Encoding) String() string {
	switch e {
	case EncodingEmpty:
		return "empty"
	case EncodingBooth:
		return "booth"
	case EncodingIdentity:
		return "identity"
	default:
		return "unknown"
	}
}

// Pad16 fits text into one block: longer text is truncated, shorter text is
// right-padded with spaces.
func Pad16(text string) [BlockSize]byte {
	var out [BlockSize]byte
	n := copy(out[:], text)
	for i := n; i < BlockSize; i++ {
		out[i] = ' '
	}
	return out
}

// DecodeText returns the block content without surrounding padding.
// Factory-fresh tags are zero-filled, so NULs are padding as well.
func DecodeText(block [BlockSize]byte) string {
	return string(bytes.Trim(block[:], " \t\r\n\x00"))
}

// EncodeIdentity stores the tag UID verbatim in a block.
func EncodeIdentity(uid string) [BlockSize]byte {
	return Pad16(uid)
}

// Classify guesses the encoding of decoded block text.
func Classify(text string) Encoding {
	text = strings.TrimSpace(text)
	if text == "" {
		return EncodingEmpty
	}
	if strings.HasPrefix(text, boothKeyPrefix) && strings.Contains(text, "=") {
		return EncodingBooth
	}
	if isHexUID(text) {
		return EncodingIdentity
	}
	return EncodingUnknown
}

// isHexUID reports whether s looks like a 4, 7 or 10 byte UID in hex.
func isHexUID(s string) bool {
	if len(s)%2 != 0 || len(s) < 8 || len(s) > 20 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'F', c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}

// IsValidUID reports whether s is a plausible hex tag UID.
func IsValidUID(s string) bool {
	return isHexUID(s)
}
