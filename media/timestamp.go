package media

import (
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// PhotoTimestamp extracts the registration time encoded in a photo name of
// the form "<name>_<unix>.jpg". ok is false when there is no such suffix.
func PhotoTimestamp(relativePath string) (t time.Time, ok bool) {
	base := path.Base(filepath.ToSlash(strings.TrimSpace(relativePath)))
	stem := strings.TrimSuffix(base, path.Ext(base))
	idx := strings.LastIndex(stem, "_")
	if idx < 0 {
		return time.Time{}, false
	}
	digits := stem[idx+1:]
	if digits == "" || strings.IndexFunc(digits, func(r rune) bool { return !unicode.IsDigit(r) }) >= 0 {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}
