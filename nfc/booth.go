package nfc

import (
	"fmt"
	"strconv"
	"strings"
)

const boothKeyPrefix = "Booth"

// BoothStatus holds one visited flag per booth, serialized on the tag as
// "Booth1=0,Booth2=1,...". Booths are numbered from 1.
type BoothStatus struct {
	flags []bool
}

// NewBoothStatus returns a status with every booth unvisited.
func NewBoothStatus(count int) BoothStatus {
	if count < 0 {
		count = 0
	}
	return BoothStatus{flags: make([]bool, count)}
}

// ParseBoothStatus reads block text against the keys Booth1..BoothN.
// Missing keys stay '0', unknown keys are dropped and anything that is not
// a key=value list yields an all-unvisited status.
func ParseBoothStatus(text string, count int) BoothStatus {
	status := NewBoothStatus(count)
	text = strings.ReplaceAll(strings.TrimRight(text, " \t\r\n\x00"), " ", "")
	for _, pair := range strings.Split(text, ",") {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		n, ok := boothIndex(key, count)
		if !ok {
			continue
		}
		status.flags[n-1] = val == "1"
	}
	return status
}

func boothIndex(key string, count int) (int, bool) {
	digits, ok := strings.CutPrefix(key, boothKeyPrefix)
	if !ok || digits == "" || digits[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > count {
		return 0, false
	}
	return n, true
}

func (b BoothStatus) Count() int {
	return len(b.flags)
}

// Set marks booth as visited.
func (b BoothStatus) Set(booth int) error {
	if booth < 1 || booth > len(b.flags) {
		return fmt.Errorf("nfc: booth %d out of range 1..%d", booth, len(b.flags))
	}
	b.flags[booth-1] = true
	return nil
}

func (b BoothStatus) Visited(booth int) bool {
	if booth < 1 || booth > len(b.flags) {
		return false
	}
	return b.flags[booth-1]
}

func (b BoothStatus) VisitedCount() int {
	n := 0
	for _, v := range b.flags {
		if v {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (b BoothStatus) Clone() BoothStatus {
	flags := make([]bool, len(b.flags))
	copy(flags, b.flags)
	return BoothStatus{flags: flags}
}

// String serializes in key order.
func (b BoothStatus) String() string {
	var sb strings.Builder
	for i, v := range b.flags {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(boothKeyPrefix)
		sb.WriteString(strconv.Itoa(i + 1))
		if v {
			sb.WriteString("=1")
		} else {
			sb.WriteString("=0")
		}
	}
	return sb.String()
}

// Fits reports whether the serialized status survives Pad16 untruncated.
func (b BoothStatus) Fits() bool {
	return len(b.String()) <= BlockSize
}

func (b BoothStatus) Encode() [BlockSize]byte {
	return Pad16(b.String())
}
