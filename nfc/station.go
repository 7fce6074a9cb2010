package nfc

import (
	"errors"
	"fmt"
)

// ErrEncodingConflict is returned instead of overwriting a block that holds
// the other application's encoding.
var ErrEncodingConflict = errors.New("nfc: block holds data written by another application")

// Station is one booth's check-in terminal.
type Station struct {
	BoothCount  int
	BoothNumber int
	Block       byte
}

type CheckInResult struct {
	Before BoothStatus
	After  BoothStatus
	// Written is the text sent to the tag before padding.
	Written string
	// Truncated is set when Written did not fit into one block.
	Truncated bool
}

// CheckIn marks this station's booth as visited on the presented tag.
// Booth flags already set by other stations are preserved. Status words
// other than 90 00 fail the pass; the caller waits for the next tap.
func (s Station) CheckIn(card Card) (CheckInResult, error) {
	if s.BoothNumber < 1 || s.BoothNumber > s.BoothCount {
		return CheckInResult{}, fmt.Errorf("nfc: booth %d out of range 1..%d", s.BoothNumber, s.BoothCount)
	}

	raw, err := ReadBlock(card, s.Block)
	if err != nil {
		return CheckInResult{}, err
	}
	text := DecodeText(raw)
	if enc := Classify(text); enc == EncodingIdentity {
		return CheckInResult{}, fmt.Errorf("%w: block %d has %s data %q", ErrEncodingConflict, s.Block, enc, text)
	}

	before := ParseBoothStatus(text, s.BoothCount)
	after := before.Clone()
	if err := after.Set(s.BoothNumber); err != nil {
		return CheckInResult{}, err
	}

	res := CheckInResult{
		Before:    before,
		After:     after,
		Written:   after.String(),
		Truncated: !after.Fits(),
	}
	if err := WriteBlock(card, s.Block, after.Encode()); err != nil {
		return res, err
	}
	return res, nil
}

// WriteIdentity stores uid in block. A block carrying booth flags is left
// untouched so a re-registration cannot wipe check-ins.
func WriteIdentity(card Card, block byte, uid string) error {
	raw, err := ReadBlock(card, block)
	if err != nil {
		return err
	}
	text := DecodeText(raw)
	if enc := Classify(text); enc == EncodingBooth {
		return fmt.Errorf("%w: block %d has %s data %q", ErrEncodingConflict, block, enc, text)
	}
	return WriteBlock(card, block, EncodeIdentity(uid))
}

// ReadIdentity returns the UID stored in block, if any.
func ReadIdentity(card Card, block byte) (string, Encoding, error) {
	raw, err := ReadBlock(card, block)
	if err != nil {
		return "", EncodingUnknown, err
	}
	text := DecodeText(raw)
	enc := Classify(text)
	if enc != EncodingIdentity {
		return "", enc, nil
	}
	return text, enc, nil
}
