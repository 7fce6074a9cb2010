package nfc

import (
	"errors"
	"fmt"
	"strings"
)

// BlockSize is the number of bytes in one tag memory block.
const BlockSize = 16

const (
	sw1Success = 0x90
	sw2Success = 0x00
)

var (
	// ErrNoCard is returned by Reader.Connect when no tag is on the reader.
	ErrNoCard = errors.New("nfc: no card present")
	// ErrNoReader is returned when no PC/SC reader is attached.
	ErrNoReader = errors.New("nfc: no reader detected")
	// ErrShortResponse is returned when a response lacks its status word.
	ErrShortResponse = errors.New("nfc: response shorter than status word")
)

// Card is a connection to the tag currently on the reader.
type Card interface {
	Transmit(cmd []byte) ([]byte, error)
	Close() error
}

// Reader opens connections to whatever tag is presented.
type Reader interface {
	// Connect returns ErrNoCard when the field is empty.
	Connect() (Card, error)
}

// Response splits a raw reader response into payload and status word.
type Response struct {
	Data     []byte
	SW1, SW2 byte
}

func (r Response) OK() bool {
	return r.SW1 == sw1Success && r.SW2 == sw2Success
}

// StatusError reports a command that completed with a non-success status word.
type StatusError struct {
	Op       string
	Block    byte
	SW1, SW2 byte
}

func (e *StatusError) Error() string {
	if e.Op == "get uid" {
		return fmt.Sprintf("nfc: %s failed with status %02X %02X", e.Op, e.SW1, e.SW2)
	}
	return fmt.Sprintf("nfc: %s block %d failed with status %02X %02X", e.Op, e.Block, e.SW1, e.SW2)
}

// AuthCommand authenticates block with key A from the reader's key slot 0.
func AuthCommand(block byte) []byte {
	return []byte{0xFF, 0x86, 0x00, 0x00, 0x05, 0x01, 0x00, block, 0x60, 0x00}
}

func ReadCommand(block byte) []byte {
	return []byte{0xFF, 0xB0, 0x00, block, BlockSize}
}

func WriteCommand(block byte, data [BlockSize]byte) []byte {
	cmd := make([]byte, 0, 5+BlockSize)
	cmd = append(cmd, 0xFF, 0xD6, 0x00, block, BlockSize)
	return append(cmd, data[:]...)
}

func GetUIDCommand() []byte {
	return []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}
}

func transmit(card Card, cmd []byte) (Response, error) {
	raw, err := card.Transmit(cmd)
	if err != nil {
		return Response{}, fmt.Errorf("nfc: transmit failed: %w", err)
	}
	if len(raw) < 2 {
		return Response{}, ErrShortResponse
	}
	n := len(raw) - 2
	return Response{Data: raw[:n], SW1: raw[n], SW2: raw[n+1]}, nil
}

// ReadUID returns the hardware UID as uppercase hex. It needs no authentication.
func ReadUID(card Card) (string, error) {
	resp, err := transmit(card, GetUIDCommand())
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", &StatusError{Op: "get uid", SW1: resp.SW1, SW2: resp.SW2}
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("nfc: get uid returned no data")
	}
	return strings.ToUpper(fmt.Sprintf("%x", resp.Data)), nil
}

func Authenticate(card Card, block byte) error {
	resp, err := transmit(card, AuthCommand(block))
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Op: "authenticate", Block: block, SW1: resp.SW1, SW2: resp.SW2}
	}
	return nil
}

// ReadBlock authenticates and reads one block.
func ReadBlock(card Card, block byte) ([BlockSize]byte, error) {
	var out [BlockSize]byte
	if err := Authenticate(card, block); err != nil {
		return out, err
	}
	resp, err := transmit(card, ReadCommand(block))
	if err != nil {
		return out, err
	}
	if !resp.OK() {
		return out, &StatusError{Op: "read", Block: block, SW1: resp.SW1, SW2: resp.SW2}
	}
	copy(out[:], resp.Data)
	return out, nil
}

// WriteBlock authenticates and writes one block.
func WriteBlock(card Card, block byte, data [BlockSize]byte) error {
	if err := Authenticate(card, block); err != nil {
		return err
	}
	resp, err := transmit(card, WriteCommand(block, data))
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Op: "write", Block: block, SW1: resp.SW1, SW2: resp.SW2}
	}
	return nil
}
