// Package nfctest provides an in-memory reader and tag that speak the
// APDU subset used by the kiosk.
package nfctest

import (
	"sync"

	"github.com/camden-git/checkinkiosk/nfc"
)

// Tag emulates a MIFARE Classic style tag behind a PC/SC reader.
type Tag struct {
	mu     sync.Mutex
	uid    []byte
	blocks map[byte][nfc.BlockSize]byte
	authed int // authenticated block, -1 for none
	status map[string][2]byte
	cmds   [][]byte
}

func NewTag(uid ...byte) *Tag {
	return &Tag{
		uid:    uid,
		blocks: make(map[byte][nfc.BlockSize]byte),
		authed: -1,
		status: make(map[string][2]byte),
	}
}

// SetBlockText stores text in block using the on-tag padding.
func (t *Tag) SetBlockText(block byte, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.blocks[block] = nfc.Pad16(text)
}

func (t *Tag) Block(block byte) [nfc.BlockSize]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.blocks[block]
}

func (t *Tag) BlockText(block byte) string {
	return nfc.DecodeText(t.Block(block))
}

// FailWith forces op ("auth", "read", "write" or "uid") to answer with sw1 sw2.
func (t *Tag) FailWith(op string, sw1, sw2 byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status[op] = [2]byte{sw1, sw2}
}

// Commands returns every APDU received so far.
func (t *Tag) Commands() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.cmds))
	copy(out, t.cmds)
	return out
}

func (t *Tag) Transmit(cmd []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cmds = append(t.cmds, append([]byte(nil), cmd...))

	if len(cmd) < 5 || cmd[0] != 0xFF {
		return []byte{0x6E, 0x00}, nil
	}
	switch cmd[1] {
	case 0x86:
		if sw, ok := t.status["auth"]; ok {
			t.authed = -1
			return sw[:], nil
		}
		if len(cmd) != 10 {
			return []byte{0x67, 0x00}, nil
		}
		t.authed = int(cmd[7])
		return []byte{0x90, 0x00}, nil
	case 0xB0:
		if sw, ok := t.status["read"]; ok {
			return sw[:], nil
		}
		if t.authed != int(cmd[3]) {
			return []byte{0x69, 0x82}, nil
		}
		data := t.blocks[cmd[3]]
		return append(data[:], 0x90, 0x00), nil
	case 0xD6:
		if sw, ok := t.status["write"]; ok {
			return sw[:], nil
		}
		if t.authed != int(cmd[3]) {
			return []byte{0x69, 0x82}, nil
		}
		if len(cmd) != 5+nfc.BlockSize {
			return []byte{0x67, 0x00}, nil
		}
		var data [nfc.BlockSize]byte
		copy(data[:], cmd[5:])
		t.blocks[cmd[3]] = data
		return []byte{0x90, 0x00}, nil
	case 0xCA:
		if sw, ok := t.status["uid"]; ok {
			return sw[:], nil
		}
		return append(append([]byte(nil), t.uid...), 0x90, 0x00), nil
	}
	return []byte{0x6D, 0x00}, nil
}

// Reader hands out connections to the tag currently placed on it.
type Reader struct {
	mu         sync.Mutex
	tag        *Tag
	connectErr error
	connects   int
	opened     int
	closes     int
}

func NewReader() *Reader {
	return &Reader{}
}

// Present places tag on the reader.
func (r *Reader) Present(tag *Tag) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tag = tag
}

// Remove lifts the tag off the reader.
func (r *Reader) Remove() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tag = nil
}

// FailConnect makes Connect return err until called again with nil.
func (r *Reader) FailConnect(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectErr = err
}

func (r *Reader) Connect() (nfc.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connects++
	if r.connectErr != nil {
		return nil, r.connectErr
	}
	if r.tag == nil {
		return nil, nfc.ErrNoCard
	}
	r.tag.mu.Lock()
	r.tag.authed = -1
	r.tag.mu.Unlock()
	r.opened++
	return &conn{tag: r.tag, reader: r}, nil
}

func (r *Reader) Connects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects
}

// OpenConns is the number of connections not yet closed.
func (r *Reader) OpenConns() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened - r.closes
}

type conn struct {
	tag    *Tag
	reader *Reader
	closed bool
}

func (c *conn) Transmit(cmd []byte) ([]byte, error) {
	return c.tag.Transmit(cmd)
}

func (c *conn) Close() error {
	c.reader.mu.Lock()
	defer c.reader.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.reader.closes++
	}
	return nil
}
