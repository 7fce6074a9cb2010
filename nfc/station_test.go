package nfc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camden-git/checkinkiosk/nfc"
	"github.com/camden-git/checkinkiosk/nfc/nfctest"
)

func connect(t *testing.T, tag *nfctest.Tag) nfc.Card {
	t.Helper()
	reader := nfctest.NewReader()
	reader.Present(tag)
	card, err := reader.Connect()
	require.NoError(t, err)
	return card
}

func TestCommandBytes(t *testing.T) {
	assert.Equal(t, []byte{0xFF, 0x86, 0x00, 0x00, 0x05, 0x01, 0x00, 0x04, 0x60, 0x00}, nfc.AuthCommand(4))
	assert.Equal(t, []byte{0xFF, 0xB0, 0x00, 0x04, 0x10}, nfc.ReadCommand(4))
	assert.Equal(t, []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}, nfc.GetUIDCommand())

	write := nfc.WriteCommand(4, nfc.Pad16("x"))
	require.Len(t, write, 21)
	assert.Equal(t, []byte{0xFF, 0xD6, 0x00, 0x04, 0x10, 'x', ' '}, write[:7])
}

func TestReadUID(t *testing.T) {
	card := connect(t, nfctest.NewTag(0x04, 0xA1, 0xB2, 0xC3))
	uid, err := nfc.ReadUID(card)
	require.NoError(t, err)
	assert.Equal(t, "04A1B2C3", uid)
}

func TestReadUID_StatusFailure(t *testing.T) {
	tag := nfctest.NewTag(0x04)
	tag.FailWith("uid", 0x63, 0x00)
	_, err := nfc.ReadUID(connect(t, tag))

	var statusErr *nfc.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, byte(0x63), statusErr.SW1)
}

func TestCheckIn_FirstTouch(t *testing.T) {
	tag := nfctest.NewTag(0x04, 0xA1, 0xB2, 0xC3)
	station := nfc.Station{BoothCount: 1, BoothNumber: 1, Block: 5}

	res, err := station.CheckIn(connect(t, tag))
	require.NoError(t, err)
	assert.Equal(t, "Booth1=0", res.Before.String())
	assert.Equal(t, "Booth1=1", res.Written)
	assert.False(t, res.Truncated)
	assert.Equal(t, "Booth1=1", tag.BlockText(5))

	cmds := tag.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, nfc.AuthCommand(5), cmds[0])
	assert.Equal(t, nfc.ReadCommand(5), cmds[1])
	assert.Equal(t, nfc.AuthCommand(5), cmds[2])
	assert.Equal(t, nfc.WriteCommand(5, nfc.Pad16("Booth1=1")), cmds[3])
}

func TestCheckIn_IdempotentForBoothTwo(t *testing.T) {
	tag := nfctest.NewTag(0x04, 0xA1, 0xB2, 0xC3)
	station := nfc.Station{BoothCount: 5, BoothNumber: 2, Block: 4}

	first, err := station.CheckIn(connect(t, tag))
	require.NoError(t, err)
	second, err := station.CheckIn(connect(t, tag))
	require.NoError(t, err)

	want := "Booth1=0,Booth2=1,Booth3=0,Booth4=0,Booth5=0"
	assert.Equal(t, want, first.Written)
	assert.Equal(t, want, second.Written)
	assert.True(t, second.Truncated)
	assert.Equal(t, want[:nfc.BlockSize], tag.BlockText(4))
}

func TestCheckIn_PreservesOtherBooths(t *testing.T) {
	tag := nfctest.NewTag(0x01, 0x02, 0x03, 0x04)
	tag.SetBlockText(5, "Booth1=1")
	station := nfc.Station{BoothCount: 2, BoothNumber: 2, Block: 5}

	res, err := station.CheckIn(connect(t, tag))
	require.NoError(t, err)
	assert.True(t, res.After.Visited(1))
	assert.True(t, res.After.Visited(2))
}

func TestCheckIn_ReadFailureSkipsWrite(t *testing.T) {
	tag := nfctest.NewTag(0x01, 0x02, 0x03, 0x04)
	tag.FailWith("read", 0x63, 0x00)
	station := nfc.Station{BoothCount: 1, BoothNumber: 1, Block: 5}

	_, err := station.CheckIn(connect(t, tag))
	var statusErr *nfc.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "read", statusErr.Op)
	assert.Len(t, tag.Commands(), 2)
}

func TestCheckIn_WriteFailureReported(t *testing.T) {
	tag := nfctest.NewTag(0x01, 0x02, 0x03, 0x04)
	tag.FailWith("write", 0x65, 0x81)
	station := nfc.Station{BoothCount: 1, BoothNumber: 1, Block: 5}

	res, err := station.CheckIn(connect(t, tag))
	var statusErr *nfc.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "write", statusErr.Op)
	assert.Equal(t, "Booth1=1", res.Written)
	assert.Equal(t, "", tag.BlockText(5))
}

func TestCheckIn_RefusesIdentityBlock(t *testing.T) {
	tag := nfctest.NewTag(0x04, 0xA1, 0xB2, 0xC3)
	tag.SetBlockText(4, "04A1B2C3")
	station := nfc.Station{BoothCount: 5, BoothNumber: 2, Block: 4}

	_, err := station.CheckIn(connect(t, tag))
	assert.True(t, errors.Is(err, nfc.ErrEncodingConflict))
	assert.Equal(t, "04A1B2C3", tag.BlockText(4))
}

func TestWriteIdentity(t *testing.T) {
	tag := nfctest.NewTag(0x04, 0xA1, 0xB2, 0xC3)
	require.NoError(t, nfc.WriteIdentity(connect(t, tag), 4, "04A1B2C3"))
	assert.Equal(t, "04A1B2C3", tag.BlockText(4))

	uid, enc, err := nfc.ReadIdentity(connect(t, tag), 4)
	require.NoError(t, err)
	assert.Equal(t, nfc.EncodingIdentity, enc)
	assert.Equal(t, "04A1B2C3", uid)
}

func TestWriteIdentity_RefusesBoothBlock(t *testing.T) {
	tag := nfctest.NewTag(0x04, 0xA1, 0xB2, 0xC3)
	tag.SetBlockText(4, "Booth1=1,Booth2=")

	err := nfc.WriteIdentity(connect(t, tag), 4, "04A1B2C3")
	assert.ErrorIs(t, err, nfc.ErrEncodingConflict)
	assert.Equal(t, "Booth1=1,Booth2=", tag.BlockText(4))
}

func TestAuthenticateFailure(t *testing.T) {
	tag := nfctest.NewTag(0x04)
	tag.FailWith("auth", 0x63, 0x00)
	err := nfc.Authenticate(connect(t, tag), 4)

	var statusErr *nfc.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Contains(t, statusErr.Error(), "authenticate block 4")
}
