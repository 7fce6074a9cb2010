package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestPhotoTimestamp(t *testing.T) {
	ts, ok := PhotoTimestamp("foto_peserta/Siti_1723559012.jpg")
	require.True(t, ok)
	assert.Equal(t, int64(1723559012), ts.Unix())

	ts, ok = PhotoTimestamp("Siti_Aminah_1723559012.jpg")
	require.True(t, ok)
	assert.Equal(t, int64(1723559012), ts.Unix())

	for _, name := range []string{
		"", "foto_peserta/", "Siti.jpg", "Siti_.jpg", "Siti_12ab.jpg",
		"Siti_-5.jpg", "Siti_99999999999999999999999.jpg",
	} {
		_, ok := PhotoTimestamp(name)
		assert.False(t, ok, "name %q", name)
	}
}

func TestDecodeDataURL(t *testing.T) {
	payload := []byte("hello photo")
	enc := base64.StdEncoding.EncodeToString(payload)

	raw, err := DecodeDataURL("data:image/jpeg;base64," + enc)
	require.NoError(t, err)
	assert.Equal(t, payload, raw)

	raw, err = DecodeDataURL("data:image/jpeg;base64," + strings.TrimRight(enc, "="))
	require.NoError(t, err)
	assert.Equal(t, payload, raw)

	_, err = DecodeDataURL("data:text/plain;base64," + enc)
	assert.ErrorIs(t, err, ErrNotImageDataURL)

	_, err = DecodeDataURL("data:image/jpeg;base64")
	assert.ErrorIs(t, err, ErrBadDataURL)

	_, err = DecodeDataURL("data:image/jpeg;base64,@@@@")
	assert.ErrorIs(t, err, ErrBadDataURL)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Siti", SafeName("Siti"))
	assert.Equal(t, "Siti_Aminah", SafeName(" Siti Aminah "))
	assert.Equal(t, "_.._etc_passwd", SafeName("/../etc/passwd"))
	assert.Equal(t, "user", SafeName("   "))
	assert.Equal(t, "hidden", SafeName(".hidden"))
}

func TestLocalStorage_SaveDeleteExists(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base, "foto_peserta")
	require.NoError(t, err)

	rel, err := store.Save("Siti_1.jpg", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, "foto_peserta/Siti_1.jpg", rel)
	assert.True(t, store.Exists(rel))

	size, err := store.TotalSize()
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	require.NoError(t, store.Delete(rel))
	assert.False(t, store.Exists(rel))
	// already gone is fine
	require.NoError(t, store.Delete(rel))
}

func TestLocalStorage_SaveNeverOverwrites(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "foto_peserta")
	require.NoError(t, err)

	first, err := store.Save("Siti_1723559012.jpg", strings.NewReader("first"))
	require.NoError(t, err)
	second, err := store.Save("Siti_1723559012.jpg", strings.NewReader("second"))
	require.NoError(t, err)
	third, err := store.Save("Siti_1723559012.jpg", strings.NewReader("third"))
	require.NoError(t, err)

	assert.Equal(t, "foto_peserta/Siti_1723559012.jpg", first)
	assert.Equal(t, "foto_peserta/Siti-2_1723559012.jpg", second)
	assert.Equal(t, "foto_peserta/Siti-3_1723559012.jpg", third)

	full, err := store.FullPath(first)
	require.NoError(t, err)
	content, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	ts, ok := PhotoTimestamp(second)
	require.True(t, ok)
	assert.Equal(t, int64(1723559012), ts.Unix())
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base, "foto_peserta")
	require.NoError(t, err)

	_, err = store.Save("../escape.jpg", strings.NewReader("x"))
	assert.Error(t, err)

	outside := filepath.Join(base, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))
	require.NoError(t, store.Delete("foto_peserta/../keep.txt"))
	_, err = os.Stat(outside)
	assert.NoError(t, err, "file outside the photo dir must survive")

	full, err := store.FullPath("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "foto_peserta", "passwd"), full)
}

func TestProcessor_SavePhoto(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base, "foto_peserta")
	require.NoError(t, err)
	proc := NewProcessor(store, 64)

	now := time.Unix(1723559012, 0)
	rel, err := proc.SavePhoto("Siti", tinyJPEG(t, 1, 1), now)
	require.NoError(t, err)
	assert.Equal(t, "foto_peserta/Siti_1723559012.jpg", rel)

	full, err := store.FullPath(rel)
	require.NoError(t, err)
	meta, err := ReadMetadata(full)
	require.NoError(t, err)
	require.NotNil(t, meta.Width)
	assert.Equal(t, 1, *meta.Width)
	assert.Nil(t, meta.TakenAt)
}

func TestProcessor_ShrinksLargePhoto(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "foto_peserta")
	require.NoError(t, err)
	proc := NewProcessor(store, 32)

	rel, err := proc.SavePhoto("Big One", tinyJPEG(t, 128, 64), time.Unix(100, 0))
	require.NoError(t, err)
	assert.Equal(t, "foto_peserta/Big_One_100.jpg", rel)

	full, err := store.FullPath(rel)
	require.NoError(t, err)
	meta, err := ReadMetadata(full)
	require.NoError(t, err)
	assert.Equal(t, 32, *meta.Width)
	assert.Equal(t, 16, *meta.Height)
}

func TestProcessor_RejectsGarbage(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "foto_peserta")
	require.NoError(t, err)
	proc := NewProcessor(store, 32)

	_, err = proc.SavePhoto("x", []byte("not an image"), time.Now())
	assert.ErrorIs(t, err, ErrUndecodableImage)

	size, err := store.TotalSize()
	require.NoError(t, err)
	assert.Zero(t, size)
}
