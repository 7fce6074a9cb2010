package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, DefaultDBFile), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, DefaultPhotoSubDir), cfg.PhotoPath)
	assert.Equal(t, DefaultPhotoSubDir, cfg.PhotoSubDir)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 5, cfg.BoothCount)
	assert.Equal(t, 2, cfg.BoothNumber)
	assert.Equal(t, byte(5), cfg.BoothBlock)
	assert.Equal(t, byte(4), cfg.IdentityBlock)
	assert.Equal(t, 200*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Second, cfg.PollErrorDelay)
	assert.True(t, cfg.NFCEnabled)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, 0, cfg.CameraDevice)
}

func TestLoadConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("BOOTH_COUNT", "8")
	t.Setenv("BOOTH_NUMBER", "7")
	t.Setenv("BOOTH_BLOCK", "6")
	t.Setenv("POLL_INTERVAL_MS", "150")
	t.Setenv("NFC_ENABLED", "false")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("CAMERA_DEVICE", "1")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.BoothCount)
	assert.Equal(t, 7, cfg.BoothNumber)
	assert.Equal(t, byte(6), cfg.BoothBlock)
	assert.Equal(t, 150*time.Millisecond, cfg.PollInterval)
	assert.False(t, cfg.NFCEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 1, cfg.CameraDevice)
}

func TestLoadConfig_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("BOOTH_COUNT", "lots")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.BoothCount)
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"booth beyond count": {"BOOTH_COUNT": "3", "BOOTH_NUMBER": "4"},
		"sector trailer":     {"BOOTH_BLOCK": "7"},
		"manufacturer block": {"IDENTITY_BLOCK": "0"},
		"nested photo dir":   {"PHOTO_SUBDIR": "a/b"},
		"negative camera":    {"CAMERA_DEVICE": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATA_DIR", t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
