package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_computer/internal/adxl345"
)

func TestSaveLoadOffsets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offsets.yaml")
	o := adxl345.Offsets{X: -1, Y: 127, Z: -128}

	require.NoError(t, SaveOffsets(path, o))
	f, err := LoadOffsets(path)
	require.NoError(t, err)
	assert.Equal(t, offsetsVersion, f.Version)
	assert.Equal(t, o, f.Offsets)
	assert.WithinDuration(t, time.Now(), f.CalibratedAt, time.Minute)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "x: -1")
}

func TestLoadOffsetsMissing(t *testing.T) {
	_, err := LoadOffsets(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOffsetsRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad yaml", "offsets: [", "parse offsets file"},
		{"wrong version", "version: 2\noffsets: {x: 1, y: 2, z: 3}\n", "unsupported version 2"},
		{"no version", "offsets: {x: 1, y: 2, z: 3}\n", "unsupported version 0"},
		{"out of range", "version: 1\noffsets: {x: 300, y: 0, z: 0}\n", "parse offsets file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "offsets.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadOffsets(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
