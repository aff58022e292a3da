package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/riptide/internal/codec"
)

func TestProbe_WAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, codec.WriteWAV(path, 44100, 2, 88200, func(frame, _ int) int { return frame % 100 }))

	var out bytes.Buffer
	require.NoError(t, probe(&out, path))

	s := out.String()
	assert.Contains(t, s, "tone.wav")
	assert.Contains(t, s, "format    wav")
	assert.Contains(t, s, "44.1 kHz, 2 channels")
	assert.Contains(t, s, "duration  2s (88,200 frames)")
}

func TestProbe_Errors(t *testing.T) {
	dir := t.TempDir()

	err := probe(&bytes.Buffer{}, filepath.Join(dir, "missing.flac"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	junk := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(junk, []byte("not audio at all"), 0o600))
	err = probe(&bytes.Buffer{}, junk)
	assert.ErrorIs(t, err, codec.ErrUnsupportedFormat)
}
