package trackinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_UntaggedFallsBackToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "01 - Opening.flac")
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o600))

	info, err := Read(path)
	assert.Error(t, err)
	assert.Equal(t, "01 - Opening", info.Title)
	assert.Equal(t, path, info.Path)
}

func TestRead_MissingFile(t *testing.T) {
	info, err := Read(filepath.Join(t.TempDir(), "nope.mp3"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "nope", info.Title)
}

func TestRead_ID3v1(t *testing.T) {
	// A bare ID3v1 tag: "TAG" + title(30) + artist(30) + album(30) + year(4) + comment(30) + genre(1)
	tagBytes := make([]byte, 128)
	copy(tagBytes, "TAG")
	copy(tagBytes[3:], "Tidal")
	copy(tagBytes[33:], "The Waves")
	copy(tagBytes[63:], "Shoreline")
	copy(tagBytes[93:], "1999")
	tagBytes[127] = 0

	path := filepath.Join(t.TempDir(), "x.mp3")
	require.NoError(t, os.WriteFile(path, append(make([]byte, 256), tagBytes...), 0o600))

	info, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "Tidal", info.Title)
	assert.Equal(t, "The Waves", info.Artist)
	assert.Equal(t, "Shoreline", info.Album)
}
