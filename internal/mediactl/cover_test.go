package mediactl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAlbumArt(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{name: "none", files: []string{"track.mp3", "notes.txt"}, want: ""},
		{name: "cover", files: []string{"cover.jpg"}, want: "cover.jpg"},
		{name: "cover beats folder", files: []string{"folder.jpg", "cover.png"}, want: "cover.png"},
		{name: "jpg beats png", files: []string{"front.png", "front.jpg"}, want: "front.jpg"},
		{name: "case insensitive", files: []string{"Folder.JPG"}, want: "Folder.JPG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o600))
			}

			got := FindAlbumArt(filepath.Join(dir, "track.mp3"))
			if tt.want == "" {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}

func TestFindAlbumArt_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "cover.jpg"), 0o700))

	assert.Empty(t, FindAlbumArt(filepath.Join(dir, "track.flac")))
	assert.Empty(t, FindAlbumArt(""))
}
