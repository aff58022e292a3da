// Package trackinfo reads the display metadata of a track.
package trackinfo

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Info is what the UI and media controls show for a track.
type Info struct {
	Path   string
	Title  string
	Artist string
	Album  string
	Track  int
}

// Read returns the tag metadata of path. When the file has no readable tags
// the title falls back to the file name, so the result is always usable;
// the error is still returned for logging.
func Read(path string) (Info, error) {
	info := Info{Path: path, Title: fallbackTitle(path)}

	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return info, err
	}

	if title := strings.TrimSpace(m.Title()); title != "" {
		info.Title = title
	}
	info.Artist = m.Artist()
	if info.Artist == "" {
		info.Artist = m.AlbumArtist()
	}
	info.Album = m.Album()
	info.Track, _ = m.Track()

	return info, nil
}

func fallbackTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
