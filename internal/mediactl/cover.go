package mediactl

import (
	"os"
	"path/filepath"
	"strings"
)

// Album art names in priority order, matched case-insensitively.
var (
	coverStems = []string{"cover", "folder", "album", "front"}
	coverExts  = []string{".jpg", ".jpeg", ".png"}
)

// FindAlbumArt returns the best album art file next to the track, or "".
func FindAlbumArt(trackPath string) string {
	if trackPath == "" {
		return ""
	}
	dir := filepath.Dir(trackPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	names := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names[strings.ToLower(e.Name())] = e.Name()
		}
	}
	for _, stem := range coverStems {
		for _, ext := range coverExts {
			if name, ok := names[stem+ext]; ok {
				return filepath.Join(dir, name)
			}
		}
	}
	return ""
}
