package player

import (
	"errors"

	"github.com/ncruces/zenity"
)

// PickFile shows a native file dialog filtered to decodable audio. It
// returns an empty path without error when the user cancels.
func PickFile() (string, error) {
	patterns := make([]string, 0, len(Extensions))
	for _, ext := range Extensions {
		patterns = append(patterns, "*"+ext)
	}

	filename, err := zenity.SelectFile(
		zenity.Title("Open Audio File"),
		zenity.FileFilters{{
			Name:     "Audio",
			Patterns: patterns,
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", nil
		}
		return "", err
	}
	return filename, nil
}
