package playlist

import (
	"fmt"
	"net/url"
	"strings"

	"hymnidx/internal"
)

const watchURL = "https://www.youtube.com/watch?v="

// PlaylistIDFromURL accepts a playlist link carrying a list parameter or a
// bare 34 character "PL..." playlist id.
func PlaylistIDFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 34 && strings.HasPrefix(raw, "PL") {
		return raw, nil
	}
	if !strings.Contains(raw, "list=") {
		return "", fmt.Errorf("%w: not a YouTube playlist URL: %q", internal.ErrInvalidInput, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", internal.ErrInvalidInput, err)
	}
	id := strings.TrimSpace(u.Query().Get("list"))
	if id == "" {
		return "", fmt.Errorf("%w: empty list parameter in %q", internal.ErrInvalidInput, raw)
	}
	return id, nil
}

func VideoURL(videoID string) string {
	return watchURL + videoID
}
