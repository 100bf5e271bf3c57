// Package videovalidation turns arbitrary YouTube URLs into canonical video
// IDs with cached metadata and duplicate/members-only flags.
package videovalidation

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// User-facing errors from URL normalization. The strings are displayed
// verbatim to API clients.
var (
	ErrInvalidURL       = errors.New("Invalid URL provided")
	ErrInvalidURLFormat = errors.New("Invalid YouTube URL format")
)

var videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// NormalizeURL extracts the 11-character video ID from the many URL shapes
// YouTube serves and returns it with the canonical watch URL.
func NormalizeURL(raw string) (id, canonicalURL string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", ErrInvalidURL
	}
	if !strings.HasPrefix(strings.ToLower(trimmed), "http://") &&
		!strings.HasPrefix(strings.ToLower(trimmed), "https://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", "", ErrInvalidURLFormat
	}

	hostname := strings.ToLower(parsed.Hostname())
	hostname = strings.TrimPrefix(hostname, "www.")
	segments := splitPath(parsed.Path)

	videoID := ""
	switch {
	case hostname == "youtu.be":
		if len(segments) > 0 && videoIDPattern.MatchString(segments[0]) {
			videoID = segments[0]
		}
	case hostname == "youtube.com" || hostname == "m.youtube.com" || hostname == "music.youtube.com":
		if len(segments) > 0 {
			switch segments[0] {
			case "watch":
				if v := parsed.Query().Get("v"); videoIDPattern.MatchString(v) {
					videoID = v
				}
			case "shorts", "embed", "live":
				if len(segments) > 1 && videoIDPattern.MatchString(segments[1]) {
					videoID = segments[1]
				}
			}
		}
	}

	if videoID == "" {
		return "", "", ErrInvalidURLFormat
	}
	return videoID, "https://www.youtube.com/watch?v=" + videoID, nil
}

func splitPath(p string) []string {
	out := make([]string, 0, 4)
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
