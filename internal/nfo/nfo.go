// Package nfo writes Kodi/Jellyfin/Emby-compatible NFO sidecar files next
// to downloaded videos.
package nfo

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"plextube/internal/models"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog/log"
)

// Entry carries everything the NFO needs beyond the raw metadata.
type Entry struct {
	Meta             *models.VideoMetadata
	NormalizedRating string
	RatingSource     string
}

// WriteForVideo writes <video base>.nfo beside videoPath. Failures are
// logged, not fatal: a missing NFO only degrades library metadata.
func WriteForVideo(videoPath string, e Entry) bool {
	nfoPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".nfo"

	content := Render(e)
	if err := os.WriteFile(nfoPath, []byte(content), 0o644); err != nil {
		log.Error().Err(err).Str("path", nfoPath).Msg("Failed to write NFO file")
		return false
	}
	log.Debug().Str("path", nfoPath).Msg("Wrote NFO file")
	return true
}

// Render builds the NFO document. The layout follows Kodi's movie schema.
func Render(e Entry) string {
	m := e.Meta

	title := m.Title
	if title == "" {
		title = "Unknown Title"
	}
	studio := firstNonEmpty(m.Uploader, m.Channel, m.ChannelID, "Unknown Channel")

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\" standalone=\"yes\"?>\n")
	b.WriteString("<movie>\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", escape(title))

	if m.Description != "" {
		fmt.Fprintf(&b, "  <plot>%s</plot>\n", escape(m.Description))
	}

	if m.ID != "" {
		b.WriteString("\n  <!-- IDs -->\n")
		fmt.Fprintf(&b, "  <uniqueid type=\"youtube\" default=\"true\">%s</uniqueid>\n", escape(m.ID))
		fmt.Fprintf(&b, "  <youtubeid>%s</youtubeid>\n", escape(m.ID))
	}

	if premiered := formatPremiered(m.UploadDate); premiered != "" {
		b.WriteString("\n  <!-- Dates -->\n")
		fmt.Fprintf(&b, "  <premiered>%s</premiered>\n", premiered)
	}

	b.WriteString("\n  <!-- People / orgs -->\n")
	fmt.Fprintf(&b, "  <studio>%s</studio>\n", escape(studio))
	if m.Uploader != "" {
		fmt.Fprintf(&b, "  <credits>%s</credits>\n", escape(m.Uploader))
	}

	if len(m.Categories) > 0 || len(m.Tags) > 0 {
		b.WriteString("\n  <!-- Classification -->\n")
		for _, c := range m.Categories {
			fmt.Fprintf(&b, "  <genre>%s</genre>\n", escape(c))
		}
		for _, t := range m.Tags {
			fmt.Fprintf(&b, "  <tag>%s</tag>\n", escape(t))
		}
	}

	if e.NormalizedRating != "" {
		b.WriteString("\n  <!-- Ratings -->\n")
		fmt.Fprintf(&b, "  <mpaa>%s</mpaa>\n", escape(e.NormalizedRating))
		b.WriteString("  <ratings>\n")
		fmt.Fprintf(&b, "    <rating name=\"mpaa\" max=\"10\">%s</rating>\n", escape(e.NormalizedRating))
		if e.RatingSource != "" {
			fmt.Fprintf(&b, "    <rating name=\"source\">%s</rating>\n", escape(e.RatingSource))
		}
		b.WriteString("  </ratings>\n")
	}

	if secs := int(m.Duration); secs > 0 {
		b.WriteString("\n  <!-- Runtime -->\n")
		fmt.Fprintf(&b, "  <runtime>%d</runtime>\n", (secs+59)/60)
		b.WriteString("  <fileinfo>\n    <streamdetails>\n      <video>\n")
		fmt.Fprintf(&b, "        <durationinseconds>%d</durationinseconds>\n", secs)
		b.WriteString("      </video>\n    </streamdetails>\n  </fileinfo>\n")
	}

	if m.ID != "" {
		b.WriteString("\n  <!-- Backlink to YouTube in Kodi format -->\n")
		fmt.Fprintf(&b, "  <trailer>plugin://plugin.video.youtube/?action=play_video&amp;videoid=%s</trailer>\n", escape(m.ID))
	}

	b.WriteString("</movie>\n")
	return b.String()
}

// formatPremiered renders the upload date as YYYY-MM-DD. yt-dlp emits
// YYYYMMDD, but sidecar JSON edited by other tools may carry other layouts,
// so anything parseable is accepted.
func formatPremiered(uploadDate string) string {
	if uploadDate == "" {
		return ""
	}
	ts, err := dateparse.ParseAny(uploadDate)
	if err != nil {
		return ""
	}
	return ts.Format("2006-01-02")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return ""
	}
	return b.String()
}
