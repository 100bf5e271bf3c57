package ytdlp

import (
	"fmt"
	"strconv"

	"plextube/internal/domain/command"
)

// Builder assembles yt-dlp argument lists from process-wide settings.
// Per-call inputs (URL, output template, quality) arrive as parameters.
type Builder struct {
	// CookiePath points to a Netscape-format cookies file. Takes
	// precedence over CookiesFromBrowser.
	CookiePath string
	// CookiesFromBrowser names a browser profile for yt-dlp to read
	// cookies from directly.
	CookiesFromBrowser string
	// SleepRequests is the --sleep-requests interval in seconds; empty
	// disables throttling. Metadata probes always skip it so interactive
	// validation stays fast.
	SleepRequests string
	// ArchivePath is the download archive file; empty disables archive
	// tracking on downloads.
	ArchivePath string
}

// MetadataFetchArgs returns the argument list for a metadata-only probe of
// url. IPv4 is forced because YouTube rate-limits some IPv6 ranges far more
// aggressively.
func (b *Builder) MetadataFetchArgs(url string) []string {
	args := make([]string, 0, 8)
	args = append(args, b.cookieArgs()...)
	args = append(args,
		command.SkipVideo,
		command.DumpSingleJSON,
		command.ForceIPv4,
		url,
	)
	return args
}

// DownloadArgs returns the argument list for downloading url into
// outputTemplate. maxHeight caps resolution; zero means no cap.
func (b *Builder) DownloadArgs(url, outputTemplate string, maxHeight int) []string {
	args := make([]string, 0, 24)
	args = append(args, b.cookieArgs()...)

	format := command.FormatBest
	if maxHeight > 0 {
		format = fmt.Sprintf(command.FormatForHeight, maxHeight, maxHeight)
	}
	args = append(args,
		command.Format, format,
		command.MergeOutputFormat, "mp4",
		command.WriteThumbnail,
		command.ConvertThumbnails, "jpg",
		command.EmbedMetadata,
		command.NoProgress,
		command.Newline,
		command.ForceIPv4,
	)

	if b.ArchivePath != "" {
		args = append(args, command.DownloadArchive, b.ArchivePath)
	}
	if b.SleepRequests != "" {
		if _, err := strconv.Atoi(b.SleepRequests); err == nil {
			args = append(args, command.SleepRequests, b.SleepRequests)
		}
	}

	args = append(args, command.Output, outputTemplate, url)
	return args
}

func (b *Builder) cookieArgs() []string {
	switch {
	case b.CookiePath != "":
		return []string{command.CookiePath, b.CookiePath}
	case b.CookiesFromBrowser != "":
		return []string{command.CookiesFromBrowser, b.CookiesFromBrowser}
	default:
		return nil
	}
}
