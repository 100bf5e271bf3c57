// Package command holds yt-dlp argument constants.
package command

// General
const (
	YTDLP              = "yt-dlp"
	CookiePath         = "--cookies"
	CookiesFromBrowser = "--cookies-from-browser"
	ForceIPv4          = "-4"
	Output             = "-o"
	SleepRequests      = "--sleep-requests"
)

// Metadata only
const (
	SkipVideo      = "--skip-download"
	DumpSingleJSON = "--dump-single-json"
)

// Video download
const (
	Format            = "-f"
	MergeOutputFormat = "--merge-output-format"
	DownloadArchive   = "--download-archive"
	WriteThumbnail    = "--write-thumbnail"
	ConvertThumbnails = "--convert-thumbnails"
	EmbedMetadata     = "--embed-metadata"
	RestrictFilenames = "--restrict-filenames"
	NoProgress        = "--no-progress"
	Newline           = "--newline"
)

// FormatForHeight caps downloads at a vertical resolution while preferring
// separate video+audio streams, falling back to the best muxed format.
const FormatForHeight = "bestvideo[height<=%d]+bestaudio/best[height<=%d]"

// FormatBest is used when no quality cap applies.
const FormatBest = "bestvideo+bestaudio/best"
