// Package consts holds shared constants for filesystem layout, database
// naming, download state, and external tool behavior.
package consts

// Filesystem and sentinel values.
//
// SubfolderPrefix marks directories that group channel folders on disk.
// The sentinels appear only in persisted rows and API payloads, never in
// domain logic.
const (
	SubfolderPrefix       = "__"
	GlobalDefaultSentinel = "##USE_GLOBAL_DEFAULT##"
	RootSentinel          = "##ROOT##"

	MaxSubfolderNameLen = 100
)

// BotDetectionPhrases are stderr fragments yt-dlp emits when YouTube
// challenges the request. Matching is case-insensitive.
var BotDetectionPhrases = []string{
	"sign in to confirm you're not a bot",
	"sign in to confirm you’re not a bot",
}

// JobTypeManualDownload labels jobs created from user-submitted URLs.
const JobTypeManualDownload = "Manually Added Urls"

// Job lifecycle states, as rendered to clients.
const (
	JobStatusPending    = "Pending"
	JobStatusInProgress = "In Progress"
	JobStatusComplete   = "Complete"
	JobStatusError      = "Error"
)

// Per-video download row states.
const (
	DLStatusPending    = "pending"
	DLStatusInProgress = "in_progress"
	DLStatusCompleted  = "completed"
	DLStatusFailed     = "failed"
)

// ValidVideoQualities are the accepted per-channel quality caps, in pixels
// of vertical resolution.
var ValidVideoQualities = []int{360, 480, 720, 1080, 1440, 2160}

// AllVidExtensions covers the containers yt-dlp may produce.
var AllVidExtensions = []string{".mp4", ".mkv", ".webm", ".m4v", ".avi", ".mov"}

// ArchivePrefix is the extractor name recorded in yt-dlp download archive
// lines ("youtube <id>").
const ArchivePrefix = "youtube"
