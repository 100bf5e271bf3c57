// Package keys holds Viper configuration key strings.
package keys

// Terminal keys
const (
	ConfigFile       string = "config-file"
	DownloadDir      string = "download-dir"
	DefaultSubfolder string = "default-subfolder"
	ServerPort       string = "port"

	YtDlpPath         string = "ytdlp-path"
	CookiePath        string = "cookie-file"
	CookiesFrBrowser  string = "cookies-from-browser"
	SleepRequests     string = "sleep-requests"
	PreferredQuality  string = "preferred-quality"
	DownloadArchive   string = "download-archive"
	MetadataTimeoutMS string = "metadata-timeout-ms"

	PlexURL     string = "plex-url"
	PlexToken   string = "plex-token"
	PlexSection string = "plex-section"
)

// Logging
const (
	DebugLevel string = "debug-level"
	LogFile    string = "log-file"
)
