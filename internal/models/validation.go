package models

// ValidationMetadata is the metadata block of a video-validation response.
type ValidationMetadata struct {
	YoutubeID    string `json:"youtubeId"`
	URL          string `json:"url"`
	ChannelName  string `json:"channelName"`
	VideoTitle   string `json:"videoTitle"`
	Duration     int    `json:"duration"`
	PublishedAt  *int64 `json:"publishedAt"`
	Availability string `json:"availability"`
}

// ValidationResponse is the result of validating an ad-hoc video URL.
type ValidationResponse struct {
	IsValidURL          bool                `json:"isValidUrl"`
	IsAlreadyDownloaded bool                `json:"isAlreadyDownloaded"`
	IsMembersOnly       bool                `json:"isMembersOnly"`
	Metadata            *ValidationMetadata `json:"metadata,omitempty"`
	Error               string              `json:"error,omitempty"`
	ErrorCode           string              `json:"errorCode,omitempty"`
}
