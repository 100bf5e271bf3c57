package models

// ContentRating carries the raw rating signals from YouTube metadata.
// yt-dlp emits both camelCase and snake_case key variants depending on the
// extractor path, so both are decoded.
type ContentRating struct {
	MPAARating      string `json:"mpaaRating,omitempty"`
	MPAARatingSnake string `json:"mpaa_rating,omitempty"`
	TVPGRating      string `json:"tvpgRating,omitempty"`
	TVPGRatingSnake string `json:"tvpg_rating,omitempty"`
	YTRating        string `json:"ytRating,omitempty"`
	YTRatingSnake   string `json:"yt_rating,omitempty"`
}

// MPAA returns the MPAA key regardless of which variant was populated.
func (c *ContentRating) MPAA() string {
	if c.MPAARating != "" {
		return c.MPAARating
	}
	return c.MPAARatingSnake
}

// TVPG returns the TVPG key regardless of which variant was populated.
func (c *ContentRating) TVPG() string {
	if c.TVPGRating != "" {
		return c.TVPGRating
	}
	return c.TVPGRatingSnake
}

// YT returns the YouTube-native rating key regardless of variant.
func (c *ContentRating) YT() string {
	if c.YTRating != "" {
		return c.YTRating
	}
	return c.YTRatingSnake
}

// VideoMetadata is the subset of yt-dlp's --dump-single-json output this
// program consumes.
type VideoMetadata struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Channel       string         `json:"channel"`
	Uploader      string         `json:"uploader"`
	ChannelID     string         `json:"channel_id"`
	Duration      float64        `json:"duration"`
	Description   string         `json:"description"`
	UploadDate    string         `json:"upload_date"`
	Availability  string         `json:"availability"`
	AgeLimit      *int           `json:"age_limit"`
	ContentRating *ContentRating `json:"content_rating"`
	Tags          []string       `json:"tags"`
	Categories    []string       `json:"categories"`
}

// ChannelName returns the best available channel display name.
func (m *VideoMetadata) ChannelName() string {
	if m.Channel != "" {
		return m.Channel
	}
	if m.Uploader != "" {
		return m.Uploader
	}
	return "Unknown"
}
