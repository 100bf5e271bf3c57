package models

import "time"

// Video models a downloaded (or known) video row.
type Video struct {
	ID        int64  `db:"id"`
	YoutubeID string `db:"youtube_id"`
	ChannelID string `db:"channel_id"`
	Title     string `db:"title"`

	// FilePath is the absolute path of the downloaded media file, empty
	// when the video has not been downloaded. When set, it must live under
	// the channel's current directory; ChannelSettings relocation keeps
	// this consistent on subfolder moves.
	FilePath string `db:"file_path"`

	ContentRating    string `db:"content_rating"`
	AgeLimit         *int   `db:"age_limit"`
	NormalizedRating string `db:"normalized_rating"`
	RatingSource     string `db:"rating_source"`

	UploadDate string    `db:"upload_date"`
	Duration   int       `db:"duration"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}
