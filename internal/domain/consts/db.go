package consts

// Tables
const (
	DBChannels  = "channels"
	DBVideos    = "videos"
	DBDownloads = "downloads"
)

// Channel columns
const (
	QChanID          = "id"
	QChanChannelID   = "channel_id"
	QChanUploader    = "uploader"
	QChanFolderName  = "folder_name"
	QChanSubFolder   = "sub_folder"
	QChanQuality     = "video_quality"
	QChanMinDuration = "min_duration"
	QChanMaxDuration = "max_duration"
	QChanTitleFilter = "title_filter_regex"
	QChanRating      = "default_rating"
	QChanAutoTabs    = "auto_download_enabled_tabs"
	QChanCreatedAt   = "created_at"
	QChanUpdatedAt   = "updated_at"
)

// Video columns
const (
	QVidID         = "id"
	QVidYoutubeID  = "youtube_id"
	QVidChanID     = "channel_id"
	QVidTitle      = "title"
	QVidFilePath   = "file_path"
	QVidRating     = "content_rating"
	QVidAgeLimit   = "age_limit"
	QVidNormRating = "normalized_rating"
	QVidRatingSrc  = "rating_source"
	QVidUploadDate = "upload_date"
	QVidDuration   = "duration"
	QVidCreatedAt  = "created_at"
	QVidUpdatedAt  = "updated_at"
)

// Download columns
const (
	QDLID        = "id"
	QDLJobID     = "job_id"
	QDLYoutubeID = "youtube_id"
	QDLChanID    = "channel_id"
	QDLStatus    = "status"
	QDLErrorMsg  = "error_message"
	QDLCreatedAt = "created_at"
	QDLUpdatedAt = "updated_at"
)
