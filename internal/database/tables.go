package database

import (
	"database/sql"
	"fmt"
)

// initChannelsTable initializes the channels table.
//
// sub_folder is NULL when the channel is pinned to the library root, and holds
// the "##USE_GLOBAL_DEFAULT##" sentinel when it inherits the global default.
// The "##ROOT##" sentinel is a wire-only value and never persists.
func initChannelsTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS channels (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        channel_id TEXT NOT NULL UNIQUE,
        uploader TEXT,
        folder_name TEXT,
        sub_folder TEXT,
        video_quality TEXT,
        min_duration INTEGER,
        max_duration INTEGER,
        title_filter_regex TEXT,
        default_rating TEXT,
        auto_download_enabled_tabs TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_channels_channel_id ON channels(channel_id);
    CREATE INDEX IF NOT EXISTS idx_channels_sub_folder ON channels(sub_folder);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create channels table: %w", err)
	}
	return nil
}

// initVideosTable initializes the videos table.
func initVideosTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS videos (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        youtube_id TEXT NOT NULL UNIQUE,
        channel_id TEXT REFERENCES channels(channel_id),
        title TEXT,
        file_path TEXT,
        content_rating TEXT,
        age_limit INTEGER,
        normalized_rating TEXT,
        rating_source TEXT,
        upload_date TEXT,
        duration INTEGER,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_videos_youtube_id ON videos(youtube_id);
    CREATE INDEX IF NOT EXISTS idx_videos_channel_id ON videos(channel_id);
    CREATE INDEX IF NOT EXISTS idx_videos_file_path ON videos(file_path);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create videos table: %w", err)
	}
	return nil
}

// initDownloadsTable initializes the downloads table.
func initDownloadsTable(tx *sql.Tx) error {
	query := `
    CREATE TABLE IF NOT EXISTS downloads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        job_id TEXT NOT NULL,
        youtube_id TEXT,
        channel_id TEXT,
        status TEXT NOT NULL CHECK(status IN ('pending', 'in_progress', 'completed', 'failed')),
        error_message TEXT,
        created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_downloads_job_id ON downloads(job_id);
    CREATE INDEX IF NOT EXISTS idx_downloads_channel_id ON downloads(channel_id);
    CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status);
    `
	if _, err := tx.Exec(query); err != nil {
		return fmt.Errorf("failed to create downloads table: %w", err)
	}
	return nil
}
