package repo

import (
	"database/sql"
	"fmt"
	"time"

	"plextube/internal/domain/consts"
	"plextube/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"
)

// VideoStore reads and writes video rows.
type VideoStore struct {
	DB *sql.DB
}

// GetVideoStore returns a video store instance with injected database.
func GetVideoStore(db *sql.DB) *VideoStore {
	return &VideoStore{DB: db}
}

// AddVideo inserts a video row and returns its row ID.
func (vs *VideoStore) AddVideo(v *models.Video) (int64, error) {
	query := squirrel.
		Insert(consts.DBVideos).
		Columns(
			consts.QVidYoutubeID,
			consts.QVidChanID,
			consts.QVidTitle,
			consts.QVidFilePath,
			consts.QVidRating,
			consts.QVidAgeLimit,
			consts.QVidNormRating,
			consts.QVidRatingSrc,
			consts.QVidUploadDate,
			consts.QVidDuration,
		).
		Values(
			v.YoutubeID,
			v.ChannelID,
			v.Title,
			nullString(v.FilePath, v.FilePath != ""),
			nullString(v.ContentRating, v.ContentRating != ""),
			nullIntPtr(v.AgeLimit),
			nullString(v.NormalizedRating, v.NormalizedRating != ""),
			nullString(v.RatingSource, v.RatingSource != ""),
			nullString(v.UploadDate, v.UploadDate != ""),
			v.Duration,
		).
		RunWith(vs.DB)

	res, err := query.Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to insert video %q: %w", v.YoutubeID, err)
	}
	return res.LastInsertId()
}

// ListWithFilePaths returns the channel's videos that have a file on disk.
func (vs *VideoStore) ListWithFilePaths(channelID string) ([]*models.Video, error) {
	query := squirrel.
		Select(consts.QVidID, consts.QVidYoutubeID, consts.QVidFilePath).
		From(consts.DBVideos).
		Where(squirrel.And{
			squirrel.Eq{consts.QVidChanID: channelID},
			squirrel.NotEq{consts.QVidFilePath: nil},
			squirrel.NotEq{consts.QVidFilePath: ""},
		}).
		RunWith(vs.DB)

	rows, err := query.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query videos for channel %q: %w", channelID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to close video rows")
		}
	}()

	videos := make([]*models.Video, 0, 64)
	for rows.Next() {
		v := new(models.Video)
		if err := rows.Scan(&v.ID, &v.YoutubeID, &v.FilePath); err != nil {
			return nil, err
		}
		v.ChannelID = channelID
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// UpdateFilePath rewrites a single video's file path.
func (vs *VideoStore) UpdateFilePath(id int64, newPath string) error {
	query := squirrel.
		Update(consts.DBVideos).
		Set(consts.QVidFilePath, newPath).
		Set(consts.QVidUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QVidID: id}).
		RunWith(vs.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to update file path for video %d: %w", id, err)
	}
	return nil
}

// UpdateRating stores a recomputed rating for a video.
func (vs *VideoStore) UpdateRating(youtubeID, normalized, source string) error {
	query := squirrel.
		Update(consts.DBVideos).
		Set(consts.QVidNormRating, nullString(normalized, normalized != "")).
		Set(consts.QVidRatingSrc, nullString(source, source != "")).
		Set(consts.QVidUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QVidYoutubeID: youtubeID}).
		RunWith(vs.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to update rating for video %q: %w", youtubeID, err)
	}
	return nil
}

// ExistsDownloaded reports whether the video is present with a file on disk.
func (vs *VideoStore) ExistsDownloaded(youtubeID string) (bool, error) {
	var count int
	query := squirrel.
		Select("COUNT(1)").
		From(consts.DBVideos).
		Where(squirrel.And{
			squirrel.Eq{consts.QVidYoutubeID: youtubeID},
			squirrel.NotEq{consts.QVidFilePath: nil},
			squirrel.NotEq{consts.QVidFilePath: ""},
		}).
		RunWith(vs.DB)

	if err := query.QueryRow().Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check download state for %q: %w", youtubeID, err)
	}
	return count > 0, nil
}

func nullIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
