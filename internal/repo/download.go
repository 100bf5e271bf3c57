package repo

import (
	"database/sql"
	"fmt"
	"time"

	"plextube/internal/domain/consts"

	"github.com/Masterminds/squirrel"
)

// DownloadStore tracks per-video download rows within jobs.
type DownloadStore struct {
	DB *sql.DB
}

// GetDownloadStore returns a download store instance with injected database.
func GetDownloadStore(db *sql.DB) *DownloadStore {
	return &DownloadStore{DB: db}
}

// Add inserts a download row and returns its row ID.
func (ds *DownloadStore) Add(jobID, youtubeID, channelID, status string) (int64, error) {
	query := squirrel.
		Insert(consts.DBDownloads).
		Columns(consts.QDLJobID, consts.QDLYoutubeID, consts.QDLChanID, consts.QDLStatus).
		Values(jobID, youtubeID, channelID, status).
		RunWith(ds.DB)

	res, err := query.Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to insert download row for %q: %w", youtubeID, err)
	}
	return res.LastInsertId()
}

// SetStatus transitions a download row, optionally recording an error message.
func (ds *DownloadStore) SetStatus(id int64, status, errorMessage string) error {
	query := squirrel.
		Update(consts.DBDownloads).
		Set(consts.QDLStatus, status).
		Set(consts.QDLErrorMsg, nullString(errorMessage, errorMessage != "")).
		Set(consts.QDLUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QDLID: id}).
		RunWith(ds.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to update download row %d: %w", id, err)
	}
	return nil
}

// ActiveCountForChannel counts the channel's pending or running downloads.
func (ds *DownloadStore) ActiveCountForChannel(channelID string) (int, error) {
	var count int
	query := squirrel.
		Select("COUNT(1)").
		From(consts.DBDownloads).
		Where(squirrel.And{
			squirrel.Eq{consts.QDLChanID: channelID},
			squirrel.Eq{consts.QDLStatus: []string{consts.DLStatusPending, consts.DLStatusInProgress}},
		}).
		RunWith(ds.DB)

	if err := query.QueryRow().Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active downloads for channel %q: %w", channelID, err)
	}
	return count, nil
}
