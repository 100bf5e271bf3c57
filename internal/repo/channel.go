package repo

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"plextube/internal/domain/consts"
	"plextube/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/rs/zerolog/log"
)

// ChannelStore reads and writes channel rows.
type ChannelStore struct {
	DB *sql.DB
}

// GetChannelStore returns a channel store instance with injected database.
func GetChannelStore(db *sql.DB) *ChannelStore {
	return &ChannelStore{DB: db}
}

var channelColumns = []string{
	consts.QChanID,
	consts.QChanChannelID,
	consts.QChanUploader,
	consts.QChanFolderName,
	consts.QChanSubFolder,
	consts.QChanQuality,
	consts.QChanMinDuration,
	consts.QChanMaxDuration,
	consts.QChanTitleFilter,
	consts.QChanRating,
	consts.QChanAutoTabs,
	consts.QChanCreatedAt,
	consts.QChanUpdatedAt,
}

// GetByChannelID fetches a channel by its YouTube channel ID.
func (cs *ChannelStore) GetByChannelID(channelID string) (*models.Channel, error) {
	query := squirrel.
		Select(channelColumns...).
		From(consts.DBChannels).
		Where(squirrel.Eq{consts.QChanChannelID: channelID}).
		RunWith(cs.DB)

	c, err := scanChannel(query.QueryRow())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("channel %q: %w", channelID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch channel %q: %w", channelID, err)
	}
	return c, nil
}

// AddChannel inserts a new channel row and returns its row ID.
func (cs *ChannelStore) AddChannel(c *models.Channel) (int64, error) {
	subRaw, subSet := c.SubFolder.Stored()

	query := squirrel.
		Insert(consts.DBChannels).
		Columns(
			consts.QChanChannelID,
			consts.QChanUploader,
			consts.QChanFolderName,
			consts.QChanSubFolder,
			consts.QChanQuality,
			consts.QChanMinDuration,
			consts.QChanMaxDuration,
			consts.QChanTitleFilter,
			consts.QChanRating,
			consts.QChanAutoTabs,
		).
		Values(
			c.ChannelID,
			c.Uploader,
			c.FolderName,
			nullString(subRaw, subSet),
			nullString(c.VideoQuality, c.VideoQuality != ""),
			nullInt(c.MinDuration, c.MinDuration != 0),
			nullInt(c.MaxDuration, c.MaxDuration != 0),
			nullString(c.TitleFilterRegex, c.TitleFilterRegex != ""),
			nullString(c.DefaultRating, c.DefaultRating != ""),
			nullString(c.AutoDownloadTabs, c.AutoDownloadTabs != ""),
		).
		RunWith(cs.DB)

	res, err := query.Exec()
	if err != nil {
		return 0, fmt.Errorf("failed to insert channel %q: %w", c.ChannelID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	log.Info().Str("channel_id", c.ChannelID).Msg("Added channel")
	return id, nil
}

// UpdateSettings applies a partial settings update. Unset patch fields are
// left untouched; explicit nulls clear the column.
func (cs *ChannelStore) UpdateSettings(channelID string, patch models.SettingsPatch) error {
	if patch.Empty() {
		return nil
	}

	q := squirrel.
		Update(consts.DBChannels).
		Where(squirrel.Eq{consts.QChanChannelID: channelID}).
		Set(consts.QChanUpdatedAt, time.Now())

	q = setOptString(q, consts.QChanSubFolder, patch.SubFolder)
	q = setOptString(q, consts.QChanQuality, patch.VideoQuality)
	q = setOptInt(q, consts.QChanMinDuration, patch.MinDuration)
	q = setOptInt(q, consts.QChanMaxDuration, patch.MaxDuration)
	q = setOptString(q, consts.QChanTitleFilter, patch.TitleFilterRegex)
	q = setOptString(q, consts.QChanRating, patch.DefaultRating)

	res, err := q.RunWith(cs.DB).Exec()
	if err != nil {
		return fmt.Errorf("failed to update settings for channel %q: %w", channelID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("channel %q: %w", channelID, ErrNotFound)
	}
	return nil
}

// RestoreSubfolder writes back a previous sub_folder value, for rolling back
// a failed relocation. hasValue false restores NULL.
func (cs *ChannelStore) RestoreSubfolder(channelID, raw string, hasValue bool) error {
	query := squirrel.
		Update(consts.DBChannels).
		Set(consts.QChanSubFolder, nullString(raw, hasValue)).
		Set(consts.QChanUpdatedAt, time.Now()).
		Where(squirrel.Eq{consts.QChanChannelID: channelID}).
		RunWith(cs.DB)

	if _, err := query.Exec(); err != nil {
		return fmt.Errorf("failed to restore sub_folder for channel %q: %w", channelID, err)
	}
	return nil
}

// ListSubfolders returns the distinct named subfolders in use, sorted
// case-insensitively. Sentinel and NULL values are excluded.
func (cs *ChannelStore) ListSubfolders() ([]string, error) {
	query := squirrel.
		Select("DISTINCT " + consts.QChanSubFolder).
		From(consts.DBChannels).
		Where(squirrel.NotEq{consts.QChanSubFolder: nil}).
		RunWith(cs.DB)

	rows, err := query.Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query subfolders: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close subfolder rows")
		}
	}()

	names := make([]string, 0, 16)
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		sub := models.ParseSubfolder(raw.String, raw.Valid)
		if sub.Kind == models.SubfolderNamed {
			names = append(names, sub.Name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// scanChannel scans a full channel row.
func scanChannel(row squirrel.RowScanner) (*models.Channel, error) {
	var (
		c          models.Channel
		subFolder  sql.NullString
		quality    sql.NullString
		minDur     sql.NullInt64
		maxDur     sql.NullInt64
		filter     sql.NullString
		rating     sql.NullString
		tabs       sql.NullString
		uploader   sql.NullString
		folderName sql.NullString
	)
	err := row.Scan(
		&c.ID,
		&c.ChannelID,
		&uploader,
		&folderName,
		&subFolder,
		&quality,
		&minDur,
		&maxDur,
		&filter,
		&rating,
		&tabs,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Uploader = uploader.String
	c.FolderName = folderName.String
	c.SubFolder = models.ParseSubfolder(subFolder.String, subFolder.Valid)
	c.VideoQuality = quality.String
	c.MinDuration = int(minDur.Int64)
	c.MaxDuration = int(maxDur.Int64)
	c.TitleFilterRegex = filter.String
	c.DefaultRating = rating.String
	c.AutoDownloadTabs = tabs.String
	return &c, nil
}

// SubfolderRaw returns the stored sub_folder column for a channel without
// sentinel translation, for capturing pre-update state.
func (cs *ChannelStore) SubfolderRaw(channelID string) (raw string, hasValue bool, err error) {
	var sub sql.NullString
	query := squirrel.
		Select(consts.QChanSubFolder).
		From(consts.DBChannels).
		Where(squirrel.Eq{consts.QChanChannelID: channelID}).
		RunWith(cs.DB)

	if err := query.QueryRow().Scan(&sub); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, fmt.Errorf("channel %q: %w", channelID, ErrNotFound)
		}
		return "", false, err
	}
	return sub.String, sub.Valid, nil
}

func nullString(v string, set bool) any {
	if !set {
		return nil
	}
	return v
}

func nullInt(v int, set bool) any {
	if !set {
		return nil
	}
	return v
}

func setOptString(q squirrel.UpdateBuilder, col string, opt models.OptString) squirrel.UpdateBuilder {
	if !opt.Set {
		return q
	}
	if opt.Null {
		return q.Set(col, nil)
	}
	return q.Set(col, opt.Value)
}

func setOptInt(q squirrel.UpdateBuilder, col string, opt models.OptInt) squirrel.UpdateBuilder {
	if !opt.Set {
		return q
	}
	if opt.Null {
		return q.Set(col, nil)
	}
	return q.Set(col, opt.Value)
}
