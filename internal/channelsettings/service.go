// Package channelsettings applies per-channel settings updates, including
// the on-disk relocation a subfolder change implies.
package channelsettings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"plextube/internal/domain/consts"
	"plextube/internal/models"
	"plextube/internal/pathing"
	"plextube/internal/repo"
	"plextube/internal/validation"

	"github.com/rs/zerolog/log"
)

const plexRefreshTimeout = 30 * time.Second

// ChannelStore is the channel persistence surface the service needs.
type ChannelStore interface {
	GetByChannelID(channelID string) (*models.Channel, error)
	UpdateSettings(channelID string, patch models.SettingsPatch) error
	RestoreSubfolder(channelID, raw string, hasValue bool) error
	ListSubfolders() ([]string, error)
}

// VideoStore lists and rewrites the file paths relocation must keep current.
type VideoStore interface {
	ListWithFilePaths(channelID string) ([]*models.Video, error)
	UpdateFilePath(id int64, newPath string) error
}

// ActivityChecker reports in-flight downloads that block relocation.
type ActivityChecker interface {
	ActiveCountForChannel(channelID string) (int, error)
}

// LibraryRefresher triggers a media-server rescan after relocation.
type LibraryRefresher interface {
	Configured() bool
	RefreshLibrary(ctx context.Context) error
}

// Config carries the library layout settings.
type Config struct {
	// DownloadDir is the library root all channel folders live under.
	DownloadDir string
	// DefaultSubfolder is the global default named subfolder; empty means
	// the library root.
	DefaultSubfolder string
}

// Service coordinates settings updates. Subfolder changes follow a
// database-first protocol: persist, move the folder, rewrite video paths,
// then kick off a library refresh; a failed move rolls the column back.
type Service struct {
	channels ChannelStore
	videos   VideoStore
	activity ActivityChecker
	plex     LibraryRefresher
	cfg      Config

	// one mutex per channel so concurrent updates to the same channel
	// serialize while different channels proceed independently
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewService(channels ChannelStore, videos VideoStore, activity ActivityChecker, plex LibraryRefresher, cfg Config) *Service {
	return &Service{
		channels: channels,
		videos:   videos,
		activity: activity,
		plex:     plex,
		cfg:      cfg,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockChannel(channelID string) func() {
	s.mu.Lock()
	l, ok := s.locks[channelID]
	if !ok {
		l = new(sync.Mutex)
		s.locks[channelID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// GetChannelSettings returns the channel's settings view.
func (s *Service) GetChannelSettings(channelID string) (*models.ChannelSettings, error) {
	c, err := s.channels.GetByChannelID(channelID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}
	return renderSettings(c), nil
}

// ListSubfolders returns the named subfolders currently in use, rendered
// with the "__" prefix they carry on disk.
func (s *Service) ListSubfolders() ([]string, error) {
	names, err := s.channels.ListSubfolders()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = pathing.SubfolderSegment(name)
	}
	return out, nil
}

// HasActiveDownloads reports whether relocation would be refused right now.
func (s *Service) HasActiveDownloads(channelID string) (bool, error) {
	n, err := s.activity.ActiveCountForChannel(channelID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateChannelSettings validates and applies a partial settings update,
// relocating the channel folder when the effective subfolder changes.
func (s *Service) UpdateChannelSettings(ctx context.Context, channelID string, patch models.SettingsPatch) (*models.ChannelSettings, error) {
	if patch.Empty() {
		return nil, ErrEmptyUpdate
	}

	unlock := s.lockChannel(channelID)
	defer unlock()

	channel, err := s.channels.GetByChannelID(channelID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}

	// Any sub_folder change is refused while downloads are active, before
	// the field is even validated: the move would race yt-dlp mid-write.
	if patch.SubFolder.Set {
		busy, err := s.HasActiveDownloads(channelID)
		if err != nil {
			return nil, err
		}
		if busy {
			return nil, ErrActiveDownloads
		}
	}

	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	relocating := false
	var oldPath, newPath string
	if patch.SubFolder.Set {
		newSub := patchSubfolder(patch.SubFolder)
		// canonicalize the stored encoding before it reaches the DB
		raw, hasValue := newSub.Stored()
		patch.SubFolder = models.OptString{Set: true, Null: !hasValue, Value: raw}

		oldEff := pathing.EffectiveSubfolder(channel.SubFolder, s.cfg.DefaultSubfolder)
		newEff := pathing.EffectiveSubfolder(newSub, s.cfg.DefaultSubfolder)
		folderName := channel.DiskFolderName()

		if oldEff != newEff && folderName != "" {
			relocating = true
			oldPath = pathing.BuildChannelPath(s.cfg.DownloadDir, oldEff, folderName)
			newPath = pathing.BuildChannelPath(s.cfg.DownloadDir, newEff, folderName)
		}
	}

	if !relocating {
		if err := s.channels.UpdateSettings(channelID, patch); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrChannelNotFound
			}
			return nil, err
		}
		return s.GetChannelSettings(channelID)
	}

	prevRaw, prevHasValue := channel.SubFolder.Stored()

	// Database first. If the move then fails, the column is rolled back so
	// the library's state on disk is what the database describes.
	if err := s.channels.UpdateSettings(channelID, patch); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, err
	}

	if err := s.relocate(channelID, oldPath, newPath); err != nil {
		s.rollbackSubfolder(channelID, prevRaw, prevHasValue)
		return nil, err
	}

	s.rewriteVideoPaths(channelID, oldPath, newPath)
	s.refreshLibraryAsync()

	return s.GetChannelSettings(channelID)
}

// relocate moves the channel folder. A missing source or identical paths
// make it a no-op; an existing destination is an error.
func (s *Service) relocate(channelID, oldPath, newPath string) error {
	if oldPath == newPath {
		return nil
	}
	if _, err := os.Stat(oldPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug().Str("channel_id", channelID).Str("path", oldPath).
				Msg("Channel folder not on disk yet, skipping move")
			return nil
		}
		return fmt.Errorf("checking channel folder: %w", err)
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, newPath)
	}

	log.Info().Str("channel_id", channelID).Str("from", oldPath).Str("to", newPath).
		Msg("Relocating channel folder")
	if err := moveDir(oldPath, newPath); err != nil {
		return &MoveError{Err: err}
	}
	return nil
}

func (s *Service) rollbackSubfolder(channelID, raw string, hasValue bool) {
	if err := s.channels.RestoreSubfolder(channelID, raw, hasValue); err != nil {
		log.Error().Err(err).Str("channel_id", channelID).
			Msg("CRITICAL: failed to roll back sub_folder after move failure, database and filesystem are out of sync")
	}
}

// rewriteVideoPaths updates stored file paths after a successful move.
// Individual failures are logged and skipped; the files did move.
func (s *Service) rewriteVideoPaths(channelID, oldPath, newPath string) {
	videos, err := s.videos.ListWithFilePaths(channelID)
	if err != nil {
		log.Error().Err(err).Str("channel_id", channelID).Msg("Failed to list videos for path rewrite")
		return
	}
	updated := 0
	for _, v := range videos {
		relocated := pathing.CalculateRelocatedPath(oldPath, newPath, v.FilePath)
		if relocated == "" {
			log.Warn().Str("youtube_id", v.YoutubeID).Str("file_path", v.FilePath).
				Msg("Video path not under old channel folder, leaving unchanged")
			continue
		}
		if err := s.videos.UpdateFilePath(v.ID, relocated); err != nil {
			log.Error().Err(err).Str("youtube_id", v.YoutubeID).Msg("Failed to rewrite video path")
			continue
		}
		updated++
	}
	log.Info().Str("channel_id", channelID).Int("updated", updated).Int("total", len(videos)).
		Msg("Rewrote video file paths")
}

// refreshLibraryAsync kicks off a media-server rescan without blocking the
// settings response. Failures are logged only.
func (s *Service) refreshLibraryAsync() {
	if s.plex == nil || !s.plex.Configured() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), plexRefreshTimeout)
		defer cancel()
		if err := s.plex.RefreshLibrary(ctx); err != nil {
			log.Warn().Err(err).Msg("Plex library refresh failed")
		}
	}()
}

// patchSubfolder interprets the wire encoding of a sub_folder update.
func patchSubfolder(opt models.OptString) models.Subfolder {
	if opt.Null {
		return models.Subfolder{Kind: models.SubfolderRoot}
	}
	return models.ParseSubfolder(opt.Value, true)
}

func validatePatch(patch models.SettingsPatch) error {
	if patch.SubFolder.Set && !patch.SubFolder.Null {
		v := patch.SubFolder.Value
		if v != consts.RootSentinel && v != consts.GlobalDefaultSentinel {
			if r := validation.SubfolderName(v); !r.Valid {
				return &ValidationError{Field: "sub_folder", Message: r.Err}
			}
		}
	}
	if patch.VideoQuality.Set && !patch.VideoQuality.Null {
		if r := validation.VideoQuality(patch.VideoQuality.Value); !r.Valid {
			return &ValidationError{Field: "video_quality", Message: r.Err}
		}
	}
	if patch.MinDuration.Set && !patch.MinDuration.Null {
		if r := validation.DurationSeconds(patch.MinDuration.Value); !r.Valid {
			return &ValidationError{Field: "min_duration", Message: r.Err}
		}
	}
	if patch.MaxDuration.Set && !patch.MaxDuration.Null {
		if r := validation.DurationSeconds(patch.MaxDuration.Value); !r.Valid {
			return &ValidationError{Field: "max_duration", Message: r.Err}
		}
	}
	if patch.MinDuration.Set && !patch.MinDuration.Null &&
		patch.MaxDuration.Set && !patch.MaxDuration.Null {
		if r := validation.DurationRange(patch.MinDuration.Value, patch.MaxDuration.Value); !r.Valid {
			return &ValidationError{Field: "min_duration", Message: r.Err}
		}
	}
	if patch.TitleFilterRegex.Set && !patch.TitleFilterRegex.Null {
		if r := validation.TitleFilterRegex(patch.TitleFilterRegex.Value); !r.Valid {
			return &ValidationError{Field: "title_filter_regex", Message: r.Err}
		}
	}
	if patch.DefaultRating.Set && !patch.DefaultRating.Null {
		if r := validation.DefaultRating(patch.DefaultRating.Value); !r.Valid {
			return &ValidationError{Field: "default_rating", Message: r.Err}
		}
	}
	return nil
}

// renderSettings converts a channel row to its API view. The inherit-global
// state keeps its sentinel encoding on the wire for client compatibility;
// root renders as null.
func renderSettings(c *models.Channel) *models.ChannelSettings {
	out := &models.ChannelSettings{
		ChannelID: c.ChannelID,
		Uploader:  c.Uploader,
	}
	switch c.SubFolder.Kind {
	case models.SubfolderNamed:
		out.SubFolder = strPtr(c.SubFolder.Name)
	case models.SubfolderInheritGlobal:
		out.SubFolder = strPtr(consts.GlobalDefaultSentinel)
	}
	if c.VideoQuality != "" {
		out.VideoQuality = strPtr(c.VideoQuality)
	}
	if c.MinDuration != 0 {
		out.MinDuration = intPtr(c.MinDuration)
	}
	if c.MaxDuration != 0 {
		out.MaxDuration = intPtr(c.MaxDuration)
	}
	if c.TitleFilterRegex != "" {
		out.TitleFilterRegex = strPtr(c.TitleFilterRegex)
	}
	if c.DefaultRating != "" {
		out.DefaultRating = strPtr(c.DefaultRating)
	}
	return out
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
