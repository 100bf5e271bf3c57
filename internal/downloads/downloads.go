// Package downloads executes single-video downloads end to end: metadata
// probe, yt-dlp invocation, archive and database bookkeeping, and the NFO
// sidecar Plex reads.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"plextube/internal/domain/consts"
	"plextube/internal/models"
	"plextube/internal/nfo"
	"plextube/internal/pathing"
	"plextube/internal/ratings"
	"plextube/internal/repo"
	"plextube/internal/videovalidation"
	"plextube/internal/ytdlp"

	"github.com/rs/zerolog/log"
)

// DefaultDownloadTimeout bounds a single video download.
const DefaultDownloadTimeout = 30 * time.Minute

// MetadataFetcher probes a video URL for metadata before downloading.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string, timeout time.Duration) (*models.VideoMetadata, error)
}

// ProcessRunner executes the assembled yt-dlp invocation.
type ProcessRunner interface {
	Run(ctx context.Context, args []string, opts ytdlp.Options) (string, error)
}

// ArgBuilder assembles the download argument list.
type ArgBuilder interface {
	DownloadArgs(url, outputTemplate string, maxHeight int) []string
}

// ChannelStore resolves and creates the channel rows videos hang off.
type ChannelStore interface {
	GetByChannelID(channelID string) (*models.Channel, error)
	AddChannel(c *models.Channel) (int64, error)
}

// VideoStore records downloaded videos.
type VideoStore interface {
	AddVideo(v *models.Video) (int64, error)
	ExistsDownloaded(youtubeID string) (bool, error)
}

// DownloadStore tracks per-video download rows within a job.
type DownloadStore interface {
	Add(jobID, youtubeID, channelID, status string) (int64, error)
	SetStatus(id int64, status, errorMessage string) error
}

// Archive is the yt-dlp download archive, checked before and recorded after
// each download.
type Archive interface {
	Contains(id string) (bool, error)
	Add(id string) error
}

// Config carries the library layout and download defaults.
type Config struct {
	DownloadDir      string
	DefaultSubfolder string
	// PreferredQuality caps resolution when the channel has no override;
	// zero means best available.
	PreferredQuality int
	// DownloadTimeout bounds a single download; zero uses the default.
	DownloadTimeout time.Duration
}

// Downloader runs one video download per call. Callers own concurrency and
// job lifecycle; this type only reports outcomes.
type Downloader struct {
	fetcher   MetadataFetcher
	runner    ProcessRunner
	builder   ArgBuilder
	channels  ChannelStore
	videos    VideoStore
	downloads DownloadStore
	archive   Archive
	cfg       Config
}

func NewDownloader(
	fetcher MetadataFetcher,
	runner ProcessRunner,
	builder ArgBuilder,
	channels ChannelStore,
	videos VideoStore,
	downloads DownloadStore,
	arc Archive,
	cfg Config,
) *Downloader {
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}
	return &Downloader{
		fetcher:   fetcher,
		runner:    runner,
		builder:   builder,
		channels:  channels,
		videos:    videos,
		downloads: downloads,
		archive:   arc,
		cfg:       cfg,
	}
}

// DownloadVideo downloads the video at rawURL, recording it against jobID.
// The returned string is a human-readable summary for job output.
func (d *Downloader) DownloadVideo(ctx context.Context, jobID, rawURL string) (string, error) {
	videoID, canonicalURL, err := videovalidation.NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	if d.alreadyDownloaded(videoID) {
		log.Info().Str("youtube_id", videoID).Msg("Video already downloaded, skipping")
		return fmt.Sprintf("Video %s already downloaded, skipped", videoID), nil
	}

	meta, err := d.fetcher.FetchMetadata(ctx, canonicalURL, 0)
	if err != nil {
		return "", err
	}

	channel, err := d.ensureChannel(meta)
	if err != nil {
		return "", err
	}

	rowID, err := d.downloads.Add(jobID, videoID, channel.ChannelID, consts.DLStatusPending)
	if err != nil {
		return "", err
	}

	effective := pathing.EffectiveSubfolder(channel.SubFolder, d.cfg.DefaultSubfolder)
	template := pathing.BuildOutputTemplate(d.cfg.DownloadDir, effective)

	if err := d.downloads.SetStatus(rowID, consts.DLStatusInProgress, ""); err != nil {
		log.Error().Err(err).Str("youtube_id", videoID).Msg("Failed to mark download in progress")
	}

	args := d.builder.DownloadArgs(canonicalURL, template, d.maxHeight(channel))
	if _, err := d.runner.Run(ctx, args, ytdlp.Options{Timeout: d.cfg.DownloadTimeout}); err != nil {
		if sErr := d.downloads.SetStatus(rowID, consts.DLStatusFailed, err.Error()); sErr != nil {
			log.Error().Err(sErr).Str("youtube_id", videoID).Msg("Failed to mark download failed")
		}
		return "", err
	}

	folderName := channel.DiskFolderName()
	if folderName == "" {
		folderName = meta.ChannelName()
	}
	channelDir := pathing.BuildChannelPath(d.cfg.DownloadDir, effective, folderName)
	filePath := findDownloadedFile(channelDir, videoID)
	if filePath == "" {
		log.Warn().Str("youtube_id", videoID).Str("dir", channelDir).
			Msg("Downloaded file not found on disk, recording video without path")
	}

	rating := ratings.DetermineEffective(meta, channelDefault(channel), nil)

	video := &models.Video{
		YoutubeID:        videoID,
		ChannelID:        channel.ChannelID,
		Title:            meta.Title,
		FilePath:         filePath,
		AgeLimit:         meta.AgeLimit,
		NormalizedRating: rating.NormalizedRating,
		RatingSource:     rating.RatingSource,
		UploadDate:       meta.UploadDate,
		Duration:         int(meta.Duration),
	}
	if meta.ContentRating != nil {
		video.ContentRating = firstNonEmpty(meta.ContentRating.MPAA(), meta.ContentRating.TVPG())
	}
	if _, err := d.videos.AddVideo(video); err != nil {
		log.Error().Err(err).Str("youtube_id", videoID).Msg("Failed to record video row")
	}

	if filePath != "" {
		nfo.WriteForVideo(filePath, nfo.Entry{
			Meta:             meta,
			NormalizedRating: rating.NormalizedRating,
			RatingSource:     rating.RatingSource,
		})
	}

	if err := d.archive.Add(videoID); err != nil {
		log.Error().Err(err).Str("youtube_id", videoID).Msg("Failed to record archive entry")
	}
	if err := d.downloads.SetStatus(rowID, consts.DLStatusCompleted, ""); err != nil {
		log.Error().Err(err).Str("youtube_id", videoID).Msg("Failed to mark download completed")
	}

	log.Info().Str("youtube_id", videoID).Str("title", meta.Title).Msg("Download finished")
	return fmt.Sprintf("Downloaded %q (%s)", meta.Title, videoID), nil
}

// alreadyDownloaded degrades to false on errors so a broken archive or
// database never blocks a download attempt.
func (d *Downloader) alreadyDownloaded(videoID string) bool {
	if dup, err := d.archive.Contains(videoID); err == nil && dup {
		return true
	}
	dup, err := d.videos.ExistsDownloaded(videoID)
	if err != nil {
		log.Warn().Err(err).Str("youtube_id", videoID).Msg("Duplicate check failed")
		return false
	}
	return dup
}

// ensureChannel returns the video's channel row, creating an inherit-global
// one on first contact with a channel.
func (d *Downloader) ensureChannel(meta *models.VideoMetadata) (*models.Channel, error) {
	if meta.ChannelID == "" {
		return nil, errors.New("video metadata carries no channel ID")
	}

	c, err := d.channels.GetByChannelID(meta.ChannelID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	c = &models.Channel{
		ChannelID: meta.ChannelID,
		Uploader:  meta.ChannelName(),
		SubFolder: models.Subfolder{Kind: models.SubfolderInheritGlobal},
	}
	if _, err := d.channels.AddChannel(c); err != nil {
		return nil, err
	}
	return c, nil
}

// maxHeight resolves the resolution cap: channel override first, then the
// configured preferred quality.
func (d *Downloader) maxHeight(channel *models.Channel) int {
	if channel.VideoQuality != "" {
		if h, err := strconv.Atoi(channel.VideoQuality); err == nil {
			return h
		}
	}
	return d.cfg.PreferredQuality
}

func channelDefault(channel *models.Channel) *string {
	if channel.DefaultRating == "" {
		return nil
	}
	return &channel.DefaultRating
}

// findDownloadedFile locates the media file yt-dlp produced by scanning the
// channel directory for the "[<id>]" filename marker.
func findDownloadedFile(channelDir, videoID string) string {
	marker := "[" + videoID + "]"

	var found string
	err := filepath.WalkDir(channelDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() || found != "" {
			return nil
		}
		name := entry.Name()
		if !strings.Contains(name, marker) {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		for _, vidExt := range consts.AllVidExtensions {
			if ext == vidExt {
				found = path
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Debug().Err(err).Str("dir", channelDir).Msg("Scanning channel directory failed")
	}
	return found
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
