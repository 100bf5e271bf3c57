package videovalidation

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"plextube/internal/models"
	"plextube/internal/ytdlp"

	"github.com/rs/zerolog/log"
)

const (
	cacheTTL = 5 * time.Minute
	// cacheSoftCap triggers an expired-entry sweep when exceeded. It is
	// approximate: live entries are never evicted early.
	cacheSoftCap = 100

	metadataTimeout = 10 * time.Second
)

// membersOnlyIDPattern pulls the video ID out of yt-dlp's error line when
// the URL itself could not be parsed.
var membersOnlyIDPattern = regexp.MustCompile(`\[youtube\]\s+([a-zA-Z0-9_-]{11}):`)

// MetadataFetcher probes a video URL for metadata.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string, timeout time.Duration) (*models.VideoMetadata, error)
}

// Archive answers whether a video has already been downloaded.
type Archive interface {
	Contains(id string) (bool, error)
}

type cacheEntry struct {
	resp models.ValidationResponse
	at   time.Time
}

type inflight struct {
	done chan struct{}
	resp models.ValidationResponse
}

// Service validates ad-hoc video URLs. Responses are cached per video ID
// with a TTL, and concurrent lookups for the same unseen ID share one
// metadata fetch.
type Service struct {
	fetcher MetadataFetcher
	archive Archive
	now     func() time.Time

	mu       sync.Mutex
	cache    map[string]cacheEntry
	inflight map[string]*inflight
}

func NewService(fetcher MetadataFetcher, archive Archive) *Service {
	return &Service{
		fetcher:  fetcher,
		archive:  archive,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
		inflight: make(map[string]*inflight),
	}
}

// Validate normalizes url and returns the validation response. It never
// returns an error; failures are encoded in the response shape.
func (s *Service) Validate(ctx context.Context, url string) models.ValidationResponse {
	videoID, canonicalURL, err := NormalizeURL(url)
	if err != nil {
		return models.ValidationResponse{IsValidURL: false, Error: err.Error()}
	}

	if resp, ok := s.cachedResponse(videoID); ok {
		// Archive membership can change between calls, so even a cache
		// hit re-checks the live duplicate status.
		resp.IsAlreadyDownloaded = s.isDuplicate(videoID)
		s.storeResponse(videoID, resp)
		return resp
	}

	s.mu.Lock()
	if call, ok := s.inflight[videoID]; ok {
		s.mu.Unlock()
		select {
		case <-call.done:
			resp := call.resp
			if resp.IsValidURL {
				resp.IsAlreadyDownloaded = s.isDuplicate(videoID)
			}
			return resp
		case <-ctx.Done():
			return models.ValidationResponse{IsValidURL: false, Error: "Request timed out. Please try again."}
		}
	}
	call := &inflight{done: make(chan struct{})}
	s.inflight[videoID] = call
	s.mu.Unlock()

	resp := s.fetchAndBuild(ctx, videoID, canonicalURL)

	call.resp = resp
	s.mu.Lock()
	delete(s.inflight, videoID)
	s.mu.Unlock()
	close(call.done)

	return resp
}

func (s *Service) fetchAndBuild(ctx context.Context, videoID, canonicalURL string) models.ValidationResponse {
	log.Debug().Str("youtube_id", videoID).Msg("Fetching metadata for validation")

	meta, err := s.fetcher.FetchMetadata(ctx, canonicalURL, metadataTimeout)
	if err != nil {
		return s.classifyError(videoID, err)
	}

	resp := s.toResponse(videoID, meta)
	s.storeResponse(videoID, resp)
	return resp
}

// classifyError maps fetch failures to their response shapes. Members-only
// videos are a *valid* result: the video exists, it just needs membership.
func (s *Service) classifyError(videoID string, err error) models.ValidationResponse {
	msg := err.Error()

	if ytdlp.ErrCode(err) == ytdlp.CodeCookiesRequired {
		var re *ytdlp.RunError
		if errors.As(err, &re) {
			msg = re.Message
		}
		return models.ValidationResponse{
			IsValidURL: false,
			Error:      msg,
			ErrorCode:  string(ytdlp.CodeCookiesRequired),
		}
	}

	switch {
	case strings.Contains(msg, "members-only") || strings.Contains(msg, "Join this channel to get access"):
		id := videoID
		if m := membersOnlyIDPattern.FindStringSubmatch(msg); m != nil {
			id = m[1]
		}
		return models.ValidationResponse{
			IsValidURL:    true,
			IsMembersOnly: true,
			Metadata: &models.ValidationMetadata{
				YoutubeID:    id,
				URL:          "https://www.youtube.com/watch?v=" + id,
				ChannelName:  "Unknown",
				VideoTitle:   "Members-only video",
				Availability: "subscriber_only",
			},
		}
	case strings.Contains(msg, "timed out"):
		return models.ValidationResponse{IsValidURL: false, Error: "Request timed out. Please try again."}
	case strings.Contains(msg, "Video unavailable"):
		return models.ValidationResponse{IsValidURL: false, Error: "Video is unavailable or has been removed"}
	default:
		if msg == "" {
			msg = "Failed to validate video"
		}
		return models.ValidationResponse{IsValidURL: false, Error: msg}
	}
}

func (s *Service) toResponse(videoID string, meta *models.VideoMetadata) models.ValidationResponse {
	title := meta.Title
	if title == "" {
		title = "Unknown"
	}
	availability := meta.Availability
	if availability == "" {
		availability = "public"
	}

	return models.ValidationResponse{
		IsValidURL:          true,
		IsAlreadyDownloaded: s.isDuplicate(videoID),
		IsMembersOnly:       availability == "subscriber_only",
		Metadata: &models.ValidationMetadata{
			YoutubeID:    videoID,
			URL:          "https://www.youtube.com/watch?v=" + videoID,
			ChannelName:  meta.ChannelName(),
			VideoTitle:   title,
			Duration:     int(meta.Duration),
			PublishedAt:  parseUploadDate(meta.UploadDate),
			Availability: availability,
		},
	}
}

// parseUploadDate converts yt-dlp's YYYYMMDD upload_date to a Unix
// timestamp at UTC midnight. Unknown or malformed dates yield nil.
func parseUploadDate(uploadDate string) *int64 {
	if len(uploadDate) != 8 {
		return nil
	}
	ts, err := time.ParseInLocation("20060102", uploadDate, time.UTC)
	if err != nil {
		return nil
	}
	unix := ts.Unix()
	return &unix
}

// isDuplicate degrades to false on archive errors so a broken archive file
// never blocks validation.
func (s *Service) isDuplicate(videoID string) bool {
	dup, err := s.archive.Contains(videoID)
	if err != nil {
		log.Warn().Err(err).Str("youtube_id", videoID).Msg("Archive check failed")
		return false
	}
	return dup
}

func (s *Service) cachedResponse(videoID string) (models.ValidationResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[videoID]
	if !ok {
		return models.ValidationResponse{}, false
	}
	if s.now().Sub(entry.at) >= cacheTTL {
		delete(s.cache, videoID)
		return models.ValidationResponse{}, false
	}
	return entry.resp, true
}

func (s *Service) storeResponse(videoID string, resp models.ValidationResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[videoID] = cacheEntry{resp: resp, at: s.now()}
	if len(s.cache) > cacheSoftCap {
		now := s.now()
		for id, entry := range s.cache {
			if now.Sub(entry.at) >= cacheTTL {
				delete(s.cache, id)
			}
		}
	}
}
