package videovalidation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"plextube/internal/models"
	"plextube/internal/ytdlp"
)

type fakeFetcher struct {
	calls   atomic.Int64
	fn      func(url string) (*models.VideoMetadata, error)
	release chan struct{} // when non-nil, fetches block until closed
}

func (f *fakeFetcher) FetchMetadata(_ context.Context, url string, _ time.Duration) (*models.VideoMetadata, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.fn(url)
}

type fakeArchive struct {
	mu  sync.Mutex
	ids map[string]bool
	err error
}

func (a *fakeArchive) Contains(id string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return false, a.err
	}
	return a.ids[id], nil
}

func (a *fakeArchive) add(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ids == nil {
		a.ids = make(map[string]bool)
	}
	a.ids[id] = true
}

func goodMetadata() *models.VideoMetadata {
	return &models.VideoMetadata{
		ID:           "dQw4w9WgXcQ",
		Title:        "Never Gonna Give You Up",
		Channel:      "Rick Astley",
		Duration:     212,
		UploadDate:   "20091025",
		Availability: "public",
	}
}

func newService(f *fakeFetcher, a *fakeArchive) *Service {
	return NewService(f, a)
}

func TestValidateSuccess(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{fn: func(string) (*models.VideoMetadata, error) { return goodMetadata(), nil }}
	s := newService(f, &fakeArchive{})

	resp := s.Validate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !resp.IsValidURL || resp.IsAlreadyDownloaded || resp.IsMembersOnly {
		t.Fatalf("unexpected response: %+v", resp)
	}
	m := resp.Metadata
	if m == nil || m.YoutubeID != "dQw4w9WgXcQ" || m.ChannelName != "Rick Astley" || m.Duration != 212 {
		t.Fatalf("unexpected metadata: %+v", m)
	}
	if m.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("metadata URL = %q", m.URL)
	}
	want := time.Date(2009, 10, 25, 0, 0, 0, 0, time.UTC).Unix()
	if m.PublishedAt == nil || *m.PublishedAt != want {
		t.Errorf("publishedAt = %v, want %d", m.PublishedAt, want)
	}

	// Second call for the same video serves from cache.
	s.Validate(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if n := f.calls.Load(); n != 1 {
		t.Errorf("expected 1 metadata fetch, got %d", n)
	}
}

func TestCacheHitRechecksArchive(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{fn: func(string) (*models.VideoMetadata, error) { return goodMetadata(), nil }}
	a := &fakeArchive{}
	s := newService(f, a)

	resp := s.Validate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if resp.IsAlreadyDownloaded {
		t.Fatal("video should not be a duplicate yet")
	}

	// The video gets archived between calls; the cached response must
	// still reflect the new status.
	a.add("dQw4w9WgXcQ")
	resp = s.Validate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !resp.IsAlreadyDownloaded {
		t.Error("cache hit did not re-check archive status")
	}
	if n := f.calls.Load(); n != 1 {
		t.Errorf("expected 1 metadata fetch, got %d", n)
	}
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{fn: func(string) (*models.VideoMetadata, error) { return goodMetadata(), nil }}
	s := newService(f, &fakeArchive{})

	now := time.Now()
	s.now = func() time.Time { return now }

	s.Validate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	now = now.Add(cacheTTL + time.Second)
	s.Validate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")

	if n := f.calls.Load(); n != 2 {
		t.Errorf("expired entry should refetch; got %d fetches", n)
	}
}

func TestCacheSweepOverSoftCap(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{fn: func(string) (*models.VideoMetadata, error) { return goodMetadata(), nil }}
	s := newService(f, &fakeArchive{})

	now := time.Now()
	s.now = func() time.Time { return now }

	// Fill past the cap with entries that will all be expired by the time
	// the sweep runs.
	for i := 0; i <= cacheSoftCap; i++ {
		id := fmt.Sprintf("sweepvid%03d", i)
		s.storeResponse(id, models.ValidationResponse{IsValidURL: true})
	}
	now = now.Add(cacheTTL + time.Second)
	s.storeResponse("freshvideo1", models.ValidationResponse{IsValidURL: true})

	s.mu.Lock()
	size := len(s.cache)
	s.mu.Unlock()
	if size != 1 {
		t.Errorf("sweep left %d entries, want 1", size)
	}
}

func TestValidateInvalidURL(t *testing.T) {
	t.Parallel()

	s := newService(&fakeFetcher{fn: func(string) (*models.VideoMetadata, error) {
		t.Error("fetcher should not run for invalid URLs")
		return nil, nil
	}}, &fakeArchive{})

	resp := s.Validate(context.Background(), "https://vimeo.com/123456789")
	if resp.IsValidURL || resp.Error != "Invalid YouTube URL format" {
		t.Errorf("unexpected response: %+v", resp)
	}

	resp = s.Validate(context.Background(), "")
	if resp.IsValidURL || resp.Error != "Invalid URL provided" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestValidateErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		wantErr   string
		wantCode  string
		wantValid bool
	}{
		{
			name: "cookies required",
			err: &ytdlp.RunError{
				Code:    ytdlp.CodeCookiesRequired,
				Message: "Bot detection encountered. Please set cookies in your Configuration or try different cookies to resolve this issue.",
			},
			wantErr:  "Bot detection encountered. Please set cookies in your Configuration or try different cookies to resolve this issue.",
			wantCode: "COOKIES_REQUIRED",
		},
		{
			name:    "timeout",
			err:     errors.New("failed to fetch video metadata: request timed out"),
			wantErr: "Request timed out. Please try again.",
		},
		{
			name:    "unavailable",
			err:     errors.New("ERROR: [youtube] dQw4w9WgXcQ: Video unavailable"),
			wantErr: "Video is unavailable or has been removed",
		},
		{
			name:    "generic",
			err:     errors.New("something odd happened"),
			wantErr: "something odd happened",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			f := &fakeFetcher{fn: func(string) (*models.VideoMetadata, error) { return nil, tc.err }}
			s := newService(f, &fakeArchive{})

			resp := s.Validate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
			if resp.IsValidURL != tc.wantValid {
				t.Errorf("IsValidURL = %v", resp.IsValidURL)
			}
			if resp.Error != tc.wantErr {
				t.Errorf("Error = %q, want %q", resp.Error, tc.wantErr)
			}
			if resp.ErrorCode != tc.wantCode {
				t.Errorf("ErrorCode = %q, want %q", resp.ErrorCode, tc.wantCode)
			}
		})
	}
}

func TestValidateMembersOnly(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{fn: func(string) (*models.VideoMetadata, error) {
		return nil, errors.New("ERROR: [youtube] aaaaaaaaaaa: Join this channel to get access to members-only content")
	}}
	s := newService(f, &fakeArchive{})

	resp := s.Validate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !resp.IsValidURL || !resp.IsMembersOnly {
		t.Fatalf("unexpected response: %+v", resp)
	}
	// The ID embedded in the error line wins over the parsed one.
	if resp.Metadata == nil || resp.Metadata.YoutubeID != "aaaaaaaaaaa" {
		t.Errorf("unexpected metadata: %+v", resp.Metadata)
	}
	if resp.Metadata.Availability != "subscriber_only" || resp.Metadata.VideoTitle != "Members-only video" {
		t.Errorf("unexpected metadata: %+v", resp.Metadata)
	}
}

func TestValidateCoalescesConcurrentLookups(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{
		fn:      func(string) (*models.VideoMetadata, error) { return goodMetadata(), nil },
		release: make(chan struct{}),
	}
	s := newService(f, &fakeArchive{})

	const callers = 5
	var wg sync.WaitGroup
	results := make([]models.ValidationResponse, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Validate(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
		}(i)
	}

	// Give the callers time to pile up on the in-flight fetch.
	time.Sleep(100 * time.Millisecond)
	close(f.release)
	wg.Wait()

	if n := f.calls.Load(); n != 1 {
		t.Errorf("expected exactly 1 metadata fetch, got %d", n)
	}
	for i, r := range results {
		if !r.IsValidURL || r.Metadata == nil || r.Metadata.YoutubeID != "dQw4w9WgXcQ" {
			t.Errorf("caller %d got %+v", i, r)
		}
	}
}
