package ytdlp

import (
	"slices"
	"testing"
)

func TestMetadataFetchArgs(t *testing.T) {
	t.Parallel()

	b := &Builder{CookiePath: "/tmp/cookies.txt", CookiesFromBrowser: "firefox"}
	args := b.MetadataFetchArgs("https://www.youtube.com/watch?v=dQw4w9WgXcQ")

	// Cookie file wins over browser cookies.
	if i := slices.Index(args, "--cookies"); i < 0 || args[i+1] != "/tmp/cookies.txt" {
		t.Errorf("missing cookie file args: %v", args)
	}
	if slices.Contains(args, "--cookies-from-browser") {
		t.Errorf("browser cookies should be suppressed: %v", args)
	}
	for _, want := range []string{"--skip-download", "--dump-single-json", "-4"} {
		if !slices.Contains(args, want) {
			t.Errorf("missing %s in %v", want, args)
		}
	}
	if args[len(args)-1] != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("URL must be last: %v", args)
	}
}

func TestMetadataFetchArgsBrowserFallback(t *testing.T) {
	t.Parallel()

	b := &Builder{CookiesFromBrowser: "firefox"}
	args := b.MetadataFetchArgs("u")
	if i := slices.Index(args, "--cookies-from-browser"); i < 0 || args[i+1] != "firefox" {
		t.Errorf("missing browser cookie args: %v", args)
	}
}

func TestDownloadArgs(t *testing.T) {
	t.Parallel()

	b := &Builder{ArchivePath: "/data/archive.txt", SleepRequests: "2"}
	args := b.DownloadArgs("https://youtu.be/abc", "/data/Chan/%(title)s.%(ext)s", 1080)

	wantFormat := "bestvideo[height<=1080]+bestaudio/best[height<=1080]"
	if i := slices.Index(args, "-f"); i < 0 || args[i+1] != wantFormat {
		t.Errorf("unexpected format selection: %v", args)
	}
	if i := slices.Index(args, "--download-archive"); i < 0 || args[i+1] != "/data/archive.txt" {
		t.Errorf("missing archive args: %v", args)
	}
	if i := slices.Index(args, "--sleep-requests"); i < 0 || args[i+1] != "2" {
		t.Errorf("missing sleep args: %v", args)
	}
	if i := slices.Index(args, "-o"); i < 0 || args[i+1] != "/data/Chan/%(title)s.%(ext)s" {
		t.Errorf("missing output template: %v", args)
	}
	if args[len(args)-1] != "https://youtu.be/abc" {
		t.Errorf("URL must be last: %v", args)
	}
}

func TestDownloadArgsNoQualityCap(t *testing.T) {
	t.Parallel()

	b := &Builder{SleepRequests: "not-a-number"}
	args := b.DownloadArgs("u", "o", 0)

	if i := slices.Index(args, "-f"); i < 0 || args[i+1] != "bestvideo+bestaudio/best" {
		t.Errorf("expected uncapped format: %v", args)
	}
	if slices.Contains(args, "--sleep-requests") {
		t.Errorf("non-numeric sleep interval should be dropped: %v", args)
	}
	if slices.Contains(args, "--download-archive") {
		t.Errorf("archive args without path: %v", args)
	}
}
