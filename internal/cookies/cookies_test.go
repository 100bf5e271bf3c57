package cookies

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBaseDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"https://www.youtube.com/watch?v=abc", "youtube.com"},
		{"https://music.youtube.com/", "youtube.com"},
		{"https://youtu.be/abc", "youtu.be"},
	}
	for _, tc := range tests {
		got, err := baseDomain(tc.in)
		if err != nil {
			t.Errorf("baseDomain(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("baseDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWriteNetscapeFile(t *testing.T) {
	t.Parallel()

	expires := time.Unix(1924992000, 0)
	cookies := []*http.Cookie{
		{Name: "SID", Value: "abc123", Path: "/", Domain: "www.youtube.com", Secure: true, Expires: expires},
		{Name: "session", Value: "xyz", Path: "/", Domain: ".youtube.com"},
	}

	path := filepath.Join(t.TempDir(), "cookies.txt")
	if err := writeNetscapeFile(cookies, path); err != nil {
		t.Fatalf("writeNetscapeFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)

	if !strings.HasPrefix(got, "# Netscape HTTP Cookie File\n") {
		t.Errorf("missing Netscape header:\n%s", got)
	}
	// Multi-label domains gain a leading dot, already-dotted ones do not.
	if !strings.Contains(got, ".www.youtube.com\tFALSE\t/\tTRUE\t1924992000\tSID\tabc123\n") {
		t.Errorf("missing SID line:\n%s", got)
	}
	if !strings.Contains(got, ".youtube.com\tFALSE\t/\tFALSE\t0\tsession\txyz\n") {
		t.Errorf("missing session line:\n%s", got)
	}
}
