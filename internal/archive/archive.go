// Package archive manages the yt-dlp download archive file. Each line is
// "<extractor> <id>", and yt-dlp itself appends to the same file during
// downloads, so reads always go back to disk.
package archive

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"plextube/internal/domain/consts"
)

// Store reads and mutates a download archive file. The mutex only guards
// writers within this process; yt-dlp appends unlocked, which is safe
// because appends are line-atomic at these sizes.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the archive file location, for handing to yt-dlp.
func (s *Store) Path() string { return s.path }

// Contains reports whether the YouTube video id has been archived.
// A missing archive file means nothing is archived yet.
func (s *Store) Contains(id string) (bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	want := consts.ArchivePrefix + " " + id
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == want {
			return true, nil
		}
	}
	if err := sc.Err(); err != nil {
		return false, fmt.Errorf("reading archive: %w", err)
	}
	return false, nil
}

// Add records id as downloaded. Adding an id twice is a no-op.
func (s *Store) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	present, err := s.Contains(id)
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating archive directory: %w", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening archive for append: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s %s\n", consts.ArchivePrefix, id); err != nil {
		return fmt.Errorf("appending to archive: %w", err)
	}
	return nil
}

// Remove drops id from the archive so yt-dlp will re-download it. The file
// is rewritten through a temp file and renamed into place.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading archive: %w", err)
	}

	drop := consts.ArchivePrefix + " " + id
	kept := make([]string, 0, 64)
	removed := false
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == drop {
			removed = true
			continue
		}
		if line != "" {
			kept = append(kept, line)
		}
	}
	if !removed {
		return nil
	}

	out := ""
	if len(kept) > 0 {
		out = strings.Join(kept, "\n") + "\n"
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing archive: %w", err)
	}
	return nil
}
