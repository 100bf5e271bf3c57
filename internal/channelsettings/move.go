package channelsettings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	moveAttempts   = 3
	moveRetryDelay = 200 * time.Millisecond
)

// moveDir relocates a directory, retrying transient failures and falling
// back to copy-and-delete when the rename crosses filesystems.
func moveDir(oldPath, newPath string) error {
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	var err error
	for attempt := 1; attempt <= moveAttempts; attempt++ {
		err = os.Rename(oldPath, newPath)
		if err == nil {
			return nil
		}
		if isCrossDevice(err) {
			log.Debug().Str("from", oldPath).Str("to", newPath).
				Msg("Cross-device rename, copying instead")
			return copyThenRemove(oldPath, newPath)
		}
		if attempt < moveAttempts {
			time.Sleep(moveRetryDelay)
		}
	}
	return fmt.Errorf("moving %q to %q: %w", oldPath, newPath, err)
}

func isCrossDevice(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.EXDEV
}

func copyThenRemove(oldPath, newPath string) error {
	if err := copyTree(oldPath, newPath); err != nil {
		// Leave the source untouched; a partial destination is cleaned
		// up so a retry starts fresh.
		_ = os.RemoveAll(newPath)
		return err
	}
	return os.RemoveAll(oldPath)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
