// Package ytdlp runs the yt-dlp binary and classifies its failures.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"plextube/internal/domain/consts"
	"plextube/internal/models"

	"github.com/rs/zerolog/log"
)

// killGrace is how long a timed-out process gets to exit after SIGTERM
// before it is killed outright.
const killGrace = time.Second

// DefaultMetadataTimeout bounds single-video metadata fetches.
const DefaultMetadataTimeout = 60 * time.Second

// Options control a single invocation.
type Options struct {
	// Timeout kills the process after the given duration. Zero means no
	// deadline beyond ctx.
	Timeout time.Duration
	// PipeToFile streams stdout to the named file instead of buffering it.
	// Parent directories are created as needed.
	PipeToFile string
}

// ArgBuilder assembles yt-dlp argument lists from configuration.
type ArgBuilder interface {
	MetadataFetchArgs(url string) []string
}

// Runner executes a yt-dlp binary. The binary path is fixed at construction
// so tests can substitute a stand-in.
type Runner struct {
	bin     string
	builder ArgBuilder
}

// NewRunner returns a Runner for the given binary path. An empty path falls
// back to resolving "yt-dlp" on PATH.
func NewRunner(bin string, builder ArgBuilder) *Runner {
	if bin == "" {
		bin = "yt-dlp"
	}
	return &Runner{bin: bin, builder: builder}
}

// Run executes the binary with args and returns its captured stdout.
//
// Failures come back as *RunError. Bot detection in stderr takes precedence
// over the exit status, so a download that half-succeeded before YouTube
// started refusing requests still surfaces as CodeCookiesRequired.
func (r *Runner) Run(ctx context.Context, args []string, opts Options) (string, error) {
	if len(args) == 0 {
		return "", &RunError{Code: CodeInvalidArgs, Message: "no arguments provided"}
	}

	cmd := exec.Command(r.bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stderr = &stderr

	var stdoutPipe io.ReadCloser
	usePipe := opts.PipeToFile != ""
	if usePipe {
		var err error
		if stdoutPipe, err = cmd.StdoutPipe(); err != nil {
			return "", fmt.Errorf("attaching stdout pipe: %w", err)
		}
	} else {
		cmd.Stdout = &stdout
	}

	log.Debug().Str("bin", r.bin).Strs("args", args).Msg("Running yt-dlp")

	if err := cmd.Start(); err != nil {
		if isNotFound(err) {
			return "", &RunError{
				Code:    CodeNotFound,
				Message: fmt.Sprintf("%s not found. Please ensure yt-dlp is installed.", r.bin),
				Err:     err,
			}
		}
		return "", fmt.Errorf("starting %s: %w", r.bin, err)
	}

	// The capture file is opened after spawn. If it cannot be created there
	// is nowhere for output to go, so the process is killed rather than
	// left streaming into a closed pipe.
	var copyDone chan error
	if usePipe {
		outFile, err := createOutputFile(opts.PipeToFile)
		if err != nil {
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			return "", &RunError{
				Code:    CodeOutputFile,
				Message: "failed to create output file: " + err.Error(),
				Err:     err,
			}
		}
		copyDone = make(chan error, 1)
		go func() {
			_, cerr := io.Copy(outFile, stdoutPipe)
			if clErr := outFile.Close(); cerr == nil {
				cerr = clErr
			}
			copyDone <- cerr
		}()
	}

	stop := r.watchDeadline(ctx, cmd, opts.Timeout)

	if usePipe {
		if cerr := <-copyDone; cerr != nil {
			log.Warn().Err(cerr).Str("file", opts.PipeToFile).Msg("Output capture truncated")
		}
	}
	waitErr := cmd.Wait()
	stop()

	return r.classify(waitErr, stdout.String(), stderr.String(), opts.Timeout)
}

// watchDeadline arms the timeout and context kill paths. The returned stop
// function must be called once the process has exited.
func (r *Runner) watchDeadline(ctx context.Context, cmd *exec.Cmd, timeout time.Duration) (stop func()) {
	done := make(chan struct{})

	var mu sync.Mutex
	var hardTimer *time.Timer

	terminate := func() {
		// SIGTERM first so yt-dlp can finalize partial files, then a
		// hard kill if it lingers.
		_ = cmd.Process.Signal(syscall.SIGTERM)
		mu.Lock()
		hardTimer = time.AfterFunc(killGrace, func() {
			_ = cmd.Process.Kill()
		})
		mu.Unlock()
	}

	var softTimer *time.Timer
	if timeout > 0 {
		softTimer = time.AfterFunc(timeout, terminate)
	}

	go func() {
		select {
		case <-ctx.Done():
			terminate()
		case <-done:
		}
	}()

	return func() {
		close(done)
		if softTimer != nil {
			softTimer.Stop()
		}
		mu.Lock()
		if hardTimer != nil {
			hardTimer.Stop()
		}
		mu.Unlock()
	}
}

// classify maps the process outcome to a result or a *RunError.
func (r *Runner) classify(waitErr error, stdout, stderr string, timeout time.Duration) (string, error) {
	if hasBotDetection(stderr) {
		return "", &RunError{
			Code:    CodeCookiesRequired,
			Message: "Bot detection encountered. Please set cookies in your Configuration or try different cookies to resolve this issue.",
			Err:     waitErr,
		}
	}

	if waitErr == nil {
		return stdout, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		// -1 means the process died from a signal, which here only the
		// deadline paths deliver.
		if exitErr.ExitCode() == -1 {
			return "", &RunError{
				Code:    CodeTimeout,
				Message: fmt.Sprintf("%s process timed out after %dms", r.bin, timeout.Milliseconds()),
				Err:     waitErr,
			}
		}
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = fmt.Sprintf("%s process exited with code %d", r.bin, exitErr.ExitCode())
		}
		return "", &RunError{Code: CodeExit, Message: msg, Err: waitErr}
	}

	return "", fmt.Errorf("waiting on %s: %w", r.bin, waitErr)
}

// FetchMetadata runs a metadata-only probe for url and decodes the JSON
// document yt-dlp prints.
func (r *Runner) FetchMetadata(ctx context.Context, url string, timeout time.Duration) (*models.VideoMetadata, error) {
	if timeout <= 0 {
		timeout = DefaultMetadataTimeout
	}

	out, err := r.Run(ctx, r.builder.MetadataFetchArgs(url), Options{Timeout: timeout})
	if err != nil {
		if ErrCode(err) == CodeTimeout {
			return nil, fmt.Errorf("failed to fetch video metadata: request timed out: %w", err)
		}
		return nil, fmt.Errorf("failed to fetch video metadata: %w", err)
	}

	var meta models.VideoMetadata
	if err := json.Unmarshal([]byte(out), &meta); err != nil {
		return nil, fmt.Errorf("failed to fetch video metadata: decoding yt-dlp output: %w", err)
	}
	return &meta, nil
}

func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

func hasBotDetection(stderr string) bool {
	lower := strings.ToLower(stderr)
	for _, phrase := range consts.BotDetectionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
