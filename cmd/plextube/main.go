// Package main is the entrypoint of PlexTube.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"plextube/internal/archive"
	"plextube/internal/cfg"
	"plextube/internal/channelsettings"
	"plextube/internal/cookies"
	"plextube/internal/database"
	"plextube/internal/domain/keys"
	"plextube/internal/downloads"
	"plextube/internal/jobs"
	"plextube/internal/logging"
	"plextube/internal/plex"
	"plextube/internal/repo"
	"plextube/internal/server"
	"plextube/internal/videovalidation"
	"plextube/internal/ytdlp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "PlexTube exiting with error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := cfg.Execute(); err != nil {
		return err
	}
	if !viper.GetBool("execute") {
		return nil
	}

	if err := logging.Setup(viper.GetString(keys.LogFile), viper.GetInt(keys.DebugLevel)); err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	downloadDir := viper.GetString(keys.DownloadDir)
	if err := os.MkdirAll(downloadDir, 0o755); err != nil {
		return fmt.Errorf("creating download directory: %w", err)
	}

	db, err := database.InitDB(filepath.Join(downloadDir, "plextube.db"))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	stores := repo.InitStores(db.DB)

	builder := &ytdlp.Builder{
		CookiePath:         resolveCookiePath(downloadDir),
		CookiesFromBrowser: viper.GetString(keys.CookiesFrBrowser),
		SleepRequests:      viper.GetString(keys.SleepRequests),
		ArchivePath:        cfg.ArchivePath(),
	}
	runner := ytdlp.NewRunner(viper.GetString(keys.YtDlpPath), builder)
	archiveStore := archive.NewStore(cfg.ArchivePath())

	plexClient := plex.NewClient(
		viper.GetString(keys.PlexURL),
		viper.GetString(keys.PlexToken),
		viper.GetString(keys.PlexSection),
	)

	settings := channelsettings.NewService(
		stores.Channels, stores.Videos, stores.Downloads, plexClient,
		channelsettings.Config{
			DownloadDir:      downloadDir,
			DefaultSubfolder: viper.GetString(keys.DefaultSubfolder),
		},
	)
	validator := videovalidation.NewService(runner, archiveStore)
	registry := jobs.NewRegistry()

	downloader := downloads.NewDownloader(
		runner, runner, builder,
		stores.Channels, stores.Videos, stores.Downloads, archiveStore,
		downloads.Config{
			DownloadDir:      downloadDir,
			DefaultSubfolder: viper.GetString(keys.DefaultSubfolder),
			PreferredQuality: viper.GetInt(keys.PreferredQuality),
		},
	)

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	defer cancel()

	addr := fmt.Sprintf(":%d", viper.GetInt(keys.ServerPort))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.New(settings, validator, registry, downloader).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("library", downloadDir).Msg("PlexTube started")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// resolveCookiePath returns the cookies file yt-dlp should use. An explicit
// file wins; otherwise browser cookies are exported once at startup, so a
// logged-in browser on the same host gets past bot checks without manual
// cookie handling.
func resolveCookiePath(downloadDir string) string {
	if path := viper.GetString(keys.CookiePath); path != "" {
		return path
	}
	if viper.GetString(keys.CookiesFrBrowser) != "" {
		// yt-dlp reads the browser store directly in this mode.
		return ""
	}

	exported := filepath.Join(downloadDir, "cookies.txt")
	wrote, err := cookies.NewManager().ExportToFile("https://www.youtube.com", exported)
	if err != nil || !wrote {
		if err != nil {
			log.Debug().Err(err).Msg("Browser cookie export failed")
		}
		return ""
	}
	return exported
}
