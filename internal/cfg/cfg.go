// Package cfg wires command-line flags and the optional config file into
// Viper.
package cfg

import (
	"fmt"
	"os"
	"path/filepath"

	"plextube/internal/domain/keys"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "plextube",
	Short: "PlexTube downloads YouTube channels into a Plex library",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Lookup("help").Changed {
			return nil
		}
		viper.Set("execute", true)
		return nil
	},
}

// Execute parses flags and the config file. The caller checks
// viper.GetBool("execute") to know whether to start the server.
func Execute() error {
	initFlags()
	if err := rootCmd.Execute(); err != nil {
		return err
	}
	return loadConfigFile()
}

func initFlags() {
	f := rootCmd.PersistentFlags()

	f.String(keys.ConfigFile, "", "Path to a TOML/YAML config file")
	f.String(keys.DownloadDir, defaultDownloadDir(), "Library root where channel folders are created")
	f.String(keys.DefaultSubfolder, "", "Global default subfolder for channels that do not pin one")
	f.Int(keys.ServerPort, 3087, "HTTP API port")

	f.String(keys.YtDlpPath, "yt-dlp", "Path to the yt-dlp binary")
	f.String(keys.CookiePath, "", "Netscape-format cookies file for yt-dlp")
	f.String(keys.CookiesFrBrowser, "", "Browser to read cookies from (e.g. firefox)")
	f.String(keys.SleepRequests, "", "Seconds to sleep between yt-dlp requests")
	f.String(keys.PreferredQuality, "1080", "Default video quality cap")
	f.String(keys.DownloadArchive, "", "yt-dlp download archive file (defaults under the library root)")
	f.Int(keys.MetadataTimeoutMS, 10000, "Metadata fetch timeout in milliseconds")

	f.String(keys.PlexURL, "", "Plex server base URL")
	f.String(keys.PlexToken, "", "Plex auth token")
	f.String(keys.PlexSection, "", "Plex library section ID to refresh")

	f.Int(keys.DebugLevel, 0, "Debug level (0-2)")
	f.String(keys.LogFile, "", "Log file path (in addition to stderr)")

	if err := viper.BindPFlags(f); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind flags: %v\n", err)
	}
}

// loadConfigFile merges an optional config file under the flag values.
func loadConfigFile() error {
	path := viper.GetString(keys.ConfigFile)
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.MergeInConfig(); err != nil {
		return fmt.Errorf("reading config file %q: %w", path, err)
	}
	return nil
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/data/youtube"
	}
	return filepath.Join(home, "youtube")
}

// ArchivePath returns the configured download archive path, defaulting to a
// file under the library root.
func ArchivePath() string {
	if p := viper.GetString(keys.DownloadArchive); p != "" {
		return p
	}
	return filepath.Join(viper.GetString(keys.DownloadDir), "complete.list")
}
